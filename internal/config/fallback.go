package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// legacyDocument is the JSON settings file older installs shipped with.
// Only the sync section is read; everything else lives in config.toml now.
type legacyDocument struct {
	Sync SyncConfig `json:"sync"`
}

// MergeLegacySync fills cfg.Sync.Endpoint from the legacy JSON document
// when config.toml does not set one. A missing legacy file is not an error.
func MergeLegacySync(cfg *Config, legacyPath string) error {
	if cfg == nil || strings.TrimSpace(cfg.Sync.Endpoint) != "" || legacyPath == "" {
		return nil
	}

	endpoint, err := loadLegacyEndpoint(legacyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%s: %w", legacyPath, err)
	}
	cfg.Sync.Endpoint = endpoint
	return nil
}

func loadLegacyEndpoint(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var doc legacyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("parsing legacy JSON config: %w", err)
	}
	return expandEnvVars(strings.TrimSpace(doc.Sync.Endpoint)), nil
}
