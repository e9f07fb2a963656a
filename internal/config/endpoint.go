package config

import "strings"

// EndpointLoader reads the fallback sync endpoint from the settings
// documents. Every call re-reads the files; nothing is cached.
type EndpointLoader struct {
	Path       string
	LegacyPath string
}

// SyncEndpoint returns the configured endpoint. Missing or unreadable
// documents and missing keys all report found=false; this never fails.
func (l EndpointLoader) SyncEndpoint() (string, bool) {
	if l.Path != "" {
		if cfg, err := loadFrom(l.Path, true); err == nil {
			if endpoint := strings.TrimSpace(cfg.Sync.Endpoint); endpoint != "" {
				return endpoint, true
			}
		}
	}
	if l.LegacyPath != "" {
		if endpoint, err := loadLegacyEndpoint(l.LegacyPath); err == nil && endpoint != "" {
			return endpoint, true
		}
	}
	return "", false
}

// StaticEndpoint is an endpoint source with a fixed value, for callers that
// already hold a loaded Config.
type StaticEndpoint string

// SyncEndpoint implements the same contract as EndpointLoader.
func (s StaticEndpoint) SyncEndpoint() (string, bool) {
	v := strings.TrimSpace(string(s))
	return v, v != ""
}
