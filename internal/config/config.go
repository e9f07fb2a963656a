package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"
)

var envVarRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// LoadFrom reads and parses a config file at the given path.
// If the file does not exist, it returns a default Config (no error).
func LoadFrom(path string) (*Config, error) {
	cfg, err := loadFrom(path, true)
	if err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

// LoadForEditFrom reads and parses a config file at the given path for edits.
// It intentionally skips env expansion so writes do not bake secrets.
func LoadForEditFrom(path string) (*Config, error) {
	return loadFrom(path, false)
}

func loadFrom(path string, expand bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if expand {
		expandConfigEnvVars(&cfg)
	}
	return &cfg, nil
}

func expandConfigEnvVars(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Sync.Endpoint = expandEnvVars(cfg.Sync.Endpoint)
	cfg.Collection.AnkiBase = expandEnvVars(cfg.Collection.AnkiBase)
	cfg.Collection.DefaultPath = expandEnvVars(cfg.Collection.DefaultPath)
	cfg.Keyring.FileDir = expandEnvVars(cfg.Keyring.FileDir)
	cfg.Engine = expandEngineEnvVars(cfg.Engine)
}

func expandEngineEnvVars(eng EngineConfig) EngineConfig {
	eng.Command = expandEnvVars(eng.Command)
	eng.URL = expandEnvVars(eng.URL)

	args := make([]string, len(eng.Args))
	for i := range eng.Args {
		args[i] = expandEnvVars(eng.Args[i])
	}
	if eng.Args != nil {
		eng.Args = args
	}
	eng.Env = expandStringMap(eng.Env)
	eng.Headers = expandStringMap(eng.Headers)
	return eng
}

func expandStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = expandEnvVars(v)
	}
	return out
}

// expandEnvVars replaces ${VAR_NAME} with the value of the environment variable.
func expandEnvVars(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarRe.FindStringSubmatch(match)[1]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match // leave unresolved vars as-is
	})
}
