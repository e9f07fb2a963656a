package config

// Config is the top-level mousetail configuration.
type Config struct {
	Sync       SyncConfig       `toml:"sync"`
	Collection CollectionConfig `toml:"collection"`
	Engine     EngineConfig     `toml:"engine"`
	Keyring    KeyringConfig    `toml:"keyring"`
	Log        LogConfig        `toml:"log"`
}

// SyncConfig holds sync defaults.
type SyncConfig struct {
	// Endpoint is the fallback sync server URL. Empty means AnkiWeb.
	Endpoint string `toml:"endpoint,omitempty" json:"endpoint,omitempty"`
}

// CollectionConfig controls which collection a tool uses when the caller
// does not name one.
type CollectionConfig struct {
	AnkiBase    string `toml:"anki_base,omitempty"`
	DefaultPath string `toml:"default_path,omitempty"`
	Profile     string `toml:"profile,omitempty"`
}

// EngineConfig describes how to reach the host collection engine.
type EngineConfig struct {
	// Stdio transport
	Command string            `toml:"command,omitempty"`
	Args    []string          `toml:"args,omitempty"`
	Env     map[string]string `toml:"env,omitempty"`

	// HTTP transport
	URL     string            `toml:"url,omitempty"`
	Headers map[string]string `toml:"headers,omitempty"`

	IdleTimeout string `toml:"idle_timeout,omitempty"`
}

// KeyringConfig selects and parameterizes the credential vault.
type KeyringConfig struct {
	Service     string   `toml:"service,omitempty"`
	Backends    []string `toml:"backends,omitempty"`
	FileDir     string   `toml:"file_dir,omitempty"`
	PasswordEnv string   `toml:"password_env,omitempty"`
}

// LogConfig controls diagnostic logging on stderr.
type LogConfig struct {
	Level  string `toml:"level,omitempty"`
	Format string `toml:"format,omitempty"`
}

// Defaults.
const (
	DefaultKeyringService = "mousetail-anki-sync"
	DefaultPasswordEnv    = "MOUSETAIL_KEYRING_PASSWORD"
	DefaultIdleTimeout    = "60s"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "console"
)

// IsStdio returns true if the engine uses stdio transport.
func (e EngineConfig) IsStdio() bool {
	return e.Command != ""
}

// IsHTTP returns true if the engine uses HTTP transport.
func (e EngineConfig) IsHTTP() bool {
	return e.URL != ""
}

// IsConfigured reports whether any engine transport is set.
func (e EngineConfig) IsConfigured() bool {
	return e.IsStdio() || e.IsHTTP()
}

func applyDefaults(cfg *Config) {
	if cfg.Keyring.Service == "" {
		cfg.Keyring.Service = DefaultKeyringService
	}
	if cfg.Keyring.PasswordEnv == "" {
		cfg.Keyring.PasswordEnv = DefaultPasswordEnv
	}
	if cfg.Engine.IdleTimeout == "" {
		cfg.Engine.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
