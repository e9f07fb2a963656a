package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

var knownKeyringBackends = map[string]struct{}{
	"secret-service": {},
	"keychain":       {},
	"keyctl":         {},
	"kwallet":        {},
	"wincred":        {},
	"file":           {},
	"pass":           {},
}

var knownLogLevels = map[string]struct{}{
	"trace": {}, "debug": {}, "info": {}, "warn": {}, "warning": {}, "error": {}, "disabled": {},
}

// Validate checks configuration invariants and returns actionable errors.
func Validate(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	var errs []error
	errs = append(errs, validateSync(cfg.Sync)...)
	errs = append(errs, validateEngine(cfg.Engine)...)
	errs = append(errs, validateKeyring(cfg.Keyring)...)
	errs = append(errs, validateLog(cfg.Log)...)
	return errors.Join(errs...)
}

func validateSync(s SyncConfig) []error {
	if strings.TrimSpace(s.Endpoint) == "" {
		return nil
	}
	if err := validateHTTPURL(s.Endpoint); err != nil {
		return []error{fmt.Errorf("sync.endpoint: %w", err)}
	}
	return nil
}

func validateEngine(eng EngineConfig) []error {
	var errs []error

	hasCommand := strings.TrimSpace(eng.Command) != ""
	hasURL := strings.TrimSpace(eng.URL) != ""
	if hasCommand && hasURL {
		errs = append(errs, fmt.Errorf("engine: configure either command (stdio) or url (http), not both"))
	}

	if hasURL {
		if err := validateHTTPURL(eng.URL); err != nil {
			errs = append(errs, fmt.Errorf("engine.url: %w", err))
		}
	}

	if eng.IdleTimeout != "" {
		ttl, err := time.ParseDuration(eng.IdleTimeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("engine.idle_timeout: invalid duration %q: %w", eng.IdleTimeout, err))
		} else if ttl < 0 {
			errs = append(errs, fmt.Errorf("engine.idle_timeout: must be >= 0, got %q", eng.IdleTimeout))
		}
	}
	return errs
}

func validateKeyring(k KeyringConfig) []error {
	var errs []error
	for i, backend := range k.Backends {
		if _, ok := knownKeyringBackends[backend]; !ok {
			errs = append(errs, fmt.Errorf("keyring.backends[%d]: unknown backend %q", i, backend))
		}
	}
	return errs
}

func validateLog(l LogConfig) []error {
	var errs []error
	if l.Level != "" {
		if _, ok := knownLogLevels[strings.ToLower(l.Level)]; !ok {
			errs = append(errs, fmt.Errorf("log.level: unknown level %q", l.Level))
		}
	}
	switch l.Format {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: must be console or json, got %q", l.Format))
	}
	return errs
}

func validateHTTPURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid URL %q: missing host", raw)
	}
	return nil
}

// IdleTimeoutDuration returns the parsed engine idle timeout, falling back to the
// default when unset or invalid.
func (e EngineConfig) IdleTimeoutDuration() time.Duration {
	raw := e.IdleTimeout
	if raw == "" {
		raw = DefaultIdleTimeout
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		d, _ = time.ParseDuration(DefaultIdleTimeout)
	}
	return d
}
