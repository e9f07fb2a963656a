package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, raw string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(raw), 0600); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Sync.Endpoint != "" {
		t.Fatalf("Sync.Endpoint = %q, want empty", cfg.Sync.Endpoint)
	}
	if cfg.Keyring.Service != DefaultKeyringService {
		t.Fatalf("Keyring.Service = %q, want %q", cfg.Keyring.Service, DefaultKeyringService)
	}
	if cfg.Engine.IdleTimeoutDuration() != 60*time.Second {
		t.Fatalf("IdleTimeoutDuration() = %s, want 60s", cfg.Engine.IdleTimeoutDuration())
	}
}

func TestLoadFromParsesAllSections(t *testing.T) {
	t.Setenv("ENGINE_TOKEN", "tok")

	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `
[sync]
endpoint = "https://sync.example.com"

[collection]
profile = "User 1"

[engine]
url = "http://127.0.0.1:9911/mcp"
headers = { Authorization = "Bearer ${ENGINE_TOKEN}" }
idle_timeout = "5s"

[keyring]
service = "custom-service"
backends = ["file"]

[log]
level = "debug"
format = "json"
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Sync.Endpoint != "https://sync.example.com" {
		t.Fatalf("Sync.Endpoint = %q", cfg.Sync.Endpoint)
	}
	if cfg.Collection.Profile != "User 1" {
		t.Fatalf("Collection.Profile = %q", cfg.Collection.Profile)
	}
	if !cfg.Engine.IsHTTP() || cfg.Engine.IsStdio() {
		t.Fatalf("engine transport = %#v, want http only", cfg.Engine)
	}
	if got := cfg.Engine.Headers["Authorization"]; got != "Bearer tok" {
		t.Fatalf("Authorization header = %q, want %q", got, "Bearer tok")
	}
	if cfg.Engine.IdleTimeoutDuration() != 5*time.Second {
		t.Fatalf("IdleTimeoutDuration() = %s, want 5s", cfg.Engine.IdleTimeoutDuration())
	}
	if cfg.Keyring.Service != "custom-service" || len(cfg.Keyring.Backends) != 1 {
		t.Fatalf("Keyring = %#v", cfg.Keyring)
	}
	if cfg.Keyring.PasswordEnv != DefaultPasswordEnv {
		t.Fatalf("Keyring.PasswordEnv = %q, want default", cfg.Keyring.PasswordEnv)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Fatalf("Log = %#v", cfg.Log)
	}
}

func TestLoadFromRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[sync\nendpoint = ")

	if _, err := LoadFrom(path); err == nil {
		t.Fatal("LoadFrom() error = nil, want parse error")
	}
}

func TestLoadForEditFromKeepsPlaceholders(t *testing.T) {
	t.Setenv("SYNC_HOST", "sync.example.com")

	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `
[sync]
endpoint = "https://${SYNC_HOST}"
`)

	cfg, err := LoadForEditFrom(path)
	if err != nil {
		t.Fatalf("LoadForEditFrom() error = %v", err)
	}
	if cfg.Sync.Endpoint != "https://${SYNC_HOST}" {
		t.Fatalf("Sync.Endpoint = %q, want raw placeholder", cfg.Sync.Endpoint)
	}
}

func TestMergeLegacySyncFillsEmptyEndpoint(t *testing.T) {
	legacy := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, legacy, `{"sync": {"endpoint": "https://legacy.example"}, "logging": {"level": "INFO"}}`)

	cfg := &Config{}
	if err := MergeLegacySync(cfg, legacy); err != nil {
		t.Fatalf("MergeLegacySync() error = %v", err)
	}
	if cfg.Sync.Endpoint != "https://legacy.example" {
		t.Fatalf("Sync.Endpoint = %q, want legacy endpoint", cfg.Sync.Endpoint)
	}
}

func TestMergeLegacySyncKeepsPrimaryEndpoint(t *testing.T) {
	legacy := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, legacy, `{"sync": {"endpoint": "https://legacy.example"}}`)

	cfg := &Config{Sync: SyncConfig{Endpoint: "https://primary.example"}}
	if err := MergeLegacySync(cfg, legacy); err != nil {
		t.Fatalf("MergeLegacySync() error = %v", err)
	}
	if cfg.Sync.Endpoint != "https://primary.example" {
		t.Fatalf("Sync.Endpoint = %q, want primary endpoint", cfg.Sync.Endpoint)
	}
}

func TestMergeLegacySyncMissingFileIsNotAnError(t *testing.T) {
	cfg := &Config{}
	if err := MergeLegacySync(cfg, filepath.Join(t.TempDir(), "config.json")); err != nil {
		t.Fatalf("MergeLegacySync() error = %v, want nil", err)
	}
}

func TestSetSyncEndpointPreservesOtherSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `
[engine]
command = "python3"
args = ["-m", "mousetail_engine"]
`)

	if err := SetSyncEndpoint(path, "https://sync.example.com"); err != nil {
		t.Fatalf("SetSyncEndpoint() error = %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Sync.Endpoint != "https://sync.example.com" {
		t.Fatalf("Sync.Endpoint = %q", cfg.Sync.Endpoint)
	}
	if cfg.Engine.Command != "python3" || strings.Join(cfg.Engine.Args, " ") != "-m mousetail_engine" {
		t.Fatalf("Engine = %#v, want preserved command", cfg.Engine)
	}

	if err := SetSyncEndpoint(path, ""); err != nil {
		t.Fatalf("SetSyncEndpoint(clear) error = %v", err)
	}
	cfg, err = LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Sync.Endpoint != "" {
		t.Fatalf("Sync.Endpoint = %q, want cleared", cfg.Sync.Endpoint)
	}
}

func TestSetSyncEndpointRejectsNonHTTPURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := SetSyncEndpoint(path, "ftp://sync.example.com"); err == nil {
		t.Fatal("SetSyncEndpoint() error = nil, want scheme error")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("config file written on invalid endpoint (stat err = %v)", err)
	}
}

func TestSaveToWritesPrivateFileWithoutTempLeftovers(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	path := filepath.Join(dir, "config.toml")

	cfg := &Config{Sync: SyncConfig{Endpoint: "https://sync.example.com"}}
	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("saved config is empty")
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("mode = %o, want 600", perm)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("dir entries = %d, want only config.toml", len(entries))
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if loaded.Sync.Endpoint != "https://sync.example.com" {
		t.Fatalf("Sync.Endpoint = %q", loaded.Sync.Endpoint)
	}
}
