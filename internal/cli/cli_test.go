package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/99designs/keyring"
	"github.com/mousetail/mousetail/internal/config"
	"github.com/mousetail/mousetail/internal/credentials"
	"github.com/mousetail/mousetail/internal/secrets"
)

type cliEnv struct {
	ring       keyring.Keyring
	configPath string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(home, "state"))
	t.Setenv("ANKI_BASE", filepath.Join(home, "anki"))

	env := &cliEnv{
		ring:       keyring.NewArrayKeyring(nil),
		configPath: filepath.Join(home, "config", "mousetail", "config.toml"),
	}
	oldOpen := openStore
	openStore = func(config.KeyringConfig) (credentials.SecretStore, error) {
		return secrets.New(env.ring, "test"), nil
	}
	t.Cleanup(func() { openStore = oldOpen })
	return env
}

func (e *cliEnv) run(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	oldIn, oldOut, oldErr := rootStdin, rootStdout, rootStderr
	defer func() {
		rootStdin, rootStdout, rootStderr = oldIn, oldOut, oldErr
	}()

	var out, errOut bytes.Buffer
	rootStdin = strings.NewReader(stdin)
	rootStdout = &out
	rootStderr = &errOut
	code := Run(args)
	return code, out.String(), errOut.String()
}

func TestVersionCommand(t *testing.T) {
	env := newCLIEnv(t)
	old := buildVersion
	buildVersion = "1.2.3"
	defer func() { buildVersion = old }()

	code, out, _ := env.run(t, "", "version")
	if code != ExitOK || out != "mousetail 1.2.3\n" {
		t.Fatalf("version = (%d, %q)", code, out)
	}
}

func TestUnknownCommandIsUsageError(t *testing.T) {
	env := newCLIEnv(t)
	code, _, errOut := env.run(t, "", "bogus")
	if code != ExitUsageErr {
		t.Fatalf("code = %d, want %d", code, ExitUsageErr)
	}
	if !strings.Contains(errOut, "bogus") {
		t.Fatalf("stderr = %q", errOut)
	}
}

func TestCredentialsLifecycle(t *testing.T) {
	env := newCLIEnv(t)

	code, out, errOut := env.run(t, "s3cret\n", "credentials", "save", "--username", "alice", "--password-stdin")
	if code != ExitOK {
		t.Fatalf("save code = %d, stderr %q", code, errOut)
	}
	if !strings.Contains(out, "Credentials saved securely for user 'alice' for AnkiWeb") {
		t.Fatalf("save output = %q", out)
	}

	code, out, _ = env.run(t, "", "credentials", "show")
	if code != ExitOK || strings.Contains(out, "s3cret") || !strings.Contains(out, `"username": "alice"`) {
		t.Fatalf("show = (%d, %q), want masked password", code, out)
	}
	code, out, _ = env.run(t, "", "credentials", "show", "--reveal")
	if code != ExitOK || !strings.Contains(out, `"password": "s3cret"`) {
		t.Fatalf("show --reveal = (%d, %q)", code, out)
	}

	if code, _, _ := env.run(t, "", "credentials", "delete"); code != ExitOK {
		t.Fatalf("delete code = %d", code)
	}
	code, out, _ = env.run(t, "", "credentials", "show")
	if code != ExitToolErr || !strings.Contains(out, `"code": "NoCredentials"`) {
		t.Fatalf("show after delete = (%d, %q)", code, out)
	}
}

func TestCredentialsSaveNeedsPasswordStdin(t *testing.T) {
	env := newCLIEnv(t)
	code, _, errOut := env.run(t, "", "credentials", "save", "--username", "alice")
	if code != ExitUsageErr || !strings.Contains(errOut, "--password-stdin") {
		t.Fatalf("save = (%d, %q)", code, errOut)
	}
	keys, _ := env.ring.Keys()
	if len(keys) != 0 {
		t.Fatalf("keys = %v, want none", keys)
	}
}

func TestSyncWithoutCredentialsFails(t *testing.T) {
	env := newCLIEnv(t)
	code, out, _ := env.run(t, "", "sync", "--no-media")
	if code != ExitToolErr {
		t.Fatalf("code = %d, want %d", code, ExitToolErr)
	}
	if !strings.Contains(out, `"code": "NoCredentials"`) || !strings.Contains(out, "save_sync_credentials") {
		t.Fatalf("output = %q", out)
	}
}

func TestCollectionsWithNoProfiles(t *testing.T) {
	env := newCLIEnv(t)
	code, out, errOut := env.run(t, "", "collections")
	if code != ExitOK {
		t.Fatalf("code = %d, stderr %q", code, errOut)
	}
	if !strings.Contains(out, `"count": 0`) {
		t.Fatalf("output = %q", out)
	}
}

func TestConfigSetEndpoint(t *testing.T) {
	env := newCLIEnv(t)

	code, out, errOut := env.run(t, "", "config", "set-endpoint", "https://sync.example")
	if code != ExitOK {
		t.Fatalf("set-endpoint code = %d, stderr %q", code, errOut)
	}
	if !strings.Contains(out, "https://sync.example") {
		t.Fatalf("output = %q", out)
	}
	cfg, err := config.LoadFrom(env.configPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sync.Endpoint != "https://sync.example" {
		t.Fatalf("Sync.Endpoint = %q", cfg.Sync.Endpoint)
	}

	if code, _, _ := env.run(t, "", "config", "set-endpoint", "--clear"); code != ExitOK {
		t.Fatalf("--clear code = %d", code)
	}
	cfg, err = config.LoadFrom(env.configPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sync.Endpoint != "" {
		t.Fatalf("Sync.Endpoint = %q after clear", cfg.Sync.Endpoint)
	}

	if code, _, _ := env.run(t, "", "config", "set-endpoint"); code != ExitUsageErr {
		t.Fatalf("no args code = %d, want %d", code, ExitUsageErr)
	}
	if code, _, _ := env.run(t, "", "config", "set-endpoint", "ftp://nope"); code != ExitUsageErr {
		t.Fatalf("bad url code = %d, want %d", code, ExitUsageErr)
	}
}

func TestInvalidConfigIsUsageError(t *testing.T) {
	env := newCLIEnv(t)
	if err := os.MkdirAll(filepath.Dir(env.configPath), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(env.configPath, []byte("[log]\nlevel = \"loud\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	code, _, errOut := env.run(t, "", "collections")
	if code != ExitUsageErr || !strings.Contains(errOut, "invalid config") {
		t.Fatalf("collections = (%d, %q)", code, errOut)
	}
}

func TestConfigFlagOverridesPath(t *testing.T) {
	env := newCLIEnv(t)
	custom := filepath.Join(t.TempDir(), "custom.toml")
	code, out, _ := env.run(t, "", "--config", custom, "config", "path")
	if code != ExitOK || strings.TrimSpace(out) != custom {
		t.Fatalf("config path = (%d, %q), want %s", code, out, custom)
	}
}
