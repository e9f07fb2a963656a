package cli

import (
	"io"
	"os"
	"runtime/debug"

	"github.com/mousetail/mousetail/internal/config"
	"github.com/mousetail/mousetail/internal/credentials"
	"github.com/mousetail/mousetail/internal/secrets"
)

var (
	rootStdin    io.Reader = os.Stdin
	rootStdout   io.Writer = os.Stdout
	rootStderr   io.Writer = os.Stderr
	buildVersion           = "dev"

	openStore = func(cfg config.KeyringConfig) (credentials.SecretStore, error) {
		return secrets.Open(cfg)
	}
)

func init() {
	buildVersion = resolveBuildVersion(buildVersion)
}

func resolveBuildVersion(defaultVersion string) string {
	if defaultVersion != "" && defaultVersion != "dev" {
		return defaultVersion
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return defaultVersion
	}
	if info.Main.Version == "" || info.Main.Version == "(devel)" {
		return defaultVersion
	}
	return info.Main.Version
}
