package secrets

import (
	"fmt"
	"os"

	"github.com/99designs/keyring"
	"github.com/mousetail/mousetail/internal/config"
	"github.com/mousetail/mousetail/internal/paths"
)

var openKeyring = keyring.Open

// Open opens the credential vault described by cfg.
func Open(cfg config.KeyringConfig) (*Store, error) {
	ring, err := openKeyring(keyringConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("opening keyring %s: %w", serviceName(cfg), err)
	}
	return New(ring, serviceName(cfg)), nil
}

func serviceName(cfg config.KeyringConfig) string {
	if cfg.Service == "" {
		return config.DefaultKeyringService
	}
	return cfg.Service
}

func keyringConfig(cfg config.KeyringConfig) keyring.Config {
	service := serviceName(cfg)

	fileDir := cfg.FileDir
	if fileDir == "" {
		fileDir = paths.KeyringDir()
	}
	passwordEnv := cfg.PasswordEnv
	if passwordEnv == "" {
		passwordEnv = config.DefaultPasswordEnv
	}

	kc := keyring.Config{
		ServiceName:              service,
		KeychainName:             "login",
		KeychainTrustApplication: true,
		LibSecretCollectionName:  "login",
		KWalletAppID:             service,
		KWalletFolder:            service,
		WinCredPrefix:            service,
		PassPrefix:               service,
		FileDir:                  fileDir,
		FilePasswordFunc:         filePassword(passwordEnv),
	}
	for _, name := range cfg.Backends {
		kc.AllowedBackends = append(kc.AllowedBackends, keyring.BackendType(name))
	}
	return kc
}

func filePassword(envVar string) keyring.PromptFunc {
	return func(string) (string, error) {
		if v, ok := os.LookupEnv(envVar); ok && v != "" {
			return v, nil
		}
		return "", fmt.Errorf("file keyring needs a passphrase: set %s", envVar)
	}
}
