// Package credentials stores sync credentials and resolves the identity and
// endpoint a sync should use.
package credentials

import (
	"fmt"
	"strings"

	"github.com/mousetail/mousetail/internal/errcode"
)

// Secret keys. The password is stored under the username itself.
const (
	KeyUsername = "username"
	KeyEndpoint = "endpoint"
)

// SecretStore is the namespaced key/value contract the vault needs.
type SecretStore interface {
	Save(key, value string) error
	Load(key string) (string, bool, error)
	Delete(key string) error
}

// Triple is a (username, password, endpoint) set. Empty strings are absent.
type Triple struct {
	Username string
	Password string
	Endpoint string
}

// Vault reads and writes the three credential records.
type Vault struct {
	store SecretStore
}

// NewVault returns a vault over store.
func NewVault(store SecretStore) *Vault {
	return &Vault{store: store}
}

// Save stores username and password, and stores or clears the endpoint.
func (v *Vault) Save(username, password, endpoint string) error {
	if strings.TrimSpace(username) == "" {
		return errcode.New(errcode.InvalidArgument, "username is required")
	}
	if password == "" {
		return errcode.New(errcode.InvalidArgument, "password is required")
	}

	if err := v.store.Save(KeyUsername, username); err != nil {
		return errcode.Wrap(errcode.StoreFailed, err)
	}
	if err := v.store.Save(username, password); err != nil {
		return errcode.Wrap(errcode.StoreFailed, err)
	}

	endpoint = strings.TrimSpace(endpoint)
	if endpoint != "" {
		if err := v.store.Save(KeyEndpoint, endpoint); err != nil {
			return errcode.Wrap(errcode.StoreFailed, err)
		}
		return nil
	}
	if err := v.store.Delete(KeyEndpoint); err != nil {
		return errcode.Wrap(errcode.StoreFailed, err)
	}
	return nil
}

// Load returns the stored triple. It fails with NoCredentials when no
// username is stored and CredentialsIncomplete when the password is missing.
func (v *Vault) Load() (Triple, error) {
	username, err := v.storedUsername()
	if err != nil {
		return Triple{}, err
	}
	password, err := v.passwordFor(username)
	if err != nil {
		return Triple{}, err
	}
	endpoint, err := v.storedEndpoint()
	if err != nil {
		return Triple{}, err
	}
	return Triple{Username: username, Password: password, Endpoint: endpoint}, nil
}

// Delete removes the stored password, username and endpoint. Missing
// records are ignored.
func (v *Vault) Delete() error {
	username, ok, err := v.store.Load(KeyUsername)
	if err != nil {
		return errcode.Wrap(errcode.StoreFailed, err)
	}
	if ok && username != "" {
		if err := v.store.Delete(username); err != nil {
			return errcode.Wrap(errcode.StoreFailed, err)
		}
		if err := v.store.Delete(KeyUsername); err != nil {
			return errcode.Wrap(errcode.StoreFailed, err)
		}
	}
	if err := v.store.Delete(KeyEndpoint); err != nil {
		return errcode.Wrap(errcode.StoreFailed, err)
	}
	return nil
}

func (v *Vault) storedUsername() (string, error) {
	username, ok, err := v.store.Load(KeyUsername)
	if err != nil {
		return "", errcode.Wrap(errcode.StoreFailed, err)
	}
	if !ok || username == "" {
		return "", errcode.New(errcode.NoCredentials, "no saved credentials found")
	}
	return username, nil
}

func (v *Vault) passwordFor(username string) (string, error) {
	password, ok, err := v.store.Load(username)
	if err != nil {
		return "", errcode.Wrap(errcode.StoreFailed, err)
	}
	if !ok || password == "" {
		return "", errcode.New(errcode.CredentialsIncomplete, "password not found for user %q", username)
	}
	return password, nil
}

func (v *Vault) storedEndpoint() (string, error) {
	endpoint, _, err := v.store.Load(KeyEndpoint)
	if err != nil {
		return "", errcode.Wrap(errcode.StoreFailed, fmt.Errorf("loading endpoint: %w", err))
	}
	return strings.TrimSpace(endpoint), nil
}
