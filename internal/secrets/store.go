// Package secrets persists sync credentials in the platform credential vault.
//
// All records live under one keyring service name. The store holds no state of
// its own: every call goes to the underlying keyring.
package secrets

import (
	"errors"
	"fmt"
	"os"

	"github.com/99designs/keyring"
)

// Store is a namespaced key/value secret store.
type Store struct {
	ring    keyring.Keyring
	service string
}

// New wraps an already opened keyring.
func New(ring keyring.Keyring, service string) *Store {
	return &Store{ring: ring, service: service}
}

// Service returns the namespace all records are stored under.
func (s *Store) Service() string {
	return s.service
}

// Save creates or overwrites key.
func (s *Store) Save(key, value string) error {
	err := s.ring.Set(keyring.Item{
		Key:         key,
		Data:        []byte(value),
		Label:       s.service + ": " + key,
		Description: "mousetail sync credential",
	})
	if err != nil {
		return fmt.Errorf("saving %q to keyring %s: %w", key, s.service, err)
	}
	return nil
}

// Load returns the value stored under key. A missing key reports found=false
// with a nil error.
func (s *Store) Load(key string) (string, bool, error) {
	item, err := s.ring.Get(key)
	if err != nil {
		if isNotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("loading %q from keyring %s: %w", key, s.service, err)
	}
	return string(item.Data), true, nil
}

// Delete removes key. Deleting a missing key succeeds.
func (s *Store) Delete(key string) error {
	if err := s.ring.Remove(key); err != nil && !isNotFound(err) {
		return fmt.Errorf("deleting %q from keyring %s: %w", key, s.service, err)
	}
	return nil
}

// The file backend surfaces missing items as filesystem errors rather than
// keyring.ErrKeyNotFound.
func isNotFound(err error) bool {
	return errors.Is(err, keyring.ErrKeyNotFound) || errors.Is(err, os.ErrNotExist)
}
