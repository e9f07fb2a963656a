package credentials

import (
	"errors"
	"testing"

	"github.com/99designs/keyring"
	"github.com/mousetail/mousetail/internal/config"
	"github.com/mousetail/mousetail/internal/errcode"
	"github.com/mousetail/mousetail/internal/secrets"
)

type recordingStore struct {
	data  map[string]string
	loads []string
	err   error
}

func newRecordingStore(pairs ...string) *recordingStore {
	s := &recordingStore{data: map[string]string{}}
	for i := 0; i+1 < len(pairs); i += 2 {
		s.data[pairs[i]] = pairs[i+1]
	}
	return s
}

func (s *recordingStore) Save(key, value string) error {
	if s.err != nil {
		return s.err
	}
	s.data[key] = value
	return nil
}

func (s *recordingStore) Load(key string) (string, bool, error) {
	s.loads = append(s.loads, key)
	if s.err != nil {
		return "", false, s.err
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *recordingStore) Delete(key string) error {
	if s.err != nil {
		return s.err
	}
	delete(s.data, key)
	return nil
}

func keyringVault() *Vault {
	return NewVault(secrets.New(keyring.NewArrayKeyring(nil), "test"))
}

func TestVaultSaveLoadRoundTrip(t *testing.T) {
	tests := []Triple{
		{Username: "alice", Password: "p1"},
		{Username: "bob@example.com", Password: "pässwörd with spaces", Endpoint: "https://sync.example.com"},
	}
	for _, want := range tests {
		v := keyringVault()
		if err := v.Save(want.Username, want.Password, want.Endpoint); err != nil {
			t.Fatalf("Save(%q) error = %v", want.Username, err)
		}
		got, err := v.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got != want {
			t.Fatalf("Load() = %#v, want %#v", got, want)
		}
	}
}

func TestVaultSaveWithoutEndpointClearsStoredEndpoint(t *testing.T) {
	store := newRecordingStore(KeyEndpoint, "https://old.example")
	v := NewVault(store)

	if err := v.Save("alice", "p1", ""); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, ok := store.data[KeyEndpoint]; ok {
		t.Fatal("endpoint still stored after saving without one")
	}
}

func TestVaultSaveRejectsBlankInput(t *testing.T) {
	v := NewVault(newRecordingStore())
	if err := v.Save("", "p1", ""); !errcode.Is(err, errcode.InvalidArgument) {
		t.Fatalf("Save(no username) error = %v, want InvalidArgument", err)
	}
	if err := v.Save("alice", "", ""); !errcode.Is(err, errcode.InvalidArgument) {
		t.Fatalf("Save(no password) error = %v, want InvalidArgument", err)
	}
}

func TestVaultLoadWithoutCredentials(t *testing.T) {
	_, err := NewVault(newRecordingStore()).Load()
	if !errcode.Is(err, errcode.NoCredentials) {
		t.Fatalf("Load() error = %v, want NoCredentials", err)
	}
}

func TestVaultLoadUsernameWithoutPassword(t *testing.T) {
	_, err := NewVault(newRecordingStore(KeyUsername, "alice")).Load()
	if !errcode.Is(err, errcode.CredentialsIncomplete) {
		t.Fatalf("Load() error = %v, want CredentialsIncomplete", err)
	}
	if err.Error() != `password not found for user "alice"` {
		t.Fatalf("Load() error = %q", err.Error())
	}
}

func TestVaultDeleteNeverSavedSucceeds(t *testing.T) {
	if err := keyringVault().Delete(); err != nil {
		t.Fatalf("Delete() error = %v, want nil", err)
	}
}

func TestVaultDeleteRemovesAllRecords(t *testing.T) {
	store := newRecordingStore(KeyUsername, "alice", "alice", "p1", KeyEndpoint, "https://x.example", "other", "keep")
	if err := NewVault(store).Delete(); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(store.data) != 1 || store.data["other"] != "keep" {
		t.Fatalf("remaining records = %v, want only unrelated key", store.data)
	}
}

func TestVaultStoreErrorsAreStoreFailed(t *testing.T) {
	store := newRecordingStore()
	store.err = errors.New("keyring locked")
	v := NewVault(store)

	if _, err := v.Load(); !errcode.Is(err, errcode.StoreFailed) {
		t.Fatalf("Load() error = %v, want StoreFailed", err)
	}
	if err := v.Save("alice", "p1", ""); !errcode.Is(err, errcode.StoreFailed) {
		t.Fatalf("Save() error = %v, want StoreFailed", err)
	}
	if err := v.Delete(); !errcode.Is(err, errcode.StoreFailed) {
		t.Fatalf("Delete() error = %v, want StoreFailed", err)
	}
}

func TestResolveExplicitCredentialsFallBackToStoredEndpoint(t *testing.T) {
	store := newRecordingStore(KeyUsername, "alice", "alice", "p1", KeyEndpoint, "https://stored.example")
	r := NewResolver(NewVault(store), config.StaticEndpoint("https://cfg.example"))

	got, err := r.Resolve(Triple{Username: "bob", Password: "p2"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Username != "bob" || got.Password != "p2" || got.CredentialSource != SourceExplicit {
		t.Fatalf("Resolve() identity = %#v, want explicit bob/p2", got)
	}
	if got.Endpoint != "https://stored.example" || got.EndpointSource != SourceStore {
		t.Fatalf("Resolve() endpoint = (%q, %s), want stored endpoint", got.Endpoint, got.EndpointSource)
	}
	for _, key := range store.loads {
		if key != KeyEndpoint {
			t.Fatalf("store loads = %v, want only the endpoint record", store.loads)
		}
	}
}

func TestResolveExplicitCredentialsWithoutStoredEndpointUseConfig(t *testing.T) {
	store := newRecordingStore(KeyUsername, "alice", "alice", "p1")
	r := NewResolver(NewVault(store), config.StaticEndpoint("https://cfg.example"))

	got, err := r.Resolve(Triple{Username: "bob", Password: "p2"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Endpoint != "https://cfg.example" || got.EndpointSource != SourceConfig {
		t.Fatalf("Resolve() endpoint = (%q, %s), want config endpoint", got.Endpoint, got.EndpointSource)
	}
}

func TestResolveUsernameOnlyLooksUpThatUsersPassword(t *testing.T) {
	store := newRecordingStore(KeyUsername, "alice", "alice", "p1", KeyEndpoint, "https://stored.example")
	r := NewResolver(NewVault(store), nil)

	if _, err := r.Resolve(Triple{Username: "carol"}); !errcode.Is(err, errcode.CredentialsIncomplete) {
		t.Fatalf("Resolve(carol, no stored password) error = %v, want CredentialsIncomplete", err)
	}

	store.data["carol"] = "p3"
	got, err := r.Resolve(Triple{Username: "carol"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Username != "carol" || got.Password != "p3" || got.CredentialSource != SourceMixed {
		t.Fatalf("Resolve() = %#v, want carol with her stored password", got)
	}
}

func TestResolveStoredCredentialsAndEndpoint(t *testing.T) {
	store := newRecordingStore(KeyUsername, "alice", "alice", "p1", KeyEndpoint, "https://stored.example")
	r := NewResolver(NewVault(store), config.StaticEndpoint("https://cfg.example"))

	got, err := r.Resolve(Triple{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := Triple{Username: "alice", Password: "p1", Endpoint: "https://stored.example"}
	if got.Triple != want {
		t.Fatalf("Resolve() = %#v, want %#v", got.Triple, want)
	}
	if got.CredentialSource != SourceStore || got.EndpointSource != SourceStore {
		t.Fatalf("sources = (%s, %s), want (store, store)", got.CredentialSource, got.EndpointSource)
	}
}

func TestResolveExplicitEndpointWinsIndependently(t *testing.T) {
	store := newRecordingStore(KeyUsername, "alice", "alice", "p1", KeyEndpoint, "https://stored.example")
	r := NewResolver(NewVault(store), config.StaticEndpoint("https://cfg.example"))

	got, err := r.Resolve(Triple{Endpoint: " https://explicit.example "})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Username != "alice" || got.CredentialSource != SourceStore {
		t.Fatalf("Resolve() identity = %#v, want stored alice", got)
	}
	if got.Endpoint != "https://explicit.example" || got.EndpointSource != SourceExplicit {
		t.Fatalf("Resolve() endpoint = (%q, %s), want explicit", got.Endpoint, got.EndpointSource)
	}
}

func TestResolveStoredUsernameWithoutPasswordIsIncomplete(t *testing.T) {
	r := NewResolver(NewVault(newRecordingStore(KeyUsername, "alice")), nil)

	_, err := r.Resolve(Triple{})
	if !errcode.Is(err, errcode.CredentialsIncomplete) {
		t.Fatalf("Resolve() error = %v, want CredentialsIncomplete", err)
	}
	if errcode.Is(err, errcode.NoCredentials) {
		t.Fatal("Resolve() reported NoCredentials for a stored username")
	}
}

func TestResolveNothingStored(t *testing.T) {
	r := NewResolver(NewVault(newRecordingStore()), config.StaticEndpoint("https://cfg.example"))

	if _, err := r.Resolve(Triple{}); !errcode.Is(err, errcode.NoCredentials) {
		t.Fatalf("Resolve() error = %v, want NoCredentials", err)
	}
}

func TestResolvePasswordOnlyUsesStoredUsername(t *testing.T) {
	store := newRecordingStore(KeyUsername, "alice", "alice", "old")
	r := NewResolver(NewVault(store), nil)

	got, err := r.Resolve(Triple{Password: "new"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Username != "alice" || got.Password != "new" || got.CredentialSource != SourceMixed {
		t.Fatalf("Resolve() = %#v, want alice with explicit password", got)
	}

	r = NewResolver(NewVault(newRecordingStore()), nil)
	if _, err := r.Resolve(Triple{Password: "new"}); !errcode.Is(err, errcode.NoCredentials) {
		t.Fatalf("Resolve(password only, nothing stored) error = %v, want NoCredentials", err)
	}
}

func TestResolveEmptyEndpointFallsBackToConfig(t *testing.T) {
	v := keyringVault()
	if err := v.Save("alice", "p1", ""); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	r := NewResolver(v, config.StaticEndpoint("https://cfg.example"))

	got, err := r.Resolve(Triple{Endpoint: ""})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := Triple{Username: "alice", Password: "p1", Endpoint: "https://cfg.example"}
	if got.Triple != want {
		t.Fatalf("Resolve() = %#v, want %#v", got.Triple, want)
	}
}

func TestResolveDefaultsToAnkiWeb(t *testing.T) {
	r := NewResolver(NewVault(newRecordingStore()), config.StaticEndpoint(""))

	got, err := r.Resolve(Triple{Username: "alice", Password: "p1"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Endpoint != "" || got.EndpointSource != SourceDefault {
		t.Fatalf("Resolve() endpoint = (%q, %s), want default", got.Endpoint, got.EndpointSource)
	}
	if got.EndpointLabel() != DefaultServiceName {
		t.Fatalf("EndpointLabel() = %q, want %q", got.EndpointLabel(), DefaultServiceName)
	}
}

func TestResolveStoreFailureSurfaces(t *testing.T) {
	store := newRecordingStore()
	store.err = errors.New("secret service unavailable")
	r := NewResolver(NewVault(store), nil)

	if _, err := r.Resolve(Triple{}); !errcode.Is(err, errcode.StoreFailed) {
		t.Fatalf("Resolve() error = %v, want StoreFailed", err)
	}
}
