package credentials

import "strings"

// DefaultServiceName labels the remote used when no endpoint resolves.
const DefaultServiceName = "AnkiWeb"

// EndpointSource supplies a fallback endpoint. It must never fail.
type EndpointSource interface {
	SyncEndpoint() (string, bool)
}

// Source records where a resolved value came from.
type Source string

const (
	SourceExplicit Source = "explicit"
	SourceStore    Source = "store"
	SourceMixed    Source = "mixed"
	SourceConfig   Source = "config"
	SourceDefault  Source = "default"
)

// Resolved is the final triple handed to the sync orchestrator.
type Resolved struct {
	Triple
	CredentialSource Source
	EndpointSource   Source
}

// EndpointLabel returns the endpoint, or the default service name when absent.
func (r Resolved) EndpointLabel() string {
	if r.Endpoint == "" {
		return DefaultServiceName
	}
	return r.Endpoint
}

// Resolver combines call-time arguments, the vault and the config document.
type Resolver struct {
	vault  *Vault
	config EndpointSource
}

// NewResolver returns a resolver. cfg may be nil.
func NewResolver(vault *Vault, cfg EndpointSource) *Resolver {
	return &Resolver{vault: vault, config: cfg}
}

// Resolve picks credentials and endpoint. Identity and endpoint follow
// separate precedence chains: explicit, then store, then (endpoint only)
// config, then the default service.
func (r *Resolver) Resolve(explicit Triple) (Resolved, error) {
	var out Resolved

	if err := r.resolveIdentity(explicit, &out); err != nil {
		return Resolved{}, err
	}

	if endpoint := strings.TrimSpace(explicit.Endpoint); endpoint != "" {
		out.Endpoint = endpoint
		out.EndpointSource = SourceExplicit
		return out, nil
	}

	endpoint, err := r.vault.storedEndpoint()
	if err != nil {
		return Resolved{}, err
	}
	if endpoint != "" {
		out.Endpoint = endpoint
		out.EndpointSource = SourceStore
		return out, nil
	}

	if r.config != nil {
		if endpoint, ok := r.config.SyncEndpoint(); ok && strings.TrimSpace(endpoint) != "" {
			out.Endpoint = strings.TrimSpace(endpoint)
			out.EndpointSource = SourceConfig
			return out, nil
		}
	}

	out.Endpoint = ""
	out.EndpointSource = SourceDefault
	return out, nil
}

func (r *Resolver) resolveIdentity(explicit Triple, out *Resolved) error {
	username := explicit.Username
	password := explicit.Password

	switch {
	case username != "" && password != "":
		out.Username, out.Password = username, password
		out.CredentialSource = SourceExplicit
		return nil

	case username != "":
		// The store keys passwords by username, so look up this user's.
		stored, err := r.vault.passwordFor(username)
		if err != nil {
			return err
		}
		out.Username, out.Password = username, stored
		out.CredentialSource = SourceMixed
		return nil

	case password != "":
		stored, err := r.vault.storedUsername()
		if err != nil {
			return err
		}
		out.Username, out.Password = stored, password
		out.CredentialSource = SourceMixed
		return nil

	default:
		stored, err := r.vault.storedUsername()
		if err != nil {
			return err
		}
		storedPassword, err := r.vault.passwordFor(stored)
		if err != nil {
			return err
		}
		out.Username, out.Password = stored, storedPassword
		out.CredentialSource = SourceStore
		return nil
	}
}
