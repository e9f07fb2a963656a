// Package syncer runs one sync attempt: resolve credentials, log in, then
// sync collection data and optionally media.
package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/mousetail/mousetail/internal/collection"
	"github.com/mousetail/mousetail/internal/credentials"
	"github.com/mousetail/mousetail/internal/errcode"
	"github.com/rs/zerolog"
)

// Resolver turns call-time arguments into the credentials to use.
type Resolver interface {
	Resolve(explicit credentials.Triple) (credentials.Resolved, error)
}

// Request is one sync call.
type Request struct {
	Credentials    credentials.Triple
	IncludeMedia   bool
	CollectionPath string
}

// Orchestrator syncs collections. It never writes to the secret store and
// never retries.
type Orchestrator struct {
	accessor collection.Accessor
	resolver Resolver
	log      zerolog.Logger
}

// New returns an orchestrator.
func New(accessor collection.Accessor, resolver Resolver, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{accessor: accessor, resolver: resolver, log: log}
}

// Sync resolves credentials, opens the collection and syncs it. The handle is
// closed before Sync returns.
func (o *Orchestrator) Sync(ctx context.Context, req Request) Result {
	start := time.Now()

	resolved, err := o.resolver.Resolve(req.Credentials)
	if err != nil {
		res := resolutionFailure(err)
		o.log.Info().
			Str("code", string(res.Code)).
			Dur("duration", time.Since(start)).
			Msg("sync skipped: credentials unavailable")
		return res
	}

	res := o.syncPath(ctx, req.CollectionPath, resolved, req.IncludeMedia)
	o.logAttempt(resolved, req.IncludeMedia, res, time.Since(start))
	return res
}

func (o *Orchestrator) syncPath(ctx context.Context, path string, resolved credentials.Resolved, includeMedia bool) Result {
	if err := o.accessor.CheckAccessible(ctx, path); err != nil {
		return failed(errcode.CodeOf(err), err.Error(), "")
	}
	h, err := o.accessor.Open(ctx, path)
	if err != nil {
		return failed(errcode.CodeOf(err), err.Error(), "")
	}
	defer func() {
		if err := h.Close(); err != nil {
			o.log.Warn().Err(err).Str("collection", h.Path()).Msg("closing collection after sync")
		}
	}()

	return o.SyncHandle(ctx, h, resolved, includeMedia)
}

// SyncHandle logs in and syncs an already open collection.
func (o *Orchestrator) SyncHandle(ctx context.Context, h collection.Handle, resolved credentials.Resolved, includeMedia bool) Result {
	auth, err := h.SyncLogin(ctx, resolved.Username, resolved.Password, resolved.Endpoint)
	if err != nil {
		return classifyLogin(err)
	}

	output, err := h.SyncCollection(ctx, auth, includeMedia)
	if err != nil {
		return failed(errcode.SyncFailed, "Sync failed: "+err.Error(), HintSync)
	}

	return succeeded(successMessage(resolved, includeMedia), output)
}

func successMessage(resolved credentials.Resolved, includeMedia bool) string {
	scope := "collection only"
	if includeMedia {
		scope = "including media"
	}
	return fmt.Sprintf("Collection synced successfully with %s (%s)", resolved.EndpointLabel(), scope)
}

func resolutionFailure(err error) Result {
	code := errcode.CodeOf(err)
	msg := err.Error()
	if code == errcode.NoCredentials {
		msg = "No credentials provided and no saved credentials found"
	}
	res := failed(code, msg, "")
	res.Required = RequiredCredentials
	return res
}

func (o *Orchestrator) logAttempt(resolved credentials.Resolved, includeMedia bool, res Result, took time.Duration) {
	ev := o.log.Info()
	if !res.Success {
		ev = o.log.Warn().Str("code", string(res.Code))
	}
	ev.Str("username", resolved.Username).
		Str("credential_source", string(resolved.CredentialSource)).
		Str("endpoint", resolved.EndpointLabel()).
		Str("endpoint_source", string(resolved.EndpointSource)).
		Bool("media", includeMedia).
		Bool("success", res.Success).
		Dur("duration", took).
		Msg("sync attempt finished")
}
