// Package tools implements the MCP tools mousetail exposes over an Anki
// collection and the sync credential vault.
package tools

import (
	"context"
	"fmt"

	"github.com/mousetail/mousetail/internal/collection"
	"github.com/mousetail/mousetail/internal/credentials"
	"github.com/mousetail/mousetail/internal/errcode"
	"github.com/mousetail/mousetail/internal/syncer"
	"github.com/rs/zerolog"
)

// Service carries the collaborators every tool needs.
type Service struct {
	accessor collection.Accessor
	vault    *credentials.Vault
	syncer   *syncer.Orchestrator
	log      zerolog.Logger
}

// NewService returns a tool service.
func NewService(accessor collection.Accessor, vault *credentials.Vault, orch *syncer.Orchestrator, log zerolog.Logger) *Service {
	return &Service{accessor: accessor, vault: vault, syncer: orch, log: log}
}

// withCollection checks that path is reachable, opens it and runs fn. The
// handle is closed before withCollection returns.
func (s *Service) withCollection(ctx context.Context, path string, fn func(collection.Handle) Result) Result {
	if err := s.accessor.CheckAccessible(ctx, path); err != nil {
		return Fail(err)
	}
	h, err := s.accessor.Open(ctx, path)
	if err != nil {
		return Fail(err)
	}
	defer func() {
		if err := h.Close(); err != nil {
			s.log.Warn().Err(err).Str("collection", h.Path()).Msg("closing collection")
		}
	}()
	return fn(h)
}

// ListCollections reports every discovered collection. The first one must
// be accessible.
func (s *Service) ListCollections(ctx context.Context) Result {
	locs, err := s.accessor.ListAvailable(ctx)
	if err != nil {
		return Fail(err)
	}
	if len(locs) > 0 {
		if err := s.accessor.CheckAccessible(ctx, locs[0].Path); err != nil {
			return Fail(err)
		}
	}
	return OK(map[string]any{"collections": locs, "count": len(locs)})
}

// CollectionInfo reports counts for one collection.
func (s *Service) CollectionInfo(ctx context.Context, path string) Result {
	return s.withCollection(ctx, path, func(h collection.Handle) Result {
		info, err := h.Info(ctx)
		if err != nil {
			return Fail(err)
		}
		return OK(map[string]any{"collection": info})
	})
}

// ListDecks lists every deck.
func (s *Service) ListDecks(ctx context.Context, path string) Result {
	return s.withCollection(ctx, path, func(h collection.Handle) Result {
		decks, err := h.Decks(ctx)
		if err != nil {
			return Fail(err)
		}
		return OK(map[string]any{"decks": decks, "count": len(decks)})
	})
}

// CreateDeck creates a deck, or returns the id of the existing one.
func (s *Service) CreateDeck(ctx context.Context, path, name string) Result {
	return s.withCollection(ctx, path, func(h collection.Handle) Result {
		id, err := h.CreateDeck(ctx, name)
		if err != nil {
			return Fail(err)
		}
		return OK(map[string]any{
			"message": fmt.Sprintf("Deck '%s' created successfully", name),
			"deck_id": id,
		})
	})
}

// ListNoteTypes lists every note type with its field names.
func (s *Service) ListNoteTypes(ctx context.Context, path string) Result {
	return s.withCollection(ctx, path, func(h collection.Handle) Result {
		types, err := h.NoteTypes(ctx)
		if err != nil {
			return Fail(err)
		}
		return OK(map[string]any{"note_types": types, "count": len(types)})
	})
}

func notFound(format string, args ...any) Result {
	return Fail(errcode.New(errcode.NotFound, format, args...))
}
