package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mousetail/mousetail/internal/collection"
	"github.com/mousetail/mousetail/internal/errcode"
)

// DefaultSearchLimit caps search_notes when no limit is given.
const DefaultSearchLimit = 100

// CreateNoteArgs are the create_note arguments.
type CreateNoteArgs struct {
	DeckName       string            `json:"deck_name"`
	NoteTypeName   string            `json:"note_type_name"`
	Fields         collection.Fields `json:"fields"`
	Tags           []string          `json:"tags"`
	CollectionPath string            `json:"collection_path"`
}

// UpdateNoteArgs are the update_note arguments. A nil Tags leaves tags
// untouched; an empty one clears them.
type UpdateNoteArgs struct {
	NoteID         int64             `json:"note_id"`
	Fields         collection.Fields `json:"fields"`
	Tags           *[]string         `json:"tags"`
	CollectionPath string            `json:"collection_path"`
}

// SearchArgs are the search_notes arguments.
type SearchArgs struct {
	Query          string `json:"query"`
	Limit          *int   `json:"limit"`
	CollectionPath string `json:"collection_path"`
}

// CreateNote adds one note. Nothing is stored unless every field name is
// valid for the note type.
func (s *Service) CreateNote(ctx context.Context, args CreateNoteArgs) Result {
	if strings.TrimSpace(args.DeckName) == "" {
		return Fail(errcode.New(errcode.InvalidArgument, "deck_name is required"))
	}
	if strings.TrimSpace(args.NoteTypeName) == "" {
		return Fail(errcode.New(errcode.InvalidArgument, "note_type_name is required"))
	}

	return s.withCollection(ctx, args.CollectionPath, func(h collection.Handle) Result {
		types, err := h.NoteTypes(ctx)
		if err != nil {
			return Fail(err)
		}
		nt, ok := collection.NoteTypeByName(types, args.NoteTypeName)
		if !ok {
			return notFound("Note type '%s' not found", args.NoteTypeName).
				With("available_note_types", collection.NoteTypeNames(types))
		}

		decks, err := h.Decks(ctx)
		if err != nil {
			return Fail(err)
		}
		deck, ok := collection.DeckByName(decks, args.DeckName)
		if !ok {
			return notFound("Deck '%s' not found", args.DeckName).
				With("available_decks", collection.DeckNames(decks))
		}

		note := collection.NewNote(nt)
		for _, f := range args.Fields {
			if err := note.Set(f.Name, f.Value); err != nil {
				return Fail(err)
			}
		}
		for _, tag := range args.Tags {
			note.AddTag(tag)
		}

		added, err := h.AddNote(ctx, note, deck.ID)
		if err != nil {
			return Fail(err)
		}
		s.log.Debug().Int64("note_id", added.NoteID).Str("deck", deck.Name).Msg("note created")
		return OK(map[string]any{
			"message":    fmt.Sprintf("Note created successfully in deck '%s'", deck.Name),
			"note_id":    added.NoteID,
			"card_count": added.CardCount,
		})
	})
}

// SearchNotes runs an Anki search query.
func (s *Service) SearchNotes(ctx context.Context, args SearchArgs) Result {
	limit := DefaultSearchLimit
	if args.Limit != nil {
		limit = *args.Limit
	}
	return s.withCollection(ctx, args.CollectionPath, func(h collection.Handle) Result {
		ids, err := h.FindNotes(ctx, args.Query)
		if err != nil {
			return Fail(err)
		}
		if ids == nil {
			ids = []int64{}
		}
		if limit > 0 && len(ids) > limit {
			ids = ids[:limit]
		}
		return OK(map[string]any{"note_ids": ids, "count": len(ids), "query": args.Query})
	})
}

// GetNote returns one note.
func (s *Service) GetNote(ctx context.Context, path string, id int64) Result {
	if id <= 0 {
		return Fail(errcode.New(errcode.InvalidArgument, "note_id must be a positive integer"))
	}
	return s.withCollection(ctx, path, func(h collection.Handle) Result {
		note, err := h.Note(ctx, id)
		if err != nil {
			return Fail(err)
		}
		return OK(map[string]any{"note": note})
	})
}

// UpdateNote changes fields by name and, when given, replaces the tags.
func (s *Service) UpdateNote(ctx context.Context, args UpdateNoteArgs) Result {
	if args.NoteID <= 0 {
		return Fail(errcode.New(errcode.InvalidArgument, "note_id must be a positive integer"))
	}
	return s.withCollection(ctx, args.CollectionPath, func(h collection.Handle) Result {
		note, err := h.Note(ctx, args.NoteID)
		if err != nil {
			return Fail(err)
		}
		for _, f := range args.Fields {
			if err := note.Set(f.Name, f.Value); err != nil {
				return Fail(err)
			}
		}
		if args.Tags != nil {
			note.ClearTags()
			for _, tag := range *args.Tags {
				note.AddTag(tag)
			}
		}
		if err := h.UpdateNote(ctx, note); err != nil {
			return Fail(err)
		}
		return OK(map[string]any{"message": "Note updated successfully"})
	})
}
