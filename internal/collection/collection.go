// Package collection defines the contract the tool layer uses to reach an Anki
// collection, plus the pieces that do not need the host engine: the note model,
// profile discovery and file access checks.
package collection

import (
	"context"
	"strings"
)

// Location is one discovered collection.
type Location struct {
	Profile string `json:"profile"`
	Path    string `json:"path"`
}

// Deck is a deck name and id.
type Deck struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NoteType is a note type with its ordered field names.
type NoteType struct {
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
}

// Info summarizes an open collection.
type Info struct {
	Path          string `json:"path"`
	Profile       string `json:"profile,omitempty"`
	NoteCount     int    `json:"note_count"`
	CardCount     int    `json:"card_count"`
	DeckCount     int    `json:"deck_count"`
	NoteTypeCount int    `json:"note_type_count"`
}

// AddedNote is the outcome of persisting a new note.
type AddedNote struct {
	NoteID    int64 `json:"note_id"`
	CardCount int   `json:"card_count"`
}

// SyncAuth is the token returned by a successful sync login.
type SyncAuth struct {
	HostKey  string `json:"hkey"`
	Endpoint string `json:"endpoint,omitempty"`
}

// Accessor locates, checks and opens collections. An empty path means the
// default collection.
type Accessor interface {
	ListAvailable(ctx context.Context) ([]Location, error)
	CheckAccessible(ctx context.Context, path string) error
	Open(ctx context.Context, path string) (Handle, error)
}

// Handle is an open collection. Callers must Close it on every path.
type Handle interface {
	Path() string
	Info(ctx context.Context) (Info, error)

	Decks(ctx context.Context) ([]Deck, error)
	Deck(ctx context.Context, id int64) (Deck, error)
	CreateDeck(ctx context.Context, name string) (int64, error)

	NoteTypes(ctx context.Context) ([]NoteType, error)

	AddNote(ctx context.Context, note *Note, deckID int64) (AddedNote, error)
	Note(ctx context.Context, id int64) (*Note, error)
	UpdateNote(ctx context.Context, note *Note) error
	FindNotes(ctx context.Context, query string) ([]int64, error)

	SyncLogin(ctx context.Context, username, password, endpoint string) (SyncAuth, error)
	SyncCollection(ctx context.Context, auth SyncAuth, includeMedia bool) (string, error)

	Close() error
}

// DeckByName finds a deck by name, ignoring case as Anki does.
func DeckByName(decks []Deck, name string) (Deck, bool) {
	name = strings.TrimSpace(name)
	for _, d := range decks {
		if strings.EqualFold(d.Name, name) {
			return d, true
		}
	}
	return Deck{}, false
}

// NoteTypeByName finds a note type by exact name, falling back to a
// case-insensitive match.
func NoteTypeByName(types []NoteType, name string) (NoteType, bool) {
	for _, nt := range types {
		if nt.Name == name {
			return nt, true
		}
	}
	for _, nt := range types {
		if strings.EqualFold(nt.Name, name) {
			return nt, true
		}
	}
	return NoteType{}, false
}

// DeckNames returns the names of decks in order.
func DeckNames(decks []Deck) []string {
	names := make([]string, len(decks))
	for i, d := range decks {
		names[i] = d.Name
	}
	return names
}

// NoteTypeNames returns the names of note types in order.
func NoteTypeNames(types []NoteType) []string {
	names := make([]string, len(types))
	for i, nt := range types {
		names[i] = nt.Name
	}
	return names
}
