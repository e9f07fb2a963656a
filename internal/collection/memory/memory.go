// Package memory is an in-process collection accessor. It backs tests and
// dry runs; search understands only a small subset of Anki's query syntax.
package memory

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/mousetail/mousetail/internal/collection"
	"github.com/mousetail/mousetail/internal/errcode"
)

// Accessor holds a set of named in-memory collections.
type Accessor struct {
	mu   sync.Mutex
	locs []collection.Location
	cols map[string]*Collection
}

// New returns an accessor with no collections.
func New() *Accessor {
	return &Accessor{cols: make(map[string]*Collection)}
}

// Add registers a collection for profile at path and returns it. The first
// collection added is the default.
func (a *Accessor) Add(profile, path string) *Collection {
	a.mu.Lock()
	defer a.mu.Unlock()

	path = filepath.Clean(path)
	if c, ok := a.cols[path]; ok {
		return c
	}
	c := newCollection(profile, path)
	a.cols[path] = c
	a.locs = append(a.locs, collection.Location{Profile: profile, Path: path})
	return c
}

// Collection returns the collection at path, or the default for "".
func (a *Accessor) Collection(path string) (*Collection, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if strings.TrimSpace(path) == "" {
		if len(a.locs) == 0 {
			return nil, collection.Unavailable("no collections available")
		}
		return a.cols[a.locs[0].Path], nil
	}
	c, ok := a.cols[filepath.Clean(path)]
	if !ok {
		return nil, collection.Unavailable("collection not found at %s", path)
	}
	return c, nil
}

func (a *Accessor) ListAvailable(context.Context) ([]collection.Location, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]collection.Location{}, a.locs...), nil
}

func (a *Accessor) CheckAccessible(_ context.Context, path string) error {
	c, err := a.Collection(path)
	if err != nil {
		return err
	}
	return c.checkUnlocked()
}

func (a *Accessor) Open(_ context.Context, path string) (collection.Handle, error) {
	c, err := a.Collection(path)
	if err != nil {
		return nil, err
	}
	if err := c.checkUnlocked(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.opens++
	c.mu.Unlock()
	return &handle{col: c}, nil
}

// Login records one SyncLogin call.
type Login struct {
	Username string
	Password string
	Endpoint string
}

// Collection is one in-memory collection.
type Collection struct {
	mu sync.Mutex

	profile   string
	path      string
	decks     []collection.Deck
	noteTypes []collection.NoteType
	notes     map[int64]*collection.Note
	order     []int64
	nextID    int64

	locked     bool
	loginErr   error
	syncErr    error
	syncOutput string
	logins     []Login
	syncs      []bool

	opens  int
	closes int
}

func newCollection(profile, path string) *Collection {
	c := &Collection{
		profile:    profile,
		path:       path,
		notes:      make(map[int64]*collection.Note),
		nextID:     1000,
		syncOutput: "sync complete",
	}
	c.decks = append(c.decks, collection.Deck{ID: 1, Name: "Default"})
	c.addNoteTypeLocked("Basic", "Front", "Back")
	c.addNoteTypeLocked("Cloze", "Text", "Back Extra")
	return c
}

func (c *Collection) id() int64 {
	c.nextID++
	return c.nextID
}

func (c *Collection) checkUnlocked() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locked {
		return collection.Unavailable("collection %s is locked by another process; close Anki and retry", c.path)
	}
	return nil
}

// Path returns the collection's path.
func (c *Collection) Path() string { return c.path }

// SetLocked simulates another process holding the collection.
func (c *Collection) SetLocked(locked bool) {
	c.mu.Lock()
	c.locked = locked
	c.mu.Unlock()
}

// FailLogin makes SyncLogin return err.
func (c *Collection) FailLogin(err error) {
	c.mu.Lock()
	c.loginErr = err
	c.mu.Unlock()
}

// FailSync makes SyncCollection return err.
func (c *Collection) FailSync(err error) {
	c.mu.Lock()
	c.syncErr = err
	c.mu.Unlock()
}

// SetSyncOutput sets the string SyncCollection returns.
func (c *Collection) SetSyncOutput(out string) {
	c.mu.Lock()
	c.syncOutput = out
	c.mu.Unlock()
}

// Logins returns every SyncLogin call so far.
func (c *Collection) Logins() []Login {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.logins)
}

// Syncs returns the includeMedia flag of every SyncCollection call.
func (c *Collection) Syncs() []bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.syncs)
}

// OpenHandles is the number of handles opened and not yet closed.
func (c *Collection) OpenHandles() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opens - c.closes
}

// Opens is the number of handles ever opened.
func (c *Collection) Opens() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opens
}

// AddDeck creates a deck directly, returning its id.
func (c *Collection) AddDeck(name string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.createDeckLocked(name)
}

// AddNoteType registers a note type directly.
func (c *Collection) AddNoteType(name string, fields ...string) collection.NoteType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addNoteTypeLocked(name, fields...)
}

func (c *Collection) addNoteTypeLocked(name string, fields ...string) collection.NoteType {
	nt := collection.NoteType{ID: c.id(), Name: name, Fields: slices.Clone(fields)}
	c.noteTypes = append(c.noteTypes, nt)
	return nt
}

// Seed stores a note directly. fields are name/value pairs.
func (c *Collection) Seed(deckName, noteTypeName string, tags []string, fields ...string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	nt, ok := collection.NoteTypeByName(c.noteTypes, noteTypeName)
	if !ok {
		panic(fmt.Sprintf("memory: unknown note type %q", noteTypeName))
	}
	deck, ok := collection.DeckByName(c.decks, deckName)
	if !ok {
		deck.ID = c.createDeckLocked(deckName)
	}
	n := collection.NewNote(nt)
	for i := 0; i+1 < len(fields); i += 2 {
		if err := n.Set(fields[i], fields[i+1]); err != nil {
			panic(err)
		}
	}
	for _, tag := range tags {
		n.AddTag(tag)
	}
	added := c.storeLocked(n, deck.ID)
	return added.NoteID
}

// NoteCount is the number of stored notes.
func (c *Collection) NoteCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.notes)
}

// Stored returns a copy of a stored note.
func (c *Collection) Stored(id int64) (*collection.Note, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.notes[id]
	if !ok {
		return nil, false
	}
	return c.viewLocked(n), true
}

func (c *Collection) createDeckLocked(name string) int64 {
	if d, ok := collection.DeckByName(c.decks, name); ok {
		return d.ID
	}
	d := collection.Deck{ID: c.id(), Name: strings.TrimSpace(name)}
	c.decks = append(c.decks, d)
	return d.ID
}

func (c *Collection) storeLocked(n *collection.Note, deckID int64) collection.AddedNote {
	stored := n.Clone()
	stored.ID = c.id()
	stored.GUID = fmt.Sprintf("g%d", stored.ID)
	stored.DeckID = deckID
	stored.CardIDs = []int64{c.id()}
	c.notes[stored.ID] = stored
	c.order = append(c.order, stored.ID)
	return collection.AddedNote{NoteID: stored.ID, CardCount: len(stored.CardIDs)}
}

func (c *Collection) viewLocked(n *collection.Note) *collection.Note {
	out := n.Clone()
	for _, d := range c.decks {
		if d.ID == out.DeckID {
			out.DeckName = d.Name
		}
	}
	return out
}

func (c *Collection) deckLocked(id int64) (collection.Deck, bool) {
	for _, d := range c.decks {
		if d.ID == id {
			return d, true
		}
	}
	return collection.Deck{}, false
}

func (c *Collection) noteTypeLocked(id int64) (collection.NoteType, bool) {
	for _, nt := range c.noteTypes {
		if nt.ID == id {
			return nt, true
		}
	}
	return collection.NoteType{}, false
}

type handle struct {
	col *Collection

	mu     sync.Mutex
	closed bool
}

func (h *handle) lock() (*Collection, error) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return nil, collection.ErrClosed
	}
	h.col.mu.Lock()
	return h.col, nil
}

func (h *handle) Path() string { return h.col.path }

func (h *handle) Info(context.Context) (collection.Info, error) {
	c, err := h.lock()
	if err != nil {
		return collection.Info{}, err
	}
	defer c.mu.Unlock()

	cards := 0
	for _, n := range c.notes {
		cards += len(n.CardIDs)
	}
	return collection.Info{
		Path:          c.path,
		Profile:       c.profile,
		NoteCount:     len(c.notes),
		CardCount:     cards,
		DeckCount:     len(c.decks),
		NoteTypeCount: len(c.noteTypes),
	}, nil
}

func (h *handle) Decks(context.Context) ([]collection.Deck, error) {
	c, err := h.lock()
	if err != nil {
		return nil, err
	}
	defer c.mu.Unlock()
	return slices.Clone(c.decks), nil
}

func (h *handle) Deck(_ context.Context, id int64) (collection.Deck, error) {
	c, err := h.lock()
	if err != nil {
		return collection.Deck{}, err
	}
	defer c.mu.Unlock()
	d, ok := c.deckLocked(id)
	if !ok {
		return collection.Deck{}, errcode.New(errcode.NotFound, "deck %d not found", id)
	}
	return d, nil
}

func (h *handle) CreateDeck(_ context.Context, name string) (int64, error) {
	if strings.TrimSpace(name) == "" {
		return 0, errcode.New(errcode.InvalidArgument, "deck name is required")
	}
	c, err := h.lock()
	if err != nil {
		return 0, err
	}
	defer c.mu.Unlock()
	return c.createDeckLocked(name), nil
}

func (h *handle) NoteTypes(context.Context) ([]collection.NoteType, error) {
	c, err := h.lock()
	if err != nil {
		return nil, err
	}
	defer c.mu.Unlock()
	out := make([]collection.NoteType, len(c.noteTypes))
	for i, nt := range c.noteTypes {
		nt.Fields = slices.Clone(nt.Fields)
		out[i] = nt
	}
	return out, nil
}

func (h *handle) AddNote(_ context.Context, note *collection.Note, deckID int64) (collection.AddedNote, error) {
	c, err := h.lock()
	if err != nil {
		return collection.AddedNote{}, err
	}
	defer c.mu.Unlock()

	if _, ok := c.deckLocked(deckID); !ok {
		return collection.AddedNote{}, errcode.New(errcode.NotFound, "deck %d not found", deckID)
	}
	nt, ok := c.noteTypeLocked(note.NoteTypeID)
	if !ok {
		return collection.AddedNote{}, errcode.New(errcode.NotFound, "note type %d not found", note.NoteTypeID)
	}
	fresh := collection.NewNote(nt)
	if err := mergeFields(fresh, note.Fields); err != nil {
		return collection.AddedNote{}, err
	}
	fresh.Tags = note.Tags
	added := c.storeLocked(fresh, deckID)
	note.ID = added.NoteID
	return added, nil
}

func (h *handle) Note(_ context.Context, id int64) (*collection.Note, error) {
	c, err := h.lock()
	if err != nil {
		return nil, err
	}
	defer c.mu.Unlock()
	n, ok := c.notes[id]
	if !ok {
		return nil, errcode.New(errcode.NotFound, "note %d not found", id)
	}
	return c.viewLocked(n), nil
}

func (h *handle) UpdateNote(_ context.Context, note *collection.Note) error {
	c, err := h.lock()
	if err != nil {
		return err
	}
	defer c.mu.Unlock()
	stored, ok := c.notes[note.ID]
	if !ok {
		return errcode.New(errcode.NotFound, "note %d not found", note.ID)
	}
	merged := stored.Clone()
	if err := mergeFields(merged, note.Fields); err != nil {
		return err
	}
	stored.Fields = merged.Fields
	stored.Tags = slices.Clone(note.Tags)
	if stored.Tags == nil {
		stored.Tags = []string{}
	}
	return nil
}

func (h *handle) FindNotes(_ context.Context, query string) ([]int64, error) {
	c, err := h.lock()
	if err != nil {
		return nil, err
	}
	defer c.mu.Unlock()

	terms := parseQuery(query)
	ids := []int64{}
	for _, id := range c.order {
		n := c.viewLocked(c.notes[id])
		if terms.match(n) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (h *handle) SyncLogin(_ context.Context, username, password, endpoint string) (collection.SyncAuth, error) {
	c, err := h.lock()
	if err != nil {
		return collection.SyncAuth{}, err
	}
	defer c.mu.Unlock()

	c.logins = append(c.logins, Login{Username: username, Password: password, Endpoint: endpoint})
	if c.loginErr != nil {
		return collection.SyncAuth{}, c.loginErr
	}
	return collection.SyncAuth{HostKey: "hk-" + username, Endpoint: endpoint}, nil
}

func (h *handle) SyncCollection(_ context.Context, auth collection.SyncAuth, includeMedia bool) (string, error) {
	c, err := h.lock()
	if err != nil {
		return "", err
	}
	defer c.mu.Unlock()

	if auth.HostKey == "" {
		return "", errcode.New(errcode.InvalidArgument, "sync auth is missing its host key")
	}
	c.syncs = append(c.syncs, includeMedia)
	if c.syncErr != nil {
		return "", c.syncErr
	}
	return c.syncOutput, nil
}

func (h *handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	h.col.mu.Lock()
	h.col.closes++
	h.col.mu.Unlock()
	return nil
}

// mergeFields assigns fields by name so the note keeps its note type's order.
func mergeFields(n *collection.Note, fields collection.Fields) error {
	for _, f := range fields {
		if err := n.Set(f.Name, f.Value); err != nil {
			return err
		}
	}
	return nil
}
