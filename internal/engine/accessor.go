package engine

import (
	"context"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mousetail/mousetail/internal/collection"
	"github.com/mousetail/mousetail/internal/errcode"
	"github.com/rs/zerolog"
)

// caller is the part of Client the accessor needs.
type caller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error)
	Close() error
}

// Accessor implements collection.Accessor on top of the engine. Discovery and
// file checks are local; everything else goes through the engine.
type Accessor struct {
	client    caller
	locator   collection.Locator
	keepalive *Keepalive
	log       zerolog.Logger
}

// Option configures an Accessor.
type Option func(*Accessor)

// WithLogger sets the accessor's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(a *Accessor) { a.log = log }
}

// NewAccessor returns an accessor that stops the engine connection once no
// collection has been open for idleTimeout.
func NewAccessor(client caller, locator collection.Locator, idleTimeout time.Duration, opts ...Option) *Accessor {
	a := &Accessor{
		client:  client,
		locator: locator,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.keepalive = NewKeepalive(idleTimeout, a.stopEngine)
	return a
}

func (a *Accessor) stopEngine() {
	a.log.Debug().Msg("no open collections; stopping collection engine")
	if err := a.client.Close(); err != nil {
		a.log.Warn().Err(err).Msg("stopping collection engine")
	}
}

// Close stops the idle timers and the engine connection.
func (a *Accessor) Close() error {
	a.keepalive.Stop()
	return a.client.Close()
}

func (a *Accessor) call(ctx context.Context, tool string, args map[string]any, out any) error {
	result, err := a.client.CallTool(ctx, tool, args)
	if err != nil {
		return err
	}
	return decodeResult(tool, result, out)
}

func (a *Accessor) ListAvailable(context.Context) ([]collection.Location, error) {
	return a.locator.List()
}

func (a *Accessor) CheckAccessible(ctx context.Context, path string) error {
	resolved, err := a.locator.Resolve(path)
	if err != nil {
		return err
	}
	if err := collection.CheckFile(resolved); err != nil {
		return err
	}
	a.keepalive.Begin(resolved)
	defer a.keepalive.End(resolved)
	return a.call(ctx, ToolCheckCollection, map[string]any{"path": resolved}, nil)
}

func (a *Accessor) Open(ctx context.Context, path string) (collection.Handle, error) {
	resolved, err := a.locator.Resolve(path)
	if err != nil {
		return nil, err
	}

	a.keepalive.Begin(resolved)
	var res openResult
	if err := a.call(ctx, ToolOpenCollection, map[string]any{"path": resolved}, &res); err != nil {
		a.keepalive.End(resolved)
		return nil, err
	}
	if res.Handle == "" {
		a.keepalive.End(resolved)
		return nil, errcode.New(errcode.Internal, "engine %s returned no handle", ToolOpenCollection)
	}

	a.log.Debug().Str("collection", resolved).Str("handle", res.Handle).Msg("collection opened")
	return &handle{
		accessor: a,
		id:       res.Handle,
		path:     resolved,
		profile:  a.locator.ProfileOf(resolved),
	}, nil
}

type handle struct {
	accessor *Accessor
	id       string
	path     string
	profile  string

	closeOnce sync.Once
	closeErr  error
}

func (h *handle) call(ctx context.Context, tool string, args map[string]any, out any) error {
	if args == nil {
		args = map[string]any{}
	}
	args["handle"] = h.id
	return h.accessor.call(ctx, tool, args, out)
}

func (h *handle) Path() string { return h.path }

func (h *handle) Info(ctx context.Context) (collection.Info, error) {
	var info collection.Info
	if err := h.call(ctx, ToolCollectionInfo, nil, &info); err != nil {
		return collection.Info{}, err
	}
	if info.Path == "" {
		info.Path = h.path
	}
	if info.Profile == "" {
		info.Profile = h.profile
	}
	return info, nil
}

func (h *handle) Decks(ctx context.Context) ([]collection.Deck, error) {
	var res decksResult
	if err := h.call(ctx, ToolListDecks, nil, &res); err != nil {
		return nil, err
	}
	return res.Decks, nil
}

func (h *handle) Deck(ctx context.Context, id int64) (collection.Deck, error) {
	var res deckResult
	if err := h.call(ctx, ToolGetDeck, map[string]any{"deck_id": id}, &res); err != nil {
		return collection.Deck{}, err
	}
	return res.Deck, nil
}

func (h *handle) CreateDeck(ctx context.Context, name string) (int64, error) {
	var res createDeckResult
	if err := h.call(ctx, ToolCreateDeck, map[string]any{"name": name}, &res); err != nil {
		return 0, err
	}
	return res.DeckID, nil
}

func (h *handle) NoteTypes(ctx context.Context) ([]collection.NoteType, error) {
	var res noteTypesResult
	if err := h.call(ctx, ToolListNoteTypes, nil, &res); err != nil {
		return nil, err
	}
	return res.NoteTypes, nil
}

func (h *handle) AddNote(ctx context.Context, note *collection.Note, deckID int64) (collection.AddedNote, error) {
	var res collection.AddedNote
	if err := h.call(ctx, ToolAddNote, map[string]any{"note": note, "deck_id": deckID}, &res); err != nil {
		return collection.AddedNote{}, err
	}
	note.ID = res.NoteID
	return res, nil
}

func (h *handle) Note(ctx context.Context, id int64) (*collection.Note, error) {
	var res noteResult
	if err := h.call(ctx, ToolGetNote, map[string]any{"note_id": id}, &res); err != nil {
		return nil, err
	}
	if res.Note.Tags == nil {
		res.Note.Tags = []string{}
	}
	return &res.Note, nil
}

func (h *handle) UpdateNote(ctx context.Context, note *collection.Note) error {
	return h.call(ctx, ToolUpdateNote, map[string]any{"note": note}, nil)
}

func (h *handle) FindNotes(ctx context.Context, query string) ([]int64, error) {
	var res findNotesResult
	if err := h.call(ctx, ToolFindNotes, map[string]any{"query": query}, &res); err != nil {
		return nil, err
	}
	if res.NoteIDs == nil {
		res.NoteIDs = []int64{}
	}
	return res.NoteIDs, nil
}

func (h *handle) SyncLogin(ctx context.Context, username, password, endpoint string) (collection.SyncAuth, error) {
	var res loginResult
	args := map[string]any{"username": username, "password": password, "endpoint": endpoint}
	if err := h.call(ctx, ToolSyncLogin, args, &res); err != nil {
		return collection.SyncAuth{}, err
	}
	return res.Auth, nil
}

func (h *handle) SyncCollection(ctx context.Context, auth collection.SyncAuth, includeMedia bool) (string, error) {
	var res syncResult
	args := map[string]any{"auth": auth, "sync_media": includeMedia}
	if err := h.call(ctx, ToolSyncCollection, args, &res); err != nil {
		return "", err
	}
	return res.Output, nil
}

// Close releases the engine-side handle. It runs once; later calls return
// the first result.
func (h *handle) Close() error {
	h.closeOnce.Do(func() {
		defer h.accessor.keepalive.End(h.path)
		h.closeErr = h.call(context.Background(), ToolCloseCollection, nil, nil)
		h.accessor.log.Debug().Str("collection", h.path).Str("handle", h.id).Msg("collection closed")
	})
	return h.closeErr
}
