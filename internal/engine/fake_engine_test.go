package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mousetail/mousetail/internal/collection"
	"github.com/mousetail/mousetail/internal/collection/memory"
)

// fakeEngine serves the engine protocol over a memory accessor.
type fakeEngine struct {
	acc *memory.Accessor

	mu      sync.Mutex
	handles map[string]collection.Handle
	next    int
	calls   []string
}

func newFakeEngine(acc *memory.Accessor) *fakeEngine {
	return &fakeEngine{acc: acc, handles: make(map[string]collection.Handle)}
}

func (f *fakeEngine) openHandles() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handles)
}

func (f *fakeEngine) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func bind(req mcp.CallToolRequest, v any) error {
	data, err := json.Marshal(req.GetArguments())
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func toolResult(v any, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if v == nil {
		v = map[string]any{}
	}
	text, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content:           []mcp.Content{mcp.TextContent{Type: "text", Text: string(text)}},
		StructuredContent: v,
	}, nil
}

func (f *fakeEngine) add(s *server.MCPServer, name string, fn func(context.Context, mcp.CallToolRequest) (any, error)) {
	s.AddTool(mcp.NewTool(name), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		f.mu.Lock()
		f.calls = append(f.calls, name)
		f.mu.Unlock()
		return toolResult(fn(ctx, req))
	})
}

func (f *fakeEngine) addHandle(s *server.MCPServer, name string, fn func(context.Context, mcp.CallToolRequest, collection.Handle) (any, error)) {
	f.add(s, name, func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
		id := req.GetString("handle", "")
		f.mu.Lock()
		h, ok := f.handles[id]
		f.mu.Unlock()
		if !ok {
			return nil, fmt.Errorf("unknown handle %q", id)
		}
		return fn(ctx, req, h)
	})
}

func (f *fakeEngine) server() *server.MCPServer {
	s := server.NewMCPServer("fake-engine", "1.0.0")

	f.add(s, ToolCheckCollection, func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
		return nil, f.acc.CheckAccessible(ctx, req.GetString("path", ""))
	})
	f.add(s, ToolOpenCollection, func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
		h, err := f.acc.Open(ctx, req.GetString("path", ""))
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		f.next++
		id := fmt.Sprintf("h%d", f.next)
		f.handles[id] = h
		f.mu.Unlock()
		return openResult{Handle: id}, nil
	})
	f.add(s, ToolCloseCollection, func(_ context.Context, req mcp.CallToolRequest) (any, error) {
		id := req.GetString("handle", "")
		f.mu.Lock()
		h, ok := f.handles[id]
		delete(f.handles, id)
		f.mu.Unlock()
		if !ok {
			return nil, fmt.Errorf("unknown handle %q", id)
		}
		return nil, h.Close()
	})
	f.addHandle(s, ToolCollectionInfo, func(ctx context.Context, _ mcp.CallToolRequest, h collection.Handle) (any, error) {
		return h.Info(ctx)
	})
	f.addHandle(s, ToolListDecks, func(ctx context.Context, _ mcp.CallToolRequest, h collection.Handle) (any, error) {
		decks, err := h.Decks(ctx)
		return decksResult{Decks: decks}, err
	})
	f.addHandle(s, ToolGetDeck, func(ctx context.Context, req mcp.CallToolRequest, h collection.Handle) (any, error) {
		var args struct {
			DeckID int64 `json:"deck_id"`
		}
		if err := bind(req, &args); err != nil {
			return nil, err
		}
		deck, err := h.Deck(ctx, args.DeckID)
		return deckResult{Deck: deck}, err
	})
	f.addHandle(s, ToolCreateDeck, func(ctx context.Context, req mcp.CallToolRequest, h collection.Handle) (any, error) {
		id, err := h.CreateDeck(ctx, req.GetString("name", ""))
		return createDeckResult{DeckID: id}, err
	})
	f.addHandle(s, ToolListNoteTypes, func(ctx context.Context, _ mcp.CallToolRequest, h collection.Handle) (any, error) {
		types, err := h.NoteTypes(ctx)
		return noteTypesResult{NoteTypes: types}, err
	})
	f.addHandle(s, ToolAddNote, func(ctx context.Context, req mcp.CallToolRequest, h collection.Handle) (any, error) {
		var args struct {
			Note   collection.Note `json:"note"`
			DeckID int64           `json:"deck_id"`
		}
		if err := bind(req, &args); err != nil {
			return nil, err
		}
		return h.AddNote(ctx, &args.Note, args.DeckID)
	})
	f.addHandle(s, ToolGetNote, func(ctx context.Context, req mcp.CallToolRequest, h collection.Handle) (any, error) {
		var args struct {
			NoteID int64 `json:"note_id"`
		}
		if err := bind(req, &args); err != nil {
			return nil, err
		}
		n, err := h.Note(ctx, args.NoteID)
		if err != nil {
			return nil, err
		}
		return noteResult{Note: *n}, nil
	})
	f.addHandle(s, ToolUpdateNote, func(ctx context.Context, req mcp.CallToolRequest, h collection.Handle) (any, error) {
		var args struct {
			Note collection.Note `json:"note"`
		}
		if err := bind(req, &args); err != nil {
			return nil, err
		}
		return nil, h.UpdateNote(ctx, &args.Note)
	})
	f.addHandle(s, ToolFindNotes, func(ctx context.Context, req mcp.CallToolRequest, h collection.Handle) (any, error) {
		ids, err := h.FindNotes(ctx, req.GetString("query", ""))
		return findNotesResult{NoteIDs: ids}, err
	})
	f.addHandle(s, ToolSyncLogin, func(ctx context.Context, req mcp.CallToolRequest, h collection.Handle) (any, error) {
		auth, err := h.SyncLogin(ctx, req.GetString("username", ""), req.GetString("password", ""), req.GetString("endpoint", ""))
		return loginResult{Auth: auth}, err
	})
	f.addHandle(s, ToolSyncCollection, func(ctx context.Context, req mcp.CallToolRequest, h collection.Handle) (any, error) {
		var args struct {
			Auth      collection.SyncAuth `json:"auth"`
			SyncMedia bool                `json:"sync_media"`
		}
		if err := bind(req, &args); err != nil {
			return nil, err
		}
		out, err := h.SyncCollection(ctx, args.Auth, args.SyncMedia)
		return syncResult{Output: out}, err
	})
	return s
}

func (f *fakeEngine) start(t *testing.T) *httptest.Server {
	t.Helper()
	ts := server.NewTestStreamableHTTPServer(f.server())
	t.Cleanup(ts.Close)
	return ts
}
