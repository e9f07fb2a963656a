package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mousetail/mousetail/internal/errcode"
)

// Tool names.
const (
	ToolListCollections   = "list_collections"
	ToolCollectionInfo    = "get_collection_info"
	ToolListDecks         = "list_decks"
	ToolCreateDeck        = "create_deck"
	ToolListNoteTypes     = "list_note_types"
	ToolCreateNote        = "create_note"
	ToolSearchNotes       = "search_notes"
	ToolGetNote           = "get_note"
	ToolUpdateNote        = "update_note"
	ToolSaveCredentials   = "save_sync_credentials"
	ToolLoadCredentials   = "load_sync_credentials"
	ToolDeleteCredentials = "delete_sync_credentials"
	ToolSyncCollection    = "sync_collection"
)

// ServerName is the MCP server name mousetail reports.
const ServerName = "mousetail"

// NewServer returns an MCP server with every tool registered.
func NewServer(svc *Service, version string) *server.MCPServer {
	s := server.NewMCPServer(ServerName, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	Register(s, svc)
	return s
}

type pathArgs struct {
	CollectionPath string `json:"collection_path"`
}

type props map[string]any

func prop(typ, desc string) map[string]any {
	return map[string]any{"type": typ, "description": desc}
}

func stringList(desc string) map[string]any {
	return map[string]any{"type": "array", "description": desc, "items": map[string]any{"type": "string"}}
}

// tool builds a tool definition. Collection tools get collection_path.
func tool(name, desc string, collectionTool bool, properties props, required ...string) mcp.Tool {
	if properties == nil {
		properties = props{}
	}
	if collectionTool {
		properties["collection_path"] = prop("string", "Path to collection.anki2. Defaults to the configured or first discovered profile.")
	}
	return mcp.Tool{
		Name:        name,
		Description: desc,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: properties,
			Required:   required,
		},
	}
}

// Register adds every tool to s.
func Register(s *server.MCPServer, svc *Service) {
	s.AddTool(tool(ToolListCollections, "List the Anki collections found on this machine.", false, nil),
		handle(svc, ToolListCollections, func(ctx context.Context, _ struct{}) Result {
			return svc.ListCollections(ctx)
		}))

	s.AddTool(tool(ToolCollectionInfo, "Report note, card, deck and note type counts for a collection.", true, nil),
		handle(svc, ToolCollectionInfo, func(ctx context.Context, args pathArgs) Result {
			return svc.CollectionInfo(ctx, args.CollectionPath)
		}))

	s.AddTool(tool(ToolListDecks, "List every deck in a collection.", true, nil),
		handle(svc, ToolListDecks, func(ctx context.Context, args pathArgs) Result {
			return svc.ListDecks(ctx, args.CollectionPath)
		}))

	s.AddTool(tool(ToolCreateDeck, "Create a deck. Use :: to nest decks, e.g. Languages::Spanish.", true, props{
		"deck_name": prop("string", "Full deck name"),
	}, "deck_name"), handle(svc, ToolCreateDeck, func(ctx context.Context, args struct {
		DeckName       string `json:"deck_name"`
		CollectionPath string `json:"collection_path"`
	}) Result {
		if args.DeckName == "" {
			return Fail(errcode.New(errcode.InvalidArgument, "deck_name is required"))
		}
		return svc.CreateDeck(ctx, args.CollectionPath, args.DeckName)
	}))

	s.AddTool(tool(ToolListNoteTypes, "List every note type with its field names.", true, nil),
		handle(svc, ToolListNoteTypes, func(ctx context.Context, args pathArgs) Result {
			return svc.ListNoteTypes(ctx, args.CollectionPath)
		}))

	s.AddTool(tool(ToolCreateNote, "Create a note in a deck. Field names must match the note type.", true, props{
		"deck_name":      prop("string", "Target deck"),
		"note_type_name": prop("string", "Note type, e.g. Basic or Cloze"),
		"fields":         prop("object", "Field name to value"),
		"tags":           stringList("Tags to add"),
	}, "deck_name", "note_type_name", "fields"), handle(svc, ToolCreateNote, svc.CreateNote))

	s.AddTool(tool(ToolSearchNotes, "Search notes with Anki search syntax, e.g. deck:Spanish tag:verb.", true, props{
		"query": prop("string", "Anki search query"),
		"limit": prop("integer", "Maximum note ids to return (default 100); 0 or less returns all"),
	}, "query"), handle(svc, ToolSearchNotes, svc.SearchNotes))

	s.AddTool(tool(ToolGetNote, "Get a note with its fields, tags and cards.", true, props{
		"note_id": prop("integer", "Note id"),
	}, "note_id"), handle(svc, ToolGetNote, func(ctx context.Context, args struct {
		NoteID         int64  `json:"note_id"`
		CollectionPath string `json:"collection_path"`
	}) Result {
		return svc.GetNote(ctx, args.CollectionPath, args.NoteID)
	}))

	s.AddTool(tool(ToolUpdateNote, "Update note fields by name. When tags is given it replaces every tag.", true, props{
		"note_id": prop("integer", "Note id"),
		"fields":  prop("object", "Field name to new value"),
		"tags":    stringList("Replacement tag set; an empty list removes every tag"),
	}, "note_id"), handle(svc, ToolUpdateNote, svc.UpdateNote))

	s.AddTool(tool(ToolSaveCredentials, "Save sync credentials in the system keyring.", false, props{
		"username": prop("string", "Sync username"),
		"password": prop("string", "Sync password"),
		"endpoint": prop("string", "Custom sync server URL. Omit for AnkiWeb."),
	}, "username", "password"), handle(svc, ToolSaveCredentials, svc.SaveCredentials))

	s.AddTool(tool(ToolLoadCredentials, "Load the saved sync credentials.", false, nil),
		handle(svc, ToolLoadCredentials, func(ctx context.Context, _ struct{}) Result {
			return svc.LoadCredentials(ctx)
		}))

	s.AddTool(tool(ToolDeleteCredentials, "Delete the saved sync credentials.", false, nil),
		handle(svc, ToolDeleteCredentials, func(ctx context.Context, _ struct{}) Result {
			return svc.DeleteCredentials(ctx)
		}))

	s.AddTool(tool(ToolSyncCollection, "Sync a collection with AnkiWeb or a custom server. Uses saved credentials when none are given.", true, props{
		"username":   prop("string", "Sync username"),
		"password":   prop("string", "Sync password"),
		"endpoint":   prop("string", "Custom sync server URL"),
		"sync_media": prop("boolean", "Also sync media files (default true)"),
	}), handle(svc, ToolSyncCollection, svc.Sync))
}

// handle adapts a typed tool function to an MCP handler. Argument decoding
// failures become InvalidArgument envelopes, never protocol errors.
func handle[T any](svc *Service, name string, fn func(context.Context, T) Result) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args T
		var res Result
		if err := bindArguments(req, &args); err != nil {
			res = Fail(errcode.Wrap(errcode.InvalidArgument, fmt.Errorf("invalid arguments: %w", err)))
		} else {
			res = fn(ctx, args)
		}

		ev := svc.log.Debug()
		if !res.Success {
			ev = svc.log.Warn().Str("code", string(res.Code)).Str("error", res.Error)
		}
		ev.Str("tool", name).Bool("success", res.Success).Msg("tool call")

		return toCallResult(res)
	}
}

func bindArguments(req mcp.CallToolRequest, v any) error {
	args := req.GetArguments()
	if len(args) == 0 {
		return nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func toCallResult(res Result) (*mcp.CallToolResult, error) {
	text, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encoding tool result: %w", err)
	}
	return &mcp.CallToolResult{
		Content:           []mcp.Content{mcp.TextContent{Type: "text", Text: string(text)}},
		StructuredContent: res,
		IsError:           !res.Success,
	}, nil
}
