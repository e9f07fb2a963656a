package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mousetail/mousetail/internal/collection"
	"github.com/mousetail/mousetail/internal/errcode"
)

// decodeResult unpacks an engine result into out. isError results become
// coded errors carrying the engine's message; out may be nil when only
// success matters.
//
// The text content is decoded first: it is the engine's own serialization
// and keeps object key order, which note fields depend on. Structured
// content arrives as a generic map and is only used when the text is empty
// or not JSON.
func decodeResult(tool string, result *mcp.CallToolResult, out any) error {
	if result == nil {
		return errcode.New(errcode.Internal, "engine %s returned no result", tool)
	}
	if result.IsError {
		return collection.FromMessage(resultText(result))
	}
	if out == nil {
		return nil
	}

	text := strings.TrimSpace(resultText(result))
	var textErr error
	if text != "" {
		if textErr = json.Unmarshal([]byte(text), out); textErr == nil {
			return nil
		}
	}

	if result.StructuredContent != nil {
		data, err := json.Marshal(result.StructuredContent)
		if err != nil {
			return errcode.Wrap(errcode.Internal, fmt.Errorf("encoding %s result: %w", tool, err))
		}
		if err := json.Unmarshal(data, out); err != nil {
			return errcode.Wrap(errcode.Internal, fmt.Errorf("decoding %s result: %w", tool, err))
		}
		return nil
	}

	if textErr != nil {
		return errcode.Wrap(errcode.Internal, fmt.Errorf("decoding %s result: %w", tool, textErr))
	}
	return errcode.New(errcode.Internal, "engine %s returned an empty result", tool)
}

// resultText joins the text content blocks of a result.
func resultText(result *mcp.CallToolResult) string {
	var parts []string
	for _, content := range result.Content {
		if text, ok := renderText(content); ok {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}

func renderText(content mcp.Content) (string, bool) {
	switch c := content.(type) {
	case mcp.TextContent:
		return c.Text, true
	case *mcp.TextContent:
		return c.Text, true
	default:
		var typed struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}
		raw, err := json.Marshal(content)
		if err != nil || json.Unmarshal(raw, &typed) != nil || typed.Type != "text" {
			return "", false
		}
		return typed.Text, true
	}
}
