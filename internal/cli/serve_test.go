package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mousetail/mousetail/internal/config"
	"github.com/rs/zerolog"
)

func TestWarnIfNoEngine(t *testing.T) {
	tests := []struct {
		name   string
		engine config.EngineConfig
		want   bool
	}{
		{name: "unset", engine: config.EngineConfig{}, want: true},
		{name: "stdio", engine: config.EngineConfig{Command: "anki-engine"}, want: false},
		{name: "http", engine: config.EngineConfig{URL: "http://127.0.0.1:9000/mcp"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			got := warnIfNoEngine(zerolog.New(&buf), tt.engine)
			if got != tt.want {
				t.Fatalf("warnIfNoEngine() = %v, want %v", got, tt.want)
			}
			logged := strings.Contains(buf.String(), "no collection engine configured")
			if logged != tt.want {
				t.Fatalf("log = %q, want warning %v", buf.String(), tt.want)
			}
		})
	}
}
