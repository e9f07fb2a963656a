package engine

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mousetail/mousetail/internal/config"
)

type lookupPathFunc func(file string) (string, error)

var lookPath lookupPathFunc = exec.LookPath

// checkCommand fails when the stdio engine command, or the program an
// `env` wrapper would run, is not on PATH.
func checkCommand(cfg config.EngineConfig, lookup lookupPathFunc) error {
	command := strings.TrimSpace(cfg.Command)
	if command == "" {
		return nil
	}
	if _, err := lookup(command); err != nil {
		return fmt.Errorf("engine command %q not found in PATH", command)
	}
	if filepath.Base(command) != "env" {
		return nil
	}
	wrapped := envWrappedCommand(cfg.Args)
	if wrapped == "" {
		return nil
	}
	if _, err := lookup(wrapped); err != nil {
		return fmt.Errorf("engine command %q not found in PATH", wrapped)
	}
	return nil
}

// envWrappedCommand returns the program `env [options] [NAME=value]... cmd`
// would execute.
func envWrappedCommand(args []string) string {
	for i := 0; i < len(args); i++ {
		token := strings.TrimSpace(args[i])
		switch {
		case token == "":
		case token == "--":
			return firstCommandToken(args[i+1:])
		case token == "-S" || token == "--split-string":
			if i+1 >= len(args) {
				return ""
			}
			i++
			if cmd := envWrappedCommand(strings.Fields(args[i])); cmd != "" {
				return cmd
			}
		case strings.HasPrefix(token, "-S="), strings.HasPrefix(token, "--split-string="):
			_, value, _ := strings.Cut(token, "=")
			if cmd := envWrappedCommand(strings.Fields(value)); cmd != "" {
				return cmd
			}
		case token == "-u" || token == "--unset" || token == "-C" || token == "--chdir":
			if i+1 >= len(args) {
				return ""
			}
			i++
		case strings.HasPrefix(token, "-"):
		case strings.Index(token, "=") > 0:
		default:
			return trimBalancedQuotes(token)
		}
	}
	return ""
}

func firstCommandToken(args []string) string {
	for _, raw := range args {
		token := trimBalancedQuotes(strings.TrimSpace(raw))
		if token == "" || strings.Index(token, "=") > 0 {
			continue
		}
		return token
	}
	return ""
}

func trimBalancedQuotes(token string) string {
	if len(token) < 2 {
		return token
	}
	start, end := token[0], token[len(token)-1]
	if (start == '\'' && end == '\'') || (start == '"' && end == '"') {
		return token[1 : len(token)-1]
	}
	return token
}
