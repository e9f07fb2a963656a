// Package cli implements the mousetail command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitToolErr  = 1
	ExitUsageErr = 2
	ExitInternal = 3
)

// exitError carries an exit code out of a command. A nil err means the
// failure was already reported.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func internalErr(err error) error {
	return &exitError{code: ExitInternal, err: err}
}

func usageErr(format string, args ...any) error {
	return &exitError{code: ExitUsageErr, err: fmt.Errorf(format, args...)}
}

// Run is the main CLI entry point. Returns an exit code.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(&rootOptions{})
	root.SetArgs(args)
	root.SetIn(rootStdin)
	root.SetOut(rootStdout)
	root.SetErr(rootStderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	var exit *exitError
	if !errors.As(err, &exit) {
		// cobra argument and flag errors
		fmt.Fprintf(rootStderr, "mousetail: %v\n", err)
		return ExitUsageErr
	}
	if exit.err != nil {
		fmt.Fprintf(rootStderr, "mousetail: %v\n", exit.err)
	}
	return exit.code
}

func newRootCommand(opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:   "mousetail",
		Short: "MCP server for Anki collections and sync",
		Long: `mousetail serves an Anki collection over the Model Context Protocol.

Examples:
  mousetail                      serve MCP over stdio
  mousetail serve --http :8765   serve MCP over streamable HTTP
  mousetail credentials save --username me@example.com --password-stdin
  mousetail sync --no-media`,
		Version:       buildVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts, "")
		},
	}
	root.SetVersionTemplate("mousetail {{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/mousetail/config.toml)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format: console or json")

	root.AddCommand(
		newServeCommand(opts),
		newCollectionsCommand(opts),
		newCredentialsCommand(opts),
		newSyncCommand(opts),
		newConfigCommand(opts),
		newVersionCommand(),
	)
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the mousetail version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mousetail %s\n", buildVersion)
		},
	}
}
