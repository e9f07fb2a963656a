package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/mousetail/mousetail/internal/config"
	"github.com/mousetail/mousetail/internal/tools"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	var httpAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the MCP tools over stdio or streamable HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts, httpAddr)
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http", "", "listen address for streamable HTTP (e.g. :8765); stdio when empty")
	return cmd
}

func runServe(ctx context.Context, opts *rootOptions, httpAddr string) error {
	rt, err := opts.newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()
	warnIfNoEngine(rt.log, rt.cfg.Engine)

	s := tools.NewServer(rt.service, buildVersion)

	if httpAddr == "" {
		rt.log.Info().Str("transport", "stdio").Msg("serving")
		if err := server.ServeStdio(s); err != nil {
			return internalErr(err)
		}
		return nil
	}

	httpServer := server.NewStreamableHTTPServer(s)
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start(httpAddr)
	}()
	rt.log.Info().Str("transport", "http").Str("addr", httpAddr).Msg("serving")

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return internalErr(err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		rt.log.Info().Msg("shutting down")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return internalErr(err)
		}
		return nil
	}
}

// warnIfNoEngine flags a server that can only answer credential tools.
func warnIfNoEngine(log zerolog.Logger, e config.EngineConfig) bool {
	if e.IsConfigured() {
		return false
	}
	log.Warn().Msg("no collection engine configured: set [engine] command or url; collection tools will report CollectionUnavailable")
	return true
}
