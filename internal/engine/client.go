package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mousetail/mousetail/internal/config"
	"github.com/mousetail/mousetail/internal/errcode"
)

const protocolVersion = "2025-11-25"

// connection wraps an MCP client with its transport.
type connection struct {
	callTool func(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error)
	close    func() error
}

// Client holds one lazily started connection to the engine. A failed call
// drops the connection so the next call reconnects.
type Client struct {
	cfg     config.EngineConfig
	version string

	mu   sync.Mutex
	conn *connection
}

// NewClient returns a client for cfg. version is sent as the MCP client version.
func NewClient(cfg config.EngineConfig, version string) *Client {
	return &Client{cfg: cfg, version: version}
}

func (c *Client) getOrCreate(ctx context.Context) (*connection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return c.conn, nil
	}

	if !c.cfg.IsConfigured() {
		return nil, errcode.New(errcode.CollectionUnavailable, "collection engine not configured: set [engine] command or url")
	}

	var conn *connection
	var err error
	if c.cfg.IsStdio() {
		conn, err = connectStdio(ctx, c.cfg, c.clientInfo())
	} else {
		conn, err = connectHTTP(ctx, c.cfg, c.clientInfo())
	}

	if err != nil {
		return nil, errcode.Wrap(errcode.CollectionUnavailable, fmt.Errorf("connecting to collection engine: %w", err))
	}

	c.conn = conn
	return conn, nil
}

func (c *Client) clientInfo() mcp.Implementation {
	return mcp.Implementation{Name: "mousetail", Version: c.version}
}

func (c *Client) invalidate(conn *connection) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()

	if conn != nil && conn.close != nil {
		conn.close() //nolint: errcheck
	}
}

// CallTool invokes an engine tool. Transport failures drop the connection;
// tool-level failures come back as an isError result.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	conn, err := c.getOrCreate(ctx)
	if err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}

	result, err := conn.callTool(ctx, name, args)
	if err != nil {
		c.invalidate(conn)
		return nil, fmt.Errorf("engine %s: %w", name, err)
	}
	return result, nil
}

// Connected reports whether a connection is currently open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Close disconnects from the engine. The next call reconnects.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil && conn.close != nil {
		return conn.close()
	}
	return nil
}

func initialize(ctx context.Context, c *mcpclient.Client, info mcp.Implementation) error {
	_, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: protocolVersion,
			ClientInfo:      info,
			Capabilities:    mcp.ClientCapabilities{},
		},
	})
	return err
}

func wrapClient(c *mcpclient.Client) *connection {
	return &connection{
		callTool: func(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
			return c.CallTool(ctx, mcp.CallToolRequest{
				Params: mcp.CallToolParams{
					Name:      name,
					Arguments: args,
				},
			})
		},
		close: func() error {
			return c.Close()
		},
	}
}

func connectStdio(ctx context.Context, cfg config.EngineConfig, info mcp.Implementation) (*connection, error) {
	if err := checkCommand(cfg, lookPath); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(cfg.Env))
	for k := range cfg.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+cfg.Env[k])
	}

	c, err := mcpclient.NewStdioMCPClient(cfg.Command, env, cfg.Args...)
	if err != nil {
		return nil, fmt.Errorf("creating stdio client: %w", err)
	}

	if err := initialize(ctx, c, info); err != nil {
		c.Close()
		return nil, fmt.Errorf("initializing: %w", err)
	}
	return wrapClient(c), nil
}

func connectHTTP(ctx context.Context, cfg config.EngineConfig, info mcp.Implementation) (*connection, error) {
	headers := requestHeaders(cfg.Headers, info)
	opts := []transport.StreamableHTTPCOption{transport.WithHTTPHeaders(headers)}

	c, err := mcpclient.NewStreamableHttpClient(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP client: %w", err)
	}

	if err := c.Start(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("starting HTTP client: %w", err)
	}

	if err := initialize(ctx, c, info); err != nil {
		c.Close()
		return nil, fmt.Errorf("initializing: %w", err)
	}
	return wrapClient(c), nil
}
