// Package serveradapter implements C7: the stdio JSON-RPC front door that
// exposes the router's merged tool set to an MCP client, built on
// mark3labs/mcp-go/server the same way the teacher builds its own
// mcp.MCPServer.
package serveradapter

import (
	"context"
	"encoding/json"
	"os/signal"
	"sync"
	"syscall"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/notionmux/notionmux/internal/logging"
	"github.com/notionmux/notionmux/internal/mcptypes"
)

// Router is the surface serveradapter delegates every call and every
// tool-list refresh to.
type Router interface {
	ListTools() []mcptypes.ToolDescriptor
	CallTool(ctx context.Context, name string, args json.RawMessage) (*mcptypes.CallResult, error)
}

// Closer is implemented by anything the adapter must tear down on
// shutdown, most notably the remote subprocess backend.
type Closer interface {
	Close() error
}

// Adapter owns the mcp-go stdio server and keeps its registered tool set
// in sync with the router's route table.
type Adapter struct {
	router     Router
	mcpServer  *server.MCPServer
	log        *logging.Logger
	registered map[string]bool
	mu         sync.Mutex
	closers    []Closer
}

// New builds an Adapter wired to router. closers are torn down, in order,
// on graceful shutdown.
func New(router Router, closers ...Closer) *Adapter {
	mcpServer := server.NewMCPServer(
		"notionmux",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	a := &Adapter{
		router:     router,
		mcpServer:  mcpServer,
		log:        logging.For("serveradapter"),
		registered: make(map[string]bool),
		closers:    closers,
	}
	a.RefreshTools()
	return a
}

// RefreshTools re-registers every tool the router currently exposes. It is
// idempotent and safe to call again after a route table rebuild (e.g.
// after a successful reauth) since the router itself is the single source
// of truth for what's currently callable.
func (a *Adapter) RefreshTools() {
	a.mu.Lock()
	defer a.mu.Unlock()

	descriptors := a.router.ListTools()
	seen := make(map[string]bool, len(descriptors))
	for _, d := range descriptors {
		seen[d.Name] = true
		tool := buildMCPTool(d)
		a.mcpServer.AddTool(tool, a.handlerFor(d.Name))
		a.registered[d.Name] = true
	}
	stale := make([]string, 0)
	for name := range a.registered {
		if !seen[name] {
			stale = append(stale, name)
		}
	}
	if len(stale) > 0 {
		a.mcpServer.DeleteTools(stale...)
		for _, name := range stale {
			delete(a.registered, name)
		}
	}
}

func (a *Adapter) handlerFor(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(req.Params.Arguments)
		if err != nil {
			return mcp.NewToolResultError("failed to encode arguments: " + err.Error()), nil
		}
		result, err := a.router.CallTool(ctx, name, args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if result.IsError {
			text := ""
			if len(result.Content) > 0 {
				text = result.Content[0].Text
			}
			return mcp.NewToolResultError(text), nil
		}
		if len(result.Content) == 0 {
			return mcp.NewToolResultText(""), nil
		}
		return mcp.NewToolResultText(result.Content[0].Text), nil
	}
}

// buildMCPTool converts our backend-agnostic descriptor into mcp-go's Tool
// shape, best-effort-parsing whatever JSON schema the originating backend
// supplied.
func buildMCPTool(d mcptypes.ToolDescriptor) mcp.Tool {
	schema := mcp.ToolInputSchema{Type: "object"}
	if len(d.InputSchema) > 0 {
		var parsed struct {
			Properties map[string]any `json:"properties"`
			Required   []string       `json:"required"`
		}
		if err := json.Unmarshal(d.InputSchema, &parsed); err == nil {
			schema.Properties = parsed.Properties
			schema.Required = parsed.Required
		}
	}
	return mcp.Tool{
		Name:        d.Name,
		Description: d.Description,
		InputSchema: schema,
	}
}

// Serve blocks, running the stdio JSON-RPC loop until the client
// disconnects, ctx is canceled, or a SIGINT/SIGTERM arrives.
func (a *Adapter) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ServeStdio(a.mcpServer, server.WithStdioContextFunc(func(context.Context) context.Context { return ctx }))
	}()

	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received, tearing down backends")
		a.shutdown()
		return nil
	case err := <-errCh:
		a.shutdown()
		return err
	}
}

func (a *Adapter) shutdown() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.log.Warn("error closing backend during shutdown", "err", err)
		}
	}
}
