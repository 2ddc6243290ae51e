// Package mcp exposes the bridge operations as MCP tools and the canvas
// status and catalog documents as MCP resources.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hrntsm/grasshopper-mcp/internal/auth"
	"github.com/hrntsm/grasshopper-mcp/internal/bridge"
	"github.com/hrntsm/grasshopper-mcp/internal/protocol"
)

// Resource URIs.
const (
	StatusURI         = "grasshopper://status"
	ComponentGuideURI = "grasshopper://component_guide"
	ComponentLibURI   = "grasshopper://component_library"
)

// ServerName is reported to clients during initialization.
const ServerName = "Grasshopper Bridge"

// NewServer builds an MCP server whose tools and resources are served by b.
func NewServer(b *bridge.Bridge, version string) *mcpsdk.Server {
	server := mcpsdk.NewServer(&mcpsdk.Implementation{Name: ServerName, Version: version}, nil)
	registerTools(server, b)
	registerResources(server, b)
	return server
}

// Run serves the MCP protocol on stdin/stdout until the client disconnects
// or ctx is cancelled.
func Run(ctx context.Context, server *mcpsdk.Server) error {
	if err := server.Run(ctx, &mcpsdk.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

// ServeHTTP serves the streamable HTTP transport on addr until ctx is
// cancelled. Requests must carry token; an empty token disables the check.
func ServeHTTP(ctx context.Context, server *mcpsdk.Server, addr, token string) error {
	var handler http.Handler = mcpsdk.NewStreamableHTTPHandler(func(*http.Request) *mcpsdk.Server { return server }, nil)
	if token != "" {
		handler = auth.Require(token, handler)
	}
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	slog.Info("mcp http server listening", "addr", addr)

	// Shut down gracefully when ctx is cancelled.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("mcp http server: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Tool results
// ---------------------------------------------------------------------------

// responseResult renders a canvas response as the tool's text content. The
// success field inside the payload is the failure signal, so IsError stays
// unset.
func responseResult(resp *protocol.Response) (*mcpsdk.CallToolResult, any, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encoding response: %w", err)
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, nil, nil
}

// jsonResource renders doc as a JSON resource body.
func jsonResource(uri string, doc any) (*mcpsdk.ReadResourceResult, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", uri, err)
	}
	return &mcpsdk.ReadResourceResult{
		Contents: []*mcpsdk.ResourceContents{{URI: uri, MIMEType: "application/json", Text: string(data)}},
	}, nil
}

// ---------------------------------------------------------------------------
// Resources
// ---------------------------------------------------------------------------

func registerResources(server *mcpsdk.Server, b *bridge.Bridge) {
	server.AddResource(&mcpsdk.Resource{
		URI:         StatusURI,
		Name:        "status",
		Description: "Current canvas: document info, component summaries, connections and usage hints",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcpsdk.ReadResourceRequest) (*mcpsdk.ReadResourceResult, error) {
		return jsonResource(req.Params.URI, b.Status(ctx))
	})

	server.AddResource(&mcpsdk.Resource{
		URI:         ComponentGuideURI,
		Name:        "component_guide",
		Description: "Guide for creating and connecting Grasshopper components",
		MIMEType:    "application/json",
	}, func(_ context.Context, req *mcpsdk.ReadResourceRequest) (*mcpsdk.ReadResourceResult, error) {
		return jsonResource(req.Params.URI, b.ComponentGuide())
	})

	server.AddResource(&mcpsdk.Resource{
		URI:         ComponentLibURI,
		Name:        "component_library",
		Description: "Capability catalog of Grasshopper components: settings, inputs, outputs and usage notes",
		MIMEType:    "application/json",
	}, func(_ context.Context, req *mcpsdk.ReadResourceRequest) (*mcpsdk.ReadResourceResult, error) {
		return jsonResource(req.Params.URI, b.ComponentLibrary())
	})
}
