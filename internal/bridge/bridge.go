// Package bridge implements the operations exposed to agents on top of the
// canvas transport. Most operations forward a single command; component
// reads are enriched from the catalog and connection requests get their
// target port inferred.
package bridge

import (
	"context"
	"log/slog"

	"github.com/hrntsm/grasshopper-mcp/internal/catalog"
	"github.com/hrntsm/grasshopper-mcp/internal/protocol"
)

// Sender carries one command to the canvas and returns its response. It must
// never return nil; transport failures are reported as failure responses.
type Sender interface {
	Send(ctx context.Context, commandType string, params map[string]any) *protocol.Response
}

// Options configures a Bridge.
type Options struct {
	// BinaryTypes extends DefaultBinaryTypes.
	BinaryTypes []string
	Documents   PathPolicy
	Logger      *slog.Logger
}

// Bridge is safe for concurrent use. It keeps no canvas state between calls.
type Bridge struct {
	canvas  Sender
	catalog *catalog.Store
	binary  map[string]bool
	docs    PathPolicy
	log     *slog.Logger
}

// New creates a Bridge that talks to canvas and consults store.
func New(canvas Sender, store *catalog.Store, opts Options) *Bridge {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	binary := make(map[string]bool, len(DefaultBinaryTypes)+len(opts.BinaryTypes))
	for _, t := range DefaultBinaryTypes {
		binary[t] = true
	}
	for _, t := range opts.BinaryTypes {
		binary[t] = true
	}
	return &Bridge{
		canvas:  canvas,
		catalog: store,
		binary:  binary,
		docs:    opts.Documents,
		log:     logger.With("component", "bridge"),
	}
}

// AddComponent places a component on the canvas. Aliases such as "slider"
// are mapped to their canonical type first.
func (b *Bridge) AddComponent(ctx context.Context, componentType string, x, y float64) *protocol.Response {
	normalized := b.catalog.Normalize(componentType)
	if normalized != componentType {
		b.log.Debug("component type normalized", "from", componentType, "to", normalized)
	}
	return b.canvas.Send(ctx, protocol.CmdAddComponent, map[string]any{
		"type": normalized,
		"x":    x,
		"y":    y,
	})
}

// ClearDocument removes everything from the canvas.
func (b *Bridge) ClearDocument(ctx context.Context) *protocol.Response {
	return b.canvas.Send(ctx, protocol.CmdClearDocument, nil)
}

// SaveDocument saves the canvas document to path.
func (b *Bridge) SaveDocument(ctx context.Context, path string) *protocol.Response {
	return b.documentCommand(ctx, protocol.CmdSaveDocument, path)
}

// LoadDocument opens the document at path on the canvas.
func (b *Bridge) LoadDocument(ctx context.Context, path string) *protocol.Response {
	return b.documentCommand(ctx, protocol.CmdLoadDocument, path)
}

func (b *Bridge) documentCommand(ctx context.Context, commandType, path string) *protocol.Response {
	if err := b.docs.Check(path); err != nil {
		b.log.Info("document path rejected", "command", commandType, "path", path, "err", err)
		return protocol.Failure("%v", err)
	}
	return b.canvas.Send(ctx, commandType, map[string]any{"path": path})
}

// GetDocumentInfo returns the canvas document summary.
func (b *Bridge) GetDocumentInfo(ctx context.Context) *protocol.Response {
	return b.canvas.Send(ctx, protocol.CmdGetDocumentInfo, nil)
}

// CreatePattern asks the canvas to build a group of components from a
// free-form description.
func (b *Bridge) CreatePattern(ctx context.Context, description string) *protocol.Response {
	return b.canvas.Send(ctx, protocol.CmdCreatePattern, map[string]any{"description": description})
}

// GetAvailablePatterns lists the patterns matching query.
func (b *Bridge) GetAvailablePatterns(ctx context.Context, query string) *protocol.Response {
	return b.canvas.Send(ctx, protocol.CmdGetAvailablePatterns, map[string]any{"query": query})
}

// GetConnections returns every connection on the canvas.
func (b *Bridge) GetConnections(ctx context.Context) *protocol.Response {
	return b.canvas.Send(ctx, protocol.CmdGetConnections, nil)
}

// SearchComponents searches the component types known to the canvas.
func (b *Bridge) SearchComponents(ctx context.Context, query string) *protocol.Response {
	return b.canvas.Send(ctx, protocol.CmdSearchComponents, map[string]any{"query": query})
}

// GetComponentParameters lists the inputs and outputs of a component type.
func (b *Bridge) GetComponentParameters(ctx context.Context, componentType string) *protocol.Response {
	return b.canvas.Send(ctx, protocol.CmdGetComponentParams, map[string]any{"componentType": componentType})
}

// ComponentGuide returns the usage guide document.
func (b *Bridge) ComponentGuide() map[string]any {
	return b.catalog.Guide()
}

// ComponentLibrary returns the capability library document.
func (b *Bridge) ComponentLibrary() map[string]any {
	return b.catalog.Library().Document()
}
