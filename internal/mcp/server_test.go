package mcp

import (
	"context"
	"encoding/json"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrntsm/grasshopper-mcp/internal/bridge"
	"github.com/hrntsm/grasshopper-mcp/internal/canvassim"
	"github.com/hrntsm/grasshopper-mcp/internal/catalog"
	"github.com/hrntsm/grasshopper-mcp/internal/protocol"
)

// connect serves the tools over an in-memory transport backed by a
// simulated canvas and returns the client side.
func connect(t *testing.T, canvas bridge.Sender) *mcpsdk.ClientSession {
	t.Helper()
	ctx := context.Background()

	store := catalog.New(catalog.Options{Dir: t.TempDir()})
	server := NewServer(bridge.New(canvas, store, bridge.Options{}), "test")

	st, ct := mcpsdk.NewInMemoryTransports()
	ss, err := server.Connect(ctx, st, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ss.Close() })

	c := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "test"}, nil)
	cs, err := c.Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })
	return cs
}

// call invokes a tool and decodes the canvas response it renders.
func call(t *testing.T, cs *mcpsdk.ClientSession, name string, args map[string]any) *protocol.Response {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcpsdk.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.False(t, res.IsError, "tool %s reported a protocol error", name)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)

	var resp protocol.Response
	require.NoError(t, json.Unmarshal([]byte(text.Text), &resp))
	return &resp
}

func readJSON(t *testing.T, cs *mcpsdk.ClientSession, uri string) map[string]any {
	t.Helper()
	res, err := cs.ReadResource(context.Background(), &mcpsdk.ReadResourceParams{URI: uri})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, "application/json", res.Contents[0].MIMEType)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &doc))
	return doc
}

// ---------------------------------------------------------------------------
// Tools
// ---------------------------------------------------------------------------

func TestListTools(t *testing.T) {
	cs := connect(t, canvassim.New(nil))

	res, err := cs.ListTools(context.Background(), &mcpsdk.ListToolsParams{})
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"add_component", "clear_document", "save_document", "load_document",
		"get_document_info", "connect_components", "create_pattern",
		"get_available_patterns", "get_component_info", "get_all_components",
		"get_connections", "search_components", "get_component_parameters",
		"validate_connection",
	}, names)
}

func TestToolsDriveCanvas(t *testing.T) {
	cs := connect(t, canvassim.New(nil))

	resp := call(t, cs, "add_component", map[string]any{"component_type": "slider", "x": 0, "y": 0})
	require.True(t, resp.Success, resp.Error)
	slider := resp.Result.(map[string]any)["id"].(string)

	resp = call(t, cs, "add_component", map[string]any{"component_type": "add", "x": 200, "y": 0})
	require.True(t, resp.Success, resp.Error)
	sum := resp.Result.(map[string]any)["id"].(string)
	assert.Equal(t, "Addition", resp.Result.(map[string]any)["type"])

	resp = call(t, cs, "connect_components", map[string]any{"source_id": slider, "target_id": sum})
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, "A", resp.Result.(map[string]any)["targetParam"])

	resp = call(t, cs, "get_component_info", map[string]any{"component_id": slider})
	require.True(t, resp.Success, resp.Error)
	info := resp.Result.(map[string]any)
	assert.Contains(t, info, "currentSettings")
	assert.Len(t, info["connections"], 1)

	resp = call(t, cs, "get_document_info", map[string]any{})
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, 2.0, resp.Result.(map[string]any)["componentCount"])
}

func TestToolFailureIsInPayload(t *testing.T) {
	cs := connect(t, canvassim.New(nil))

	resp := call(t, cs, "get_component_info", map[string]any{"component_id": "missing"})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "Component with ID missing not found")
}

func TestValidateConnectionTool(t *testing.T) {
	cs := connect(t, canvassim.New(nil))

	resp := call(t, cs, "validate_connection", map[string]any{"source_id": "a", "target_id": "b"})
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, false, resp.Result.(map[string]any)["valid"])
}

// ---------------------------------------------------------------------------
// Resources
// ---------------------------------------------------------------------------

func TestStatusResource(t *testing.T) {
	cs := connect(t, canvassim.New(nil))
	call(t, cs, "create_pattern", map[string]any{"description": "circle"})

	doc := readJSON(t, cs, StatusURI)
	assert.Equal(t, "Connected to Grasshopper", doc["status"])
	assert.Equal(t, "Current canvas has 3 components and 2 connections", doc["canvas_summary"])
	assert.NotEmpty(t, doc["component_hints"])
}

func TestCatalogResourcesFallBack(t *testing.T) {
	cs := connect(t, canvassim.New(nil))

	guide := readJSON(t, cs, ComponentGuideURI)
	assert.Equal(t, "Grasshopper Component Guide", guide["title"])

	lib := readJSON(t, cs, ComponentLibURI)
	assert.Contains(t, lib, "categories")
}
