package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hrntsm/grasshopper-mcp/internal/bridge"
)

type noInput struct{}

type addComponentInput struct {
	ComponentType string  `json:"component_type" jsonschema:"Component type (point, curve, circle, line, panel, slider)"`
	X             float64 `json:"x" jsonschema:"X coordinate on the canvas"`
	Y             float64 `json:"y" jsonschema:"Y coordinate on the canvas"`
}

type pathInput struct {
	Path string `json:"path" jsonschema:"Document path on the machine running the canvas"`
}

type connectInput struct {
	SourceID         string  `json:"source_id" jsonschema:"ID of the source component (output)"`
	TargetID         string  `json:"target_id" jsonschema:"ID of the target component (input)"`
	SourceParam      *string `json:"source_param,omitempty" jsonschema:"Name of the source parameter"`
	TargetParam      *string `json:"target_param,omitempty" jsonschema:"Name of the target parameter"`
	SourceParamIndex *int    `json:"source_param_index,omitempty" jsonschema:"Index of the source parameter, used if source_param is not provided"`
	TargetParamIndex *int    `json:"target_param_index,omitempty" jsonschema:"Index of the target parameter, used if target_param is not provided"`
}

type validateInput struct {
	SourceID    string  `json:"source_id" jsonschema:"ID of the source component (output)"`
	TargetID    string  `json:"target_id" jsonschema:"ID of the target component (input)"`
	SourceParam *string `json:"source_param,omitempty" jsonschema:"Name of the source parameter"`
	TargetParam *string `json:"target_param,omitempty" jsonschema:"Name of the target parameter"`
}

type descriptionInput struct {
	Description string `json:"description" jsonschema:"High-level description of what to create, such as '3D voronoi cube'"`
}

type queryInput struct {
	Query string `json:"query" jsonschema:"Search query"`
}

type componentIDInput struct {
	ComponentID string `json:"component_id" jsonschema:"ID of the component"`
}

type componentTypeInput struct {
	ComponentType string `json:"component_type" jsonschema:"Type of component to get parameters for"`
}

func registerTools(server *mcpsdk.Server, b *bridge.Bridge) {
	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "add_component",
		Description: "Add a component to the Grasshopper canvas",
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, in addComponentInput) (*mcpsdk.CallToolResult, any, error) {
		return responseResult(b.AddComponent(ctx, in.ComponentType, in.X, in.Y))
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "clear_document",
		Description: "Clear the Grasshopper document",
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, _ noInput) (*mcpsdk.CallToolResult, any, error) {
		return responseResult(b.ClearDocument(ctx))
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "save_document",
		Description: "Save the Grasshopper document",
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, in pathInput) (*mcpsdk.CallToolResult, any, error) {
		return responseResult(b.SaveDocument(ctx, in.Path))
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "load_document",
		Description: "Load a Grasshopper document",
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, in pathInput) (*mcpsdk.CallToolResult, any, error) {
		return responseResult(b.LoadDocument(ctx, in.Path))
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "get_document_info",
		Description: "Get information about the Grasshopper document",
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, _ noInput) (*mcpsdk.CallToolResult, any, error) {
		return responseResult(b.GetDocumentInfo(ctx))
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name: "connect_components",
		Description: `Connect two components in the Grasshopper canvas.
When the target is a two-input operator (Addition, Subtraction, Multiplication,
Division, Math) and no target port is given, input A is used unless it is
already connected, in which case input B is.`,
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, in connectInput) (*mcpsdk.CallToolResult, any, error) {
		return responseResult(b.ConnectComponents(ctx, bridge.ConnectRequest{
			SourceID:         in.SourceID,
			TargetID:         in.TargetID,
			SourceParam:      in.SourceParam,
			TargetParam:      in.TargetParam,
			SourceParamIndex: in.SourceParamIndex,
			TargetParamIndex: in.TargetParamIndex,
		}))
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "create_pattern",
		Description: "Create a pattern of components based on a high-level description",
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, in descriptionInput) (*mcpsdk.CallToolResult, any, error) {
		return responseResult(b.CreatePattern(ctx, in.Description))
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "get_available_patterns",
		Description: "Get a list of available patterns that match a query",
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, in queryInput) (*mcpsdk.CallToolResult, any, error) {
		return responseResult(b.GetAvailablePatterns(ctx, in.Query))
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "get_component_info",
		Description: "Get detailed information about a specific component, including inputs, outputs, current values and connections",
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, in componentIDInput) (*mcpsdk.CallToolResult, any, error) {
		return responseResult(b.GetComponentInfo(ctx, in.ComponentID))
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "get_all_components",
		Description: "Get a list of all components in the current document with their IDs, types, positions and parameter details",
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, _ noInput) (*mcpsdk.CallToolResult, any, error) {
		return responseResult(b.GetAllComponents(ctx))
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "get_connections",
		Description: "Get a list of all connections between components in the current document",
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, _ noInput) (*mcpsdk.CallToolResult, any, error) {
		return responseResult(b.GetConnections(ctx))
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "search_components",
		Description: "Search for components by name or category",
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, in queryInput) (*mcpsdk.CallToolResult, any, error) {
		return responseResult(b.SearchComponents(ctx, in.Query))
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "get_component_parameters",
		Description: "Get a list of input and output parameters for a specific component type",
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, in componentTypeInput) (*mcpsdk.CallToolResult, any, error) {
		return responseResult(b.GetComponentParameters(ctx, in.ComponentType))
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "validate_connection",
		Description: "Validate if a connection between two components is possible",
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, in validateInput) (*mcpsdk.CallToolResult, any, error) {
		return responseResult(b.ValidateConnection(ctx, bridge.ValidateRequest{
			SourceID:    in.SourceID,
			TargetID:    in.TargetID,
			SourceParam: in.SourceParam,
			TargetParam: in.TargetParam,
		}))
	})
}
