package bridge

import (
	"context"
	"strconv"

	"github.com/hrntsm/grasshopper-mcp/internal/protocol"
)

// ConnectRequest names the two ends of a connection. Each side is designated
// by parameter name or by index; the name wins when both are given.
type ConnectRequest struct {
	SourceID         string
	TargetID         string
	SourceParam      *string
	TargetParam      *string
	SourceParamIndex *int
	TargetParamIndex *int
}

// params builds the wire parameters. At most one designator is sent per side
// and indexes travel as strings.
func (r ConnectRequest) params() map[string]any {
	p := map[string]any{
		"sourceId": r.SourceID,
		"targetId": r.TargetID,
	}
	if r.SourceParam != nil {
		p["sourceParam"] = *r.SourceParam
	} else if r.SourceParamIndex != nil {
		p["sourceParamIndex"] = strconv.Itoa(*r.SourceParamIndex)
	}
	if r.TargetParam != nil {
		p["targetParam"] = *r.TargetParam
	} else if r.TargetParamIndex != nil {
		p["targetParamIndex"] = strconv.Itoa(*r.TargetParamIndex)
	}
	return p
}

// ConnectComponents connects two components, picking the target port of a
// two-input operator when the caller left it open.
func (b *Bridge) ConnectComponents(ctx context.Context, req ConnectRequest) *protocol.Response {
	return b.canvas.Send(ctx, protocol.CmdConnectComponents, b.Resolve(ctx, req))
}

// Resolve returns the parameters for a connect command. When the target is a
// two-input operator and no target port was given, the first input "A" is
// chosen unless an existing connection already occupies it, in which case
// "B" is. If the target's type cannot be read the request passes through as
// given.
//
// The read of existing connections and the connect that follows are not
// atomic; concurrent requests against the same target may both pick "A".
// Callers that need a stable choice must serialize their requests.
func (b *Bridge) Resolve(ctx context.Context, req ConnectRequest) map[string]any {
	info := b.canvas.Send(ctx, protocol.CmdGetComponentInfo, map[string]any{"componentId": req.TargetID})
	rec, ok := info.ResultMap()
	targetType, _ := rec["type"].(string)
	if !ok || targetType == "" {
		b.log.Debug("target type unknown, skipping port inference", "target", req.TargetID, "err", info.Error)
		return req.params()
	}

	if b.binary[targetType] && req.TargetParam == nil && req.TargetParamIndex == nil {
		port := "A"
		if b.firstInputOccupied(ctx, req.TargetID) {
			port = "B"
		}
		b.log.Debug("inferred target port", "target", req.TargetID, "type", targetType, "port", port)
		req.TargetParam = &port
	}
	return req.params()
}

// firstInputOccupied reports whether any connection into targetID uses its
// first input. An unreadable connection set counts as no connections.
func (b *Bridge) firstInputOccupied(ctx context.Context, targetID string) bool {
	conns, _ := b.fetchConnections(ctx)
	into := connectionsOf(conns, func(c map[string]any) bool {
		return c["targetId"] == targetID
	})
	for _, item := range into {
		c := item.(map[string]any)
		if c["targetParam"] == "A" || isFirstIndex(c["targetParamIndex"]) {
			return true
		}
	}
	return false
}

// isFirstIndex accepts the forms index 0 takes on the wire: a JSON number or
// its string rendering.
func isFirstIndex(v any) bool {
	switch idx := v.(type) {
	case float64:
		return idx == 0
	case int:
		return idx == 0
	case string:
		return idx == "0"
	}
	return false
}

// ValidateRequest is the literal input to ValidateConnection.
type ValidateRequest struct {
	SourceID    string
	TargetID    string
	SourceParam *string
	TargetParam *string
}

// ValidateConnection asks the canvas whether a connection is possible. No
// port is inferred.
func (b *Bridge) ValidateConnection(ctx context.Context, req ValidateRequest) *protocol.Response {
	p := map[string]any{
		"sourceId": req.SourceID,
		"targetId": req.TargetID,
	}
	if req.SourceParam != nil {
		p["sourceParam"] = *req.SourceParam
	}
	if req.TargetParam != nil {
		p["targetParam"] = *req.TargetParam
	}
	return b.canvas.Send(ctx, protocol.CmdValidateConnection, p)
}
