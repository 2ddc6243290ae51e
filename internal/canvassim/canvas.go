// Package canvassim is an in-memory stand-in for the Grasshopper canvas. It
// speaks the same line-delimited JSON protocol over TCP or WebSocket and is
// used for local development and tests.
package canvassim

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/hrntsm/grasshopper-mcp/internal/protocol"
	"github.com/hrntsm/grasshopper-mcp/internal/store"
)

type component struct {
	id       string
	typ      *componentType
	name     string
	x, y     float64
	settings map[string]any
}

type connection struct {
	sourceID    string
	sourceParam int
	targetID    string
	targetParam int
}

type handlerFunc func(ctx context.Context, params map[string]any) (any, error)

// Simulator holds one canvas document. Commands are applied one at a time,
// in arrival order.
type Simulator struct {
	mu          sync.Mutex
	docName     string
	docPath     string
	components  []*component
	byID        map[string]*component
	connections []connection

	handlers map[string]handlerFunc
	log      *slog.Logger
}

// New creates an empty canvas.
func New(logger *slog.Logger) *Simulator {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Simulator{
		docName: "untitled",
		byID:    make(map[string]*component),
		log:     logger.With("component", "canvassim"),
	}
	s.handlers = map[string]handlerFunc{
		protocol.CmdAddComponent:         s.addComponent,
		protocol.CmdClearDocument:        s.clearDocument,
		protocol.CmdSaveDocument:         s.saveDocument,
		protocol.CmdLoadDocument:         s.loadDocument,
		protocol.CmdGetDocumentInfo:      s.getDocumentInfo,
		protocol.CmdConnectComponents:    s.connectComponents,
		protocol.CmdValidateConnection:   s.validateConnection,
		protocol.CmdGetComponentInfo:     s.getComponentInfo,
		protocol.CmdGetAllComponents:     s.getAllComponents,
		protocol.CmdGetConnections:       s.getConnections,
		protocol.CmdSearchComponents:     s.searchComponents,
		protocol.CmdGetComponentParams:   s.getComponentParameters,
		protocol.CmdCreatePattern:        s.createPattern,
		protocol.CmdGetAvailablePatterns: s.getAvailablePatterns,
	}
	return s
}

// Handle applies one command and returns the response the canvas would send.
func (s *Simulator) Handle(ctx context.Context, cmd *protocol.Command) *protocol.Response {
	if cmd == nil {
		return protocol.Failure("Command is null")
	}
	if cmd.Type == "" {
		return protocol.Failure("Command type is null or empty")
	}
	h, ok := s.handlers[cmd.Type]
	if !ok {
		return protocol.Failure("No handler registered for command type '%s'", cmd.Type)
	}

	s.mu.Lock()
	result, err := h(ctx, cmd.Parameters)
	s.mu.Unlock()

	if err != nil {
		s.log.Debug("command failed", "command", cmd.Type, "err", err)
		return protocol.Failure("Error executing command '%s': %v", cmd.Type, err)
	}
	return protocol.Ok(result)
}

// Send runs a command in process. The response goes through the wire
// encoding so callers see exactly what a network client would.
func (s *Simulator) Send(ctx context.Context, commandType string, params map[string]any) *protocol.Response {
	line, err := protocol.EncodeCommand(&protocol.Command{Type: commandType, Parameters: params})
	if err != nil {
		return protocol.Failure("Error communicating with Grasshopper: %v", err)
	}
	cmd, err := protocol.DecodeCommand(line)
	if err != nil {
		return protocol.Failure("Error communicating with Grasshopper: %v", err)
	}
	out, err := protocol.EncodeResponse(s.Handle(ctx, cmd))
	if err != nil {
		return protocol.Failure("Error communicating with Grasshopper: %v", err)
	}
	resp, err := protocol.DecodeResponse(out)
	if err != nil {
		return protocol.Failure("Error communicating with Grasshopper: %v", err)
	}
	return resp
}

// ---------------------------------------------------------------------------
// Parameter helpers
// ---------------------------------------------------------------------------

func stringParam(params map[string]any, key string) string {
	s, _ := params[key].(string)
	return s
}

func numberParam(params map[string]any, key string) (float64, bool) {
	switch v := params[key].(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

// ---------------------------------------------------------------------------
// Records
// ---------------------------------------------------------------------------

func (c *component) summary() map[string]any {
	return map[string]any{
		"id":   c.id,
		"type": c.typ.Name,
		"name": c.name,
		"x":    c.x,
		"y":    c.y,
	}
}

func (c *component) detail() map[string]any {
	out := c.summary()
	out["description"] = c.typ.Description
	out["inputs"] = paramList(c.typ.Inputs)
	out["outputs"] = paramList(c.typ.Outputs)
	switch c.typ.Name {
	case "Number Slider":
		out["value"] = c.settings["value"]
		out["minimum"] = c.settings["min"]
		out["maximum"] = c.settings["max"]
		out["rounding"] = c.settings["rounding"]
	case "Panel":
		out["value"] = c.settings["text"]
	}
	return out
}

func (s *Simulator) connectionRecord(c connection) map[string]any {
	return map[string]any{
		"sourceId":         c.sourceID,
		"sourceParam":      s.byID[c.sourceID].typ.Outputs[c.sourceParam],
		"sourceParamIndex": c.sourceParam,
		"targetId":         c.targetID,
		"targetParam":      s.byID[c.targetID].typ.Inputs[c.targetParam],
		"targetParamIndex": c.targetParam,
	}
}

// ---------------------------------------------------------------------------
// Components
// ---------------------------------------------------------------------------

func (s *Simulator) place(typ *componentType, x, y float64) *component {
	c := &component{
		id:   uuid.NewString(),
		typ:  typ,
		name: typ.Name,
		x:    x,
		y:    y,
	}
	if typ.Settings != nil {
		c.settings = typ.Settings()
	}
	s.components = append(s.components, c)
	s.byID[c.id] = c
	return c
}

func (s *Simulator) addComponent(_ context.Context, params map[string]any) (any, error) {
	name := stringParam(params, "type")
	if name == "" {
		return nil, errors.New("Component type is required")
	}
	typ, ok := lookupType(name)
	if !ok {
		return nil, fmt.Errorf("Component with name %s not found", name)
	}
	x, _ := numberParam(params, "x")
	y, _ := numberParam(params, "y")
	return s.place(typ, x, y).summary(), nil
}

func (s *Simulator) lookupComponent(params map[string]any) (*component, error) {
	id := stringParam(params, "componentId")
	if id == "" {
		return nil, errors.New("Component ID is required")
	}
	c, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("Component with ID %s not found", id)
	}
	return c, nil
}

func (s *Simulator) getComponentInfo(_ context.Context, params map[string]any) (any, error) {
	c, err := s.lookupComponent(params)
	if err != nil {
		return nil, err
	}
	return c.detail(), nil
}

func (s *Simulator) getAllComponents(_ context.Context, _ map[string]any) (any, error) {
	out := make([]any, 0, len(s.components))
	for _, c := range s.components {
		out = append(out, c.summary())
	}
	return out, nil
}

func (s *Simulator) searchComponents(_ context.Context, params map[string]any) (any, error) {
	query := strings.TrimSpace(stringParam(params, "query"))
	out := []any{}
	for i := range componentTypes {
		t := &componentTypes[i]
		if query == "" || t.matches(query) {
			out = append(out, map[string]any{
				"name":        t.Name,
				"category":    t.Category,
				"description": t.Description,
			})
		}
	}
	return out, nil
}

func (s *Simulator) getComponentParameters(_ context.Context, params map[string]any) (any, error) {
	name := stringParam(params, "componentType")
	if name == "" {
		return nil, errors.New("Component type is required")
	}
	typ, ok := lookupType(name)
	if !ok {
		return nil, fmt.Errorf("Component with name %s not found", name)
	}
	return map[string]any{
		"name":    typ.Name,
		"inputs":  paramList(typ.Inputs),
		"outputs": paramList(typ.Outputs),
	}, nil
}

// ---------------------------------------------------------------------------
// Connections
// ---------------------------------------------------------------------------

// portIndex resolves a port designator against names. A name wins over an
// index; with neither the first port is used.
func portIndex(params map[string]any, nameKey, indexKey string, names []string) (int, error) {
	if name := stringParam(params, nameKey); name != "" {
		for i, n := range names {
			if strings.EqualFold(n, name) {
				return i, nil
			}
		}
		return 0, fmt.Errorf("parameter %q not found", name)
	}
	idx := 0
	if f, ok := numberParam(params, indexKey); ok {
		idx = int(f)
	}
	if idx < 0 || idx >= len(names) {
		return 0, fmt.Errorf("parameter index %d out of range", idx)
	}
	return idx, nil
}

// resolveConnection checks a connect or validate request and returns the
// connection it describes.
func (s *Simulator) resolveConnection(params map[string]any) (connection, error) {
	src, srcOK := s.byID[stringParam(params, "sourceId")]
	dst, dstOK := s.byID[stringParam(params, "targetId")]
	if !srcOK || !dstOK {
		return connection{}, errors.New("Source or target component not found")
	}
	if src == dst {
		return connection{}, errors.New("A component cannot be connected to itself")
	}
	out, err := portIndex(params, "sourceParam", "sourceParamIndex", src.typ.Outputs)
	if err != nil {
		return connection{}, fmt.Errorf("Source or target parameter not found: %w", err)
	}
	in, err := portIndex(params, "targetParam", "targetParamIndex", dst.typ.Inputs)
	if err != nil {
		return connection{}, fmt.Errorf("Source or target parameter not found: %w", err)
	}
	return connection{sourceID: src.id, sourceParam: out, targetID: dst.id, targetParam: in}, nil
}

func (s *Simulator) connectComponents(_ context.Context, params map[string]any) (any, error) {
	c, err := s.resolveConnection(params)
	if err != nil {
		return nil, err
	}
	for _, existing := range s.connections {
		if existing == c {
			return s.connectionRecord(c), nil
		}
	}
	s.connections = append(s.connections, c)
	return s.connectionRecord(c), nil
}

func (s *Simulator) validateConnection(_ context.Context, params map[string]any) (any, error) {
	c, err := s.resolveConnection(params)
	if err != nil {
		return map[string]any{"valid": false, "issues": []any{err.Error()}}, nil
	}
	issues := []any{}
	for _, existing := range s.connections {
		if existing == c {
			issues = append(issues, "Connection already exists")
		}
	}
	return map[string]any{"valid": len(issues) == 0, "issues": issues}, nil
}

func (s *Simulator) getConnections(_ context.Context, _ map[string]any) (any, error) {
	out := make([]any, 0, len(s.connections))
	for _, c := range s.connections {
		out = append(out, s.connectionRecord(c))
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Documents
// ---------------------------------------------------------------------------

func (s *Simulator) getDocumentInfo(_ context.Context, _ map[string]any) (any, error) {
	components := make([]any, 0, len(s.components))
	for _, c := range s.components {
		components = append(components, map[string]any{"id": c.id, "type": c.typ.Name, "name": c.name})
	}
	info := map[string]any{
		"name":            s.docName,
		"componentCount":  len(s.components),
		"connectionCount": len(s.connections),
		"components":      components,
	}
	if s.docPath != "" {
		info["path"] = s.docPath
	}
	return info, nil
}

func (s *Simulator) reset() {
	s.components = nil
	s.byID = make(map[string]*component)
	s.connections = nil
}

func (s *Simulator) clearDocument(_ context.Context, _ map[string]any) (any, error) {
	s.reset()
	return map[string]any{"message": "Document cleared"}, nil
}

func documentName(path string) string {
	base := filepath.Base(strings.ReplaceAll(path, `\`, "/"))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (s *Simulator) saveDocument(ctx context.Context, params map[string]any) (any, error) {
	path := stringParam(params, "path")
	if path == "" {
		return nil, errors.New("Path is required")
	}

	db, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	doc := &store.Document{Name: documentName(path)}
	for _, c := range s.components {
		doc.Components = append(doc.Components, store.Component{
			ID: c.id, Type: c.typ.Name, Name: c.name, X: c.x, Y: c.y, Settings: c.settings,
		})
	}
	for _, c := range s.connections {
		rec := s.connectionRecord(c)
		doc.Connections = append(doc.Connections, store.Connection{
			SourceID:    c.sourceID,
			SourceParam: rec["sourceParam"].(string),
			TargetID:    c.targetID,
			TargetParam: rec["targetParam"].(string),
		})
	}
	if err := db.Save(ctx, doc); err != nil {
		return nil, err
	}

	s.docName, s.docPath = doc.Name, path
	s.log.Info("document saved", "path", path, "components", len(doc.Components))
	return map[string]any{"path": path, "componentCount": len(doc.Components)}, nil
}

func (s *Simulator) loadDocument(ctx context.Context, params map[string]any) (any, error) {
	path := stringParam(params, "path")
	if path == "" {
		return nil, errors.New("Path is required")
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("File not found: %s", path)
	}

	db, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	doc, err := db.Load(ctx)
	if err != nil {
		return nil, err
	}

	s.reset()
	for _, sc := range doc.Components {
		typ, ok := lookupType(sc.Type)
		if !ok {
			s.log.Warn("skipping unknown component type in document", "type", sc.Type, "path", path)
			continue
		}
		c := &component{id: sc.ID, typ: typ, name: sc.Name, x: sc.X, y: sc.Y, settings: sc.Settings}
		if c.settings == nil && typ.Settings != nil {
			c.settings = typ.Settings()
		}
		s.components = append(s.components, c)
		s.byID[c.id] = c
	}
	for _, sc := range doc.Connections {
		c, err := s.resolveConnection(map[string]any{
			"sourceId": sc.SourceID, "sourceParam": sc.SourceParam,
			"targetId": sc.TargetID, "targetParam": sc.TargetParam,
		})
		if err != nil {
			s.log.Warn("skipping invalid connection in document", "err", err, "path", path)
			continue
		}
		s.connections = append(s.connections, c)
	}

	s.docName, s.docPath = doc.Name, path
	return map[string]any{
		"path":            path,
		"componentCount":  len(s.components),
		"connectionCount": len(s.connections),
	}, nil
}

// ---------------------------------------------------------------------------
// Patterns
// ---------------------------------------------------------------------------

func (s *Simulator) createPattern(_ context.Context, params map[string]any) (any, error) {
	description := stringParam(params, "description")
	if description == "" {
		return nil, errors.New("Pattern description is required")
	}
	p, ok := findPattern(description)
	if !ok {
		return nil, fmt.Errorf("No pattern matches description '%s'", description)
	}

	// Place new groups below whatever is already on the canvas.
	baseY := 0.0
	for _, c := range s.components {
		if c.y+100 > baseY {
			baseY = c.y + 100
		}
	}

	// A pattern is placed whole or not at all.
	nComponents, nConnections := len(s.components), len(s.connections)
	rollback := func() {
		for _, c := range s.components[nComponents:] {
			delete(s.byID, c.id)
		}
		s.components = s.components[:nComponents]
		s.connections = s.connections[:nConnections]
	}

	placed := make([]*component, len(p.Components))
	ids := make([]any, len(p.Components))
	for i, pc := range p.Components {
		typ, ok := lookupType(pc.Type)
		if !ok {
			rollback()
			return nil, fmt.Errorf("pattern %s: Component with name %s not found", p.Name, pc.Type)
		}
		placed[i] = s.place(typ, pc.X, baseY+pc.Y)
		ids[i] = placed[i].id
	}
	for _, pc := range p.Connections {
		if pc.From < 0 || pc.From >= len(placed) || pc.To < 0 || pc.To >= len(placed) {
			rollback()
			return nil, fmt.Errorf("pattern %s: connection %d -> %d is out of range", p.Name, pc.From, pc.To)
		}
		c, err := s.resolveConnection(map[string]any{
			"sourceId": placed[pc.From].id, "sourceParam": pc.FromParam,
			"targetId": placed[pc.To].id, "targetParam": pc.ToParam,
		})
		if err != nil {
			rollback()
			return nil, fmt.Errorf("pattern %s: %w", p.Name, err)
		}
		s.connections = append(s.connections, c)
	}

	return map[string]any{
		"pattern":     p.Name,
		"components":  ids,
		"connections": len(p.Connections),
	}, nil
}

func (s *Simulator) getAvailablePatterns(_ context.Context, params map[string]any) (any, error) {
	query := strings.ToLower(strings.TrimSpace(stringParam(params, "query")))
	out := []any{}
	for _, p := range patterns {
		if query == "" || strings.Contains(strings.ToLower(p.Name), query) ||
			strings.Contains(strings.ToLower(p.Description), query) || hasKeyword(p.Keywords, query) {
			out = append(out, map[string]any{"name": p.Name, "description": p.Description})
		}
	}
	return out, nil
}

func hasKeyword(keywords []string, query string) bool {
	for _, k := range keywords {
		if strings.Contains(k, query) || strings.Contains(query, k) {
			return true
		}
	}
	return false
}

