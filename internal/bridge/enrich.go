package bridge

import (
	"context"

	"github.com/hrntsm/grasshopper-mcp/internal/catalog"
	"github.com/hrntsm/grasshopper-mcp/internal/protocol"
)

// GetComponentInfo returns one component, enriched with its catalog entry,
// type-specific current settings and the connections that touch it. Only a
// failure of the component fetch itself is reported; the response is passed
// through unchanged in that case.
func (b *Bridge) GetComponentInfo(ctx context.Context, componentID string) *protocol.Response {
	resp := b.canvas.Send(ctx, protocol.CmdGetComponentInfo, map[string]any{"componentId": componentID})
	rec, ok := resp.ResultMap()
	if !ok {
		return resp
	}
	componentType, _ := rec["type"].(string)
	if componentType == "" {
		return resp
	}

	mergeCatalogEntry(rec, b.catalog.Library(), componentType)
	if rule, ok := typeRules[componentType]; ok && rule.settings != nil {
		setIfAbsent(rec, "currentSettings", settingsFrom(rec, rule.settings, rule.extra))
	}
	if conns, ok := b.fetchConnections(ctx); ok {
		attachConnections(rec, conns, componentID)
	}
	return resp
}

// GetAllComponents lists every component on the canvas. The connection set
// is fetched once and shared by all records; types with a listing refresh
// rule get one detail fetch each.
func (b *Bridge) GetAllComponents(ctx context.Context) *protocol.Response {
	resp := b.canvas.Send(ctx, protocol.CmdGetAllComponents, nil)
	records, ok := resp.ResultList()
	if !ok {
		return resp
	}

	lib := b.catalog.Library()
	conns, _ := b.fetchConnections(ctx)

	for _, item := range records {
		rec, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, _ := rec["id"].(string)
		componentType, _ := rec["type"].(string)
		if id == "" || componentType == "" {
			continue
		}

		mergeCatalogEntry(rec, lib, componentType)
		attachConnections(rec, conns, id)

		rule, ok := typeRules[componentType]
		if !ok || rule.settings == nil || !rule.refreshInListing {
			continue
		}
		if _, has := rec["currentSettings"]; has {
			continue
		}
		detail := b.canvas.Send(ctx, protocol.CmdGetComponentInfo, map[string]any{"componentId": id})
		if info, ok := detail.ResultMap(); ok {
			rec["currentSettings"] = settingsFrom(info, rule.settings)
		} else {
			b.log.Debug("component detail unavailable, using listing values", "id", id, "err", detail.Error)
			rec["currentSettings"] = settingsFrom(rec, rule.settings, rule.extra)
		}
	}
	return resp
}

// fetchConnections returns the canvas connection set. A failed or
// malformed reply yields ok=false and enrichment carries on without it.
func (b *Bridge) fetchConnections(ctx context.Context) ([]any, bool) {
	resp := b.canvas.Send(ctx, protocol.CmdGetConnections, nil)
	conns, ok := resp.ResultList()
	if !ok {
		b.log.Debug("connection set unavailable", "err", resp.Error)
	}
	return conns, ok
}

// mergeCatalogEntry copies the catalog fields for componentType onto rec.
// Keys already present on rec are left alone.
func mergeCatalogEntry(rec map[string]any, lib *catalog.Library, componentType string) {
	entry, ok := lib.Lookup(componentType)
	if !ok {
		return
	}
	for _, k := range catalogKeys {
		if v, ok := entry[k.from]; ok {
			setIfAbsent(rec, k.to, v)
		}
	}
}

// attachConnections adds the connections naming id as source or target.
func attachConnections(rec map[string]any, conns []any, id string) {
	if id == "" {
		return
	}
	related := connectionsOf(conns, func(c map[string]any) bool {
		return c["sourceId"] == id || c["targetId"] == id
	})
	if len(related) > 0 {
		setIfAbsent(rec, "connections", related)
	}
}

// connectionsOf returns the connection records for which keep is true.
func connectionsOf(conns []any, keep func(map[string]any) bool) []any {
	var out []any
	for _, item := range conns {
		c, ok := item.(map[string]any)
		if ok && keep(c) {
			out = append(out, c)
		}
	}
	return out
}

func setIfAbsent(rec map[string]any, key string, v any) {
	if _, ok := rec[key]; !ok {
		rec[key] = v
	}
}
