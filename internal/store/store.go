// Package store persists canvas documents for the simulator. Each document
// is one SQLite file (pure Go, no CGO) holding the components and the
// connections between them.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNoDocument is returned by Load when the file holds no saved document.
var ErrNoDocument = errors.New("no document saved")

// Component is one component as stored in a document.
type Component struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Name     string         `json:"name"`
	X        float64        `json:"x"`
	Y        float64        `json:"y"`
	Settings map[string]any `json:"settings,omitempty"` // type-specific state, e.g. slider range
}

// Connection is a directed edge from an output to an input.
type Connection struct {
	SourceID    string `json:"sourceId"`
	SourceParam string `json:"sourceParam"`
	TargetID    string `json:"targetId"`
	TargetParam string `json:"targetParam"`
}

// Document is a full canvas snapshot.
type Document struct {
	Name        string       `json:"name"`
	SavedAt     time.Time    `json:"savedAt"`
	Components  []Component  `json:"components"`
	Connections []Connection `json:"connections"`
}

// Store reads and writes a single document. All methods are safe for
// concurrent use.
type Store interface {
	// Save replaces the stored document with doc.
	Save(ctx context.Context, doc *Document) error
	// Load returns the stored document or ErrNoDocument.
	Load(ctx context.Context) (*Document, error)

	// Close releases resources (e.g. closes the database).
	Close() error
}
