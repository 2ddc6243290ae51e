// Package catalog loads the static component documents the bridge consults:
// the alias table, the capability library and the usage guide. Loading never
// fails; a missing or broken resource is replaced by a minimal built-in
// document and a warning is logged.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Resource names.
const (
	MappingResource = "component_mapping.json"
	LibraryResource = "component_library.json"
	GuideResource   = "component_guide.json"
)

// Options configures a Store.
type Options struct {
	// Dir holds the resource files.
	Dir string
	// Cache memoises the first load of each resource for the lifetime of the
	// Store. When false every call re-reads the file.
	Cache bool
	// Validate checks each document against its schema before accepting it.
	Validate bool
	Logger   *slog.Logger
}

// Store is a read-only view over the catalog directory. It is safe for
// concurrent use. Documents it returns may be shared between callers and must
// not be modified.
type Store struct {
	opts Options
	log  *slog.Logger

	mu    sync.RWMutex
	cache map[string]map[string]any
}

// New creates a Store.
func New(opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		opts:  opts,
		log:   logger.With("component", "catalog"),
		cache: make(map[string]map[string]any),
	}
}

// Dir returns the catalog directory.
func (s *Store) Dir() string { return s.opts.Dir }

// Load returns the named document, or its fallback when the resource cannot
// be read, parsed or validated.
func (s *Store) Load(name string) map[string]any {
	if s.opts.Cache {
		s.mu.RLock()
		doc, ok := s.cache[name]
		s.mu.RUnlock()
		if ok {
			return doc
		}
	}

	doc, err := s.read(name)
	if err != nil {
		s.log.Warn("using fallback catalog document", "resource", name, "err", err)
		doc = Fallback(name)
	}

	if s.opts.Cache {
		s.mu.Lock()
		if cached, ok := s.cache[name]; ok {
			doc = cached
		} else {
			s.cache[name] = doc
		}
		s.mu.Unlock()
	}
	return doc
}

// read loads name from the catalog directory. A YAML sibling is used when
// the JSON file does not exist.
func (s *Store) read(name string) (map[string]any, error) {
	path := filepath.Join(s.opts.Dir, name)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s.readYAML(name, err)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var doc map[string]any
	if err := json.Unmarshal(stripBOM(data), &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return s.accept(name, path, doc)
}

func (s *Store) readYAML(name string, notFound error) (map[string]any, error) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	for _, ext := range []string{".yaml", ".yml"} {
		path := filepath.Join(s.opts.Dir, base+ext)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		doc, err := asJSONObject(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		return s.accept(name, path, doc)
	}
	return nil, notFound
}

func (s *Store) accept(name, path string, doc map[string]any) (map[string]any, error) {
	if doc == nil {
		return nil, fmt.Errorf("%s: document is not an object", path)
	}
	if s.opts.Validate {
		if err := validate(name, doc); err != nil {
			return nil, fmt.Errorf("validating %s: %w", path, err)
		}
	}
	s.log.Debug("catalog document loaded", "resource", name, "path", path)
	return doc, nil
}

// asJSONObject converts a decoded YAML value into the same shape
// encoding/json produces (float64 numbers, map[string]any objects).
func asJSONObject(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("document is not an object: %w", err)
	}
	return doc, nil
}

func stripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}

// Fallback returns a fresh copy of the built-in document for name. Unknown
// names yield an empty document.
func Fallback(name string) map[string]any {
	switch name {
	case MappingResource:
		return map[string]any{
			"slider": "Number Slider",
			"panel":  "Panel",
			"add":    "Addition",
		}
	case LibraryResource:
		return map[string]any{
			"categories": []any{},
			"dataTypes":  []any{},
		}
	case GuideResource:
		return map[string]any{
			"title":           "Grasshopper Component Guide",
			"description":     "Guide for creating and connecting Grasshopper components",
			"components":      []any{},
			"connectionRules": []any{},
			"commonIssues":    []any{},
			"tips":            []any{},
		}
	default:
		return map[string]any{}
	}
}

// Mapping returns the alias table with lower-cased keys. Entries whose value
// is not a string are skipped.
func (s *Store) Mapping() map[string]string {
	doc := s.Load(MappingResource)
	out := make(map[string]string, len(doc))
	for k, v := range doc {
		if name, ok := v.(string); ok {
			out[strings.ToLower(k)] = name
		}
	}
	return out
}

// Normalize maps a user-supplied component type onto its canonical name. The
// input is returned unchanged when the alias table has no entry for it.
func (s *Store) Normalize(componentType string) string {
	if name, ok := s.Mapping()[strings.ToLower(componentType)]; ok {
		return name
	}
	return componentType
}

// Library returns the capability library.
func (s *Store) Library() *Library {
	return &Library{doc: s.Load(LibraryResource)}
}

// Guide returns the usage guide document.
func (s *Store) Guide() map[string]any {
	return s.Load(GuideResource)
}
