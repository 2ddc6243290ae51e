package catalog

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

const mappingSchema = `{
  "type": "object",
  "additionalProperties": {"type": "string", "minLength": 1}
}`

const libraryEntrySchema = `{
  "type": "object",
  "properties": {
    "name": {"type": "string"},
    "fullName": {"type": "string"},
    "settings": {"type": ["object", "array"]},
    "inputs": {"type": "array"},
    "outputs": {"type": "array"},
    "usage_examples": {"type": "array"},
    "common_issues": {"type": "array"}
  }
}`

var librarySchema = `{
  "type": "object",
  "properties": {
    "components": {"type": "array", "items": ` + libraryEntrySchema + `},
    "categories": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string"},
          "components": {"type": "array", "items": ` + libraryEntrySchema + `}
        }
      }
    },
    "dataTypes": {"type": "array"}
  }
}`

const guideSchema = `{
  "type": "object",
  "properties": {
    "title": {"type": "string"},
    "description": {"type": "string"},
    "components": {"type": "array"},
    "connectionRules": {"type": "array"},
    "commonIssues": {"type": "array"},
    "tips": {"type": "array"}
  }
}`

var schemaSources = map[string]string{
	MappingResource: mappingSchema,
	LibraryResource: librarySchema,
	GuideResource:   guideSchema,
}

var compiledSchemas = sync.OnceValue(func() map[string]*gojsonschema.Schema {
	out := make(map[string]*gojsonschema.Schema, len(schemaSources))
	for name, src := range schemaSources {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
		if err != nil {
			panic(fmt.Sprintf("catalog: compiling schema for %s: %v", name, err))
		}
		out[name] = schema
	}
	return out
})

// validate checks doc against the schema registered for name. Resources
// without a schema are accepted as they are.
func validate(name string, doc map[string]any) error {
	schema, ok := compiledSchemas()[name]
	if !ok {
		return nil
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return err
	}
	if result.Valid() {
		return nil
	}
	var details []string
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return fmt.Errorf("schema violation: %s", strings.Join(details, "; "))
}
