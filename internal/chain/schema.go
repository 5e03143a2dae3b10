package chain

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// documentSchema describes the serialized parser output accepted by
// ParseDocumentYAML.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "file": {"type": "string"},
    "version": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "political": {"type": "integer", "minimum": 0},
        "major": {"type": "integer", "minimum": 0}
      }
    },
    "flows": {"type": "array", "items": {"$ref": "#/definitions/flow"}}
  },
  "definitions": {
    "pos": {"type": "integer", "minimum": 0},
    "port": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "name": {"type": "string"},
        "cap": {"type": "string"},
        "index": {"type": "integer", "minimum": 0},
        "pos": {"$ref": "#/definitions/pos"}
      }
    },
    "op": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "name": {"type": "string"},
        "type": {"type": "string"},
        "pos": {"$ref": "#/definitions/pos"}
      },
      "anyOf": [{"required": ["name"]}, {"required": ["type"]}]
    },
    "start": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "port": {"$ref": "#/definitions/port"},
        "type": {"type": "string"},
        "in": {"$ref": "#/definitions/port"},
        "pos": {"$ref": "#/definitions/pos"}
      }
    },
    "link": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "out": {"$ref": "#/definitions/port"},
        "type": {"type": "string"},
        "in": {"$ref": "#/definitions/port"},
        "pos": {"$ref": "#/definitions/pos"}
      }
    },
    "end": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "out": {"$ref": "#/definitions/port"},
        "type": {"type": "string"},
        "port": {"$ref": "#/definitions/port"},
        "pos": {"$ref": "#/definitions/pos"}
      }
    },
    "element": {
      "type": "object",
      "minProperties": 1,
      "maxProperties": 1,
      "additionalProperties": false,
      "properties": {
        "start": {"$ref": "#/definitions/start"},
        "op": {"$ref": "#/definitions/op"},
        "link": {"$ref": "#/definitions/link"},
        "end": {"$ref": "#/definitions/end"}
      }
    },
    "flow": {
      "type": "object",
      "required": ["name"],
      "additionalProperties": false,
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "pos": {"$ref": "#/definitions/pos"},
        "chains": {
          "type": "array",
          "items": {"type": "array", "minItems": 1, "items": {"$ref": "#/definitions/element"}}
        }
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

// SchemaError lists every violation found in a chain document.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	if e == nil || len(e.Violations) == 0 {
		return "chain: schema validation failed"
	}
	return "chain: schema validation failed:\n  - " + strings.Join(e.Violations, "\n  - ")
}

func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchema))
	})
	return compiledSchema, schemaErr
}

// ValidateSchema checks a generically decoded document against the chain
// document schema.
func ValidateSchema(doc any) error {
	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("chain: compile schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("chain: validate schema: %w", err)
	}
	if result.Valid() {
		return nil
	}
	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return &SchemaError{Violations: violations}
}
