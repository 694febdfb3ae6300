package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Kind identifies which of the three external payloads a document is.
type Kind string

const (
	KindGraph Kind = "graph"
	KindFleet Kind = "fleet"
	KindTasks Kind = "tasks"
)

// graphSchema, fleetSchema and tasksSchema are the JSON Schemas for the
// three external snapshot payloads.
const graphSchema = `{
  "type": "object",
  "required": ["nodes", "edges"],
  "properties": {
    "nodes": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["name", "pos", "type"],
        "properties": {
          "name": {"type": "string"},
          "pos": {"type": "array", "items": {"type": "number"}, "minItems": 2, "maxItems": 2},
          "poiId": {"type": "string"}
        }
      }
    },
    "edges": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["startNode", "endNode", "type", "isActive"],
        "properties": {
          "startNode": {"type": "string"},
          "endNode": {"type": "string"},
          "type": {"type": "integer", "enum": [1, 2, 3]},
          "isActive": {"type": "boolean"}
        }
      }
    }
  }
}`

const fleetSchema = `{
  "type": "object",
  "additionalProperties": {
    "type": "object",
    "required": ["planningOn", "isFree"],
    "properties": {
      "edge": {"type": ["array", "null"], "items": {"type": "string"}, "minItems": 2, "maxItems": 2},
      "poiId": {"type": "string"},
      "planningOn": {"type": "boolean"},
      "isFree": {"type": "boolean"},
      "timeRemaining": {"type": "number"}
    }
  }
}`

const tasksSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "start_time", "current_behaviour_index", "status", "behaviours"],
    "properties": {
      "id": {"type": "string"},
      "robot": {"type": "string"},
      "start_time": {"type": "string"},
      "current_behaviour_index": {"type": "integer", "minimum": -1},
      "status": {"type": "string", "enum": ["To Do", "ASSIGN", "IN_PROGRESS", "COMPLETED"]},
      "priority": {"type": "integer"},
      "behaviours": {
        "type": "array",
        "items": {
          "type": "object",
          "required": ["id", "parameters"],
          "properties": {
            "id": {"type": "string"},
            "parameters": {
              "type": "object",
              "required": ["name"],
              "properties": {
                "name": {"type": "string", "enum": ["GO_TO", "DOCK", "WAIT", "3", "BAT_EX", "UNDOCK"]},
                "to": {"type": "string"}
              }
            }
          }
        }
      }
    }
  }
}`

var schemas = map[Kind]string{
	KindGraph: graphSchema,
	KindFleet: fleetSchema,
	KindTasks: tasksSchema,
}

// Validator validates payloads against the built-in schemas. It keeps one
// string loader per kind; the schema is parsed and compiled again on every
// Validate call.
type Validator struct {
	loaders map[Kind]gojsonschema.JSONLoader
}

// New builds a Validator with all built-in schemas loaded.
func New() (*Validator, error) {
	v := &Validator{loaders: make(map[Kind]gojsonschema.JSONLoader, len(schemas))}
	for kind, raw := range schemas {
		v.loaders[kind] = gojsonschema.NewStringLoader(raw)
	}
	return v, nil
}

// Validate checks document against the schema for kind. It returns
// ErrValidationFailed (wrapping a description of every violation) if the
// document does not conform.
func (v *Validator) Validate(kind Kind, document []byte) error {
	loader, ok := v.loaders[kind]
	if !ok {
		return fmt.Errorf("%w: unknown payload kind %q", ErrInvalidSchema, kind)
	}

	var probe interface{}
	if err := json.Unmarshal(document, &probe); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	result, err := gojsonschema.Validate(loader, gojsonschema.NewBytesLoader(document))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	return fmt.Errorf("%w: %s", ErrValidationFailed, strings.Join(msgs, "; "))
}
