package linkup

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/google/jsonschema-go/jsonschema"
)

// Schema describes the shape requested from a structured search. It is
// either a SchemaJSON document or a Go type reference from SchemaFor or
// SchemaOfType.
type Schema interface {
	isSchema()
}

// SchemaJSON is a serialized JSON Schema document, sent as is.
type SchemaJSON string

func (SchemaJSON) isSchema() {}

type typeSchema struct {
	typ reflect.Type
}

func (typeSchema) isSchema() {}

// SchemaFor references T. The JSON Schema of T is generated when the request
// is built and the response is decoded into a new T.
func SchemaFor[T any]() Schema {
	return typeSchema{typ: reflect.TypeFor[T]()}
}

func SchemaOfType(t reflect.Type) Schema {
	return typeSchema{typ: t}
}

// SchemaGenerator turns a Go type into a serialized JSON Schema document.
type SchemaGenerator func(t reflect.Type) ([]byte, error)

// GenerateSchema is the default SchemaGenerator.
func GenerateSchema(t reflect.Type) ([]byte, error) {
	s, err := jsonschema.ForType(t, &jsonschema.ForOptions{})
	if err != nil {
		return nil, fmt.Errorf("infer schema for %s: %w", t, err)
	}
	return json.Marshal(s)
}

// compileSchema resolves a schema document so answers can be checked
// against it. additionalProperties is dropped at every level: decoding
// ignores unknown fields, so validation does too.
func compileSchema(doc []byte) (*jsonschema.Resolved, error) {
	var s jsonschema.Schema
	if err := json.Unmarshal(doc, &s); err != nil {
		return nil, fmt.Errorf("parse generated schema: %w", err)
	}
	allowExtraProperties(&s)

	resolved, err := s.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return nil, fmt.Errorf("resolve generated schema: %w", err)
	}
	return resolved, nil
}

func allowExtraProperties(s *jsonschema.Schema) {
	if s == nil {
		return
	}
	s.AdditionalProperties = nil

	for _, sub := range s.Properties {
		allowExtraProperties(sub)
	}
	for _, sub := range s.Defs {
		allowExtraProperties(sub)
	}
	allowExtraProperties(s.Items)
	for _, group := range [][]*jsonschema.Schema{s.PrefixItems, s.AllOf, s.AnyOf, s.OneOf} {
		for _, sub := range group {
			allowExtraProperties(sub)
		}
	}
}
