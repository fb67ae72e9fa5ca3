package linkup

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

const (
	opSearch  = "search"
	opContent = "content"

	searchPath  = "/search"
	contentPath = "/content"
)

type decodeKind int

const (
	decodeSearchResults decodeKind = iota
	decodeSourcedAnswer
	decodeStructuredRaw
	decodeStructuredTyped
	decodeContent
)

// plan is a validated request together with the decoder its response needs.
type plan struct {
	operation string
	path      string
	params    url.Values
	decode    decodeKind

	// set for decodeStructuredTyped only
	target    reflect.Type
	validator *jsonschema.Resolved
}

func buildSearch(req SearchRequest, gen SchemaGenerator) (*plan, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: query must not be empty", ErrInvalidArgument)
	}
	if !req.Depth.IsValid() {
		return nil, fmt.Errorf("%w: unknown depth %q", ErrInvalidArgument, req.Depth)
	}
	if !req.OutputType.IsValid() {
		return nil, fmt.Errorf("%w: unknown output type %q", ErrInvalidArgument, req.OutputType)
	}

	params := url.Values{}
	params.Set("q", req.Query)
	params.Set("depth", string(req.Depth))
	params.Set("outputType", string(req.OutputType))

	p := &plan{
		operation: opSearch,
		path:      searchPath,
		params:    params,
	}

	switch req.OutputType {
	case OutputSearchResults, OutputSourcedAnswer:
		if req.StructuredSchema != nil {
			return nil, fmt.Errorf("%w: a structured schema is only accepted with output type %q",
				ErrInvalidArgument, OutputStructured)
		}
		p.decode = decodeSearchResults
		if req.OutputType == OutputSourcedAnswer {
			p.decode = decodeSourcedAnswer
		}
	case OutputStructured:
		if err := applySchema(p, req.StructuredSchema, gen); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func applySchema(p *plan, schema Schema, gen SchemaGenerator) error {
	switch s := schema.(type) {
	case nil:
		return fmt.Errorf("%w: output type %q requires a structured schema", ErrInvalidArgument, OutputStructured)

	case SchemaJSON:
		if strings.TrimSpace(string(s)) == "" {
			return fmt.Errorf("%w: output type %q requires a structured schema", ErrInvalidArgument, OutputStructured)
		}
		p.params.Set("structuredOutputSchema", string(s))
		p.decode = decodeStructuredRaw

	case typeSchema:
		if s.typ == nil {
			return fmt.Errorf("%w: structured schema references a nil type", ErrInvalidArgument)
		}
		if gen == nil {
			gen = GenerateSchema
		}
		doc, err := gen(s.typ)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
		}
		validator, err := compileSchema(doc)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
		}
		p.params.Set("structuredOutputSchema", string(doc))
		p.decode = decodeStructuredTyped
		p.target = s.typ
		p.validator = validator

	default:
		return fmt.Errorf("%w: unsupported structured schema %T", ErrInvalidArgument, schema)
	}

	return nil
}

// buildContent does not validate url; the API is authoritative on that.
func buildContent(pageURL string) *plan {
	params := url.Values{}
	params.Set("url", pageURL)

	return &plan{
		operation: opContent,
		path:      contentPath,
		params:    params,
		decode:    decodeContent,
	}
}
