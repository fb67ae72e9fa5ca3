package linkup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// noResultMessage is what the API sends with a 400 when a search found nothing.
const noResultMessage = "The query did not yield any result"

func resolve(p *plan, status int, body []byte) (any, error) {
	if status < 200 || status > 299 {
		return nil, classify(status, body)
	}

	switch p.decode {
	case decodeSearchResults:
		return decodeSearchResultsBody(body)
	case decodeSourcedAnswer:
		return decodeSourcedAnswerBody(body)
	case decodeStructuredRaw:
		return decodeStructuredRawBody(body)
	case decodeStructuredTyped:
		return decodeStructuredTypedBody(body, p.target, p.validator)
	case decodeContent:
		return decodeContentBody(body)
	default:
		return nil, fmt.Errorf("%w: no decoder for kind %d", ErrDecode, p.decode)
	}
}

func classify(status int, body []byte) *APIError {
	msg := extractMessage(body)

	kind := KindUnknown
	switch status {
	case http.StatusBadRequest:
		kind = KindInvalidRequest
		if msg == noResultMessage {
			kind = KindNoResult
		}
	case http.StatusForbidden:
		kind = KindAuthentication
	case http.StatusTooManyRequests:
		kind = KindInsufficientCredit
	}

	return &APIError{
		Kind:       kind,
		StatusCode: status,
		Message:    msg,
	}
}

// extractMessage reads the "message" field, which the API sends either as a
// string or as a list of strings.
func extractMessage(body []byte) string {
	var payload struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return noMessage
	}
	if len(payload.Message) == 0 || string(payload.Message) == "null" {
		return noMessage
	}

	var single string
	if err := json.Unmarshal(payload.Message, &single); err == nil {
		return single
	}

	var list []string
	if err := json.Unmarshal(payload.Message, &list); err == nil {
		if len(list) == 0 {
			return noMessage
		}
		return strings.Join(list, ", ")
	}

	return string(payload.Message)
}

func decodeSearchResultsBody(body []byte) (*SearchResults, error) {
	var wire struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := decodeObject(body, &wire, "results"); err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(wire.Results))
	for i, raw := range wire.Results {
		item, err := decodeSearchResult(raw)
		if err != nil {
			return nil, fmt.Errorf("results[%d]: %w", i, err)
		}
		results = append(results, item)
	}

	return &SearchResults{Results: results}, nil
}

func decodeSearchResult(raw json.RawMessage) (SearchResult, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := decodeObject(raw, &head, "type"); err != nil {
		return nil, err
	}

	switch head.Type {
	case resultTypeText:
		var r TextResult
		if err := decodeObject(raw, &r, "name", "url", "content"); err != nil {
			return nil, err
		}
		return &r, nil
	case resultTypeImage:
		var r ImageResult
		if err := decodeObject(raw, &r, "name", "url"); err != nil {
			return nil, err
		}
		return &r, nil
	default:
		return nil, fmt.Errorf("%w: unknown search result type %q", ErrDecode, head.Type)
	}
}

func decodeSourcedAnswerBody(body []byte) (*SourcedAnswer, error) {
	var wire struct {
		Answer  string            `json:"answer"`
		Sources []json.RawMessage `json:"sources"`
	}
	if err := decodeObject(body, &wire, "answer", "sources"); err != nil {
		return nil, err
	}

	sources := make([]Source, 0, len(wire.Sources))
	for i, raw := range wire.Sources {
		var s Source
		if err := decodeObject(raw, &s, "name", "url", "snippet"); err != nil {
			return nil, fmt.Errorf("sources[%d]: %w", i, err)
		}
		sources = append(sources, s)
	}

	return &SourcedAnswer{Answer: wire.Answer, Sources: sources}, nil
}

func decodeStructuredRawBody(body []byte) (*Structured, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var data any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after JSON value", ErrDecode)
	}

	return &Structured{
		Raw:  append(json.RawMessage(nil), body...),
		Data: data,
	}, nil
}

func decodeStructuredTypedBody(body []byte, target reflect.Type, validator *jsonschema.Resolved) (*Structured, error) {
	if validator != nil {
		var instance any
		if err := json.Unmarshal(body, &instance); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		if err := validator.Validate(instance); err != nil {
			return nil, fmt.Errorf("%w: answer does not match the schema of %s: %w", ErrDecode, target, err)
		}
	}

	value := reflect.New(target)
	if err := json.Unmarshal(body, value.Interface()); err != nil {
		return nil, fmt.Errorf("%w: decode into %s: %w", ErrDecode, target, err)
	}

	return &Structured{
		Raw:   append(json.RawMessage(nil), body...),
		Value: value.Interface(),
	}, nil
}

func decodeContentBody(body []byte) (*Content, error) {
	var c Content
	if err := decodeObject(body, &c, "content"); err != nil {
		return nil, err
	}
	return &c, nil
}

// decodeObject unmarshals a JSON object into v after checking that every
// required field is present and not null.
func decodeObject(data []byte, v any, required ...string) error {
	if err := requireFields(data, required...); err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}

func requireFields(data []byte, required ...string) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if fields == nil {
		return fmt.Errorf("%w: expected a JSON object", ErrDecode)
	}

	for _, name := range required {
		raw, ok := fields[name]
		if !ok || string(raw) == "null" {
			return fmt.Errorf("%w: missing field %q", ErrDecode, name)
		}
	}

	return nil
}
