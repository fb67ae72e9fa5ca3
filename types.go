package linkup

import "encoding/json"

type Depth string

const (
	DepthStandard Depth = "standard"
	DepthDeep     Depth = "deep"
)

func (d Depth) IsValid() bool {
	return d == DepthStandard || d == DepthDeep
}

type OutputType string

const (
	OutputSearchResults OutputType = "searchResults"
	OutputSourcedAnswer OutputType = "sourcedAnswer"
	OutputStructured    OutputType = "structured"
)

func (o OutputType) IsValid() bool {
	switch o {
	case OutputSearchResults, OutputSourcedAnswer, OutputStructured:
		return true
	}
	return false
}

// SearchRequest describes one search call. StructuredSchema must be set
// when OutputType is OutputStructured and must be nil otherwise.
type SearchRequest struct {
	Query            string
	Depth            Depth
	OutputType       OutputType
	StructuredSchema Schema
}

// Output is the result of Client.Search. The concrete type follows the
// request's OutputType: *SearchResults, *SourcedAnswer or *Structured.
type Output interface {
	OutputType() OutputType
}

type SearchResults struct {
	Results []SearchResult
}

func (*SearchResults) OutputType() OutputType { return OutputSearchResults }

const (
	resultTypeText  = "text"
	resultTypeImage = "image"
)

// SearchResult is either *TextResult or *ImageResult.
type SearchResult interface {
	Type() string
}

type TextResult struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

func (*TextResult) Type() string { return resultTypeText }

type ImageResult struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (*ImageResult) Type() string { return resultTypeImage }

type Source struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

type SourcedAnswer struct {
	Answer  string
	Sources []Source
}

func (*SourcedAnswer) OutputType() OutputType { return OutputSourcedAnswer }

// Structured holds a structured search answer. Raw is the response body.
// With a SchemaJSON schema, Data is the parsed body (numbers as json.Number)
// and Value is nil. With a type schema, Value is a pointer to a new value of
// that type and Data is nil.
type Structured struct {
	Raw   json.RawMessage
	Data  any
	Value any
}

func (*Structured) OutputType() OutputType { return OutputStructured }

type Content struct {
	Content string `json:"content"`
}
