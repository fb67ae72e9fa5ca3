package linkup

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kitbuilder587/linkup-go/internal/transport/mock"
)

func newTestClient(t *testing.T, tr Transport, opts ...Option) *Client {
	t.Helper()

	opts = append([]Option{WithTransport(tr)}, opts...)
	c, err := New(Config{APIKey: "test-key"}, zap.NewNop(), opts...)
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"valid", Config{APIKey: "test-key"}, nil},
		{"missing key", Config{}, ErrMissingAPIKey},
		{"blank key", Config{APIKey: "  "}, ErrMissingAPIKey},
		{"negative timeout", Config{APIKey: "k", Timeout: -time.Second}, ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg, nil)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, c)
		})
	}
}

func TestNew_OptionErrors(t *testing.T) {
	_, err := New(Config{APIKey: "k"}, nil, WithTransport(nil))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = New(Config{APIKey: "k"}, nil, WithSchemaGenerator(nil))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	reg := prometheus.NewRegistry()
	_, err = New(Config{APIKey: "k"}, nil, WithMetrics(reg))
	require.NoError(t, err)
	_, err = New(Config{APIKey: "k"}, nil, WithMetrics(reg))
	assert.Error(t, err)
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv("LINKUP_API_KEY", "")
	_, err := NewFromEnv()
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	t.Setenv("LINKUP_API_KEY", "env-key")
	t.Setenv("LOG_LEVEL", "error")
	c, err := NewFromEnv()
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestClient_SearchResults_EndToEnd(t *testing.T) {
	var gotQuery, gotAuth, gotUA string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")

		if r.URL.Path != "/search" || r.Method != http.MethodGet {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"type":"text","name":"foo","url":"https://foo.bar/baz","content":"foo bar baz"}]}`))
	}))
	defer server.Close()

	c, err := New(Config{APIKey: "test-key", BaseURL: server.URL}, zap.NewNop())
	require.NoError(t, err)

	out, err := c.Search(context.Background(), SearchRequest{
		Query:      "q",
		Depth:      DepthStandard,
		OutputType: OutputSearchResults,
	})
	require.NoError(t, err)

	results, ok := out.(*SearchResults)
	require.True(t, ok, "got %T", out)
	require.Len(t, results.Results, 1)
	assert.Equal(t, &TextResult{Name: "foo", URL: "https://foo.bar/baz", Content: "foo bar baz"}, results.Results[0])

	assert.Equal(t, "depth=standard&outputType=searchResults&q=q", gotQuery)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "Linkup-Go/"+Version, gotUA)
}

func TestClient_Content_AuthenticationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("url") != "https://x" {
			t.Errorf("url param = %q", r.URL.Query().Get("url"))
		}
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"Forbidden resource"}`))
	}))
	defer server.Close()

	c, err := New(Config{APIKey: "test-key", BaseURL: server.URL}, zap.NewNop())
	require.NoError(t, err)

	content, err := c.Content(context.Background(), "https://x")

	assert.Nil(t, content)
	require.ErrorIs(t, err, ErrAuthentication)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, KindAuthentication, apiErr.Kind)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "Forbidden resource", apiErr.Message)
	assert.Contains(t, err.Error(), "Forbidden resource")
}

func TestClient_Content(t *testing.T) {
	tr := mock.New().WithResponse(http.StatusOK, `{"content":"# Title\n\nbody"}`)
	c := newTestClient(t, tr)

	content, err := c.Content(context.Background(), "https://www.thebridgechronicle.com/news/capgemini")
	require.NoError(t, err)

	assert.Equal(t, "# Title\n\nbody", content.Content)
	assert.Equal(t, "/content", tr.LastRequest.Path)
	assert.Equal(t, http.MethodGet, tr.LastRequest.Method)
	assert.Equal(t, "https://www.thebridgechronicle.com/news/capgemini", tr.LastRequest.Params.Get("url"))
}

func TestClient_Search_LocalFailureSendsNothing(t *testing.T) {
	tr := mock.New()
	c := newTestClient(t, tr)

	requests := []SearchRequest{
		{Query: "q", Depth: DepthStandard, OutputType: OutputStructured},
		{Query: "q", Depth: DepthDeep, OutputType: OutputStructured, StructuredSchema: SchemaJSON("")},
		{Query: "", Depth: DepthStandard, OutputType: OutputSearchResults},
	}

	for _, req := range requests {
		out, err := c.Search(context.Background(), req)
		assert.Nil(t, out)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}

	_, err := SearchStructured[company](context.Background(), c, "", DepthStandard)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Equal(t, 0, tr.Calls())
}

func TestClient_SourcedAnswer(t *testing.T) {
	tr := mock.New().WithResponse(http.StatusOK,
		`{"answer":"Linkup is a Paris-based startup.","sources":[{"name":"n","url":"https://u","snippet":"s"}]}`)
	c := newTestClient(t, tr)

	answer, err := c.SourcedAnswer(context.Background(), "What is Linkup?", DepthDeep)
	require.NoError(t, err)

	assert.Equal(t, "Linkup is a Paris-based startup.", answer.Answer)
	assert.Equal(t, []Source{{Name: "n", URL: "https://u", Snippet: "s"}}, answer.Sources)
	assert.Equal(t, "sourcedAnswer", tr.LastRequest.Params.Get("outputType"))
	assert.Equal(t, "deep", tr.LastRequest.Params.Get("depth"))
}

func TestClient_SearchResults_NoResult(t *testing.T) {
	tr := mock.New().WithResponse(http.StatusBadRequest, `{"message": "The query did not yield any result"}`)
	c := newTestClient(t, tr)

	results, err := c.SearchResults(context.Background(), "foo", DepthStandard)

	assert.Nil(t, results)
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestClient_InsufficientCredit(t *testing.T) {
	tr := mock.New().WithResponse(http.StatusTooManyRequests, `{}`)
	c := newTestClient(t, tr)

	_, err := c.SearchResults(context.Background(), "foo", DepthStandard)

	assert.ErrorIs(t, err, ErrInsufficientCredit)
	assert.Contains(t, err.Error(), noMessage)
}

func TestSearchStructured(t *testing.T) {
	tr := mock.New().WithResponse(http.StatusOK,
		`{"name":"Linkup","founders_names":["Philippe Mizrahi","Denis Charrier","Boris Toledano"],`+
			`"creation_date":"2024","website_url":"","title":"Company"}`)
	c := newTestClient(t, tr)

	got, err := SearchStructured[company](context.Background(), c, "What is Linkup?", DepthStandard)
	require.NoError(t, err)

	assert.Equal(t, &company{
		Name:          "Linkup",
		CreationDate:  "2024",
		WebsiteURL:    "",
		FoundersNames: []string{"Philippe Mizrahi", "Denis Charrier", "Boris Toledano"},
	}, got)
	assert.Equal(t, "structured", tr.LastRequest.Params.Get("outputType"))
	assert.NotEmpty(t, tr.LastRequest.Params.Get("structuredOutputSchema"))
}

func TestSearchStructured_InvalidRequest(t *testing.T) {
	tr := mock.New().WithResponse(http.StatusBadRequest,
		`{"message":["structuredOutputSchema must be valid JSON schema of type object"],"error":"Bad Request","statusCode":400}`)
	c := newTestClient(t, tr)

	out, err := c.Search(context.Background(), SearchRequest{
		Query:            "q",
		Depth:            DepthStandard,
		OutputType:       OutputStructured,
		StructuredSchema: SchemaJSON(`{"properties":{"name":{"type":"string"}}}`),
	})

	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Contains(t, err.Error(), "structuredOutputSchema must be valid JSON schema of type object")
}

func TestClient_CustomSchemaGenerator(t *testing.T) {
	tr := mock.New().WithResponse(http.StatusOK, `{"name":"Linkup"}`)
	c := newTestClient(t, tr, WithSchemaGenerator(staticSchema(companySchema)))

	got, err := SearchStructured[company](context.Background(), c, "q", DepthStandard)
	require.NoError(t, err)

	assert.Equal(t, "Linkup", got.Name)
	assert.Equal(t, companySchema, tr.LastRequest.Params.Get("structuredOutputSchema"))
}

func TestClient_TransportError(t *testing.T) {
	wantErr := errors.New("connection refused")
	c := newTestClient(t, mock.New().WithError(wantErr))

	_, err := c.Content(context.Background(), "https://x")

	assert.ErrorIs(t, err, wantErr)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestClient_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	tr := mock.New().WithResponse(http.StatusOK, `{"content":"x"}`)
	c := newTestClient(t, tr, WithMetrics(reg))

	_, err := c.Content(context.Background(), "https://x")
	require.NoError(t, err)

	tr.WithResponse(http.StatusForbidden, `{"message":"Forbidden resource"}`)
	_, err = c.Content(context.Background(), "https://x")
	require.Error(t, err)

	tr.WithResponse(http.StatusOK, `{"results":[{"type":"video"}]}`)
	_, err = c.SearchResults(context.Background(), "q", DepthStandard)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.RequestsTotal.WithLabelValues("content", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.RequestsTotal.WithLabelValues("content", "authentication")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.RequestsTotal.WithLabelValues("search", "decode_error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.metrics.RequestsInFlight))
}

func TestClient_Logging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tr := mock.New().WithResponse(http.StatusForbidden, `{"message":"Forbidden resource"}`)

	c, err := New(Config{APIKey: "k"}, zap.New(core), WithTransport(tr))
	require.NoError(t, err)

	_, err = c.Content(context.Background(), "https://x")
	require.Error(t, err)

	entries := logs.FilterMessage("linkup api error").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "authentication", entries[0].ContextMap()["kind"])
	assert.Equal(t, "Forbidden resource", entries[0].ContextMap()["message"])

	tr.WithResponse(http.StatusOK, `{"text":"wrong shape"}`)
	_, err = c.Content(context.Background(), "https://x")
	require.ErrorIs(t, err, ErrDecode)
	assert.Equal(t, 1, logs.FilterMessage("linkup response not decodable").Len())
}
