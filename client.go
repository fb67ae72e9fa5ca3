package linkup

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kitbuilder587/linkup-go/internal/config"
	"github.com/kitbuilder587/linkup-go/internal/metrics"
	"github.com/kitbuilder587/linkup-go/internal/transport"
)

const (
	Version        = "0.1.0"
	DefaultBaseURL = config.DefaultBaseURL
)

// maxLoggedBody bounds how much of an undecodable body ends up in the logs.
const maxLoggedBody = 512

type Config struct {
	APIKey  string
	BaseURL string
	// Timeout == 0 means requests never time out on the client side.
	Timeout time.Duration
}

// Transport executes one request and returns the raw status and body.
// Implementations must be safe for concurrent use.
type Transport interface {
	Send(ctx context.Context, method, path string, params url.Values) (status int, body []byte, err error)
}

type Client struct {
	transport Transport
	schemaGen SchemaGenerator
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

type Option func(*Client) error

// WithTransport replaces the default net/http transport.
func WithTransport(t Transport) Option {
	return func(c *Client) error {
		if t == nil {
			return fmt.Errorf("%w: nil transport", ErrInvalidArgument)
		}
		c.transport = t
		return nil
	}
}

func WithSchemaGenerator(gen SchemaGenerator) Option {
	return func(c *Client) error {
		if gen == nil {
			return fmt.Errorf("%w: nil schema generator", ErrInvalidArgument)
		}
		c.schemaGen = gen
		return nil
	}
}

// WithMetrics registers request metrics on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) error {
		m, err := metrics.New(reg)
		if err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		c.metrics = m
		return nil
	}
}

func New(cfg Config, logger *zap.Logger, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("%w: timeout must be non-negative", ErrInvalidArgument)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		schemaGen: GenerateSchema,
		logger:    logger,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.transport == nil {
		c.transport = transport.NewHTTP(transport.Config{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			UserAgent: userAgent(),
			Timeout:   cfg.Timeout,
		}, logger)
	}

	return c, nil
}

// NewFromEnv builds a client from LINKUP_API_KEY, LINKUP_BASE_URL,
// LINKUP_TIMEOUT_SEC, LOG_LEVEL and LOG_FORMAT.
func NewFromEnv(opts ...Option) (*Client, error) {
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrMissingAPIKey) {
			return nil, fmt.Errorf("%w: %w", ErrMissingAPIKey, err)
		}
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	return New(Config{
		APIKey:  cfg.Linkup.APIKey,
		BaseURL: cfg.Linkup.BaseURL,
		Timeout: cfg.Linkup.Timeout,
	}, logger, opts...)
}

func userAgent() string {
	return "Linkup-Go/" + Version
}

// Search runs a search. The concrete Output type follows req.OutputType.
func (c *Client) Search(ctx context.Context, req SearchRequest) (Output, error) {
	p, err := buildSearch(req, c.schemaGen)
	if err != nil {
		return nil, err
	}

	out, err := c.do(ctx, p)
	if err != nil {
		return nil, err
	}
	return out.(Output), nil
}

// Content fetches the content of the page at pageURL.
func (c *Client) Content(ctx context.Context, pageURL string) (*Content, error) {
	out, err := c.do(ctx, buildContent(pageURL))
	if err != nil {
		return nil, err
	}
	return out.(*Content), nil
}

func (c *Client) SearchResults(ctx context.Context, query string, depth Depth) (*SearchResults, error) {
	out, err := c.Search(ctx, SearchRequest{
		Query:      query,
		Depth:      depth,
		OutputType: OutputSearchResults,
	})
	if err != nil {
		return nil, err
	}
	return out.(*SearchResults), nil
}

func (c *Client) SourcedAnswer(ctx context.Context, query string, depth Depth) (*SourcedAnswer, error) {
	out, err := c.Search(ctx, SearchRequest{
		Query:      query,
		Depth:      depth,
		OutputType: OutputSourcedAnswer,
	})
	if err != nil {
		return nil, err
	}
	return out.(*SourcedAnswer), nil
}

// SearchStructured asks for an answer shaped like T and decodes it into a new T.
func SearchStructured[T any](ctx context.Context, c *Client, query string, depth Depth) (*T, error) {
	out, err := c.Search(ctx, SearchRequest{
		Query:            query,
		Depth:            depth,
		OutputType:       OutputStructured,
		StructuredSchema: SchemaFor[T](),
	})
	if err != nil {
		return nil, err
	}

	v, ok := out.(*Structured).Value.(*T)
	if !ok {
		return nil, fmt.Errorf("%w: structured value is %T", ErrDecode, out.(*Structured).Value)
	}
	return v, nil
}

// do is the single exchange shared by the blocking and async calls.
func (c *Client) do(ctx context.Context, p *plan) (any, error) {
	c.metrics.IncRequestsInFlight()
	defer c.metrics.DecRequestsInFlight()

	start := time.Now()
	status, body, err := c.transport.Send(ctx, http.MethodGet, p.path, p.params)
	if err != nil {
		c.metrics.RecordRequest(p.operation, "transport_error", time.Since(start))
		c.logger.Warn("linkup request not completed",
			zap.String("operation", p.operation),
			zap.Error(err),
		)
		return nil, fmt.Errorf("send request: %w", err)
	}

	out, err := resolve(p, status, body)
	c.metrics.RecordRequest(p.operation, statusLabel(err), time.Since(start))

	var apiErr *APIError
	switch {
	case err == nil:
		c.logger.Debug("linkup request succeeded",
			zap.String("operation", p.operation),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
		)
	case errors.As(err, &apiErr):
		c.logger.Warn("linkup api error",
			zap.String("operation", p.operation),
			zap.Int("status", apiErr.StatusCode),
			zap.Stringer("kind", apiErr.Kind),
			zap.String("message", apiErr.Message),
		)
	default:
		c.logger.Error("linkup response not decodable",
			zap.String("operation", p.operation),
			zap.Int("status", status),
			zap.ByteString("body", truncate(body, maxLoggedBody)),
			zap.Error(err),
		)
	}

	return out, err
}

func statusLabel(err error) string {
	if err == nil {
		return "success"
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind.String()
	}
	return "decode_error"
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
