package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const RequestIDHeader = "X-Request-Id"

type Config struct {
	APIKey    string
	BaseURL   string
	UserAgent string
	// Timeout == 0 leaves the http.Client without a deadline.
	Timeout time.Duration
}

// HTTP sends Linkup API requests over net/http. Safe for concurrent use.
type HTTP struct {
	apiKey    string
	baseURL   string
	userAgent string
	client    *http.Client
	logger    *zap.Logger
}

func NewHTTP(cfg Config, logger *zap.Logger) *HTTP {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HTTP{
		apiKey:    cfg.APIKey,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: cfg.Timeout},
		logger:    logger,
	}
}

// Send issues one request and returns the raw status and body. Non-2xx
// statuses are not errors at this level.
func (t *HTTP) Send(ctx context.Context, method, path string, params url.Values) (int, []byte, error) {
	target := t.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.New().String()
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	start := time.Now()
	body, status, err := doRequest(t.client, req)
	if err != nil {
		t.logger.Debug("linkup request failed",
			zap.String("request_id", requestID),
			zap.String("path", path),
			zap.Error(err),
		)
		return status, nil, err
	}

	t.logger.Debug("linkup request done",
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.Duration("duration", time.Since(start)),
	)

	return status, body, nil
}

func doRequest(client *http.Client, req *http.Request) ([]byte, int, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	return body, resp.StatusCode, nil
}
