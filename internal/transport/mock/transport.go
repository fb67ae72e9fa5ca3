package mock

import (
	"context"
	"net/url"
	"sync"
	"time"
)

type Request struct {
	Method string
	Path   string
	Params url.Values
}

// Transport replays a canned response and records every request it sees.
type Transport struct {
	Status int
	Body   []byte
	Error  error
	Delay  time.Duration

	CallCount   int
	LastRequest Request
	AllRequests []Request

	mu sync.Mutex
}

func New() *Transport {
	return &Transport{Status: 200, Body: []byte(`{}`)}
}

func (t *Transport) WithResponse(status int, body string) *Transport {
	t.Status = status
	t.Body = []byte(body)
	return t
}

func (t *Transport) WithError(err error) *Transport {
	t.Error = err
	return t
}

func (t *Transport) WithDelay(delay time.Duration) *Transport {
	t.Delay = delay
	return t
}

func (t *Transport) Send(ctx context.Context, method, path string, params url.Values) (int, []byte, error) {
	req := Request{Method: method, Path: path, Params: cloneValues(params)}

	t.mu.Lock()
	t.CallCount++
	t.LastRequest = req
	t.AllRequests = append(t.AllRequests, req)
	delay := t.Delay
	err := t.Error
	status := t.Status
	body := append([]byte(nil), t.Body...)
	t.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return 0, nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	if err != nil {
		return 0, nil, err
	}

	return status, body, nil
}

func (t *Transport) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.CallCount
}

func (t *Transport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.CallCount = 0
	t.LastRequest = Request{}
	t.AllRequests = nil
}

func cloneValues(v url.Values) url.Values {
	if v == nil {
		return nil
	}
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
