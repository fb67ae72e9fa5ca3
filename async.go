package linkup

import "context"

// Call is a request running in its own goroutine.
type Call[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func startCall[T any](fn func() (T, error)) *Call[T] {
	call := &Call[T]{done: make(chan struct{})}
	go func() {
		defer close(call.done)
		call.value, call.err = fn()
	}()
	return call
}

func failedCall[T any](err error) *Call[T] {
	call := &Call[T]{done: make(chan struct{}), err: err}
	close(call.done)
	return call
}

// Done is closed once the result is available.
func (c *Call[T]) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the result is available or ctx is done. Giving up on
// ctx does not cancel the request; that is governed by the context passed
// when the call was started.
func (c *Call[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-c.done:
		return c.value, c.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// SearchAsync validates req immediately and sends it in the background.
// A rejected request yields a Call that is already done.
func (c *Client) SearchAsync(ctx context.Context, req SearchRequest) *Call[Output] {
	p, err := buildSearch(req, c.schemaGen)
	if err != nil {
		return failedCall[Output](err)
	}

	return startCall(func() (Output, error) {
		out, err := c.do(ctx, p)
		if err != nil {
			return nil, err
		}
		return out.(Output), nil
	})
}

func (c *Client) ContentAsync(ctx context.Context, pageURL string) *Call[*Content] {
	p := buildContent(pageURL)

	return startCall(func() (*Content, error) {
		out, err := c.do(ctx, p)
		if err != nil {
			return nil, err
		}
		return out.(*Content), nil
	})
}
