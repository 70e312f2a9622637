package httpclient

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

// Option configures a Client.
type Option func(*Client)

// WithTransport overrides the transport used for network calls.
func WithTransport(t Transport) Option {
	return func(c *Client) {
		if t != nil {
			c.transport = t
		}
	}
}

// WithTimeout sets the timeout of the default resty transport. It has no
// effect when a custom transport is injected.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithAcceptedStatuses overrides the default accepted-status set (200-299).
func WithAcceptedStatuses(s StatusSet) Option {
	return func(c *Client) {
		if len(s) > 0 {
			c.accepted = s
		}
	}
}

// WithLogger attaches a logger for per-request debug output.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// Client issues JSON requests and classifies their outcomes. Clients hold no
// per-request state and are safe for concurrent use.
type Client struct {
	transport Transport
	accepted  StatusSet
	timeout   time.Duration
	log       *zap.SugaredLogger
}

// New creates a Client. Without options it uses a resty transport with a
// 30 second timeout, the 200-299 accepted range, and a nop logger.
func New(opts ...Option) *Client {
	c := &Client{
		accepted: DefaultAcceptedStatuses(),
		timeout:  defaultTimeout,
		log:      zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = NewRestyTransport(c.timeout)
	}
	return c
}

// SubmitRaw executes the request and returns the raw response body when the
// status is accepted. No decode is attempted on the success path; callers
// that expect a typed body use FetchTyped. At most one accepted-status
// override may be passed; it applies to this call only.
func (c *Client) SubmitRaw(ctx context.Context, spec RequestSpec, accepted ...StatusSet) ([]byte, error) {
	statuses := c.accepted
	if len(accepted) > 0 && len(accepted[0]) > 0 {
		statuses = accepted[0]
	}

	c.log.Debugw("executing request", "method", spec.Method, "url", spec.URL)

	resp, err := c.transport.Execute(ctx, spec)
	if err != nil {
		c.log.Debugw("transport failure", "method", spec.Method, "url", spec.URL, "error", err)
		return nil, err
	}

	if statuses.Contains(resp.StatusCode()) {
		return resp.Body(), nil
	}

	cerr := classifyStatus(resp.StatusCode(), resp.Body())
	c.log.Debugw("request rejected", "method", spec.Method, "url", spec.URL,
		"status", resp.StatusCode(), "kind", cerr.Kind.String())
	return nil, cerr
}

// FetchTyped executes the request and decodes the accepted response body into
// T. A decode failure on this success path yields a KindDecoding error;
// non-accepted statuses classify exactly as in SubmitRaw.
func FetchTyped[T any](ctx context.Context, c *Client, spec RequestSpec, accepted ...StatusSet) (T, error) {
	var out T

	body, err := c.SubmitRaw(ctx, spec, accepted...)
	if err != nil {
		return out, err
	}

	if err := json.Unmarshal(body, &out); err != nil {
		var zero T
		return zero, decodingError(err)
	}
	return out, nil
}
