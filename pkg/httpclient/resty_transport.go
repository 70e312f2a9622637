package httpclient

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"
)

// RestyTransport adapts resty.Client to the Transport interface.
type RestyTransport struct {
	client *resty.Client
}

// NewRestyTransport creates a Transport backed by a fresh resty.Client with
// the specified timeout.
func NewRestyTransport(timeout time.Duration) *RestyTransport {
	c := resty.New()
	c.SetTimeout(timeout)
	return &RestyTransport{client: c}
}

// NewRestyTransportWithClient wraps an existing resty.Client for callers that
// need custom transports (proxies, test doubles).
func NewRestyTransportWithClient(c *resty.Client) *RestyTransport {
	return &RestyTransport{client: c}
}

// Execute performs a single HTTP call described by spec. Transport-layer
// failures are mapped to the *Error taxonomy; protocol-level statuses are
// returned untouched for the caller to classify.
func (t *RestyTransport) Execute(ctx context.Context, spec RequestSpec) (Response, error) {
	req := t.client.R().SetContext(ctx)
	if len(spec.Headers) > 0 {
		req.SetHeaders(spec.Headers)
	}
	if spec.Body != nil {
		req.SetBody(spec.Body)
	}

	resp, err := req.Execute(string(spec.Method), spec.URL)
	if err != nil {
		return nil, mapTransportError(err)
	}
	if resp.RawResponse == nil {
		return nil, nonHTTPResponseError(nil)
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// mapTransportError inspects a transport-layer failure and maps it onto the
// error taxonomy. Cancellation is checked first so a cancelled call never
// masquerades as a timeout.
func mapTransportError(err error) *Error {
	if errors.Is(err, context.Canceled) {
		return transportError(err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return timeoutError(err)
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return timeoutError(err)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return noInternetError(err)
	}
	if errors.Is(err, syscall.ENETUNREACH) || errors.Is(err, syscall.EHOSTUNREACH) {
		return noInternetError(err)
	}

	// net/http reports a non-HTTP reply as a malformed response.
	if strings.Contains(err.Error(), "malformed HTTP") {
		return nonHTTPResponseError(err)
	}

	return transportError(err)
}

// restyResponseAdapter adapts resty.Response to the Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte    { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int { return r.resp.StatusCode() }
