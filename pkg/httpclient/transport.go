package httpclient

import "context"

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Transport executes a single RequestSpec against the network. Implementations
// perform exactly one call per Execute; retry policy is a caller concern.
// Failures are reported as *Error with a transport-layer Kind.
type Transport interface {
	Execute(ctx context.Context, spec RequestSpec) (Response, error)
}
