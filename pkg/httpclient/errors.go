package httpclient

import (
	"errors"
	"fmt"
)

// Kind classifies request failures into the variants callers branch on.
type Kind int

const (
	// KindUnknown is the zero value and never produced by this package.
	KindUnknown Kind = iota
	// KindEncoding indicates the request body could not be serialized.
	KindEncoding
	// KindNoInternet indicates the network was unreachable (DNS failure,
	// no route to host).
	KindNoInternet
	// KindTimeout indicates the request exceeded the transport deadline.
	KindTimeout
	// KindNonHTTPResponse indicates the remote answered with something that
	// is not an HTTP response.
	KindNonHTTPResponse
	// KindTransport covers any other transport-layer failure, including
	// cancellation of an in-flight request.
	KindTransport
	// KindUnauthorized indicates HTTP 401.
	KindUnauthorized
	// KindForbidden indicates HTTP 403.
	KindForbidden
	// KindNotFound indicates HTTP 404.
	KindNotFound
	// KindServerError indicates HTTP 5xx.
	KindServerError
	// KindBadStatus indicates any other status outside the accepted set.
	KindBadStatus
	// KindDecoding indicates the success-path response body could not be
	// decoded into the caller's target type.
	KindDecoding
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindEncoding:
		return "encoding"
	case KindNoInternet:
		return "no_internet"
	case KindTimeout:
		return "timeout"
	case KindNonHTTPResponse:
		return "non_http_response"
	case KindTransport:
		return "transport"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindServerError:
		return "server_error"
	case KindBadStatus:
		return "bad_status"
	case KindDecoding:
		return "decoding"
	default:
		return "unknown"
	}
}

// Error is the structured failure returned by this package. Status is zero
// for failures that happened before a status code existed; Reason carries the
// server-supplied reason string when one was present and parseable.
type Error struct {
	Kind   Kind
	Status int
	Reason string
	msg    string
	cause  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Status > 0 && e.Reason != "":
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Kind, e.Status, e.Reason)
	case e.Status > 0:
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Kind, e.Status, e.msg)
	case e.cause != nil:
		return fmt.Sprintf("httpclient: %s: %s: %v", e.Kind, e.msg, e.cause)
	default:
		return fmt.Sprintf("httpclient: %s: %s", e.Kind, e.msg)
	}
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == kind
}

func encodingError(cause error) *Error {
	return &Error{Kind: KindEncoding, msg: "encode request body", cause: cause}
}

func noInternetError(cause error) *Error {
	return &Error{Kind: KindNoInternet, msg: "no internet connection", cause: cause}
}

func timeoutError(cause error) *Error {
	return &Error{Kind: KindTimeout, msg: "request timed out", cause: cause}
}

func nonHTTPResponseError(cause error) *Error {
	return &Error{Kind: KindNonHTTPResponse, msg: "response is not an HTTP response", cause: cause}
}

func transportError(cause error) *Error {
	return &Error{Kind: KindTransport, msg: "request failed", cause: cause}
}

func unauthorizedError() *Error {
	return &Error{Kind: KindUnauthorized, Status: 401, msg: "authentication required"}
}

func forbiddenError() *Error {
	return &Error{Kind: KindForbidden, Status: 403, msg: "access denied"}
}

func notFoundError() *Error {
	return &Error{Kind: KindNotFound, Status: 404, msg: "resource not found"}
}

func serverError(status int) *Error {
	return &Error{Kind: KindServerError, Status: status, msg: "server error"}
}

func badStatusError(status int, reason string) *Error {
	return &Error{Kind: KindBadStatus, Status: status, Reason: reason, msg: "unexpected status"}
}

func decodingError(cause error) *Error {
	return &Error{Kind: KindDecoding, msg: "decode response body", cause: cause}
}
