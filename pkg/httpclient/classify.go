package httpclient

import (
	"encoding/json"
	"net/http"
)

// StatusSet is a set of HTTP status codes treated as success.
type StatusSet map[int]struct{}

// NewStatusSet builds a StatusSet from the given codes.
func NewStatusSet(codes ...int) StatusSet {
	s := make(StatusSet, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

// Contains reports whether code belongs to the set.
func (s StatusSet) Contains(code int) bool {
	_, ok := s[code]
	return ok
}

// DefaultAcceptedStatuses returns the conventional success range 200-299.
func DefaultAcceptedStatuses() StatusSet {
	s := make(StatusSet, 100)
	for c := 200; c < 300; c++ {
		s[c] = struct{}{}
	}
	return s
}

// errorPayload is the wire shape servers use to explain a failure.
type errorPayload struct {
	Reason string `json:"reason"`
}

// decodeReason best-effort extracts the reason field from a failure body.
// A missing or unparseable payload yields an empty reason, never an error.
func decodeReason(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var p errorPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return ""
	}
	return p.Reason
}

// classifyStatus maps a status code outside the accepted set onto its error
// variant. The priority is fixed: 401, 403, 404, the 5xx range, then
// BadStatus for everything else. The failure body is consulted only for
// BadStatus, where the reason decode degrades silently.
func classifyStatus(status int, body []byte) *Error {
	switch {
	case status == http.StatusUnauthorized:
		return unauthorizedError()
	case status == http.StatusForbidden:
		return forbiddenError()
	case status == http.StatusNotFound:
		return notFoundError()
	case status >= 500 && status <= 599:
		return serverError(status)
	default:
		return badStatusError(status, decodeReason(body))
	}
}
