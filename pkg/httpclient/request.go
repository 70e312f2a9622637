package httpclient

import "encoding/json"

// Method is the HTTP verb carried by a RequestSpec.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodUpdate Method = "UPDATE"
	MethodDelete Method = "DELETE"
)

const (
	headerAcceptEncoding = "Accept-Encoding"
	headerContentType    = "Content-Type"

	acceptEncodingValue = "gzip;q=1.0, *;q=0.5"
	contentTypeJSON     = "application/json"
)

// RequestSpec is a wire-ready description of a single request. Body holds the
// JSON-encoded payload, nil when the request carries none. Specs are built
// once and never mutated afterwards.
type RequestSpec struct {
	URL     string
	Method  Method
	Headers map[string]string
	Body    []byte
}

// BuildRequest assembles a RequestSpec from the given parts. An empty method
// defaults to GET. Accept-Encoding is always set; Content-Type is set to
// application/json only when a body is supplied. Caller headers are applied
// after the defaults, so a caller value wins on key collision. A body that
// cannot be serialized fails with a KindEncoding error and nothing escapes
// the builder.
func BuildRequest(url string, method Method, headers map[string]string, body any) (RequestSpec, error) {
	if method == "" {
		method = MethodGet
	}

	h := make(map[string]string, len(headers)+2)
	h[headerAcceptEncoding] = acceptEncodingValue

	var encoded []byte
	if body != nil {
		h[headerContentType] = contentTypeJSON
		data, err := json.Marshal(body)
		if err != nil {
			return RequestSpec{}, encodingError(err)
		}
		encoded = data
	}

	for k, v := range headers {
		h[k] = v
	}

	return RequestSpec{
		URL:     url,
		Method:  method,
		Headers: h,
		Body:    encoded,
	}, nil
}
