package probe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Response is the HTTP response received for a registration request.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
	RequestID  string
	Duration   time.Duration
}

func newResponse(r *http.Response, body []byte, requestID string, took time.Duration) *Response {
	status := r.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", r.StatusCode, http.StatusText(r.StatusCode))
	}
	return &Response{
		StatusCode: r.StatusCode,
		Status:     status,
		Header:     r.Header.Clone(),
		Body:       body,
		RequestID:  requestID,
		Duration:   took,
	}
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON returns the body as raw JSON, or the syntax error that prevents parsing it.
func (r *Response) JSON() (json.RawMessage, error) {
	var v any
	if err := json.Unmarshal(r.Body, &v); err != nil {
		return nil, err
	}
	return json.RawMessage(r.Body), nil
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

// IndentedJSON re-indents the body with two spaces, keeping the server's key order.
func (r *Response) IndentedJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(r.Body), "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}
