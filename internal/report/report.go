// Package report renders a probe run as the plain-text transcript printed to stdout.
//
// The transcript carries no timestamps or request identifiers, so two runs against
// an endpoint that answers identically produce byte-identical output.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/njoy/registration-probe/internal/probe"
	"github.com/njoy/registration-probe/internal/registration"
)

// Reporter writes transcript sections to w.
type Reporter struct {
	w   io.Writer
	err error
}

// New returns a Reporter writing to w.
func New(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// Err returns the first write error encountered, if any.
func (r *Reporter) Err() error {
	return r.err
}

// Payload prints the target URL and the indented request body.
func (r *Reporter) Payload(url string, req registration.Request) error {
	body, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render payload: %w", err)
	}

	r.printf("Sending registration data to %s:\n", url)
	r.printf("%s\n\n", body)
	return r.err
}

// Result prints the outcome of a run: the response on success, the failure otherwise.
func (r *Reporter) Result(resp *probe.Response, err error) error {
	if err != nil {
		return r.Failure(err)
	}
	return r.Response(resp)
}

// Response prints the status code and the indented JSON body of a successful run.
func (r *Reporter) Response(resp *probe.Response) error {
	r.printf("Status Code: %d\n", resp.StatusCode)
	r.printf("Response:\n")

	body, err := resp.IndentedJSON()
	if err != nil {
		r.printf("Error: %v\n", err)
		return r.err
	}
	r.printf("%s\n", body)
	return r.err
}

// Failure prints the error description followed by any partial response.
//
// A transport failure's response body falls back to raw text when it is not JSON.
// A decode failure on a successful response gets no such fallback: the status is
// printed and then the decode error itself.
func (r *Reporter) Failure(err error) error {
	pe, ok := probe.AsError(err)
	if !ok {
		r.printf("Error: %v\n", err)
		return r.err
	}

	if errors.Is(pe, probe.ErrDecode) {
		if pe.HasResponse() {
			r.printf("Status Code: %d\n", pe.Response.StatusCode)
			r.printf("Response:\n")
		}
		r.printf("Error: %v\n", pe)
		return r.err
	}

	r.printf("Error: %v\n", pe)
	if !pe.HasResponse() {
		return r.err
	}

	r.printf("Status Code: %d\n", pe.Response.StatusCode)
	r.printf("Response:\n")
	if body, err := pe.Response.IndentedJSON(); err == nil {
		r.printf("%s\n", body)
	} else {
		r.printf("%s\n", pe.Response.Text())
	}
	return r.err
}

func (r *Reporter) printf(format string, args ...any) {
	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintf(r.w, format, args...)
}
