// errors.go defines the failure taxonomy returned by Probe.Run so callers can branch
// on the kind of failure instead of inspecting printed text.

package probe

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTransport matches every failure raised while sending the request or
	// receiving the response, including statuses rejected by the transport.
	ErrTransport = errors.New("transport error")

	// ErrDecode matches a successful response whose body is not valid JSON.
	ErrDecode = errors.New("decode error")

	// ErrUnexpectedStatus is wrapped when a non-2xx response is treated as a failure.
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// Kind tags which branch of the taxonomy an Error belongs to.
type Kind int

const (
	// KindTransport covers connection, DNS, read and status failures.
	KindTransport Kind = iota
	// KindDecode covers an unparseable body on the success path.
	KindDecode
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Operations recorded on Error.Op.
const (
	OpSend   = "send registration"
	OpRead   = "read response"
	OpStatus = "check status"
	OpDecode = "decode response"
)

// Error is the failure returned by Probe.Run. Response is the partial HTTP response
// when one was received and is nil for pure connection failures.
type Error struct {
	Kind     Kind
	Op       string
	Response *Response
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op
	}
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrDecode:
		return e.Kind == KindDecode
	}
	return false
}

// HasResponse reports whether a partial HTTP response is attached.
func (e *Error) HasResponse() bool {
	return e.Response != nil
}

// AsError extracts the *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// Outcome labels for metrics and logs.
const (
	OutcomeSuccess        = "success"
	OutcomeTransportError = "transport_error"
	OutcomeStatusError    = "status_error"
	OutcomeDecodeError    = "decode_error"
)

// Outcome classifies the result of a run.
func Outcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	if errors.Is(err, ErrDecode) {
		return OutcomeDecodeError
	}
	if errors.Is(err, ErrUnexpectedStatus) {
		return OutcomeStatusError
	}
	return OutcomeTransportError
}

// StatusHint returns a short explanation for statuses the registration endpoint
// is known to answer with, or "" when there is nothing useful to add.
func StatusHint(code int) string {
	switch {
	case code == http.StatusBadRequest:
		return "invalid registration data"
	case code == http.StatusUnauthorized:
		return "unauthorized"
	case code == http.StatusConflict:
		return "email already registered"
	case code >= http.StatusInternalServerError:
		return "server error"
	default:
		return ""
	}
}

func newStatusError(resp *Response, url string) *Error {
	msg := fmt.Sprintf("%s for url %s", resp.Status, url)
	if hint := StatusHint(resp.StatusCode); hint != "" {
		msg += " (" + hint + ")"
	}
	return &Error{
		Kind:     KindTransport,
		Op:       OpStatus,
		Response: resp,
		Err:      fmt.Errorf("%w: %s", ErrUnexpectedStatus, msg),
	}
}
