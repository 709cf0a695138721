package apiclient

import "fmt"

// ErrorKind categorizes a failed call attempt. A non-2xx response is not a
// CallError: it comes back as a Result for the caller to render.
type ErrorKind string

const (
	KindTimeout          ErrorKind = "timeout"
	KindConnection       ErrorKind = "connection"
	KindMissingPathParam ErrorKind = "missing_path_param"
)

// CallError describes why a call attempt failed before or during transport.
type CallError struct {
	Kind  ErrorKind
	Param string // placeholder name, set for KindMissingPathParam
	Err   error
}

func (e *CallError) Error() string {
	switch e.Kind {
	case KindMissingPathParam:
		return fmt.Sprintf("no value available for path parameter %q", e.Param)
	case KindTimeout:
		return fmt.Sprintf("call timed out: %v", e.Err)
	default:
		return fmt.Sprintf("call failed: %v", e.Err)
	}
}

func (e *CallError) Unwrap() error {
	return e.Err
}
