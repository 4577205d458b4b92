package transport

import "fmt"

// TransportError reports a network failure or a terminal non-success HTTP
// status. Status is zero when the request never produced a response.
type TransportError struct {
	Method string
	Path   string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.Status)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
