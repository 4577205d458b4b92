package session

import "fmt"

// AuthenticationError reports a login sequence the service rejected, or a
// login after which the identity cookie needed for token derivation never
// appeared (the two are indistinguishable on the wire).
type AuthenticationError struct {
	Reason string
	Err    error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}
