package polls

import "fmt"

// MalformedResponseError reports a list or detail payload missing a field the
// mapping cannot proceed without.
type MalformedResponseError struct {
	Field string
	Raw   string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response: required field %q missing or unparsable", e.Field)
}

// PollCreationError reports a creation response without an id. Raw carries
// the response body for diagnostics.
type PollCreationError struct {
	Raw []byte
}

func (e *PollCreationError) Error() string {
	return fmt.Sprintf("poll creation failed: response carried no id: %s", e.Raw)
}

// PreconditionError reports an operation attempted without a prerequisite the
// caller must supply, such as deleting a poll without its admin key. It is
// always raised before any network I/O.
type PreconditionError struct {
	Op     string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}
