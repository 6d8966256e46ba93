// Package relay implements the bounded-timeout JSON fetch primitive used to
// reach delivery providers through the redundant relay network.
package relay

import "fmt"

// Error is the single failure kind reported by the relay client. Network
// failures, non-2xx statuses and timeout expiries are deliberately collapsed:
// the upstream relay infrastructure is unreliable and heterogeneous, and
// callers cannot act differently on the distinction.
type Error struct {
	Path   string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("relay %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("relay %s: %s", e.Path, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}
