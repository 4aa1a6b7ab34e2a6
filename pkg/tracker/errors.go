package tracker

import (
	"errors"
	"fmt"

	"viewstate/pkg/docid"
	"viewstate/pkg/mode"
)

// ErrNoTarget is returned by Toggle when there is no focused managed
// document and nothing has been toggled yet this session. Recovered
// locally: surfaced to the user as a warning, never fatal.
var ErrNoTarget = errors.New("no document to toggle")

// HostActionError wraps a failure of the host's show-preview or
// show-source action. The attempted transition did not happen and no
// state was changed, so the same toggle can simply be retried.
type HostActionError struct {
	ID   docid.Identity
	Next mode.Mode
	Err  error
}

func (e *HostActionError) Error() string {
	return fmt.Sprintf("failed to show %s view for %s: %v", e.Next, e.ID, e.Err)
}

func (e *HostActionError) Unwrap() error {
	return e.Err
}
