package reply

import (
	"errors"
	"fmt"
)

// QuotaExceededMarker is the error value the endpoint returns once the
// daily budget is spent.
const QuotaExceededMarker = "Daily quota exceeded."

// ErrQuotaExceeded is returned when the endpoint reports an exhausted quota.
var ErrQuotaExceeded = errors.New("reply quota exceeded")

// TransportError covers network failures, non-2xx statuses and bodies that
// are not JSON.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("request failed: status %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ContentError is returned together with a partial Reply when the body has
// no text. The reply id, when present, is still usable.
type ContentError struct {
	ID string
}

func (e *ContentError) Error() string {
	if e.ID == "" {
		return "reply has no text and no id"
	}
	return fmt.Sprintf("reply %s has no text", e.ID)
}
