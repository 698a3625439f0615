package posting

import (
	"errors"
	"fmt"
	"strings"
)

// ─── Sentinel errors ─────────────────────────────────────────────────────────

var (
	// ErrNotFound is returned when a posting is missing or belongs to another company.
	ErrNotFound = errors.New("job posting not found")

	// ErrForbiddenTransition is returned when the lifecycle graph has no edge
	// for the requested action.
	ErrForbiddenTransition = errors.New("status transition not allowed")

	// ErrFieldLocked is returned when an edit touches title or address of a
	// posting that has been published.
	ErrFieldLocked = errors.New("title and location are locked after publishing")

	// ErrBusy is returned by the wizard while another save, publish or assist
	// call of the same session is still running.
	ErrBusy = errors.New("another request is still in flight")

	// ErrClosed is returned by a wizard after Close.
	ErrClosed = errors.New("wizard is closed")

	// ErrAssistUnavailable is returned when no AI assistant is configured.
	ErrAssistUnavailable = errors.New("content assistant not configured")
)

// ValidationError wraps a user-facing validation message and, when known,
// the individual rule violations.
type ValidationError struct {
	Msg     string
	Step    StepID
	Details []string
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Msg, strings.Join(e.Details, "; "))
}

// IncompletePublishError is returned when the implicit save of a publish
// succeeded but the publish call itself failed. The posting exists as a
// draft under ID and publishing has to be retried explicitly.
type IncompletePublishError struct {
	ID  string
	Err error
}

func (e *IncompletePublishError) Error() string {
	return fmt.Sprintf("draft %s saved but not published: %v", e.ID, e.Err)
}

func (e *IncompletePublishError) Unwrap() error { return e.Err }

// IsValidationError reports whether err should be answered as a client error.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConflictError reports whether err is a state conflict rather than bad input.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrForbiddenTransition) || errors.Is(err, ErrFieldLocked) || errors.Is(err, ErrBusy)
}
