package posting

import "fmt"

// Lifecycle graph of a job posting:
//
//	DRAFT ──► PUBLISHED ◄──► PAUSED
//	  │           │             │
//	  │           └──────┬──────┘
//	  ▼                  ▼
//	DELETED          INACTIVE
//
// DELETED and INACTIVE are terminal. Only DRAFT → PUBLISHED costs a token.

// Status values mirror the job_status enum in PostgreSQL.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusPaused    Status = "paused"
	StatusInactive  Status = "inactive"
	StatusDeleted   Status = "deleted"
)

// Action is a user-facing lifecycle operation.
type Action string

const (
	ActionPublish Action = "publish"
	ActionPause   Action = "pause"
	ActionResume  Action = "resume"
	ActionArchive Action = "archive"
	ActionDelete  Action = "delete"
)

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[Status][]Status{
	StatusDraft:     {StatusPublished, StatusDeleted},
	StatusPublished: {StatusPaused, StatusInactive},
	StatusPaused:    {StatusPublished, StatusInactive},
	// INACTIVE and DELETED are terminal
}

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusDraft, StatusPublished, StatusPaused, StatusInactive, StatusDeleted:
		return st, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// ParseAction converts a raw string to an Action.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	switch a {
	case ActionPublish, ActionPause, ActionResume, ActionArchive, ActionDelete:
		return a, nil
	}
	return "", fmt.Errorf("unknown job action %q", s)
}

// Target resolves the status an action leads to from the given status.
// ok is false when the action is not offered in that status.
func (a Action) Target(from Status) (Status, bool) {
	var to Status
	switch a {
	case ActionPublish:
		if from != StatusDraft {
			return "", false
		}
		to = StatusPublished
	case ActionPause:
		to = StatusPaused
	case ActionResume:
		if from != StatusPaused {
			return "", false
		}
		to = StatusPublished
	case ActionArchive:
		to = StatusInactive
	case ActionDelete:
		to = StatusDeleted
	default:
		return "", false
	}
	return to, IsTransitionAllowed(from, to)
}

// AvailableActions lists the actions offered for a posting in status s.
func AvailableActions(s Status) []Action {
	var out []Action
	for _, a := range []Action{ActionPublish, ActionPause, ActionResume, ActionArchive, ActionDelete} {
		if _, ok := a.Target(s); ok {
			out = append(out, a)
		}
	}
	return out
}

// IsTransitionAllowed returns true when moving from → to is permitted by the
// state machine.
func IsTransitionAllowed(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false // terminal state, no outgoing transitions
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// ConsumesToken is true only for the first publication of a draft.
func ConsumesToken(from, to Status) bool {
	return from == StatusDraft && to == StatusPublished
}

// IsLocked returns true when title and address can no longer be edited.
func IsLocked(s Status) bool {
	return s == StatusPublished || s == StatusPaused || s == StatusInactive
}

// IsLive returns true when the posting counts against the plan quota.
func IsLive(s Status) bool { return s == StatusPublished || s == StatusPaused }

// IsVisible returns true when candidates can find the posting.
func IsVisible(s Status) bool { return s == StatusPublished }
