// Package entitlement answers whether a company may publish another job
// posting. The wizard only reads snapshots; token arithmetic happens in the
// store when a publish is committed.
package entitlement

import (
	"context"
	"errors"
)

var (
	// ErrInsufficientTokens is the denial reason when the token balance is
	// below the price of one posting.
	ErrInsufficientTokens = errors.New("not enough tokens to publish a job posting")

	// ErrJobPostLimitReached is the denial reason when the plan's job-post
	// quota is exhausted.
	ErrJobPostLimitReached = errors.New("job posting limit of the current plan reached")
)

// Snapshot is a read-only view of a company's balance and quota.
type Snapshot struct {
	RemainingTokens   int `json:"remainingTokens"`
	RemainingJobPosts int `json:"remainingJobPosts"`
	TokensPerPost     int `json:"tokensPerPost"`
}

// CanPost is true iff the balance covers one posting and quota remains.
func (s Snapshot) CanPost() bool {
	return s.RemainingTokens >= s.TokensPerPost && s.RemainingJobPosts > 0
}

// Denial returns nil when CanPost is true, otherwise exactly one reason.
// Tokens are checked before the plan limit.
func (s Snapshot) Denial() error {
	if s.RemainingTokens < s.TokensPerPost {
		return ErrInsufficientTokens
	}
	if s.RemainingJobPosts <= 0 {
		return ErrJobPostLimitReached
	}
	return nil
}

// Gate reports the current entitlement of a company.
type Gate interface {
	Snapshot(ctx context.Context, companyID string) (Snapshot, error)
}

// IsDenial reports whether err is one of the two denial reasons.
func IsDenial(err error) bool {
	return errors.Is(err, ErrInsufficientTokens) || errors.Is(err, ErrJobPostLimitReached)
}

// Static always answers with the same snapshot. Used for local runs and tests.
type Static Snapshot

// Snapshot implements Gate.
func (s Static) Snapshot(context.Context, string) (Snapshot, error) {
	return Snapshot(s), nil
}
