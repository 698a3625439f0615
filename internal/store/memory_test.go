package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/posting-service/internal/entitlement"
	"jobmate/posting-service/internal/posting"
)

func TestMemoryTransitionChecksStatusAndBalance(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2)
	m.SetCompany("c1", 3, 2)

	p, err := m.Create(ctx, "c1", posting.NewDraft())
	require.NoError(t, err)

	_, err = m.Transition(ctx, "c1", p.ID, posting.StatusPaused, posting.StatusPublished, 0)
	assert.ErrorIs(t, err, posting.ErrForbiddenTransition)

	_, err = m.Transition(ctx, "c1", p.ID, posting.StatusDraft, posting.StatusPublished, 4)
	assert.ErrorIs(t, err, entitlement.ErrInsufficientTokens)
	assert.Equal(t, 3, m.Balance("c1"))

	pub, err := m.Transition(ctx, "c1", p.ID, posting.StatusDraft, posting.StatusPublished, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Balance("c1"))
	require.NotNil(t, pub.PublishedAt)
	require.Len(t, pub.History, 1)

	snap, err := m.Snapshot(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, entitlement.Snapshot{RemainingTokens: 1, RemainingJobPosts: 1, TokensPerPost: 2}, snap)
}

func TestMemoryIsolatesCompaniesAndCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(1)

	d := posting.NewDraft()
	d.Basics.Title = "Koch (m/w/d)"
	p, err := m.Create(ctx, "c1", d)
	require.NoError(t, err)

	_, err = m.Get(ctx, "c2", p.ID)
	assert.ErrorIs(t, err, posting.ErrNotFound)

	p.Draft.Basics.Title = "changed"
	got, err := m.Get(ctx, "c1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Koch (m/w/d)", got.Draft.Basics.Title)
}

func TestMemoryExpireFeatured(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(1)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	d := posting.NewDraft()
	d.Extras.Featured = true
	d.Extras.FeaturedUntil = &now
	p, err := m.Create(ctx, "c1", d)
	require.NoError(t, err)

	out, err := m.ExpireFeatured(ctx, now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = m.ExpireFeatured(ctx, now)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, p.ID, out[0].ID)
	assert.False(t, out[0].Draft.Extras.Featured)
}

func TestMemoryTransitionEnforcesQuota(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)
	m.SetCompany("c1", 0, 1)

	a, err := m.Create(ctx, "c1", posting.NewDraft())
	require.NoError(t, err)
	b, err := m.Create(ctx, "c1", posting.NewDraft())
	require.NoError(t, err)

	_, err = m.Transition(ctx, "c1", a.ID, posting.StatusDraft, posting.StatusPublished, 0)
	require.NoError(t, err)

	// both snapshots were read before either publish committed
	_, err = m.Transition(ctx, "c1", b.ID, posting.StatusDraft, posting.StatusPublished, 0)
	assert.ErrorIs(t, err, entitlement.ErrJobPostLimitReached)

	_, err = m.Transition(ctx, "c1", a.ID, posting.StatusPublished, posting.StatusInactive, 0)
	require.NoError(t, err)
	_, err = m.Transition(ctx, "c1", b.ID, posting.StatusDraft, posting.StatusPublished, 0)
	assert.NoError(t, err)
}
