package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"jobmate/posting-service/internal/entitlement"
	"jobmate/posting-service/internal/posting"
)

// Memory is an in-process posting.Store that also answers entitlement
// snapshots from its own token balances and plan quotas.
type Memory struct {
	mu            sync.Mutex
	postings      map[string]posting.Posting
	balances      map[string]int
	quotas        map[string]int
	tokensPerPost int
	now           func() time.Time
}

// NewMemory returns an empty store charging tokensPerPost per publish.
func NewMemory(tokensPerPost int) *Memory {
	return &Memory{
		postings:      make(map[string]posting.Posting),
		balances:      make(map[string]int),
		quotas:        make(map[string]int),
		tokensPerPost: tokensPerPost,
		now:           time.Now,
	}
}

// SetCompany sets the token balance and job-post quota of a company.
func (m *Memory) SetCompany(companyID string, tokens, quota int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[companyID] = tokens
	m.quotas[companyID] = quota
}

// Balance returns the current token balance of a company.
func (m *Memory) Balance(companyID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[companyID]
}

// Snapshot implements entitlement.Gate.
func (m *Memory) Snapshot(_ context.Context, companyID string) (entitlement.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return entitlement.Snapshot{
		RemainingTokens:   m.balances[companyID],
		RemainingJobPosts: max(m.quotas[companyID]-m.liveLocked(companyID), 0),
		TokensPerPost:     m.tokensPerPost,
	}, nil
}

func (m *Memory) Create(_ context.Context, companyID string, d posting.JobDraft) (*posting.Posting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now().UTC()
	p := posting.Posting{
		ID:        uuid.NewString(),
		CompanyID: companyID,
		Status:    posting.StatusDraft,
		Draft:     d.Clone(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.postings[p.ID] = p
	return copyPosting(p), nil
}

func (m *Memory) Get(_ context.Context, companyID, id string) (*posting.Posting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.lookup(companyID, id)
	if err != nil {
		return nil, err
	}
	return copyPosting(p), nil
}

func (m *Memory) List(_ context.Context, companyID string, status posting.Status) ([]posting.Posting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]posting.Posting, 0)
	for _, p := range m.postings {
		if p.CompanyID != companyID {
			continue
		}
		if status == "" && p.Status == posting.StatusDeleted {
			continue
		}
		if status != "" && p.Status != status {
			continue
		}
		out = append(out, *copyPosting(p))
	}
	slices.SortFunc(out, func(a, b posting.Posting) int { return b.UpdatedAt.Compare(a.UpdatedAt) })
	return out, nil
}

func (m *Memory) UpdateDraft(_ context.Context, companyID, id string, d posting.JobDraft) (*posting.Posting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.lookup(companyID, id)
	if err != nil {
		return nil, err
	}
	p.Draft = d.Clone()
	p.UpdatedAt = m.now().UTC()
	m.postings[id] = p
	return copyPosting(p), nil
}

func (m *Memory) Transition(_ context.Context, companyID, id string, from, to posting.Status, tokens int) (*posting.Posting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.lookup(companyID, id)
	if err != nil {
		return nil, err
	}
	if p.Status != from {
		return nil, fmt.Errorf("%w: status changed to %s", posting.ErrForbiddenTransition, p.Status)
	}
	if tokens > 0 && m.balances[companyID] < tokens {
		return nil, entitlement.ErrInsufficientTokens
	}
	if posting.ConsumesToken(from, to) && m.liveLocked(companyID) >= m.quotas[companyID] {
		return nil, entitlement.ErrJobPostLimitReached
	}
	if tokens > 0 {
		m.balances[companyID] -= tokens
	}
	now := m.now().UTC()
	p.Status = to
	p.History = append(slices.Clone(p.History), posting.StatusChange{From: from, To: to, At: now})
	if to == posting.StatusPublished && p.PublishedAt == nil {
		p.PublishedAt = &now
	}
	p.UpdatedAt = now
	m.postings[id] = p
	return copyPosting(p), nil
}

func (m *Memory) ExpireFeatured(_ context.Context, now time.Time) ([]posting.Posting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []posting.Posting
	for id, p := range m.postings {
		until := p.Draft.Extras.FeaturedUntil
		if !p.Draft.Extras.Featured || until == nil || until.After(now) || p.Status == posting.StatusDeleted {
			continue
		}
		p.Draft = p.Draft.Clone()
		p.Draft.Extras.Featured = false
		p.Draft.Extras.FeaturedUntil = nil
		p.UpdatedAt = m.now().UTC()
		m.postings[id] = p
		out = append(out, *copyPosting(p))
	}
	return out, nil
}

func (m *Memory) liveLocked(companyID string) int {
	live := 0
	for _, p := range m.postings {
		if p.CompanyID == companyID && posting.IsLive(p.Status) {
			live++
		}
	}
	return live
}

func (m *Memory) lookup(companyID, id string) (posting.Posting, error) {
	p, ok := m.postings[id]
	if !ok || p.CompanyID != companyID || p.Status == posting.StatusDeleted {
		return posting.Posting{}, posting.ErrNotFound
	}
	return p, nil
}

func copyPosting(p posting.Posting) *posting.Posting {
	out := p
	out.Draft = p.Draft.Clone()
	out.History = slices.Clone(p.History)
	if p.PublishedAt != nil {
		t := *p.PublishedAt
		out.PublishedAt = &t
	}
	return &out
}
