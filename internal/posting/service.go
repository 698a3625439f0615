package posting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"jobmate/posting-service/internal/entitlement"
)

// Posting is a persisted draft with its lifecycle status.
type Posting struct {
	ID          string         `json:"id"`
	CompanyID   string         `json:"companyId"`
	Status      Status         `json:"status"`
	Draft       JobDraft       `json:"draft"`
	History     []StatusChange `json:"history,omitempty"`
	PublishedAt *time.Time     `json:"publishedAt,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// StatusChange is one entry of a posting's history log.
type StatusChange struct {
	From Status    `json:"from"`
	To   Status    `json:"to"`
	At   time.Time `json:"at"`
}

// Store persists postings. Transition must be atomic: it moves the posting
// from → to only if it is still in from, and debits tokens (when > 0) from
// the company balance in the same transaction, returning
// entitlement.ErrInsufficientTokens when the balance does not cover them.
type Store interface {
	Create(ctx context.Context, companyID string, d JobDraft) (*Posting, error)
	Get(ctx context.Context, companyID, id string) (*Posting, error)
	List(ctx context.Context, companyID string, status Status) ([]Posting, error)
	UpdateDraft(ctx context.Context, companyID, id string, d JobDraft) (*Posting, error)
	Transition(ctx context.Context, companyID, id string, from, to Status, tokens int) (*Posting, error)
	ExpireFeatured(ctx context.Context, now time.Time) ([]Posting, error)
}

// Event is published after every lifecycle change.
type Event struct {
	Type      string    `json:"type"`
	JobID     string    `json:"jobId"`
	CompanyID string    `json:"companyId"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	At        time.Time `json:"at"`
}

// EventTypeStatusChanged is the channel and type of lifecycle events.
const EventTypeStatusChanged = "EVENT_JOB_STATUS_CHANGED"

// EventPublisher forwards lifecycle events, e.g. to Redis pub/sub.
type EventPublisher interface {
	Publish(ctx context.Context, e Event) error
}

// Indexer keeps the candidate search index in sync.
type Indexer interface {
	Index(ctx context.Context, p Posting) error
	Remove(ctx context.Context, id string) error
}

// Invalidator drops cached entitlement snapshots.
type Invalidator interface {
	Invalidate(ctx context.Context, companyID string) error
}

// ─── Service ─────────────────────────────────────────────────────────────────

// Service encapsulates all posting business logic and is the persistence
// gateway of the wizard. It has no dependency on net/http.
type Service struct {
	store       Store
	gate        entitlement.Gate
	events      EventPublisher
	index       Indexer
	invalidator Invalidator
	now         func() time.Time
}

// ServiceOption configures optional collaborators.
type ServiceOption func(*Service)

func WithEvents(p EventPublisher) ServiceOption  { return func(s *Service) { s.events = p } }
func WithIndexer(i Indexer) ServiceOption        { return func(s *Service) { s.index = i } }
func WithInvalidator(i Invalidator) ServiceOption { return func(s *Service) { s.invalidator = i } }

// NewService returns a configured Service.
func NewService(store Store, gate entitlement.Gate, opts ...ServiceOption) *Service {
	s := &Service{store: store, gate: gate, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Entitlement returns the gate snapshot for a company.
func (s *Service) Entitlement(ctx context.Context, companyID string) (entitlement.Snapshot, error) {
	return s.gate.Snapshot(ctx, companyID)
}

// Gate returns the entitlement gate the service checks against.
func (s *Service) Gate() entitlement.Gate { return s.gate }

// Get returns one posting of the company.
func (s *Service) Get(ctx context.Context, companyID, id string) (*Posting, error) {
	return s.store.Get(ctx, companyID, id)
}

// List returns the company's postings, newest first. An empty statusFilter
// returns all non-deleted postings.
func (s *Service) List(ctx context.Context, companyID, statusFilter string) ([]Posting, error) {
	var st Status
	if statusFilter != "" {
		parsed, err := ParseStatus(statusFilter)
		if err != nil {
			return nil, &ValidationError{Msg: err.Error()}
		}
		st = parsed
	}
	return s.store.List(ctx, companyID, st)
}

// SaveDraft creates a draft when id is empty, otherwise updates the posting
// under the editing lock.
func (s *Service) SaveDraft(ctx context.Context, companyID, id string, d JobDraft) (*Posting, error) {
	if err := CheckConstraints(d); err != nil {
		return nil, err
	}
	if id == "" {
		p, err := s.store.Create(ctx, companyID, d)
		if err != nil {
			return nil, fmt.Errorf("create draft: %w", err)
		}
		return p, nil
	}
	return s.update(ctx, companyID, id, d)
}

// Update changes the content of an existing posting. Once published, title
// and location can no longer change; pausing or archiving keeps that lock.
func (s *Service) Update(ctx context.Context, companyID, id string, d JobDraft) (*Posting, error) {
	if err := CheckConstraints(d); err != nil {
		return nil, err
	}
	return s.update(ctx, companyID, id, d)
}

func (s *Service) update(ctx context.Context, companyID, id string, d JobDraft) (*Posting, error) {
	cur, err := s.store.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if cur.Status == StatusDeleted {
		return nil, ErrNotFound
	}
	if IsLocked(cur.Status) {
		if locked := LockedChanges(cur.Draft, d); len(locked) > 0 {
			return nil, fmt.Errorf("%w: %v", ErrFieldLocked, locked)
		}
	}

	p, err := s.store.UpdateDraft(ctx, companyID, id, d)
	if err != nil {
		return nil, fmt.Errorf("update draft: %w", err)
	}
	if IsVisible(p.Status) {
		s.reindex(ctx, *p)
	}
	return p, nil
}

// Publish makes a draft visible and consumes tokens for it.
func (s *Service) Publish(ctx context.Context, companyID, id string) (*Posting, error) {
	return s.Apply(ctx, companyID, id, ActionPublish)
}

// Pause hides a published posting without cost.
func (s *Service) Pause(ctx context.Context, companyID, id string) (*Posting, error) {
	return s.Apply(ctx, companyID, id, ActionPause)
}

// Resume republishes a paused posting without cost.
func (s *Service) Resume(ctx context.Context, companyID, id string) (*Posting, error) {
	return s.Apply(ctx, companyID, id, ActionResume)
}

// Archive deactivates a published or paused posting for good.
func (s *Service) Archive(ctx context.Context, companyID, id string) (*Posting, error) {
	return s.Apply(ctx, companyID, id, ActionArchive)
}

// Delete removes a posting that was never published.
func (s *Service) Delete(ctx context.Context, companyID, id string) (*Posting, error) {
	return s.Apply(ctx, companyID, id, ActionDelete)
}

// Apply runs a lifecycle action.
// Returns ErrNotFound if the posting does not exist or belong to companyID.
// Returns ErrForbiddenTransition if the state machine rejects the action.
func (s *Service) Apply(ctx context.Context, companyID, id string, action Action) (*Posting, error) {
	cur, err := s.store.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	to, ok := action.Target(cur.Status)
	if !ok {
		return nil, fmt.Errorf("%w: %s from %s", ErrForbiddenTransition, action, cur.Status)
	}

	tokens := 0
	if ConsumesToken(cur.Status, to) {
		if errs := ValidateAll(cur.Draft); len(errs) > 0 {
			return nil, &ValidationError{Msg: "job posting is incomplete", Step: StepPreview, Details: errs}
		}
		snap, err := s.gate.Snapshot(ctx, companyID)
		if err != nil {
			return nil, fmt.Errorf("read entitlement: %w", err)
		}
		if err := snap.Denial(); err != nil {
			return nil, err
		}
		tokens = snap.TokensPerPost
	}

	p, err := s.store.Transition(ctx, companyID, id, cur.Status, to, tokens)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbiddenTransition) || entitlement.IsDenial(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", action, err)
	}

	if IsLive(cur.Status) != IsLive(to) && s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, companyID); err != nil {
			slog.Warn("entitlement invalidate failed", "company", companyID, "err", err)
		}
	}

	if IsVisible(to) {
		s.reindex(ctx, *p)
	} else {
		s.unindex(ctx, id)
	}

	s.publishEvent(ctx, Event{
		Type:      EventTypeStatusChanged,
		JobID:     id,
		CompanyID: companyID,
		From:      cur.Status,
		To:        to,
		At:        s.now().UTC(),
	})
	return p, nil
}

// ExpireFeatured clears featured flags whose expiry passed and refreshes the
// search documents of the affected visible postings.
func (s *Service) ExpireFeatured(ctx context.Context) (int, error) {
	expired, err := s.store.ExpireFeatured(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("expire featured: %w", err)
	}
	for _, p := range expired {
		if IsVisible(p.Status) {
			s.reindex(ctx, p)
		}
	}
	return len(expired), nil
}

// Gateway returns the wizard-facing persistence adapter for one company.
func (s *Service) Gateway(companyID string) Gateway {
	return companyGateway{svc: s, companyID: companyID}
}

type companyGateway struct {
	svc       *Service
	companyID string
}

func (g companyGateway) SaveDraft(ctx context.Context, id string, d JobDraft) (string, error) {
	p, err := g.svc.SaveDraft(ctx, g.companyID, id, d)
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

func (g companyGateway) Publish(ctx context.Context, id string) error {
	_, err := g.svc.Publish(ctx, g.companyID, id)
	return err
}

// LockedChanges lists the locked fields that differ between before and after.
func LockedChanges(before, after JobDraft) []string {
	var out []string
	if before.Basics.Title != after.Basics.Title {
		out = append(out, "title")
	}
	if before.Location.WorkMode != after.Location.WorkMode {
		out = append(out, "workMode")
	}
	if !sameAddress(before.Location.Address, after.Location.Address) {
		out = append(out, "address")
	}
	return out
}

func sameAddress(a, b Address) bool {
	if a.Street != b.Street || a.Number != b.Number || a.PostalCode != b.PostalCode ||
		a.City != b.City || a.State != b.State || a.Country != b.Country {
		return false
	}
	switch {
	case a.Coordinates == nil && b.Coordinates == nil:
		return true
	case a.Coordinates == nil || b.Coordinates == nil:
		return false
	}
	return *a.Coordinates == *b.Coordinates
}

// ─── Non-fatal side effects ──────────────────────────────────────────────────

func (s *Service) reindex(ctx context.Context, p Posting) {
	if s.index == nil {
		return
	}
	if err := s.index.Index(ctx, p); err != nil {
		slog.Warn("search index update failed", "jobId", p.ID, "err", err)
	}
}

func (s *Service) unindex(ctx context.Context, id string) {
	if s.index == nil {
		return
	}
	if err := s.index.Remove(ctx, id); err != nil {
		slog.Warn("search index removal failed", "jobId", id, "err", err)
	}
}

func (s *Service) publishEvent(ctx context.Context, e Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, e); err != nil {
		slog.Warn("publish "+e.Type+" failed", "jobId", e.JobID, "err", err)
	}
}
