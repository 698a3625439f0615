package posting

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"jobmate/posting-service/internal/entitlement"
)

// Gateway persists drafts on behalf of one company. SaveDraft creates the
// posting when id is empty and returns the id it is stored under.
type Gateway interface {
	SaveDraft(ctx context.Context, id string, d JobDraft) (string, error)
	Publish(ctx context.Context, id string) error
}

// Assistant proposes content for a draft.
type Assistant interface {
	Suggest(ctx context.Context, req AssistRequest) (Suggestion, error)
}

// WizardState is the ephemeral state of one wizard session.
type WizardState struct {
	Step        StepID   `json:"step"`
	Index       int      `json:"index"`
	Errors      []string `json:"errors,omitempty"`
	Assisting   bool     `json:"assisting"`
	Busy        bool     `json:"busy"`
	PersistedID string   `json:"persistedId,omitempty"`
	Published   bool     `json:"published"`
}

// PublishResult reports how far the two-phase publish got.
type PublishResult struct {
	ID        string `json:"id"`
	Saved     bool   `json:"saved"`
	Published bool   `json:"published"`
}

// Wizard drives one job-creation session. Collaborators are injected; steps
// only see the draft through Draft and change it through Merge.
type Wizard struct {
	companyID string
	company   Company
	gateway   Gateway
	gate      entitlement.Gate
	assistant Assistant
	onChange  func(WizardState)

	mu          sync.Mutex
	draft       JobDraft
	index       int
	errs        []string
	persistedID string
	published   bool

	busy      atomic.Bool
	assisting atomic.Bool

	life  context.Context
	close context.CancelFunc
}

// WizardOption configures optional collaborators.
type WizardOption func(*Wizard)

// WithAssistant enables Assist.
func WithAssistant(a Assistant) WizardOption {
	return func(w *Wizard) { w.assistant = a }
}

// WithCompany sets the company profile used for previews and assist requests.
func WithCompany(c Company) WizardOption {
	return func(w *Wizard) { w.company = c }
}

// WithDraft starts the session from an existing draft instead of NewDraft.
// id is the persisted id of that draft, or empty.
func WithDraft(d JobDraft, id string) WizardOption {
	return func(w *Wizard) {
		w.draft = d.Clone()
		w.persistedID = id
	}
}

// WithOnChange registers a callback run after every state change.
func WithOnChange(fn func(WizardState)) WizardOption {
	return func(w *Wizard) { w.onChange = fn }
}

// NewWizard returns a session positioned on the first step.
func NewWizard(companyID string, gw Gateway, gate entitlement.Gate, opts ...WizardOption) *Wizard {
	w := &Wizard{
		companyID: companyID,
		gateway:   gw,
		gate:      gate,
		draft:     NewDraft(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.life, w.close = context.WithCancel(context.Background())
	return w
}

// ─── Read side ───────────────────────────────────────────────────────────────

// Draft returns a copy of the current draft.
func (w *Wizard) Draft() JobDraft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft.Clone()
}

// State returns a snapshot of the session state.
func (w *Wizard) State() WizardState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stateLocked()
}

func (w *Wizard) stateLocked() WizardState {
	return WizardState{
		Step:        steps[w.index].ID,
		Index:       w.index,
		Errors:      append([]string(nil), w.errs...),
		Assisting:   w.assisting.Load(),
		Busy:        w.busy.Load(),
		PersistedID: w.persistedID,
		Published:   w.published,
	}
}

// Step returns the current step.
func (w *Wizard) Step() StepID { return w.State().Step }

// Errors returns the errors of the last failed Next or Publish.
func (w *Wizard) Errors() []string { return w.State().Errors }

// Preview renders the current draft for candidates.
func (w *Wizard) Preview() ViewModel { return Render(w.Draft(), w.company) }

// ─── Editing and navigation ──────────────────────────────────────────────────

// Merge replaces the field groups present in p. It never validates.
func (w *Wizard) Merge(p Patch) {
	w.mu.Lock()
	w.draft = w.draft.Merge(p)
	st := w.stateLocked()
	w.mu.Unlock()
	w.notify(st)
}

// Next validates the current step and advances when it is clean. It returns
// false, keeping the step, when validation blocked the move. On the last
// step a clean validation returns true without moving.
func (w *Wizard) Next() bool {
	w.mu.Lock()
	errs := Validate(w.draft, steps[w.index].ID)
	ok := len(errs) == 0
	if ok {
		w.errs = nil
		if w.index < len(steps)-1 {
			w.index++
		}
	} else {
		w.errs = errs
	}
	st := w.stateLocked()
	w.mu.Unlock()
	w.notify(st)
	return ok
}

// Previous moves one step back without validating.
func (w *Wizard) Previous() {
	w.mu.Lock()
	if w.index > 0 {
		w.index--
	}
	w.errs = nil
	st := w.stateLocked()
	w.mu.Unlock()
	w.notify(st)
}

// JumpTo moves to step id without validating. Unknown ids are ignored.
func (w *Wizard) JumpTo(id StepID) bool {
	i, ok := StepIndex(id)
	if !ok {
		return false
	}
	w.mu.Lock()
	w.index = i
	w.errs = nil
	st := w.stateLocked()
	w.mu.Unlock()
	w.notify(st)
	return true
}

// CanPublish reads the entitlement gate. The returned error is the denial
// reason when publishing is not possible.
func (w *Wizard) CanPublish(ctx context.Context) (bool, error) {
	snap, err := w.gate.Snapshot(ctx, w.companyID)
	if err != nil {
		return false, fmt.Errorf("read entitlement: %w", err)
	}
	if err := snap.Denial(); err != nil {
		return false, err
	}
	return true, nil
}

// ─── Remote calls ────────────────────────────────────────────────────────────

// SaveDraft stores the current draft with status draft. Incomplete drafts
// are accepted.
func (w *Wizard) SaveDraft(ctx context.Context) (string, error) {
	release, err := w.acquire(&w.busy)
	if err != nil {
		return "", err
	}
	defer release()

	ctx, stop := w.bind(ctx)
	defer stop()
	return w.save(ctx)
}

// Publish runs the full validation, checks the entitlement gate, then saves
// and publishes in two separate calls. When the save succeeds but the
// publish fails the error is an *IncompletePublishError and the posting
// stays a draft; nothing is retried or rolled back. A session that already
// published returns ErrForbiddenTransition without calling the gateway.
func (w *Wizard) Publish(ctx context.Context) (PublishResult, error) {
	release, err := w.acquire(&w.busy)
	if err != nil {
		return PublishResult{}, err
	}
	defer release()

	w.mu.Lock()
	published, persistedID := w.published, w.persistedID
	w.mu.Unlock()
	if published {
		return PublishResult{ID: persistedID, Published: true},
			fmt.Errorf("%w: posting %s is already published", ErrForbiddenTransition, persistedID)
	}

	ctx, stop := w.bind(ctx)
	defer stop()

	draft := w.Draft()
	if errs := ValidateAll(draft); len(errs) > 0 {
		w.mu.Lock()
		w.errs = errs
		st := w.stateLocked()
		w.mu.Unlock()
		w.notify(st)
		return PublishResult{}, &ValidationError{Msg: "job posting is incomplete", Step: StepPreview, Details: errs}
	}

	if ok, err := w.CanPublish(ctx); !ok {
		return PublishResult{}, err
	}

	var res PublishResult
	id, err := w.save(ctx)
	if err != nil {
		return res, err
	}
	res.ID, res.Saved = id, true

	if err := w.gateway.Publish(ctx, id); err != nil {
		// the posting left draft elsewhere; a retry cannot succeed
		if errors.Is(err, ErrForbiddenTransition) {
			return res, err
		}
		return res, &IncompletePublishError{ID: id, Err: err}
	}
	res.Published = true

	w.mu.Lock()
	w.published = true
	st := w.stateLocked()
	w.mu.Unlock()
	w.notify(st)
	return res, nil
}

// Assist asks the assistant for content and merges it into empty fields, or
// into all suggested fields when overwrite is set. On failure the draft is
// left as it was.
func (w *Wizard) Assist(ctx context.Context, overwrite bool) error {
	if w.assistant == nil {
		return ErrAssistUnavailable
	}
	release, err := w.acquire(&w.assisting)
	if err != nil {
		return err
	}
	defer release()

	ctx, stop := w.bind(ctx)
	defer stop()

	sug, err := w.assistant.Suggest(ctx, assistRequest(w.Draft(), w.company))
	if err != nil {
		return fmt.Errorf("content assist: %w", err)
	}

	w.mu.Lock()
	w.draft = ApplySuggestion(w.draft, sug, overwrite)
	st := w.stateLocked()
	w.mu.Unlock()
	w.notify(st)
	return nil
}

// Close cancels in-flight calls. Later remote calls return ErrClosed.
func (w *Wizard) Close() { w.close() }

// save is the only place that records the persisted id.
func (w *Wizard) save(ctx context.Context) (string, error) {
	w.mu.Lock()
	draft := w.draft.Clone()
	id := w.persistedID
	w.mu.Unlock()

	newID, err := w.gateway.SaveDraft(ctx, id, draft)
	if err != nil {
		return "", fmt.Errorf("save draft: %w", err)
	}

	w.mu.Lock()
	w.persistedID = newID
	st := w.stateLocked()
	w.mu.Unlock()
	w.notify(st)
	return newID, nil
}

func (w *Wizard) acquire(flag *atomic.Bool) (func(), error) {
	if w.life.Err() != nil {
		return nil, ErrClosed
	}
	if !flag.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	return func() { flag.Store(false) }, nil
}

// bind derives a context that is also cancelled by Close.
func (w *Wizard) bind(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(w.life, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (w *Wizard) notify(st WizardState) {
	if w.onChange != nil {
		w.onChange(st)
	}
}
