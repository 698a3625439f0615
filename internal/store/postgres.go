// Package store persists job postings. Postgres is the production store;
// Memory backs tests and local runs of the CLI.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobmate/posting-service/internal/entitlement"
	"jobmate/posting-service/internal/posting"
)

// Postgres implements posting.Store on the job_postings table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres returns a store backed by pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const postingColumns = `id::text, company_id::text, status, draft, history,
	published_at, created_at, updated_at`

// Create inserts a new posting with status draft.
func (s *Postgres) Create(ctx context.Context, companyID string, d posting.JobDraft) (*posting.Posting, error) {
	draft, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal draft: %w", err)
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO job_postings (id, company_id, status, draft, featured_until)
		 VALUES ($1, $2, 'draft', $3, $4)
		 RETURNING `+postingColumns,
		uuid.NewString(), companyID, draft, featuredUntil(d),
	)
	p, err := scanPosting(row)
	if err != nil {
		return nil, fmt.Errorf("create posting: %w", err)
	}
	return p, nil
}

// Get returns a posting of the company. Deleted postings are not found.
func (s *Postgres) Get(ctx context.Context, companyID, id string) (*posting.Posting, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, posting.ErrNotFound
	}
	row := s.pool.QueryRow(ctx,
		`SELECT `+postingColumns+`
		 FROM job_postings
		 WHERE id = $1 AND company_id = $2 AND status <> 'deleted'`,
		id, companyID,
	)
	p, err := scanPosting(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, posting.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get posting: %w", err)
	}
	return p, nil
}

// List returns the company's postings, most recently updated first. An
// empty status returns every non-deleted posting.
func (s *Postgres) List(ctx context.Context, companyID string, status posting.Status) ([]posting.Posting, error) {
	const base = `SELECT ` + postingColumns + ` FROM job_postings WHERE company_id = $1`

	var (
		rows pgx.Rows
		err  error
	)
	if status != "" {
		rows, err = s.pool.Query(ctx, base+` AND status = $2 ORDER BY updated_at DESC`, companyID, string(status))
	} else {
		rows, err = s.pool.Query(ctx, base+` AND status <> 'deleted' ORDER BY updated_at DESC`, companyID)
	}
	if err != nil {
		return nil, fmt.Errorf("list postings query: %w", err)
	}
	defer rows.Close()

	out := make([]posting.Posting, 0)
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("list postings scan: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// UpdateDraft replaces the content of a posting.
func (s *Postgres) UpdateDraft(ctx context.Context, companyID, id string, d posting.JobDraft) (*posting.Posting, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, posting.ErrNotFound
	}
	draft, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal draft: %w", err)
	}
	row := s.pool.QueryRow(ctx,
		`UPDATE job_postings
		 SET draft = $1, featured_until = $2, updated_at = NOW()
		 WHERE id = $3 AND company_id = $4 AND status <> 'deleted'
		 RETURNING `+postingColumns,
		draft, featuredUntil(d), id, companyID,
	)
	p, err := scanPosting(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, posting.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update posting: %w", err)
	}
	return p, nil
}

// Transition moves a posting from → to inside one transaction. The row is
// locked first so two concurrent publishes cannot both debit tokens. A first
// publish rechecks the plan quota under a company row lock. When tokens > 0
// the company balance is debited and a ledger entry written.
func (s *Postgres) Transition(ctx context.Context, companyID, id string, from, to posting.Status, tokens int) (*posting.Posting, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, posting.ErrNotFound
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var current string
	err = tx.QueryRow(ctx,
		`SELECT status FROM job_postings
		 WHERE id = $1 AND company_id = $2 AND status <> 'deleted'
		 FOR UPDATE`,
		id, companyID,
	).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, posting.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock posting: %w", err)
	}
	if posting.Status(current) != from {
		return nil, fmt.Errorf("%w: status changed to %s", posting.ErrForbiddenTransition, current)
	}

	if tokens > 0 {
		tag, err := tx.Exec(ctx,
			`UPDATE companies
			 SET token_balance = token_balance - $1
			 WHERE id = $2 AND token_balance >= $1`,
			tokens, companyID,
		)
		if err != nil {
			return nil, fmt.Errorf("debit tokens: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil, entitlement.ErrInsufficientTokens
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO token_ledger (company_id, job_posting_id, delta, reason)
			 VALUES ($1, $2, $3, 'job_publish')`,
			companyID, id, -tokens,
		); err != nil {
			return nil, fmt.Errorf("token ledger insert: %w", err)
		}
	}

	if posting.ConsumesToken(from, to) {
		if err := checkQuota(ctx, tx, companyID); err != nil {
			return nil, err
		}
	}

	entry, _ := json.Marshal([]posting.StatusChange{{From: from, To: to, At: time.Now().UTC()}})
	row := tx.QueryRow(ctx,
		`UPDATE job_postings
		 SET status       = $1,
		     history      = history || $2::jsonb,
		     published_at = CASE WHEN $1 = 'published' THEN COALESCE(published_at, NOW()) ELSE published_at END,
		     updated_at   = NOW()
		 WHERE id = $3 AND company_id = $4
		 RETURNING `+postingColumns,
		string(to), entry, id, companyID,
	)
	p, err := scanPosting(row)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return p, nil
}

// ExpireFeatured clears the featured flag of every posting whose featured
// period ended before now and returns the changed postings.
func (s *Postgres) ExpireFeatured(ctx context.Context, now time.Time) ([]posting.Posting, error) {
	rows, err := s.pool.Query(ctx,
		`UPDATE job_postings
		 SET draft          = jsonb_set(draft #- '{extras,featuredUntil}', '{extras,featured}', 'false'),
		     featured_until = NULL,
		     updated_at     = NOW()
		 WHERE featured_until IS NOT NULL AND featured_until <= $1 AND status <> 'deleted'
		 RETURNING `+postingColumns,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("expire featured query: %w", err)
	}
	defer rows.Close()

	var out []posting.Posting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("expire featured scan: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// checkQuota locks the company row and recounts live postings inside tx, so
// concurrent publishes of one company are serialised against the plan quota.
func checkQuota(ctx context.Context, tx pgx.Tx, companyID string) error {
	var quota int
	err := tx.QueryRow(ctx,
		`SELECT COALESCE(pl.max_job_posts, 0)
		 FROM companies c
		 LEFT JOIN plans pl ON pl.id = c.plan_id
		 WHERE c.id = $1
		 FOR UPDATE OF c`,
		companyID,
	).Scan(&quota)
	if errors.Is(err, pgx.ErrNoRows) {
		return entitlement.ErrUnknownCompany
	}
	if err != nil {
		return fmt.Errorf("lock company: %w", err)
	}

	var live int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM job_postings
		 WHERE company_id = $1 AND status IN ('published', 'paused')`,
		companyID,
	).Scan(&live); err != nil {
		return fmt.Errorf("count live postings: %w", err)
	}
	if live >= quota {
		return entitlement.ErrJobPostLimitReached
	}
	return nil
}

func scanPosting(row pgx.Row) (*posting.Posting, error) {
	var (
		p       posting.Posting
		status  string
		draft   []byte
		history []byte
	)
	if err := row.Scan(
		&p.ID, &p.CompanyID, &status, &draft, &history,
		&p.PublishedAt, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Status = posting.Status(status)
	if err := json.Unmarshal(draft, &p.Draft); err != nil {
		return nil, fmt.Errorf("decode draft of %s: %w", p.ID, err)
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &p.History); err != nil {
			return nil, fmt.Errorf("decode history of %s: %w", p.ID, err)
		}
	}
	return &p, nil
}

func featuredUntil(d posting.JobDraft) *time.Time {
	if !d.Extras.Featured {
		return nil
	}
	return d.Extras.FeaturedUntil
}

var (
	_ posting.Store    = (*Postgres)(nil)
	_ posting.Store    = (*Memory)(nil)
	_ entitlement.Gate = (*Memory)(nil)
)
