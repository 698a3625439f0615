package entitlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrUnknownCompany is returned when no company row exists.
var ErrUnknownCompany = errors.New("company not found")

// PostgresSource computes snapshots from the companies and plans tables.
// Remaining job posts is the plan quota minus postings currently live
// (published or paused).
type PostgresSource struct {
	pool          *pgxpool.Pool
	tokensPerPost int
}

// NewPostgresSource returns a Gate backed by pool.
func NewPostgresSource(pool *pgxpool.Pool, tokensPerPost int) *PostgresSource {
	return &PostgresSource{pool: pool, tokensPerPost: tokensPerPost}
}

// Snapshot implements Gate.
func (p *PostgresSource) Snapshot(ctx context.Context, companyID string) (Snapshot, error) {
	var tokens, quota, live int
	err := p.pool.QueryRow(ctx,
		`SELECT c.token_balance,
		        COALESCE(pl.max_job_posts, 0),
		        (SELECT COUNT(*) FROM job_postings jp
		          WHERE jp.company_id = c.id
		            AND jp.status IN ('published', 'paused'))
		 FROM companies c
		 LEFT JOIN plans pl ON pl.id = c.plan_id
		 WHERE c.id = $1`,
		companyID,
	).Scan(&tokens, &quota, &live)
	if errors.Is(err, pgx.ErrNoRows) {
		return Snapshot{}, ErrUnknownCompany
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("entitlement query: %w", err)
	}

	remaining := quota - live
	if remaining < 0 {
		remaining = 0
	}
	return Snapshot{
		RemainingTokens:   tokens,
		RemainingJobPosts: remaining,
		TokensPerPost:     p.tokensPerPost,
	}, nil
}
