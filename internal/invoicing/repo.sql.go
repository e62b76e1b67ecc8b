package invoicing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier matches both *pgxpool.Pool and pgx.Tx.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists per-year sequences in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CurrentSequence reads the stored sequence for a year, 0 when no row exists yet.
func (r *Repository) CurrentSequence(ctx context.Context, year int) (int, error) {
	var sequence int
	err := r.pool.QueryRow(ctx, `SELECT sequence FROM invoice_sequences WHERE year = $1`, year).Scan(&sequence)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return sequence, nil
}

// CommitIncrement bumps the year's sequence atomically and returns the new value.
func (r *Repository) CommitIncrement(ctx context.Context, year int) (int, error) {
	return CommitIncrementIn(ctx, r.pool, year)
}

// CommitIncrementIn runs the atomic upsert-increment against any querier, so
// the sale transaction can allocate a number inside its own pg transaction.
// A naive read-then-write here would let two concurrent sales share a number.
func CommitIncrementIn(ctx context.Context, q Querier, year int) (int, error) {
	var sequence int
	err := q.QueryRow(ctx, `INSERT INTO invoice_sequences (year, sequence, created_at, updated_at)
VALUES ($1, 1, NOW(), NOW())
ON CONFLICT (year) DO UPDATE SET sequence = invoice_sequences.sequence + 1, updated_at = NOW()
RETURNING sequence`, year).Scan(&sequence)
	if err != nil {
		return 0, err
	}
	return sequence, nil
}
