package ledger

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS processed_articles (
    guardian_id  TEXT PRIMARY KEY,
    slug         TEXT NOT NULL,
    processed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// PostgresLedger stores the processed index in a processed_articles table
type PostgresLedger struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

// NewPostgresLedger ensures the table exists and returns a ledger over the pool
func NewPostgresLedger(ctx context.Context, pool *pgxpool.Pool) (*PostgresLedger, error) {
	if _, err := pool.Exec(ctx, ledgerSchema); err != nil {
		return nil, fmt.Errorf("ensuring ledger schema: %w", err)
	}
	return &PostgresLedger{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}, nil
}

func (l *PostgresLedger) IsProcessed(ctx context.Context, guardianID string) (bool, error) {
	var exists bool
	err := l.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM processed_articles WHERE guardian_id = $1)", guardianID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking processed entry: %w", err)
	}
	return exists, nil
}

func (l *PostgresLedger) MarkProcessed(ctx context.Context, guardianID, slug string) error {
	query, args, err := l.sb.Insert("processed_articles").
		Columns("guardian_id", "slug").
		Values(guardianID, slug).
		Suffix("ON CONFLICT (guardian_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("building mark insert: %w", err)
	}

	if _, err := l.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("marking %s processed: %w", guardianID, err)
	}
	return nil
}

func (l *PostgresLedger) Unmark(ctx context.Context, guardianID string) (bool, error) {
	tag, err := l.pool.Exec(ctx,
		"DELETE FROM processed_articles WHERE guardian_id = $1", guardianID)
	if err != nil {
		return false, fmt.Errorf("unmarking %s: %w", guardianID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (l *PostgresLedger) Entries(ctx context.Context) ([]Entry, error) {
	query, args, err := l.sb.Select("guardian_id", "slug", "processed_at").
		From("processed_articles").
		OrderBy("processed_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building entries select: %w", err)
	}

	rows, err := l.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing processed entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.GuardianID, &e.Slug, &e.ProcessedAt); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}
	return entries, nil
}

// Close is a no-op; the shared pool is owned by the caller
func (l *PostgresLedger) Close() error {
	return nil
}
