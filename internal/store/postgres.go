package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the Postgres error code for unique constraint violations
const uniqueViolation = "23505"

const articlesSchema = `
CREATE TABLE IF NOT EXISTS articles (
    slug         TEXT PRIMARY KEY,
    title        TEXT NOT NULL,
    category     TEXT NOT NULL,
    summary      TEXT NOT NULL,
    tldr         JSONB NOT NULL,
    faqs         JSONB NOT NULL,
    published_at TIMESTAMPTZ NOT NULL,
    original_url TEXT NOT NULL,
    guardian_id  TEXT NOT NULL,
    thumbnail    TEXT NOT NULL DEFAULT '',
    section      TEXT NOT NULL DEFAULT '',
    pillar       TEXT NOT NULL DEFAULT '',
    is_deleted   BOOLEAN NOT NULL DEFAULT FALSE,
    deleted_at   TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_articles_category ON articles (category);
CREATE INDEX IF NOT EXISTS idx_articles_published ON articles (published_at DESC) WHERE NOT is_deleted;
CREATE TABLE IF NOT EXISTS processed_articles (
    guardian_id  TEXT PRIMARY KEY,
    slug         TEXT NOT NULL,
    processed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// PostgresStore is the relational Content Store backend
type PostgresStore struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

// NewPostgresStore wires a pgx pool and ensures the schema exists
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, articlesSchema); err != nil {
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return &PostgresStore{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}, nil
}

var articleColumns = []string{
	"slug", "title", "category", "summary", "tldr", "faqs",
	"published_at", "original_url", "guardian_id",
	"thumbnail", "section", "pillar", "is_deleted", "deleted_at",
}

func articleValues(a *Article) ([]interface{}, error) {
	tldr, err := json.Marshal(a.TLDR)
	if err != nil {
		return nil, fmt.Errorf("marshaling tldr: %w", err)
	}
	faqs, err := json.Marshal(a.FAQs)
	if err != nil {
		return nil, fmt.Errorf("marshaling faqs: %w", err)
	}
	return []interface{}{
		a.Slug, a.Title, a.Category, a.Summary, tldr, faqs,
		a.PublishedAt, a.OriginalURL, a.GuardianID,
		a.Thumbnail, a.Section, a.Pillar, a.Deleted, a.DeletedAt,
	}, nil
}

func scanArticle(row pgx.Row) (*Article, error) {
	var (
		a          Article
		tldr, faqs []byte
	)
	err := row.Scan(&a.Slug, &a.Title, &a.Category, &a.Summary, &tldr, &faqs,
		&a.PublishedAt, &a.OriginalURL, &a.GuardianID,
		&a.Thumbnail, &a.Section, &a.Pillar, &a.Deleted, &a.DeletedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(tldr, &a.TLDR); err != nil {
		return nil, fmt.Errorf("unmarshaling tldr: %w", err)
	}
	if err := json.Unmarshal(faqs, &a.FAQs); err != nil {
		return nil, fmt.Errorf("unmarshaling faqs: %w", err)
	}
	return &a, nil
}

func (s *PostgresStore) Create(ctx context.Context, article *Article) error {
	values, err := articleValues(article)
	if err != nil {
		return err
	}

	query, args, err := s.sb.Insert("articles").Columns(articleColumns...).Values(values...).ToSql()
	if err != nil {
		return fmt.Errorf("building insert: %w", err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("inserting article %s: %w", article.Slug, err)
	}
	return nil
}

// CreateAndMark persists the article and its dedup ledger row in one
// transaction, closing the crash window between content write and mark.
func (s *PostgresStore) CreateAndMark(ctx context.Context, article *Article) error {
	values, err := articleValues(article)
	if err != nil {
		return err
	}

	insertArticle, articleArgs, err := s.sb.Insert("articles").Columns(articleColumns...).Values(values...).ToSql()
	if err != nil {
		return fmt.Errorf("building insert: %w", err)
	}

	insertLedger, ledgerArgs, err := s.sb.Insert("processed_articles").
		Columns("guardian_id", "slug", "processed_at").
		Values(article.GuardianID, article.Slug, time.Now()).
		Suffix("ON CONFLICT (guardian_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("building ledger insert: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, insertArticle, articleArgs...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("inserting article %s: %w", article.Slug, err)
	}
	if _, err := tx.Exec(ctx, insertLedger, ledgerArgs...); err != nil {
		return fmt.Errorf("recording processed entry: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) GetBySlug(ctx context.Context, slug string) (*Article, error) {
	query, args, err := s.sb.Select(articleColumns...).From("articles").Where(sq.Eq{"slug": slug}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select: %w", err)
	}

	article, err := scanArticle(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading article %s: %w", slug, err)
	}
	return article, nil
}

func (s *PostgresStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM articles WHERE slug = $1)", slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking slug %s: %w", slug, err)
	}
	return exists, nil
}

func (s *PostgresStore) list(ctx context.Context, page, pageSize int, includeDeleted bool) ([]Article, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	countQ := s.sb.Select("COUNT(*)").From("articles")
	listQ := s.sb.Select(articleColumns...).From("articles").
		OrderBy("published_at DESC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize))

	if !includeDeleted {
		countQ = countQ.Where(sq.Eq{"is_deleted": false})
		listQ = listQ.Where(sq.Eq{"is_deleted": false})
	}

	query, args, err := countQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building count: %w", err)
	}
	var total int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting articles: %w", err)
	}

	query, args, err = listQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building list: %w", err)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning article: %w", err)
		}
		articles = append(articles, *article)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating articles: %w", err)
	}

	return articles, total, nil
}

func (s *PostgresStore) ListPublished(ctx context.Context, page, pageSize int) ([]Article, int, error) {
	return s.list(ctx, page, pageSize, false)
}

func (s *PostgresStore) ListAll(ctx context.Context, page, pageSize int) ([]Article, int, error) {
	return s.list(ctx, page, pageSize, true)
}

func (s *PostgresStore) Search(ctx context.Context, searchTerm string) ([]Article, error) {
	pattern := "%" + searchTerm + "%"
	query, args, err := s.sb.Select(articleColumns...).From("articles").
		Where(sq.Eq{"is_deleted": false}).
		Where(sq.Or{
			sq.ILike{"title": pattern},
			sq.ILike{"summary": pattern},
			sq.ILike{"category": pattern},
		}).
		OrderBy("published_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building search: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning article: %w", err)
		}
		articles = append(articles, *article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}
	return articles, nil
}

func (s *PostgresStore) SetVisibility(ctx context.Context, slug string, hidden bool) error {
	update := s.sb.Update("articles").Set("is_deleted", hidden).Where(sq.Eq{"slug": slug})
	if hidden {
		update = update.Set("deleted_at", time.Now())
	} else {
		update = update.Set("deleted_at", nil)
	}

	query, args, err := update.ToSql()
	if err != nil {
		return fmt.Errorf("building update: %w", err)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating visibility for %s: %w", slug, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) HardDelete(ctx context.Context, slug string) (string, error) {
	var guardianID string
	err := s.pool.QueryRow(ctx,
		"DELETE FROM articles WHERE slug = $1 RETURNING guardian_id", slug).Scan(&guardianID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("deleting article %s: %w", slug, err)
	}
	return guardianID, nil
}

func (s *PostgresStore) RenameCategory(ctx context.Context, oldName, newName string) (int, error) {
	query, args, err := s.sb.Update("articles").
		Set("category", newName).
		Where("LOWER(category) = LOWER(?)", oldName).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building rename: %w", err)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("renaming category %q: %w", oldName, err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]CategoryCount, error) {
	query, args, err := s.sb.Select("category", "COUNT(*)").From("articles").
		Where(sq.Eq{"is_deleted": false}).
		GroupBy("category").
		OrderBy("COUNT(*) DESC", "category ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building category aggregate: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var result []CategoryCount
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating categories: %w", err)
	}
	return result, nil
}

func (s *PostgresStore) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE NOT is_deleted),
		       COUNT(*) FILTER (WHERE is_deleted),
		       COUNT(*) FILTER (WHERE NOT is_deleted AND published_at > NOW() - INTERVAL '24 hours')
		FROM articles`).Scan(&stats.Total, &stats.Published, &stats.Hidden, &stats.Recent)
	if err != nil {
		return nil, fmt.Errorf("loading stats: %w", err)
	}
	return &stats, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
