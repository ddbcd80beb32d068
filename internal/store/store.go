package store

import (
	"context"
	"fmt"
	"time"
)

// FAQ is a question/answer pair attached to an article
type FAQ struct {
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
}

// Article is the persisted content entity: Guardian metadata plus the
// AI-generated fields and local bookkeeping.
type Article struct {
	Title       string     `json:"title" yaml:"title"`
	Slug        string     `json:"slug" yaml:"slug"`
	Category    string     `json:"category" yaml:"category"`
	Summary     string     `json:"summary" yaml:"-"`
	TLDR        []string   `json:"tldr" yaml:"tldr"`
	FAQs        []FAQ      `json:"faqs" yaml:"faqs"`
	PublishedAt time.Time  `json:"published_at" yaml:"publishedAt"`
	OriginalURL string     `json:"original_url" yaml:"originalUrl"`
	GuardianID  string     `json:"guardian_id" yaml:"guardianId"`
	Thumbnail   string     `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
	Section     string     `json:"section,omitempty" yaml:"section,omitempty"`
	Pillar      string     `json:"pillar,omitempty" yaml:"pillar,omitempty"`
	Deleted     bool       `json:"deleted" yaml:"isDeleted"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" yaml:"deletedAt,omitempty"`
}

// CategoryCount pairs a category name with the number of published
// articles carrying it
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats summarizes the content store for the admin dashboard
type Stats struct {
	Total     int `json:"total"`
	Published int `json:"published"`
	Hidden    int `json:"hidden"`
	Recent    int `json:"recent"` // published in the last 24h
}

// Store is the content persistence contract shared by all backends
type Store interface {
	// Create persists a new article. The slug must already be unique;
	// a colliding slug is ErrDuplicateSlug.
	Create(ctx context.Context, article *Article) error

	// GetBySlug returns the article with the given slug or ErrNotFound.
	GetBySlug(ctx context.Context, slug string) (*Article, error)

	// SlugExists reports whether any article (hidden included) uses the slug.
	SlugExists(ctx context.Context, slug string) (bool, error)

	// ListPublished returns a page of visible articles, newest first,
	// along with the total count of visible articles.
	ListPublished(ctx context.Context, page, pageSize int) ([]Article, int, error)

	// ListAll is ListPublished including soft-deleted articles, for admin use.
	ListAll(ctx context.Context, page, pageSize int) ([]Article, int, error)

	// Search returns visible articles whose title, summary or category
	// contains the query, case-insensitively.
	Search(ctx context.Context, query string) ([]Article, error)

	// SetVisibility flips the soft-delete flag.
	SetVisibility(ctx context.Context, slug string, hidden bool) error

	// HardDelete permanently removes the article and returns its
	// Guardian ID so the dedup ledger entry can be released.
	HardDelete(ctx context.Context, slug string) (string, error)

	// RenameCategory rewrites the category on every matching article
	// and returns the number affected.
	RenameCategory(ctx context.Context, oldName, newName string) (int, error)

	// ListCategories aggregates visible articles by category, sorted by
	// count descending.
	ListCategories(ctx context.Context) ([]CategoryCount, error)

	// Stats returns dashboard counters.
	Stats(ctx context.Context) (*Stats, error)

	Close() error
}

// AtomicCreator is an optional capability: backends that can persist an
// article and record its dedup ledger entry in a single transaction
// implement it, and the ingestion pipeline prefers it over the
// create-then-mark sequence.
type AtomicCreator interface {
	CreateAndMark(ctx context.Context, article *Article) error
}

// Common store errors
var (
	ErrNotFound      = fmt.Errorf("article not found")
	ErrDuplicateSlug = fmt.Errorf("slug already exists")
)
