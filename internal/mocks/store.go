package mocks

import (
	"context"
	"sort"
	"strings"
	"time"

	"newsbrief/internal/store"
)

// Mock in-memory content store
type MockStore struct {
	Articles  map[string]*store.Article
	CreateErr error
}

func NewMockStore() *MockStore {
	return &MockStore{Articles: make(map[string]*store.Article)}
}

func (m *MockStore) Create(ctx context.Context, article *store.Article) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if _, ok := m.Articles[article.Slug]; ok {
		return store.ErrDuplicateSlug
	}
	copied := *article
	m.Articles[article.Slug] = &copied
	return nil
}

func (m *MockStore) GetBySlug(ctx context.Context, slug string) (*store.Article, error) {
	article, ok := m.Articles[slug]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *article
	return &copied, nil
}

func (m *MockStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	_, ok := m.Articles[slug]
	return ok, nil
}

func (m *MockStore) sorted(includeDeleted bool) []store.Article {
	var articles []store.Article
	for _, a := range m.Articles {
		if !includeDeleted && a.Deleted {
			continue
		}
		articles = append(articles, *a)
	}
	sort.Slice(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
	return articles
}

func page(articles []store.Article, p, size int) []store.Article {
	if p < 1 {
		p = 1
	}
	if size < 1 {
		size = 20
	}
	start := (p - 1) * size
	if start >= len(articles) {
		return nil
	}
	end := start + size
	if end > len(articles) {
		end = len(articles)
	}
	return articles[start:end]
}

func (m *MockStore) ListPublished(ctx context.Context, p, size int) ([]store.Article, int, error) {
	visible := m.sorted(false)
	return page(visible, p, size), len(visible), nil
}

func (m *MockStore) ListAll(ctx context.Context, p, size int) ([]store.Article, int, error) {
	all := m.sorted(true)
	return page(all, p, size), len(all), nil
}

func (m *MockStore) Search(ctx context.Context, query string) ([]store.Article, error) {
	needle := strings.ToLower(query)
	var matches []store.Article
	for _, a := range m.sorted(false) {
		if strings.Contains(strings.ToLower(a.Title), needle) ||
			strings.Contains(strings.ToLower(a.Summary), needle) ||
			strings.Contains(strings.ToLower(a.Category), needle) {
			matches = append(matches, a)
		}
	}
	return matches, nil
}

func (m *MockStore) SetVisibility(ctx context.Context, slug string, hidden bool) error {
	article, ok := m.Articles[slug]
	if !ok {
		return store.ErrNotFound
	}
	article.Deleted = hidden
	if hidden {
		now := time.Now()
		article.DeletedAt = &now
	} else {
		article.DeletedAt = nil
	}
	return nil
}

func (m *MockStore) HardDelete(ctx context.Context, slug string) (string, error) {
	article, ok := m.Articles[slug]
	if !ok {
		return "", store.ErrNotFound
	}
	delete(m.Articles, slug)
	return article.GuardianID, nil
}

func (m *MockStore) RenameCategory(ctx context.Context, oldName, newName string) (int, error) {
	count := 0
	for _, a := range m.Articles {
		if strings.EqualFold(a.Category, oldName) {
			a.Category = newName
			count++
		}
	}
	return count, nil
}

func (m *MockStore) ListCategories(ctx context.Context) ([]store.CategoryCount, error) {
	counts := make(map[string]int)
	for _, a := range m.Articles {
		if !a.Deleted {
			counts[a.Category]++
		}
	}
	result := make([]store.CategoryCount, 0, len(counts))
	for name, count := range counts {
		result = append(result, store.CategoryCount{Name: name, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (m *MockStore) Stats(ctx context.Context) (*store.Stats, error) {
	stats := &store.Stats{Total: len(m.Articles)}
	cutoff := time.Now().Add(-24 * time.Hour)
	for _, a := range m.Articles {
		if a.Deleted {
			stats.Hidden++
			continue
		}
		stats.Published++
		if a.PublishedAt.After(cutoff) {
			stats.Recent++
		}
	}
	return stats, nil
}

func (m *MockStore) Close() error {
	return nil
}

// MockAtomicStore adds the single-transaction create capability on top
// of MockStore, recording whether it was used.
type MockAtomicStore struct {
	*MockStore
	Ledger      *MockLedger
	AtomicCalls int
}

func NewMockAtomicStore(ledger *MockLedger) *MockAtomicStore {
	return &MockAtomicStore{MockStore: NewMockStore(), Ledger: ledger}
}

func (m *MockAtomicStore) CreateAndMark(ctx context.Context, article *store.Article) error {
	m.AtomicCalls++
	if err := m.Create(ctx, article); err != nil {
		return err
	}
	return m.Ledger.MarkProcessed(ctx, article.GuardianID, article.Slug)
}
