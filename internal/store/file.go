package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const frontMatterDelim = "---\n"

// FileStore keeps one markdown document per article: YAML front matter
// with the metadata, the summary text as the body. Queries are linear
// scans over the content directory, which is fine at the target scale
// of a few thousand articles.
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFileStore creates the content directory if needed and returns a store over it
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating content directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(slug string) string {
	return filepath.Join(s.dir, slug+".md")
}

func (s *FileStore) Create(ctx context.Context, article *Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(article.Slug)
	if _, err := os.Stat(path); err == nil {
		return ErrDuplicateSlug
	}

	return s.write(article)
}

// write marshals front matter + body and writes the document. Caller holds the lock.
func (s *FileStore) write(article *Article) error {
	meta, err := yaml.Marshal(article)
	if err != nil {
		return fmt.Errorf("marshaling front matter: %w", err)
	}

	var doc strings.Builder
	doc.WriteString(frontMatterDelim)
	doc.Write(meta)
	doc.WriteString(frontMatterDelim)
	doc.WriteString("\n")
	doc.WriteString(article.Summary)

	if err := os.WriteFile(s.path(article.Slug), []byte(doc.String()), 0o644); err != nil {
		return fmt.Errorf("writing article %s: %w", article.Slug, err)
	}
	return nil
}

func (s *FileStore) read(path string) (*Article, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	content := string(raw)
	if !strings.HasPrefix(content, frontMatterDelim) {
		return nil, fmt.Errorf("missing front matter in %s", path)
	}

	rest := content[len(frontMatterDelim):]
	end := strings.Index(rest, frontMatterDelim)
	if end < 0 {
		return nil, fmt.Errorf("unterminated front matter in %s", path)
	}

	var article Article
	if err := yaml.Unmarshal([]byte(rest[:end]), &article); err != nil {
		return nil, fmt.Errorf("parsing front matter in %s: %w", path, err)
	}

	article.Summary = strings.TrimPrefix(rest[end+len(frontMatterDelim):], "\n")
	return &article, nil
}

// readAll loads every article, newest first. Unreadable documents are
// skipped rather than failing the whole listing.
func (s *FileStore) readAll() ([]Article, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading content directory: %w", err)
	}

	var articles []Article
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		article, err := s.read(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		articles = append(articles, *article)
	}

	sort.Slice(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
	return articles, nil
}

func (s *FileStore) GetBySlug(ctx context.Context, slug string) (*Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	article, err := s.read(s.path(slug))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return article, nil
}

func (s *FileStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.path(slug))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("checking slug %s: %w", slug, err)
}

func paginate(articles []Article, page, pageSize int) []Article {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start >= len(articles) {
		return nil
	}
	end := start + pageSize
	if end > len(articles) {
		end = len(articles)
	}
	return articles[start:end]
}

func (s *FileStore) ListPublished(ctx context.Context, page, pageSize int) ([]Article, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all, err := s.readAll()
	if err != nil {
		return nil, 0, err
	}

	var published []Article
	for _, a := range all {
		if !a.Deleted {
			published = append(published, a)
		}
	}
	return paginate(published, page, pageSize), len(published), nil
}

func (s *FileStore) ListAll(ctx context.Context, page, pageSize int) ([]Article, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all, err := s.readAll()
	if err != nil {
		return nil, 0, err
	}
	return paginate(all, page, pageSize), len(all), nil
}

func (s *FileStore) Search(ctx context.Context, query string) ([]Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all, err := s.readAll()
	if err != nil {
		return nil, err
	}

	term := strings.ToLower(query)
	var matches []Article
	for _, a := range all {
		if a.Deleted {
			continue
		}
		if strings.Contains(strings.ToLower(a.Title), term) ||
			strings.Contains(strings.ToLower(a.Summary), term) ||
			strings.Contains(strings.ToLower(a.Category), term) {
			matches = append(matches, a)
		}
	}
	return matches, nil
}

func (s *FileStore) SetVisibility(ctx context.Context, slug string, hidden bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	article, err := s.read(s.path(slug))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}

	article.Deleted = hidden
	if hidden {
		now := time.Now()
		article.DeletedAt = &now
	} else {
		article.DeletedAt = nil
	}

	return s.write(article)
}

func (s *FileStore) HardDelete(ctx context.Context, slug string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	article, err := s.read(s.path(slug))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}

	if err := os.Remove(s.path(slug)); err != nil {
		return "", fmt.Errorf("deleting article %s: %w", slug, err)
	}
	return article.GuardianID, nil
}

func (s *FileStore) RenameCategory(ctx context.Context, oldName, newName string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll()
	if err != nil {
		return 0, err
	}

	updated := 0
	for i := range all {
		if !strings.EqualFold(all[i].Category, oldName) {
			continue
		}
		all[i].Category = newName
		if err := s.write(&all[i]); err != nil {
			return updated, fmt.Errorf("category rename stopped after %d articles: %w", updated, err)
		}
		updated++
	}
	return updated, nil
}

func (s *FileStore) ListCategories(ctx context.Context) ([]CategoryCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all, err := s.readAll()
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, a := range all {
		if !a.Deleted {
			counts[a.Category]++
		}
	}

	result := make([]CategoryCount, 0, len(counts))
	for name, count := range counts {
		result = append(result, CategoryCount{Name: name, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (s *FileStore) Stats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all, err := s.readAll()
	if err != nil {
		return nil, err
	}

	stats := &Stats{Total: len(all)}
	cutoff := time.Now().Add(-24 * time.Hour)
	for _, a := range all {
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

func (s *FileStore) Close() error {
	return nil
}
