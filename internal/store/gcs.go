package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSStore keeps one JSON object per article under a bucket prefix
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSStore wraps an existing storage client
func NewGCSStore(client *storage.Client, bucket string) *GCSStore {
	return &GCSStore{
		client: client,
		bucket: bucket,
		prefix: "articles/",
	}
}

func (s *GCSStore) objectName(slug string) string {
	return s.prefix + slug + ".json"
}

func (s *GCSStore) read(ctx context.Context, slug string) (*Article, error) {
	obj := s.client.Bucket(s.bucket).Object(s.objectName(slug))

	reader, err := obj.NewReader(ctx)
	if err != nil {
		if err == storage.ErrObjectNotExist {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("opening object reader: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading object data: %w", err)
	}

	var article Article
	if err := json.Unmarshal(data, &article); err != nil {
		return nil, fmt.Errorf("unmarshaling article %s: %w", slug, err)
	}
	return &article, nil
}

func (s *GCSStore) write(ctx context.Context, article *Article) error {
	data, err := json.Marshal(article)
	if err != nil {
		return fmt.Errorf("marshaling article: %w", err)
	}

	writer := s.client.Bucket(s.bucket).Object(s.objectName(article.Slug)).NewWriter(ctx)
	writer.ContentType = "application/json"

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return fmt.Errorf("writing object data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing object writer: %w", err)
	}
	return nil
}

// readAll loads every article object under the prefix, newest first.
// Unreadable objects are skipped so one corrupt entry does not take
// down a listing.
func (s *GCSStore) readAll(ctx context.Context) ([]Article, error) {
	bucket := s.client.Bucket(s.bucket)
	it := bucket.Objects(ctx, &storage.Query{Prefix: s.prefix})

	var articles []Article
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing objects: %w", err)
		}

		slug := strings.TrimSuffix(strings.TrimPrefix(attrs.Name, s.prefix), ".json")
		article, err := s.read(ctx, slug)
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

func (s *GCSStore) Create(ctx context.Context, article *Article) error {
	exists, err := s.SlugExists(ctx, article.Slug)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateSlug
	}
	return s.write(ctx, article)
}

func (s *GCSStore) GetBySlug(ctx context.Context, slug string) (*Article, error) {
	return s.read(ctx, slug)
}

func (s *GCSStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	obj := s.client.Bucket(s.bucket).Object(s.objectName(slug))
	_, err := obj.Attrs(ctx)
	if err != nil {
		if err == storage.ErrObjectNotExist {
			return false, nil
		}
		return false, fmt.Errorf("getting object attributes: %w", err)
	}
	return true, nil
}

func (s *GCSStore) ListPublished(ctx context.Context, page, pageSize int) ([]Article, int, error) {
	all, err := s.readAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	var visible []Article
	for _, a := range all {
		if !a.Deleted {
			visible = append(visible, a)
		}
	}
	return paginate(visible, page, pageSize), len(visible), nil
}

func (s *GCSStore) ListAll(ctx context.Context, page, pageSize int) ([]Article, int, error) {
	all, err := s.readAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	return paginate(all, page, pageSize), len(all), nil
}

func (s *GCSStore) Search(ctx context.Context, query string) ([]Article, error) {
	all, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	var matches []Article
	for _, a := range all {
		if a.Deleted {
			continue
		}
		if strings.Contains(strings.ToLower(a.Title), needle) ||
			strings.Contains(strings.ToLower(a.Summary), needle) ||
			strings.Contains(strings.ToLower(a.Category), needle) {
			matches = append(matches, a)
		}
	}
	return matches, nil
}

func (s *GCSStore) SetVisibility(ctx context.Context, slug string, hidden bool) error {
	article, err := s.read(ctx, slug)
	if err != nil {
		return err
	}

	article.Deleted = hidden
	if hidden {
		now := time.Now()
		article.DeletedAt = &now
	} else {
		article.DeletedAt = nil
	}
	return s.write(ctx, article)
}

func (s *GCSStore) HardDelete(ctx context.Context, slug string) (string, error) {
	article, err := s.read(ctx, slug)
	if err != nil {
		return "", err
	}

	obj := s.client.Bucket(s.bucket).Object(s.objectName(slug))
	if err := obj.Delete(ctx); err != nil && err != storage.ErrObjectNotExist {
		return "", fmt.Errorf("deleting object: %w", err)
	}
	return article.GuardianID, nil
}

func (s *GCSStore) RenameCategory(ctx context.Context, oldName, newName string) (int, error) {
	all, err := s.readAll(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for i := range all {
		if !strings.EqualFold(all[i].Category, oldName) {
			continue
		}
		all[i].Category = newName
		if err := s.write(ctx, &all[i]); err != nil {
			return count, fmt.Errorf("renaming category on %s: %w", all[i].Slug, err)
		}
		count++
	}
	return count, nil
}

func (s *GCSStore) ListCategories(ctx context.Context) ([]CategoryCount, error) {
	all, err := s.readAll(ctx)
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

func (s *GCSStore) Stats(ctx context.Context) (*Stats, error) {
	all, err := s.readAll(ctx)
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

// Close is a no-op; the shared storage client is owned by the caller
func (s *GCSStore) Close() error {
	return nil
}
