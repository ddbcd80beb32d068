package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testArticle(slug, title, category string, published time.Time) *Article {
	return &Article{
		Title:       title,
		Slug:        slug,
		Category:    category,
		Summary:     "Summary for " + title,
		TLDR:        []string{"one", "two", "three"},
		FAQs:        []FAQ{{Question: "Q1", Answer: "A1"}},
		PublishedAt: published,
		OriginalURL: "https://www.theguardian.com/" + slug,
		GuardianID:  "sport/" + slug,
	}
}

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	return s
}

func TestFileStoreCreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	want := testArticle("india-wins-test-series", "India wins test series", "Cricket", time.Now().UTC().Truncate(time.Second))
	if err := s.Create(ctx, want); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := s.GetBySlug(ctx, "india-wins-test-series")
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}

	if got.Title != want.Title {
		t.Errorf("title = %q, want %q", got.Title, want.Title)
	}
	if got.Summary != want.Summary {
		t.Errorf("summary = %q, want %q", got.Summary, want.Summary)
	}
	if len(got.TLDR) != 3 {
		t.Errorf("tldr length = %d, want 3", len(got.TLDR))
	}
	if len(got.FAQs) != 1 || got.FAQs[0].Answer != "A1" {
		t.Errorf("faqs = %+v, want one Q1/A1 pair", got.FAQs)
	}
	if !got.PublishedAt.Equal(want.PublishedAt) {
		t.Errorf("publishedAt = %v, want %v", got.PublishedAt, want.PublishedAt)
	}
}

func TestFileStoreCreateDuplicateSlug(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := testArticle("same-slug", "First", "Cricket", time.Now())
	if err := s.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}

	err := s.Create(ctx, testArticle("same-slug", "Second", "Cricket", time.Now()))
	if !errors.Is(err, ErrDuplicateSlug) {
		t.Errorf("expected ErrDuplicateSlug, got %v", err)
	}
}

func TestFileStoreGetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetBySlug(context.Background(), "no-such-article")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFileStoreSlugExists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Create(ctx, testArticle("existing", "Existing", "Football", time.Now())); err != nil {
		t.Fatalf("Create: %v", err)
	}

	exists, err := s.SlugExists(ctx, "existing")
	if err != nil || !exists {
		t.Errorf("SlugExists(existing) = %v, %v, want true", exists, err)
	}

	exists, err = s.SlugExists(ctx, "missing")
	if err != nil || exists {
		t.Errorf("SlugExists(missing) = %v, %v, want false", exists, err)
	}
}

func TestFileStoreListPublishedOrderAndPaging(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		a := testArticle(fmt.Sprintf("article-%d", i), fmt.Sprintf("Article %d", i), "Cricket", base.Add(time.Duration(i)*time.Minute))
		if err := s.Create(ctx, a); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	items, total, err := s.ListPublished(ctx, 1, 2)
	if err != nil {
		t.Fatalf("ListPublished: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(items) != 2 {
		t.Fatalf("page size = %d, want 2", len(items))
	}
	// newest first
	if items[0].Slug != "article-4" || items[1].Slug != "article-3" {
		t.Errorf("page 1 order = %s, %s, want article-4, article-3", items[0].Slug, items[1].Slug)
	}

	items, _, err = s.ListPublished(ctx, 3, 2)
	if err != nil {
		t.Fatalf("ListPublished page 3: %v", err)
	}
	if len(items) != 1 || items[0].Slug != "article-0" {
		t.Errorf("last page = %+v, want just article-0", items)
	}
}

func TestFileStoreVisibility(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Create(ctx, testArticle("to-hide", "To hide", "Tennis", time.Now())); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.SetVisibility(ctx, "to-hide", true); err != nil {
		t.Fatalf("SetVisibility(hide): %v", err)
	}

	items, total, err := s.ListPublished(ctx, 1, 10)
	if err != nil {
		t.Fatalf("ListPublished: %v", err)
	}
	if total != 0 || len(items) != 0 {
		t.Errorf("published after hide = %d items, total %d, want none", len(items), total)
	}

	got, err := s.GetBySlug(ctx, "to-hide")
	if err != nil {
		t.Fatalf("GetBySlug after hide: %v", err)
	}
	if !got.Deleted || got.DeletedAt == nil {
		t.Errorf("hidden article: Deleted=%v DeletedAt=%v, want true and non-nil", got.Deleted, got.DeletedAt)
	}

	if err := s.SetVisibility(ctx, "to-hide", false); err != nil {
		t.Fatalf("SetVisibility(restore): %v", err)
	}
	got, err = s.GetBySlug(ctx, "to-hide")
	if err != nil {
		t.Fatalf("GetBySlug after restore: %v", err)
	}
	if got.Deleted || got.DeletedAt != nil {
		t.Errorf("restored article still marked deleted: %+v", got)
	}

	if err := s.SetVisibility(ctx, "missing", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetVisibility on missing slug = %v, want ErrNotFound", err)
	}
}

func TestFileStoreHardDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := testArticle("doomed", "Doomed", "Rugby", time.Now())
	a.GuardianID = "sport/2026/doomed"
	if err := s.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}

	guardianID, err := s.HardDelete(ctx, "doomed")
	if err != nil {
		t.Fatalf("HardDelete: %v", err)
	}
	if guardianID != "sport/2026/doomed" {
		t.Errorf("guardianID = %q, want sport/2026/doomed", guardianID)
	}

	if _, err := s.GetBySlug(ctx, "doomed"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetBySlug after delete = %v, want ErrNotFound", err)
	}

	if _, err := s.HardDelete(ctx, "doomed"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second HardDelete = %v, want ErrNotFound", err)
	}
}

func TestFileStoreSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	articles := []*Article{
		testArticle("ashes-preview", "Ashes series preview", "Cricket", time.Now()),
		testArticle("transfer-news", "Transfer window latest", "Football", time.Now()),
		testArticle("hidden-cricket", "Another cricket story", "Cricket", time.Now()),
	}
	for _, a := range articles {
		if err := s.Create(ctx, a); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if err := s.SetVisibility(ctx, "hidden-cricket", true); err != nil {
		t.Fatalf("SetVisibility: %v", err)
	}

	matches, err := s.Search(ctx, "CRICKET")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 1 || matches[0].Slug != "ashes-preview" {
		t.Errorf("search matches = %+v, want only ashes-preview", matches)
	}
}

func TestFileStoreRenameCategory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		a := testArticle(fmt.Sprintf("cricket-%d", i), fmt.Sprintf("Cricket %d", i), "Cricket India", time.Now())
		if err := s.Create(ctx, a); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if err := s.Create(ctx, testArticle("football-0", "Football 0", "Football", time.Now())); err != nil {
		t.Fatalf("Create: %v", err)
	}

	count, err := s.RenameCategory(ctx, "cricket india", "Cricket")
	if err != nil {
		t.Fatalf("RenameCategory: %v", err)
	}
	if count != 5 {
		t.Errorf("affected = %d, want 5", count)
	}

	cats, err := s.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(cats) != 2 {
		t.Fatalf("categories = %+v, want 2", cats)
	}
	if cats[0].Name != "Cricket" || cats[0].Count != 5 {
		t.Errorf("top category = %+v, want Cricket/5", cats[0])
	}
	if cats[1].Name != "Football" || cats[1].Count != 1 {
		t.Errorf("second category = %+v, want Football/1", cats[1])
	}
}

func TestFileStoreStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	recent := testArticle("recent", "Recent", "Cricket", time.Now().Add(-time.Hour))
	old := testArticle("old", "Old", "Cricket", time.Now().Add(-48*time.Hour))
	hidden := testArticle("hidden", "Hidden", "Cricket", time.Now())
	for _, a := range []*Article{recent, old, hidden} {
		if err := s.Create(ctx, a); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if err := s.SetVisibility(ctx, "hidden", true); err != nil {
		t.Fatalf("SetVisibility: %v", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 3 || stats.Published != 2 || stats.Hidden != 1 || stats.Recent != 1 {
		t.Errorf("stats = %+v, want total=3 published=2 hidden=1 recent=1", stats)
	}
}

func TestFileStoreSkipsCorruptDocuments(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	ctx := context.Background()

	if err := s.Create(ctx, testArticle("good", "Good", "Cricket", time.Now())); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.md"), []byte("no front matter here"), 0o644); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}

	items, total, err := s.ListPublished(ctx, 1, 10)
	if err != nil {
		t.Fatalf("ListPublished: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].Slug != "good" {
		t.Errorf("listing = %+v (total %d), want just the good article", items, total)
	}
}
