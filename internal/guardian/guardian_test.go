package guardian

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func pageResponse(page, pages, pageSize int, results []Article) searchEnvelope {
	return searchEnvelope{
		Response: SearchResponse{
			Status:      "ok",
			Total:       pages * pageSize,
			PageSize:    pageSize,
			CurrentPage: page,
			Pages:       pages,
			OrderBy:     "newest",
			Results:     results,
		},
	}
}

func testArticle(id, title string) Article {
	return Article{
		ID:       id,
		WebTitle: title,
		WebURL:   "https://example.com/" + id,
		Fields:   &Fields{BodyText: "body text for " + title},
	}
}

func TestSearchPageParams(t *testing.T) {
	var gotQuery map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for key := range r.URL.Query() {
			gotQuery[key] = r.URL.Query().Get(key)
		}
		json.NewEncoder(w).Encode(pageResponse(1, 1, 50, []Article{testArticle("a/1", "First")}))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL)
	resp, err := client.SearchPage(context.Background(), SearchOptions{
		Query:    "India",
		FromDate: "2024-01-01",
		ToDate:   "2024-01-31",
	})
	if err != nil {
		t.Fatalf("SearchPage failed: %v", err)
	}

	if len(resp.Results) != 1 {
		t.Errorf("Expected 1 result, got %d", len(resp.Results))
	}

	expected := map[string]string{
		"api-key":      "test-key",
		"q":            "India",
		"from-date":    "2024-01-01",
		"to-date":      "2024-01-31",
		"order-by":     "newest",
		"query-fields": "headline",
		"show-fields":  "headline,body,thumbnail,bodyText",
		"page":         "1",
		"page-size":    "50",
	}
	for key, want := range expected {
		if gotQuery[key] != want {
			t.Errorf("Expected query param %s=%q, got %q", key, want, gotQuery[key])
		}
	}
}

func TestFetchAllPagination(t *testing.T) {
	requests := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		page := r.URL.Query().Get("page")
		switch page {
		case "1":
			json.NewEncoder(w).Encode(pageResponse(1, 3, 2, []Article{
				testArticle("a/1", "First"), testArticle("a/2", "Second"),
			}))
		case "2":
			json.NewEncoder(w).Encode(pageResponse(2, 3, 2, []Article{
				testArticle("a/3", "Third"), testArticle("a/4", "Fourth"),
			}))
		case "3":
			json.NewEncoder(w).Encode(pageResponse(3, 3, 2, []Article{
				testArticle("a/5", "Fifth"),
			}))
		default:
			t.Errorf("Unexpected page requested: %s", page)
			http.Error(w, "bad page", http.StatusBadRequest)
		}
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, WithPageSize(2), WithPageDelay(time.Millisecond))
	articles, err := client.FetchAll(context.Background(), SearchOptions{Query: "India"})
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}

	if requests != 3 {
		t.Errorf("Expected 3 page requests, got %d", requests)
	}
	if len(articles) != 5 {
		t.Errorf("Expected 5 articles, got %d", len(articles))
	}
	if articles[0].ID != "a/1" || articles[4].ID != "a/5" {
		t.Errorf("Articles out of order: first=%s last=%s", articles[0].ID, articles[4].ID)
	}
}

func TestFetchAllFirstPageFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, WithPageDelay(time.Millisecond))
	_, err := client.FetchAll(context.Background(), SearchOptions{Query: "India"})
	if err == nil {
		t.Fatal("Expected error for first-page failure")
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected *FetchError, got %T", err)
	}
	if fetchErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("Expected status 429, got %d", fetchErr.StatusCode)
	}
}

func TestFetchAllLaterPageFailureTruncates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			json.NewEncoder(w).Encode(pageResponse(1, 2, 2, []Article{
				testArticle("a/1", "First"), testArticle("a/2", "Second"),
			}))
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, WithPageSize(2), WithPageDelay(time.Millisecond))
	articles, err := client.FetchAll(context.Background(), SearchOptions{Query: "India"})
	if err != nil {
		t.Fatalf("Expected partial results, got error: %v", err)
	}
	if len(articles) != 2 {
		t.Errorf("Expected 2 articles from the successful page, got %d", len(articles))
	}
}

func TestFetchAllPageCap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		var n int
		fmt.Sscanf(page, "%d", &n)
		// Server always reports 100 pages available.
		json.NewEncoder(w).Encode(pageResponse(n, 100, 1, []Article{
			testArticle(fmt.Sprintf("a/%d", n), fmt.Sprintf("Article %d", n)),
		}))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, WithPageSize(1), WithMaxPages(5), WithPageDelay(time.Millisecond))
	articles, err := client.FetchAll(context.Background(), SearchOptions{Query: "India"})
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if len(articles) != 5 {
		t.Errorf("Expected page cap to stop at 5 articles, got %d", len(articles))
	}
}

func TestSearchPageNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(searchEnvelope{Response: SearchResponse{Status: "error"}})
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL)
	if _, err := client.SearchPage(context.Background(), SearchOptions{Query: "India"}); err == nil {
		t.Error("Expected error for non-ok envelope status")
	}
}
