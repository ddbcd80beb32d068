package guardian

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

// Client handles Guardian content API operations
type Client struct {
	apiKey     string
	baseURL    string
	pageSize   int
	maxPages   int
	pageDelay  time.Duration
	httpClient *http.Client
}

// Option configures optional client behavior
type Option func(*Client)

// WithPageSize overrides the per-page result count (max 200)
func WithPageSize(size int) Option {
	return func(c *Client) { c.pageSize = size }
}

// WithMaxPages overrides the safety cap on pages fetched per search
func WithMaxPages(n int) Option {
	return func(c *Client) { c.maxPages = n }
}

// WithPageDelay overrides the courtesy delay between page requests
func WithPageDelay(d time.Duration) Option {
	return func(c *Client) { c.pageDelay = d }
}

// NewClient creates a new Guardian API client
func NewClient(apiKey, baseURL string, opts ...Option) *Client {
	c := &Client{
		apiKey:    apiKey,
		baseURL:   baseURL,
		pageSize:  50,
		maxPages:  50,
		pageDelay: 100 * time.Millisecond,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Article represents a single result from the Guardian search API
type Article struct {
	ID                 string    `json:"id"`
	Type               string    `json:"type"`
	SectionID          string    `json:"sectionId"`
	SectionName        string    `json:"sectionName"`
	WebPublicationDate time.Time `json:"webPublicationDate"`
	WebTitle           string    `json:"webTitle"`
	WebURL             string    `json:"webUrl"`
	APIURL             string    `json:"apiUrl"`
	PillarName         string    `json:"pillarName"`
	Fields             *Fields   `json:"fields,omitempty"`
}

// Fields carries the optional show-fields payload
type Fields struct {
	Headline  string `json:"headline,omitempty"`
	Body      string `json:"body,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
	BodyText  string `json:"bodyText,omitempty"`
}

// SearchResponse is the Guardian search envelope
type SearchResponse struct {
	Status      string    `json:"status"`
	Total       int       `json:"total"`
	StartIndex  int       `json:"startIndex"`
	PageSize    int       `json:"pageSize"`
	CurrentPage int       `json:"currentPage"`
	Pages       int       `json:"pages"`
	OrderBy     string    `json:"orderBy"`
	Results     []Article `json:"results"`
}

type searchEnvelope struct {
	Response SearchResponse `json:"response"`
}

// SearchOptions controls a search request
type SearchOptions struct {
	Query    string
	FromDate string // YYYY-MM-DD
	ToDate   string // YYYY-MM-DD
	Page     int
	PageSize int
}

// FetchError indicates the upstream API could not be reached or
// returned a non-success response for the initial request.
type FetchError struct {
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("guardian API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("guardian API request failed: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SearchPage fetches a single page of search results
func (c *Client) SearchPage(ctx context.Context, opts SearchOptions) (*SearchResponse, error) {
	pageSize := opts.PageSize
	if pageSize == 0 {
		pageSize = c.pageSize
	}
	page := opts.Page
	if page == 0 {
		page = 1
	}

	params := url.Values{}
	params.Set("api-key", c.apiKey)
	params.Set("show-fields", "headline,body,thumbnail,bodyText")
	params.Set("query-fields", "headline")
	params.Set("order-by", "newest")
	params.Set("q", opts.Query)
	params.Set("page-size", fmt.Sprintf("%d", pageSize))
	params.Set("page", fmt.Sprintf("%d", page))
	if opts.FromDate != "" {
		params.Set("from-date", opts.FromDate)
	}
	if opts.ToDate != "" {
		params.Set("to-date", opts.ToDate)
	}

	reqURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "newsbrief/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{StatusCode: resp.StatusCode}
	}

	var envelope searchEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	if envelope.Response.Status != "ok" {
		return nil, fmt.Errorf("guardian API status %q", envelope.Response.Status)
	}

	return &envelope.Response, nil
}

// FetchAll fetches every page of results for the given search. A failure
// on the first page is returned as a *FetchError; a failure on a later
// page truncates the result set and returns what was fetched so far.
func (c *Client) FetchAll(ctx context.Context, opts SearchOptions) ([]Article, error) {
	var all []Article
	currentPage := 1
	totalPages := 1

	for currentPage <= totalPages {
		pageOpts := opts
		pageOpts.Page = currentPage
		pageOpts.PageSize = c.pageSize

		resp, err := c.SearchPage(ctx, pageOpts)
		if err != nil {
			if currentPage == 1 {
				return nil, err
			}
			// Accept partial results on later-page failures.
			log.Printf("guardian: page %d/%d failed, returning %d articles fetched so far: %v",
				currentPage, totalPages, len(all), err)
			return all, nil
		}

		all = append(all, resp.Results...)
		totalPages = resp.Pages
		currentPage++

		// Safety cap against runaway pagination.
		if currentPage > c.maxPages {
			log.Printf("guardian: stopping at page cap %d (%d pages reported)", c.maxPages, totalPages)
			break
		}

		if currentPage <= totalPages {
			select {
			case <-ctx.Done():
				return all, nil
			case <-time.After(c.pageDelay):
			}
		}
	}

	return all, nil
}
