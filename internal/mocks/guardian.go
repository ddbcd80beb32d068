package mocks

import (
	"context"

	"newsbrief/internal/guardian"
)

// Mock Guardian fetcher
type MockFetcher struct {
	Articles []guardian.Article
	Err      error
	Calls    int
	LastOpts guardian.SearchOptions
}

func (m *MockFetcher) FetchAll(ctx context.Context, opts guardian.SearchOptions) ([]guardian.Article, error) {
	m.Calls++
	m.LastOpts = opts
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Articles, nil
}
