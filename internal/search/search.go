// Package search grounds completion prompts with live web results.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/tools/duckduckgo"
)

// Searcher runs a free-text web query and returns a plain-text digest.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// DuckDuckGo searches through the DuckDuckGo HTML endpoint.
type DuckDuckGo struct {
	client *duckduckgo.Tool
}

// NewDuckDuckGo returns a searcher that keeps at most maxResults hits.
func NewDuckDuckGo(maxResults int) (*DuckDuckGo, error) {
	if maxResults <= 0 {
		maxResults = 5
	}
	ddg, err := duckduckgo.New(maxResults, duckduckgo.DefaultUserAgent)
	if err != nil {
		return nil, err
	}
	return &DuckDuckGo{client: ddg}, nil
}

func (d *DuckDuckGo) Search(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("search failed: empty query")
	}
	res, err := d.client.Call(ctx, query)
	if err != nil {
		return "", fmt.Errorf("search failed: %w", err)
	}
	return res, nil
}

// Func adapts a plain function to Searcher.
type Func func(ctx context.Context, query string) (string, error)

func (f Func) Search(ctx context.Context, query string) (string, error) {
	return f(ctx, query)
}
