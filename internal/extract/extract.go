// Package extract defines the structured-extraction capability consumed by
// the domain agents and its backends.
package extract

import (
	"context"
)

// Region hints the locale an extraction should be performed from.
type Region struct {
	Country   string   `json:"country"`
	Languages []string `json:"languages"`
}

// Request asks for the page at URL to be matched against Schema.
type Request struct {
	URL    string
	Schema map[string]any
	Prompt string
	Region *Region
}

// SourceLabel attributes answers extracted from site through e, for
// example "BookMyShow (Firecrawl)" or "Zomato (browser)".
func SourceLabel(site string, e Extractor) string {
	if e == nil {
		return site
	}
	switch name := e.Name(); name {
	case "", "firecrawl":
		return site + " (Firecrawl)"
	default:
		return site + " (" + name + ")"
	}
}

// Extractor fetches a page and returns a best-effort structured answer.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, req Request) (map[string]any, error)
}

// Result is the outcome of one extraction attempt. A failed attempt carries
// Err and the zero Value; callers branch on it instead of on a panic or a
// swallowed error.
type Result[T any] struct {
	Value T
	URL   string
	Err   error
}

// OK reports whether the attempt succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Succeed wraps a successful attempt.
func Succeed[T any](url string, v T) Result[T] {
	return Result[T]{Value: v, URL: url}
}

// Fail wraps a failed attempt.
func Fail[T any](url string, err error) Result[T] {
	return Result[T]{URL: url, Err: err}
}

// List pulls the array stored under key out of an extraction answer. A
// missing or non-array value yields nil.
func List(answer map[string]any, key string) []any {
	items, _ := answer[key].([]any)
	return items
}
