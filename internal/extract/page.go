package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rahul/outing/internal/llm"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Fetcher retrieves the HTML document at a URL.
type Fetcher interface {
	Fetch(ctx context.Context, target string) (string, error)
}

// HTTPFetcher fetches pages with a plain GET.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
	// MaxBytes bounds how much of the body is read.
	MaxBytes int64
}

func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		Client:    &http.Client{Timeout: 30 * time.Second},
		UserAgent: defaultUserAgent,
		MaxBytes:  5 << 20,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch URL: status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.MaxBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}
	return string(body), nil
}

// Page is the readable rendition of a fetched document.
type Page struct {
	Title   string
	Excerpt string
	Content string
}

// Readable reduces an HTML document to its main content as sanitized text.
// Documents readability cannot handle are converted to markdown instead.
func Readable(html, pageURL string) Page {
	parsed, err := url.Parse(pageURL)
	if err == nil {
		article, rerr := readability.FromReader(strings.NewReader(html), parsed)
		if rerr == nil {
			text := strings.TrimSpace(bluemonday.StrictPolicy().Sanitize(article.TextContent))
			if text != "" {
				return Page{Title: article.Title, Excerpt: article.Excerpt, Content: text}
			}
		}
	}

	cleaned := bluemonday.UGCPolicy().Sanitize(html)
	markdown, err := md.NewConverter("", true, nil).ConvertString(cleaned)
	if err != nil {
		markdown = bluemonday.StrictPolicy().Sanitize(html)
	}
	return Page{Content: strings.TrimSpace(markdown)}
}

const pageSystemPrompt = `You extract structured data from the text of a web page.
Only report facts present in the page text. Use null for anything the page does not state.`

// PageExtractor fetches a page itself and asks a completion model to match
// its readable text against the request schema.
type PageExtractor struct {
	Fetcher   Fetcher
	Completer llm.Completer
	// MaxChars bounds the page text sent to the model.
	MaxChars int
	name     string
}

func NewPageExtractor(name string, fetcher Fetcher, completer llm.Completer) *PageExtractor {
	return &PageExtractor{
		Fetcher:   fetcher,
		Completer: completer,
		MaxChars:  50000,
		name:      name,
	}
}

func (p *PageExtractor) Name() string {
	return p.name
}

func (p *PageExtractor) Extract(ctx context.Context, req Request) (map[string]any, error) {
	html, err := p.Fetcher.Fetch(ctx, req.URL)
	if err != nil {
		return nil, err
	}
	page := Readable(html, req.URL)
	if page.Content == "" {
		return nil, fmt.Errorf("page %s has no readable content", req.URL)
	}

	content := page.Content
	if p.MaxChars > 0 && len(content) > p.MaxChars {
		content = content[:p.MaxChars] + "\n... (content truncated) ..."
	}

	var user strings.Builder
	fmt.Fprintf(&user, "URL: %s\n", req.URL)
	if page.Title != "" {
		fmt.Fprintf(&user, "TITLE: %s\n", page.Title)
	}
	if page.Excerpt != "" {
		fmt.Fprintf(&user, "EXCERPT: %s\n", page.Excerpt)
	}
	user.WriteString("\n-- CONTENT --\n")
	user.WriteString(content)

	system := pageSystemPrompt
	if req.Prompt != "" {
		system += "\n\n" + req.Prompt
	}
	answer, err := p.Completer.Complete(ctx, llm.Request{
		System: system,
		User:   user.String(),
		Schema: req.Schema,
	})
	if err != nil {
		return nil, err
	}
	if !answer.Parsed() {
		return nil, fmt.Errorf("page extraction for %s returned no JSON object", req.URL)
	}
	return answer.JSON, nil
}
