package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultFirecrawlEndpoint is the hosted scrape API.
const DefaultFirecrawlEndpoint = "https://api.firecrawl.dev/v2/scrape"

// DefaultRegion is used when a request carries no region hint.
var DefaultRegion = Region{Country: "IN", Languages: []string{"en"}}

// Firecrawl extracts structured JSON through the Firecrawl scrape API.
type Firecrawl struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
	// TimeoutMS is forwarded to the remote scraper.
	TimeoutMS int
}

func NewFirecrawl(apiKey string) *Firecrawl {
	return &Firecrawl{
		Endpoint:  DefaultFirecrawlEndpoint,
		APIKey:    apiKey,
		Client:    &http.Client{Timeout: 90 * time.Second},
		TimeoutMS: 60000,
	}
}

func (f *Firecrawl) Name() string {
	return "firecrawl"
}

type jsonFormat struct {
	Type   string         `json:"type"`
	Schema map[string]any `json:"schema,omitempty"`
	Prompt string         `json:"prompt,omitempty"`
}

type scrapeRequest struct {
	URL                 string            `json:"url"`
	Formats             []jsonFormat      `json:"formats"`
	OnlyMainContent     bool              `json:"onlyMainContent"`
	MaxAge              int               `json:"maxAge"`
	Headers             map[string]string `json:"headers"`
	WaitFor             int               `json:"waitFor"`
	Mobile              bool              `json:"mobile"`
	SkipTLSVerification bool              `json:"skipTlsVerification"`
	Timeout             int               `json:"timeout"`
	Parsers             []string          `json:"parsers"`
	Actions             []any             `json:"actions"`
	Location            Region            `json:"location"`
	RemoveBase64Images  bool              `json:"removeBase64Images"`
	BlockAds            bool              `json:"blockAds"`
	Proxy               string            `json:"proxy"`
	StoreInCache        bool              `json:"storeInCache"`
	ZeroDataRetention   bool              `json:"zeroDataRetention"`
}

type scrapeResponse struct {
	Success *bool           `json:"success"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (f *Firecrawl) Extract(ctx context.Context, req Request) (map[string]any, error) {
	if req.URL == "" {
		return nil, fmt.Errorf("firecrawl requires a target URL")
	}
	region := DefaultRegion
	if req.Region != nil {
		region = *req.Region
	}

	body, err := json.Marshal(scrapeRequest{
		URL:                req.URL,
		Formats:            []jsonFormat{{Type: "json", Schema: req.Schema, Prompt: req.Prompt}},
		OnlyMainContent:    true,
		Headers:            map[string]string{},
		Timeout:            f.TimeoutMS,
		Parsers:            []string{},
		Actions:            []any{},
		Location:           region,
		RemoveBase64Images: true,
		BlockAds:           true,
		Proxy:              "auto",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode scrape request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, f.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+f.APIKey)

	resp, err := f.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("firecrawl request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read firecrawl response: %w", err)
	}

	var payload scrapeResponse
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("firecrawl returned invalid JSON: %s", truncate(string(raw), 200))
		}
	}
	if resp.StatusCode >= 300 || (payload.Success != nil && !*payload.Success) {
		reason := payload.Error
		if reason == "" {
			reason = payload.Message
		}
		if reason == "" {
			reason = string(raw)
		}
		return nil, fmt.Errorf("firecrawl scrape failed (%d): %s", resp.StatusCode, reason)
	}

	return decodeData(payload.Data)
}

// decodeData returns data.json when present and data itself otherwise.
func decodeData(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return map[string]any{}, nil
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("firecrawl data is not an object: %w", err)
	}
	if inner, ok := data["json"].(map[string]any); ok {
		return inner, nil
	}
	return data, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
