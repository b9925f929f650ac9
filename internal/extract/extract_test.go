package extract

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rahul/outing/internal/governance"
	"github.com/rahul/outing/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirecrawl_Extract(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer fc-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true, "data": {"json": {"movies": [{"title": "Dune"}]}, "metadata": {}}}`))
	}))
	defer srv.Close()

	fc := NewFirecrawl("fc-key")
	fc.Endpoint = srv.URL

	answer, err := fc.Extract(context.Background(), Request{
		URL:    "https://in.bookmyshow.com/explore/movies-pune?cat=MT",
		Schema: map[string]any{"type": "object"},
		Prompt: "list movies",
	})
	require.NoError(t, err)
	assert.Len(t, List(answer, "movies"), 1)

	assert.Equal(t, "https://in.bookmyshow.com/explore/movies-pune?cat=MT", got["url"])
	assert.Equal(t, true, got["onlyMainContent"])
	assert.Equal(t, 0.0, got["maxAge"])
	assert.Equal(t, map[string]any{"country": "IN", "languages": []any{"en"}}, got["location"])
	formats := got["formats"].([]any)
	require.Len(t, formats, 1)
	assert.Equal(t, "json", formats[0].(map[string]any)["type"])
	assert.Equal(t, "list movies", formats[0].(map[string]any)["prompt"])
}

func TestFirecrawl_ExtractWithoutJSONKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": true, "data": {"cinemas": []}}`))
	}))
	defer srv.Close()

	fc := NewFirecrawl("k")
	fc.Endpoint = srv.URL
	answer, err := fc.Extract(context.Background(), Request{URL: "https://x", Region: &Region{Country: "US", Languages: []string{"en"}}})
	require.NoError(t, err)
	assert.Contains(t, answer, "cinemas")
}

func TestFirecrawl_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"upstream rejection", http.StatusPaymentRequired, `{"success": false, "error": "Insufficient credits"}`, "firecrawl scrape failed (402): Insufficient credits"},
		{"success false", http.StatusOK, `{"success": false, "message": "blocked"}`, "firecrawl scrape failed (200): blocked"},
		{"invalid json", http.StatusOK, `<html>oops</html>`, "firecrawl returned invalid JSON: <html>oops</html>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			fc := NewFirecrawl("k")
			fc.Endpoint = srv.URL
			_, err := fc.Extract(context.Background(), Request{URL: "https://x"})
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}

	_, err := NewFirecrawl("k").Extract(context.Background(), Request{})
	assert.Error(t, err)
}

const listingPage = `<html><head><title>Cinemas in Pune</title></head><body>
<nav>Home | Offers</nav>
<article><h1>Cinemas in Pune</h1>
<p>PVR Phoenix Marketcity is on Viman Nagar Road and offers IMAX screens, recliners and a food court for moviegoers.</p>
<p>INOX Bund Garden sits near the riverside and runs late night shows every weekend with Dolby Atmos sound.</p>
<p>Cinepolis Seasons Mall in Hadapsar has seven screens, ample parking and a gaming zone for families visiting.</p>
</article><script>track()</script></body></html>`

func TestPageExtractor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(listingPage))
	}))
	defer srv.Close()

	var seen llm.Request
	completer := llm.Func{Source: "test", Fn: func(_ context.Context, req llm.Request) (llm.Answer, error) {
		seen = req
		return llm.Parse(`{"cinemas": [{"name": "PVR Phoenix Marketcity"}]}`, req.Schema), nil
	}}

	p := NewPageExtractor("page", NewHTTPFetcher(), completer)
	answer, err := p.Extract(context.Background(), Request{URL: srv.URL + "/pune/cinemas", Prompt: "list cinemas"})
	require.NoError(t, err)

	assert.Len(t, List(answer, "cinemas"), 1)
	assert.Equal(t, "page", p.Name())
	assert.Contains(t, seen.System, "list cinemas")
	assert.Contains(t, seen.User, "PVR Phoenix Marketcity")
	assert.NotContains(t, seen.User, "track()")
}

func TestPageExtractor_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/missing") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(listingPage))
	}))
	defer srv.Close()

	p := NewPageExtractor("page", NewHTTPFetcher(), llm.Text("test", "no json here"))

	_, err := p.Extract(context.Background(), Request{URL: srv.URL + "/missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status code 404")

	_, err = p.Extract(context.Background(), Request{URL: srv.URL + "/pune"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned no JSON object")
}

func TestReadable_FallsBackToMarkdown(t *testing.T) {
	page := Readable(`<ul><li>PVR</li><li>INOX</li></ul>`, "not a url\x7f")
	assert.Contains(t, page.Content, "PVR")
	assert.Contains(t, page.Content, "INOX")
}

type stubExtractor struct {
	calls int
}

func (s *stubExtractor) Name() string { return "firecrawl" }

func (s *stubExtractor) Extract(context.Context, Request) (map[string]any, error) {
	s.calls++
	return map[string]any{"ok": true}, nil
}

type failingPolicy struct{}

func (failingPolicy) Evaluate(context.Context, governance.Request) (governance.Result, error) {
	return governance.Result{}, errors.New("policy store offline")
}

func TestGuard(t *testing.T) {
	policy := governance.NewDefaultPolicyEngine()
	policy.DenyHost("zomato.com")
	next := &stubExtractor{}
	g := Guard(next, policy)

	_, err := g.Extract(context.Background(), Request{URL: "https://www.zomato.com/pune"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
	assert.Equal(t, 0, next.calls)

	answer, err := g.Extract(context.Background(), Request{URL: "https://in.bookmyshow.com/pune/cinemas"})
	require.NoError(t, err)
	assert.Equal(t, true, answer["ok"])
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, "firecrawl", g.Name())

	_, err = Guard(next, failingPolicy{}).Extract(context.Background(), Request{URL: "https://x"})
	assert.ErrorContains(t, err, "policy store offline")
}

func TestResult(t *testing.T) {
	ok := Succeed("https://x", []int{1})
	assert.True(t, ok.OK())
	failed := Fail[[]int]("https://x", errors.New("boom"))
	assert.False(t, failed.OK())
	assert.Nil(t, failed.Value)
}

func TestSourceLabel(t *testing.T) {
	assert.Equal(t, "Zomato (Firecrawl)", SourceLabel("Zomato", &stubExtractor{}))
	assert.Equal(t, "Zomato (page)", SourceLabel("Zomato", &erroringExtractor{}))
	assert.Equal(t, "BookMyShow (browser)", SourceLabel("BookMyShow", NewPageExtractor("browser", nil, nil)))
	assert.Equal(t, "Zomato", SourceLabel("Zomato", nil))
}
