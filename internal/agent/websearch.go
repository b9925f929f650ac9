package agent

import (
	"context"
	"strings"
	"time"

	"github.com/rahul/outing/internal/llm"
	"github.com/rahul/outing/internal/observability"
	"github.com/rahul/outing/internal/outing"
	"github.com/rahul/outing/internal/prompts"
	"github.com/rahul/outing/internal/search"
)

const (
	DefaultFindingLimit   = 3
	defaultWebTemperature = 0.4
	defaultFindingTitle   = "Relevant highlight"
	defaultFindingSource  = "Gemini knowledge"
	defaultSearchSummary  = "Summary unavailable."
	webSearchInstructions = "Surface 3 timely happenings, venues, or tips that match the request. Cite credible sources and include URLs when known. Only include verifiable facts; do not fabricate data."
)

var webSearchSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"summary": map[string]any{"type": "string"},
		"findings": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title":       map[string]any{"type": "string"},
					"description": map[string]any{"type": "string"},
					"url":         map[string]any{"type": "string"},
					"source":      map[string]any{"type": "string"},
				},
				"required": []string{"title", "description"},
			},
		},
	},
	"required": []string{"findings"},
}

// Finding is one web-search highlight.
type Finding struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
	Source  string `json:"source"`
}

// WebSearchPlan is the web-search agent's answer.
type WebSearchPlan struct {
	Location       outing.Destination `json:"location"`
	EventDate      *outing.EventDate  `json:"eventDate"`
	EventDateLabel *string            `json:"eventDateLabel"`
	Query          string             `json:"query"`
	Summary        string             `json:"summary"`
	Results        []Finding          `json:"results"`
	FetchedAt      time.Time          `json:"fetchedAt"`
	outing.Attribution
}

// WebSearchAgent answers from the completion source only. A Searcher, when
// set, grounds the prompt with live results.
type WebSearchAgent struct {
	Searcher search.Searcher
	Limit    int

	deps    Deps
	machine *Machine
}

func NewWebSearchAgent(searcher search.Searcher, deps Deps) *WebSearchAgent {
	if deps.Temperature == 0 {
		deps.Temperature = defaultWebTemperature
	}
	a := &WebSearchAgent{Searcher: searcher, Limit: DefaultFindingLimit, deps: deps.withDefaults()}
	a.machine = &Machine{
		Agent:    outing.SubtaskWebSearch,
		Fallback: a.complete,
		Log:      a.deps.Log,
		Metrics:  a.deps.Metrics,
	}
	return a
}

func (a *WebSearchAgent) Name() outing.Subtask { return outing.SubtaskWebSearch }

func (a *WebSearchAgent) Run(ctx context.Context, in Input) (outing.Payload, error) {
	return a.machine.Run(ctx, in).Result()
}

func (a *WebSearchAgent) limit() int {
	if a.Limit <= 0 {
		return DefaultFindingLimit
	}
	return a.Limit
}

// ComposeQuery joins the non-empty prompt and destination parts.
func ComposeQuery(prompt string, dest outing.Destination) string {
	var parts []string
	for _, p := range []string{prompt, dest.City, dest.State, dest.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " | ")
}

func searchLocation(dest outing.Destination) string {
	if dest.City == "" {
		return "the specified destination"
	}
	return strings.TrimSpace(dest.City + ", " + strings.TrimSpace(dest.State+" "+dest.Country))
}

func (a *WebSearchAgent) complete(ctx context.Context, in Input) (outing.Payload, error) {
	if a.deps.Completer == nil {
		return nil, outing.NewCompletionError("no completion source configured", nil)
	}

	query := firstNonEmpty(ComposeQuery(in.Prompt, in.Destination), in.Prompt)
	lines := []string{
		"User request: " + in.Prompt,
		"Destination: " + searchLocation(in.Destination),
		"Event date: " + firstNonEmpty(in.EventDate.Label(), "a relevant upcoming date"),
		webSearchInstructions,
	}
	if a.Searcher != nil {
		if hits, err := a.Searcher.Search(ctx, query); err != nil {
			a.deps.Log.Event(observability.EventAgent).WithError(err).Warn("web search grounding failed", observability.Fields{
				"agent": string(outing.SubtaskWebSearch),
			})
		} else if hits = strings.TrimSpace(hits); hits != "" {
			lines = append(lines, "Web results:\n"+hits)
		}
	}

	answer, err := a.deps.Completer.Complete(ctx, llm.Request{
		System:      a.deps.Prompts.Get(prompts.WebSearch),
		User:        strings.Join(lines, "\n"),
		Schema:      webSearchSchema,
		Temperature: a.deps.Temperature,
	})
	if err != nil {
		return nil, err
	}
	obj := answer.Object()

	return &WebSearchPlan{
		Location:       in.Destination,
		EventDate:      in.EventDate,
		EventDateLabel: optional(in.EventDate.Label()),
		Query:          query,
		Summary:        firstNonEmpty(str(obj, "summary"), str(obj, "raw"), defaultSearchSummary),
		Results:        findings(obj["findings"], a.limit()),
		FetchedAt:      time.Now().UTC(),
		Attribution:    outing.Fallback(a.deps.Completer.Label()),
	}, nil
}

// findings keeps at most limit entries and fills missing fields.
func findings(v any, limit int) []Finding {
	items, _ := v.([]any)
	if len(items) > limit {
		items = items[:limit]
	}
	out := make([]Finding, 0, len(items))
	for _, item := range items {
		rec, _ := item.(map[string]any)
		out = append(out, Finding{
			Title:   firstNonEmpty(str(rec, "title"), defaultFindingTitle),
			Snippet: firstNonEmpty(str(rec, "description"), str(rec, "summary")),
			Link:    str(rec, "url"),
			Source:  firstNonEmpty(str(rec, "source"), defaultFindingSource),
		})
	}
	return out
}
