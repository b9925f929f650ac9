// Package llm adapts langchaingo chat models to the generative-completion
// capability used by the planner, the fallback agents and page extraction.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rahul/outing/internal/outing"
	"github.com/tmc/langchaingo/llms"
)

// Request is one schema-constrained completion.
type Request struct {
	System      string
	User        string
	Schema      map[string]any
	Temperature float64
}

// Answer is a completion result. JSON is nil when the text could not be
// parsed as a JSON object; Raw always carries the trimmed text.
type Answer struct {
	JSON       map[string]any
	Raw        string
	Violations []string
}

// Parsed reports whether the answer decoded as a JSON object.
func (a Answer) Parsed() bool {
	return a.JSON != nil
}

// Object returns the decoded answer, or the best-effort envelope
// {"raw": text} when it did not parse.
func (a Answer) Object() map[string]any {
	if a.JSON != nil {
		return a.JSON
	}
	return map[string]any{"raw": a.Raw}
}

// Completer is the generative-completion capability.
type Completer interface {
	Complete(ctx context.Context, req Request) (Answer, error)
	// Label names the completion source for provenance, e.g. "Gemini".
	Label() string
}

// Exchange is one request/response pair handed to a Transcript.
type Exchange struct {
	Model    string `json:"model"`
	System   string `json:"system"`
	User     string `json:"user"`
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
	Elapsed  int64  `json:"elapsed_ms"`
}

// Transcript records completion exchanges.
type Transcript interface {
	Record(Exchange)
}

// LangChain implements Completer on top of any langchaingo model.
type LangChain struct {
	Model      llms.Model
	ModelName  string
	Source     string
	Transcript Transcript
}

func NewLangChain(model llms.Model, modelName, source string) *LangChain {
	return &LangChain{
		Model:     model,
		ModelName: modelName,
		Source:    source,
	}
}

func (c *LangChain) Label() string {
	return c.Source
}

func (c *LangChain) Complete(ctx context.Context, req Request) (Answer, error) {
	system := withSchema(req.System, req.Schema)
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, req.User),
	}

	start := time.Now()
	resp, err := c.Model.GenerateContent(ctx, messages,
		llms.WithTemperature(req.Temperature),
		llms.WithJSONMode(),
	)
	exchange := Exchange{Model: c.ModelName, System: system, User: req.User}

	var text string
	if err == nil {
		if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
			err = fmt.Errorf("completion response did not include assistant content")
		} else {
			text = resp.Choices[0].Content
		}
	}

	exchange.Response = text
	exchange.Elapsed = time.Since(start).Milliseconds()
	if err != nil {
		exchange.Error = err.Error()
	}
	if c.Transcript != nil {
		c.Transcript.Record(exchange)
	}

	if err != nil {
		return Answer{}, outing.NewCompletionError(c.Source+" agent request failed", err)
	}
	return Parse(text, req.Schema), nil
}

func withSchema(system string, schema map[string]any) string {
	if schema == nil {
		return system
	}
	encoded, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return system
	}
	return system + "\n\nRespond with a single JSON object matching this JSON Schema:\n" + string(encoded)
}
