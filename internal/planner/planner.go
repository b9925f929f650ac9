// Package planner turns a free-text request into a destination and the
// subtasks needed to answer it.
package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/rahul/outing/internal/llm"
	"github.com/rahul/outing/internal/observability"
	"github.com/rahul/outing/internal/outing"
	"github.com/rahul/outing/internal/prompts"
)

const (
	DefaultTemperature = 0.2

	parseFailedMessage   = "Planner response could not be parsed."
	requestFailedMessage = "Planner did not return structured arguments."
	noSubtasksMessage    = "Planner returned no subtasks."
	singleAgentHint      = "Only include subtasks that are explicitly needed. If the user only requested one thing, return an array with that single agent."
)

// Plan is the planner's decision.
type Plan struct {
	Destination outing.Destination `json:"location"`
	Subtasks    []outing.Subtask   `json:"subtasks"`
}

// PromptSource resolves system prompts by name.
type PromptSource interface {
	Get(name string) string
}

type Planner struct {
	completer   llm.Completer
	prompts     PromptSource
	log         observability.Logger
	Temperature float64
}

func New(completer llm.Completer, prompts PromptSource, log observability.Logger) *Planner {
	if log == nil {
		log = observability.NewNopLogger()
	}
	return &Planner{
		completer:   completer,
		prompts:     prompts,
		log:         log.Event(observability.EventPlan),
		Temperature: DefaultTemperature,
	}
}

// Schema is the machine-checkable shape the completion must follow.
func Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"location": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"country": map[string]any{"type": "string"},
					"state":   map[string]any{"type": "string"},
					"city":    map[string]any{"type": "string"},
				},
				"required": []string{"country", "state", "city"},
			},
			"subtasks": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "string",
					"enum": outing.SubtaskNames(),
				},
			},
		},
		"required": []string{"location", "subtasks"},
	}
}

func (p *Planner) systemPrompt(override *outing.Destination) string {
	var b strings.Builder
	b.WriteString(p.system())
	if override != nil {
		fmt.Fprintf(&b, "\nUse this exact destination without modification: Country: %s; State: %s; City: %s.",
			override.Country, override.State, override.City)
	}
	b.WriteString("\n")
	b.WriteString(singleAgentHint)
	return b.String()
}

func (p *Planner) system() string {
	if p.prompts == nil {
		return prompts.NewManager("").Get(prompts.Planner)
	}
	return p.prompts.Get(prompts.Planner)
}

// Extract asks the completion source for a plan. An override destination
// is pinned in the instruction and always wins over the inferred one. Every
// failure is fatal to the plan request.
func (p *Planner) Extract(ctx context.Context, prompt string, override *outing.Destination) (*Plan, error) {
	if p.completer == nil {
		return nil, outing.NewPlannerError(requestFailedMessage, fmt.Errorf("no completion source configured"))
	}

	answer, err := p.completer.Complete(ctx, llm.Request{
		System:      p.systemPrompt(override),
		User:        prompt,
		Schema:      Schema(),
		Temperature: p.Temperature,
	})
	if err != nil {
		return nil, outing.NewPlannerError(requestFailedMessage, err)
	}
	if !answer.Parsed() {
		return nil, outing.NewPlannerError(parseFailedMessage, fmt.Errorf("not a JSON object: %.200q", answer.Raw))
	}
	if len(answer.Violations) > 0 {
		p.log.Warn("planner answer does not match schema", observability.Fields{"violations": answer.Violations})
	}

	dest := inferred(answer.JSON["location"])
	if override != nil {
		dest = *override
	}
	if err := dest.Validate(); err != nil {
		return nil, outing.NewPlannerError(err.Error(), err)
	}

	plan := &Plan{Destination: dest, Subtasks: subtasks(answer.JSON["subtasks"])}
	if len(plan.Subtasks) == 0 {
		return nil, outing.NewPlannerError(noSubtasksMessage, fmt.Errorf("answer carries no subtasks: %.200q", answer.Raw))
	}
	p.log.Info("plan extracted", observability.Fields{
		"city":     dest.City,
		"subtasks": plan.Subtasks,
		"override": override != nil,
	})
	return plan, nil
}

func inferred(v any) outing.Destination {
	loc, _ := v.(map[string]any)
	field := func(key string) string {
		s, _ := loc[key].(string)
		return s
	}
	d := outing.NewDestination(field("country"), field("state"), field("city"))
	if d == nil {
		return outing.Destination{}
	}
	return *d
}

// subtasks keeps the string entries of a list, in order. Unknown names are
// kept; the aggregator reports them per subtask. A non-list yields none.
func subtasks(v any) []outing.Subtask {
	items, _ := v.([]any)
	out := make([]outing.Subtask, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, outing.Subtask(strings.TrimSpace(s)))
		}
	}
	return out
}
