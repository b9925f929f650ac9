// Package agent holds the domain agents that answer one subtask of a plan.
// Every agent tries its live source first and falls back to a generative
// completion when the live source fails or comes back empty.
package agent

import (
	"context"
	"sort"

	"github.com/rahul/outing/internal/llm"
	"github.com/rahul/outing/internal/observability"
	"github.com/rahul/outing/internal/outing"
	"github.com/rahul/outing/internal/prompts"
)

// Input is what every agent receives for one invocation.
type Input struct {
	Destination outing.Destination
	Prompt      string
	EventDate   *outing.EventDate
}

// Agent answers one subtask.
type Agent interface {
	Name() outing.Subtask
	Run(ctx context.Context, in Input) (outing.Payload, error)
}

// Registry maps subtask tags to agents.
type Registry struct {
	agents map[outing.Subtask]Agent
}

func NewRegistry(agents ...Agent) *Registry {
	r := &Registry{agents: make(map[outing.Subtask]Agent, len(agents))}
	for _, a := range agents {
		r.Register(a)
	}
	return r
}

// Register adds a, replacing any agent registered under the same name.
func (r *Registry) Register(a Agent) {
	r.agents[a.Name()] = a
}

func (r *Registry) Get(name outing.Subtask) (Agent, bool) {
	a, ok := r.agents[name]
	return a, ok
}

// Names lists the registered subtasks in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names
}

// PromptSource resolves system prompts by name.
type PromptSource interface {
	Get(name string) string
}

const defaultTemperature = 0.3

// Deps are the collaborators shared by the agents.
type Deps struct {
	Completer   llm.Completer
	Prompts     PromptSource
	Log         observability.Logger
	Metrics     *observability.Metrics
	Temperature float64
}

func (d Deps) withDefaults() Deps {
	if d.Prompts == nil {
		d.Prompts = prompts.NewManager("")
	}
	if d.Log == nil {
		d.Log = observability.NewNopLogger()
	}
	if d.Temperature == 0 {
		d.Temperature = defaultTemperature
	}
	return d
}

func placeLabel(dest outing.Destination) string {
	if label := dest.Label(); label != "" {
		return label
	}
	return "the selected destination"
}

// sourceLabel asks source for its provenance label, or returns def when it
// has none.
func sourceLabel(source any, def string) string {
	if l, ok := source.(interface{ Label() string }); ok {
		if label := l.Label(); label != "" {
			return label
		}
	}
	return def
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// str reads a non-empty string field of a completion answer.
func str(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
