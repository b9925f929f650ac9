// Package orchestrator is the plan entry point: it validates a request, runs
// the planner and the aggregator, and records the outcome.
package orchestrator

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rahul/outing/internal/agent"
	"github.com/rahul/outing/internal/aggregator"
	"github.com/rahul/outing/internal/observability"
	"github.com/rahul/outing/internal/outing"
	"github.com/rahul/outing/internal/planner"
	"github.com/rahul/outing/internal/prompts"
	"github.com/rahul/outing/internal/store"
)

const (
	promptRequired      = "A prompt string is required."
	destinationRequired = "Provide a valid location with city, state, and country."
)

// Request is one plan request.
type Request struct {
	Prompt      string
	Destination *outing.Destination
	EventDate   string
	UserID      string
}

// Response is the aggregated plan returned to callers.
type Response struct {
	RequestID      string               `json:"requestId"`
	Location       outing.Destination   `json:"location"`
	Subtasks       []outing.Subtask     `json:"subtasks"`
	Results        []outing.AgentResult `json:"results"`
	EventDate      *outing.EventDate    `json:"eventDate"`
	LocationPrompt string               `json:"locationPrompt"`
}

// PlanSaver persists finished plans.
type PlanSaver interface {
	SavePlan(ctx context.Context, rec store.PlanRecord) error
}

type Orchestrator struct {
	Planner    *planner.Planner
	Aggregator *aggregator.Aggregator
	Registry   *agent.Registry
	History    PlanSaver
	Log        observability.Logger
	Metrics    *observability.Metrics
}

func New(p *planner.Planner, registry *agent.Registry, history PlanSaver, log observability.Logger, metrics *observability.Metrics) *Orchestrator {
	if log == nil {
		log = observability.NewNopLogger()
	}
	return &Orchestrator{
		Planner:    p,
		Aggregator: aggregator.New(registry, log),
		Registry:   registry,
		History:    history,
		Log:        log.Event(observability.EventPlan),
		Metrics:    metrics,
	}
}

// override normalizes a caller destination. All-empty means none; a
// partial one is rejected.
func override(d *outing.Destination) (*outing.Destination, error) {
	if d == nil {
		return nil, nil
	}
	d = outing.NewDestination(d.Country, d.State, d.City)
	if d == nil {
		return nil, nil
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// RunPlan resolves the plan and runs every subtask. Validation and planner
// failures abort the request; agent failures are reported per result.
func (o *Orchestrator) RunPlan(ctx context.Context, req Request) (*Response, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, outing.NewValidationError(promptRequired)
	}
	date, err := outing.ParseEventDate(req.EventDate)
	if err != nil {
		return nil, err
	}
	dest, err := override(req.Destination)
	if err != nil {
		return nil, err
	}

	defer observability.BeginPlan(prompt)()
	defer o.Metrics.TrackPlan()()

	plan, err := o.Planner.Extract(ctx, prompt, dest)
	if err != nil {
		o.Metrics.ObservePlan("planner_failed")
		o.Log.WithError(err).Error("planner failed", nil)
		return nil, err
	}

	observability.SetStatus(observability.RoleDispatching, prompt)
	results := o.Aggregator.Run(ctx, agent.Input{
		Destination: plan.Destination,
		Prompt:      prompt,
		EventDate:   date,
	}, plan.Subtasks)

	resp := &Response{
		RequestID:      uuid.NewString(),
		Location:       plan.Destination,
		Subtasks:       plan.Subtasks,
		Results:        results,
		EventDate:      date,
		LocationPrompt: prompts.LocationPrompt,
	}

	outcome := "ok"
	for _, r := range results {
		if !r.OK() {
			outcome = "partial"
			break
		}
	}
	o.Metrics.ObservePlan(outcome)
	o.Log.Info("plan completed", observability.Fields{
		"request_id": resp.RequestID,
		"city":       plan.Destination.City,
		"subtasks":   len(plan.Subtasks),
		"outcome":    outcome,
	})

	o.save(ctx, req.UserID, prompt, resp)
	return resp, nil
}

// save records the plan. A storage failure is logged and never fails the
// request.
func (o *Orchestrator) save(ctx context.Context, userID, prompt string, resp *Response) {
	if o.History == nil {
		return
	}
	results, err := store.ResultsOf(resp.Results)
	if err == nil {
		subtasks := make([]string, len(resp.Subtasks))
		for i, s := range resp.Subtasks {
			subtasks[i] = string(s)
		}
		err = o.History.SavePlan(ctx, store.PlanRecord{
			ID:        resp.RequestID,
			UserID:    userID,
			Prompt:    prompt,
			Location:  resp.Location,
			EventDate: resp.EventDate.ISO(),
			Subtasks:  subtasks,
			Results:   results,
		})
	}
	if err != nil {
		o.Log.WithError(err).Warn("failed to persist plan", observability.Fields{"request_id": resp.RequestID})
	}
}

// AgentRequest runs a single agent without the planner.
type AgentRequest struct {
	Prompt      string
	Destination *outing.Destination
	EventDate   string
}

// RunAgent invokes one agent directly. The destination is mandatory.
func (o *Orchestrator) RunAgent(ctx context.Context, name outing.Subtask, req AgentRequest) (outing.AgentResult, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return outing.AgentResult{}, outing.NewValidationError(promptRequired)
	}
	var dest *outing.Destination
	if req.Destination != nil {
		dest = outing.NewDestination(req.Destination.Country, req.Destination.State, req.Destination.City)
	}
	if dest == nil || !dest.Complete() {
		return outing.AgentResult{}, outing.NewValidationError(destinationRequired)
	}
	date, err := outing.ParseEventDate(req.EventDate)
	if err != nil {
		return outing.AgentResult{}, err
	}

	results := o.Aggregator.Run(ctx, agent.Input{Destination: *dest, Prompt: prompt, EventDate: date}, []outing.Subtask{name})
	return results[0], nil
}
