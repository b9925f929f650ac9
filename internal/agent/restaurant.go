package agent

import (
	"context"
	"fmt"

	"github.com/rahul/outing/internal/extract"
	"github.com/rahul/outing/internal/integrations/zomato"
	"github.com/rahul/outing/internal/llm"
	"github.com/rahul/outing/internal/normalize"
	"github.com/rahul/outing/internal/outing"
	"github.com/rahul/outing/internal/prompts"
)

// RestaurantSource is the live restaurant listing capability, satisfied by
// *zomato.Client.
type RestaurantSource interface {
	FetchRestaurants(ctx context.Context, dest outing.Destination, prompt string) extract.Result[[]normalize.Restaurant]
}

// RestaurantPlan is the restaurant agent's answer.
type RestaurantPlan struct {
	Location       outing.Destination     `json:"location"`
	EventDate      *outing.EventDate      `json:"eventDate"`
	EventDateLabel *string                `json:"eventDateLabel"`
	Restaurants    []normalize.Restaurant `json:"restaurants"`
	SourceURL      *string                `json:"sourceUrl,omitempty"`
	Raw            string                 `json:"raw,omitempty"`
	outing.Attribution
}

type RestaurantAgent struct {
	source  RestaurantSource
	deps    Deps
	machine *Machine
}

// NewRestaurantAgent builds the restaurant agent. A nil source leaves only
// the completion fallback.
func NewRestaurantAgent(source RestaurantSource, deps Deps) *RestaurantAgent {
	a := &RestaurantAgent{source: source, deps: deps.withDefaults()}
	a.machine = &Machine{
		Agent:    outing.SubtaskRestaurant,
		Source:   "zomato",
		Fallback: a.fallback,
		Log:      a.deps.Log,
		Metrics:  a.deps.Metrics,
	}
	if source != nil {
		a.machine.Live = a.live
	}
	return a
}

func (a *RestaurantAgent) Name() outing.Subtask { return outing.SubtaskRestaurant }

func (a *RestaurantAgent) Run(ctx context.Context, in Input) (outing.Payload, error) {
	return a.machine.Run(ctx, in).Result()
}

func (a *RestaurantAgent) live(ctx context.Context, in Input) (outing.Payload, error) {
	res := a.source.FetchRestaurants(ctx, in.Destination, in.Prompt)
	if !res.OK() {
		return nil, outing.NewExtractionError(sourceLabel(a.source, zomato.SourceLabel), res.Err)
	}
	if len(res.Value) == 0 {
		return nil, nil
	}
	return &RestaurantPlan{
		Location:       in.Destination,
		EventDate:      in.EventDate,
		EventDateLabel: optional(in.EventDate.Label()),
		Restaurants:    res.Value,
		SourceURL:      optional(res.URL),
		Attribution:    outing.Live(sourceLabel(a.source, zomato.SourceLabel)),
	}, nil
}

func (a *RestaurantAgent) fallback(ctx context.Context, in Input) (outing.Payload, error) {
	if a.deps.Completer == nil {
		return nil, outing.NewCompletionError("no completion source configured", nil)
	}

	dateContext := "Dinner date is flexible; suggest the next desirable slot."
	if l := in.EventDate.Label(); l != "" {
		dateContext = fmt.Sprintf("Dinner is planned for %s.", l)
	}

	answer, err := a.deps.Completer.Complete(ctx, llm.Request{
		System:      a.deps.Prompts.Get(prompts.Restaurant),
		User:        fmt.Sprintf("Extract the best restaurants in %s. %s User request: %s", placeLabel(in.Destination), dateContext, in.Prompt),
		Schema:      zomato.SuggestionSchema(),
		Temperature: a.deps.Temperature,
	})
	if err != nil {
		return nil, err
	}

	plan := &RestaurantPlan{
		Location:       in.Destination,
		EventDate:      in.EventDate,
		EventDateLabel: optional(in.EventDate.Label()),
		Restaurants:    normalize.DedupeRestaurants(normalize.Records(answer.Object()["restaurants"])),
		Attribution:    outing.Fallback(a.deps.Completer.Label()),
	}
	if !answer.Parsed() {
		plan.Raw = answer.Raw
	}
	return plan, nil
}
