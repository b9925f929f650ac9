package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/rahul/outing/internal/integrations/openmeteo"
	"github.com/rahul/outing/internal/llm"
	"github.com/rahul/outing/internal/outing"
	"github.com/rahul/outing/internal/prompts"
)

// WeatherSource is the live forecast capability, satisfied by
// *openmeteo.Client.
type WeatherSource interface {
	DayWeather(ctx context.Context, city, date string) (openmeteo.DayWeather, error)
}

// WeatherPlan is the weather agent's answer. Forecast is keyed by day part.
type WeatherPlan struct {
	Location       outing.Destination `json:"location"`
	EventDate      *outing.EventDate  `json:"eventDate"`
	EventDateLabel *string            `json:"eventDateLabel"`
	Date           string             `json:"date"`
	Forecast       map[string]string  `json:"forecast"`
	Raw            string             `json:"raw,omitempty"`
	outing.Attribution
}

const noData = "No data"

var weatherSchema = func() map[string]any {
	props := map[string]any{}
	for _, part := range openmeteo.DayParts {
		props[part] = map[string]any{"type": "string"}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   openmeteo.DayParts,
	}
}()

type WeatherAgent struct {
	source  WeatherSource
	deps    Deps
	machine *Machine
	now     func() time.Time
}

// NewWeatherAgent builds the weather agent. A nil source leaves only the
// completion fallback.
func NewWeatherAgent(source WeatherSource, deps Deps) *WeatherAgent {
	a := &WeatherAgent{source: source, deps: deps.withDefaults(), now: time.Now}
	a.machine = &Machine{
		Agent:    outing.SubtaskWeather,
		Source:   "open-meteo",
		Fallback: a.fallback,
		Log:      a.deps.Log,
		Metrics:  a.deps.Metrics,
	}
	if source != nil {
		a.machine.Live = a.live
	}
	return a
}

func (a *WeatherAgent) Name() outing.Subtask { return outing.SubtaskWeather }

func (a *WeatherAgent) Run(ctx context.Context, in Input) (outing.Payload, error) {
	return a.machine.Run(ctx, in).Result()
}

// date is the forecast day: the event date, or today.
func (a *WeatherAgent) date(in Input) string {
	if iso := in.EventDate.ISO(); iso != "" {
		return iso
	}
	return a.now().Format("2006-01-02")
}

func (a *WeatherAgent) live(ctx context.Context, in Input) (outing.Payload, error) {
	if in.Destination.City == "" {
		return nil, nil
	}
	day, err := a.source.DayWeather(ctx, in.Destination.City, a.date(in))
	if err != nil {
		return nil, outing.NewExtractionError(openmeteo.SourceLabel, err)
	}

	forecast := make(map[string]string, len(openmeteo.DayParts))
	readings := 0
	for _, part := range openmeteo.DayParts {
		forecast[part] = firstNonEmpty(day.Part(part), noData)
		if forecast[part] != noData {
			readings++
		}
	}
	if readings == 0 {
		return nil, nil
	}
	return &WeatherPlan{
		Location:       in.Destination,
		EventDate:      in.EventDate,
		EventDateLabel: optional(in.EventDate.Label()),
		Date:           day.Date,
		Forecast:       forecast,
		Attribution:    outing.Live(openmeteo.SourceLabel),
	}, nil
}

func (a *WeatherAgent) fallback(ctx context.Context, in Input) (outing.Payload, error) {
	if a.deps.Completer == nil {
		return nil, outing.NewCompletionError("no completion source configured", nil)
	}

	date := a.date(in)
	answer, err := a.deps.Completer.Complete(ctx, llm.Request{
		System: a.deps.Prompts.Get(prompts.Weather),
		User: fmt.Sprintf("Describe the expected weather in %s on %s for each part of the day (Morning, Afternoon, Evening, Night). User request: %s",
			placeLabel(in.Destination), date, in.Prompt),
		Schema:      weatherSchema,
		Temperature: a.deps.Temperature,
	})
	if err != nil {
		return nil, err
	}
	obj := answer.Object()

	forecast := make(map[string]string, len(openmeteo.DayParts))
	for _, part := range openmeteo.DayParts {
		forecast[part] = firstNonEmpty(str(obj, part), noData)
	}
	plan := &WeatherPlan{
		Location:       in.Destination,
		EventDate:      in.EventDate,
		EventDateLabel: optional(in.EventDate.Label()),
		Date:           date,
		Forecast:       forecast,
		Attribution:    outing.Fallback(a.deps.Completer.Label()),
	}
	if !answer.Parsed() {
		plan.Raw = answer.Raw
	}
	return plan, nil
}
