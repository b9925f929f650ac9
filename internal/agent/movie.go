package agent

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/rahul/outing/internal/extract"
	"github.com/rahul/outing/internal/integrations/bookmyshow"
	"github.com/rahul/outing/internal/llm"
	"github.com/rahul/outing/internal/normalize"
	"github.com/rahul/outing/internal/observability"
	"github.com/rahul/outing/internal/outing"
	"github.com/rahul/outing/internal/prompts"
)

// MovieSource is the live movie listing capability, satisfied by
// *bookmyshow.Client.
type MovieSource interface {
	FetchMovies(ctx context.Context, dest outing.Destination, prompt string) extract.Result[[]normalize.Movie]
	FetchCinemaDirectory(ctx context.Context, dest outing.Destination, prompt string) extract.Result[[]normalize.Cinema]
	FetchShowtimeCinemas(ctx context.Context, movie normalize.Movie, dest outing.Destination, date *outing.EventDate, prompt string) extract.Result[[]normalize.Cinema]
}

// MoviePlan is the movie agent's answer.
type MoviePlan struct {
	Location       outing.Destination `json:"location"`
	EventDate      *outing.EventDate  `json:"eventDate"`
	EventDateLabel *string            `json:"eventDateLabel"`
	Title          string             `json:"title"`
	Overview       string             `json:"overview"`
	Showtime       *string            `json:"showtime"`
	Venue          string             `json:"venue"`
	BookingLink    *string            `json:"bookingLink,omitempty"`
	Cinemas        []normalize.Cinema `json:"cinemas,omitempty"`
	Movies         []normalize.Movie  `json:"movies,omitempty"`
	outing.Attribution
}

const (
	showtimesAvailable = "Showtimes available on BookMyShow"

	defaultMovieTitle    = "Feature Film Recommendation"
	defaultMovieOverview = "Movie details unavailable."
	defaultMovieShowtime = "8:00 PM"
	defaultMovieVenue    = "Downtown Theater"
)

var movieSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"title":    map[string]any{"type": "string"},
		"overview": map[string]any{"type": "string"},
		"showtime": map[string]any{"type": "string"},
		"venue":    map[string]any{"type": "string"},
	},
	"required": []string{"title", "overview"},
}

type MovieAgent struct {
	source  MovieSource
	deps    Deps
	machine *Machine
}

// NewMovieAgent builds the movie agent. A nil source leaves only the
// completion fallback.
func NewMovieAgent(source MovieSource, deps Deps) *MovieAgent {
	a := &MovieAgent{source: source, deps: deps.withDefaults()}
	a.machine = &Machine{
		Agent:    outing.SubtaskMovie,
		Source:   "bookmyshow",
		Fallback: a.fallback,
		Log:      a.deps.Log,
		Metrics:  a.deps.Metrics,
	}
	if source != nil {
		a.machine.Live = a.live
	}
	return a
}

func (a *MovieAgent) Name() outing.Subtask { return outing.SubtaskMovie }

func (a *MovieAgent) Run(ctx context.Context, in Input) (outing.Payload, error) {
	return a.machine.Run(ctx, in).Result()
}

func (a *MovieAgent) live(ctx context.Context, in Input) (outing.Payload, error) {
	var (
		movies    extract.Result[[]normalize.Movie]
		directory extract.Result[[]normalize.Cinema]
		wg        sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		movies = a.source.FetchMovies(ctx, in.Destination, in.Prompt)
	}()
	go func() {
		defer wg.Done()
		directory = a.source.FetchCinemaDirectory(ctx, in.Destination, in.Prompt)
	}()
	wg.Wait()

	errs := []error{movies.Err, directory.Err}

	var showtimes extract.Result[[]normalize.Cinema]
	if len(movies.Value) > 0 {
		showtimes = a.source.FetchShowtimeCinemas(ctx, movies.Value[0], in.Destination, in.EventDate, in.Prompt)
		errs = append(errs, showtimes.Err)
	}

	merged := normalize.MergeCinemaEntries(showtimes.Value, directory.Value)
	failed := errors.Join(errs...)
	if len(movies.Value) == 0 && len(merged) == 0 {
		if failed != nil {
			return nil, outing.NewExtractionError(sourceLabel(a.source, bookmyshow.SourceLabel), failed)
		}
		return nil, nil
	}
	if failed != nil {
		a.deps.Log.Event(observability.EventExtraction).WithError(failed).Warn("live movie extraction partially failed", observability.Fields{
			"agent":   string(outing.SubtaskMovie),
			"movies":  len(movies.Value),
			"cinemas": len(merged),
		})
	}

	label := placeLabel(in.Destination)
	plan := &MoviePlan{
		Location:       in.Destination,
		EventDate:      in.EventDate,
		EventDateLabel: optional(in.EventDate.Label()),
		Title:          "Movies in " + firstNonEmpty(in.Destination.City, "your city"),
		Overview: fmt.Sprintf("Found %s movies across %s cinemas on BookMyShow for %s.",
			countOr(len(movies.Value), "several"), countOr(len(merged), "multiple"), label),
		Venue:       firstNonEmpty(label, "BookMyShow Listings"),
		Cinemas:     merged,
		Movies:      movies.Value,
		Attribution: outing.Live(sourceLabel(a.source, bookmyshow.SourceLabel)),
	}
	if plan.Movies == nil {
		plan.Movies = []normalize.Movie{}
	}

	var links []*string
	if len(merged) > 0 {
		first := merged[0]
		plan.Venue = first.Name
		plan.Showtime = cinemaShowtime(first)
		links = append(links, first.BookingLink)
	}
	if len(movies.Value) > 0 {
		plan.Title = movies.Value[0].Title
		links = append(links, movies.Value[0].BookingLink)
	}
	links = append(links, optional(showtimes.URL), optional(movies.URL))
	for _, link := range links {
		if link != nil && *link != "" {
			plan.BookingLink = link
			break
		}
	}
	return plan, nil
}

func cinemaShowtime(c normalize.Cinema) *string {
	if len(c.Showtimes) > 0 && c.Showtimes[0].Time != nil {
		return c.Showtimes[0].Time
	}
	if c.ShowtimesAvailable != nil && *c.ShowtimesAvailable {
		return optional(showtimesAvailable)
	}
	return nil
}

func countOr(n int, word string) string {
	if n == 0 {
		return word
	}
	return strconv.Itoa(n)
}

func (a *MovieAgent) fallback(ctx context.Context, in Input) (outing.Payload, error) {
	if a.deps.Completer == nil {
		return nil, outing.NewCompletionError("no completion source configured", nil)
	}

	label := placeLabel(in.Destination)
	dateContext := "The outing date is flexible; assume the next suitable evening."
	if l := in.EventDate.Label(); l != "" {
		dateContext = fmt.Sprintf("The outing takes place on %s.", l)
	}

	answer, err := a.deps.Completer.Complete(ctx, llm.Request{
		System:      a.deps.Prompts.Get(prompts.Movie),
		User:        fmt.Sprintf("Suggest a movie plan for guests spending the evening in %s. %s User request: %s", label, dateContext, in.Prompt),
		Schema:      movieSchema,
		Temperature: a.deps.Temperature,
	})
	if err != nil {
		return nil, err
	}
	obj := answer.Object()

	return &MoviePlan{
		Location:       in.Destination,
		EventDate:      in.EventDate,
		EventDateLabel: optional(in.EventDate.Label()),
		Title:          firstNonEmpty(str(obj, "title"), defaultMovieTitle),
		Overview:       firstNonEmpty(str(obj, "overview"), str(obj, "raw"), defaultMovieOverview),
		Showtime:       optional(firstNonEmpty(str(obj, "showtime"), defaultMovieShowtime)),
		Venue:          firstNonEmpty(str(obj, "venue"), label, defaultMovieVenue),
		Attribution:    outing.Fallback(a.deps.Completer.Label()),
	}, nil
}
