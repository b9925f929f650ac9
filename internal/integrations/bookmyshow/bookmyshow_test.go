package bookmyshow

import (
	"context"
	"errors"
	"testing"

	"github.com/rahul/outing/internal/extract"
	"github.com/rahul/outing/internal/normalize"
	"github.com/rahul/outing/internal/outing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugifyCity(t *testing.T) {
	assert.Equal(t, "new-delhi", SlugifyCity("  New Delhi "))
	assert.Equal(t, "navi-mumbai", SlugifyCity("Navi--Mumbai!!"))
	assert.Equal(t, "", SlugifyCity("---"))
}

func TestURLs(t *testing.T) {
	assert.Equal(t, "https://in.bookmyshow.com/explore/movies-pune?cat=MT", MoviesURL("Pune"))
	assert.Equal(t, "https://in.bookmyshow.com/pune/cinemas", DirectoryURL("Pune"))
	assert.Equal(t, "", MoviesURL(""))
	assert.Equal(t, "", DirectoryURL(" "))

	assert.Equal(t,
		"https://in.bookmyshow.com/movies/pune/dune/buytickets/ET00012345/20260222",
		ShowtimeURL(ShowtimeTarget{CitySlug: "pune", MovieSlug: "dune", EventID: "ET00012345", DateSegment: "20260222"}))
	assert.Equal(t,
		"https://in.bookmyshow.com/movies/pune/dune/buytickets/ET00012345",
		ShowtimeURL(ShowtimeTarget{CitySlug: "pune", MovieSlug: "dune", EventID: "ET00012345"}))
	assert.Equal(t, "", ShowtimeURL(ShowtimeTarget{CitySlug: "pune", MovieSlug: "dune"}))
}

func TestParseShowtimeMetadata(t *testing.T) {
	meta := ParseShowtimeMetadata("https://in.bookmyshow.com/movies/mumbai/dune-part-two/buytickets/ET00356724/20260301")
	require.NotNil(t, meta)
	assert.Equal(t, ShowtimeTarget{CitySlug: "mumbai", MovieSlug: "dune-part-two", EventID: "ET00356724", DateSegment: "20260301"}, *meta)

	meta = ParseShowtimeMetadata("https://in.bookmyshow.com/movies/mumbai/dune/buytickets/notanid")
	require.NotNil(t, meta)
	assert.Empty(t, meta.EventID)

	assert.Nil(t, ParseShowtimeMetadata("https://in.bookmyshow.com/movies/mumbai/dune/ET00356724"))
	assert.Nil(t, ParseShowtimeMetadata("https://in.bookmyshow.com/events/x/y/z/w"))
	assert.Nil(t, ParseShowtimeMetadata(""))
}

func TestShowtimeTargetFor(t *testing.T) {
	link := "https://in.bookmyshow.com/movies/mumbai/dune/buytickets/ET00356724/20260301"
	id := "ET00099999"
	dest := outing.Destination{Country: "India", State: "Maharashtra", City: "Pune"}
	date, err := outing.ParseEventDate("2026-02-22")
	require.NoError(t, err)

	target := ShowtimeTargetFor(normalize.Movie{Title: "Dune", BookingLink: &link}, dest, date)
	assert.Equal(t, ShowtimeTarget{CitySlug: "mumbai", MovieSlug: "dune", EventID: "ET00356724", DateSegment: "20260222"}, target)

	target = ShowtimeTargetFor(normalize.Movie{Title: "Dune: Part Two", MovieID: &id}, dest, nil)
	assert.Equal(t, ShowtimeTarget{CitySlug: "pune", MovieSlug: "dune-part-two", EventID: "ET00099999"}, target)
}

type fakeExtractor struct {
	answers  map[string]map[string]any
	err      error
	requests []extract.Request
}

func (f *fakeExtractor) Name() string { return "fake" }

func (f *fakeExtractor) Extract(_ context.Context, req extract.Request) (map[string]any, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.answers[req.URL], nil
}

var pune = outing.Destination{Country: "India", State: "Maharashtra", City: "Pune"}

func TestClient_FetchMovies(t *testing.T) {
	movies := make([]any, 0, 8)
	for _, title := range []string{"A", "B", "a", "C", "D", "E", "F"} {
		movies = append(movies, map[string]any{"title": title})
	}
	fx := &fakeExtractor{answers: map[string]map[string]any{
		MoviesURL("Pune"): {"movies": movies},
	}}
	c := NewClient(fx)

	res := c.FetchMovies(context.Background(), pune, "")
	require.True(t, res.OK())
	require.Len(t, res.Value, 5)
	assert.Equal(t, "E", res.Value[4].Title)
	assert.Equal(t, MoviesURL("Pune"), res.URL)

	require.Len(t, fx.requests, 1)
	assert.Contains(t, fx.requests[0].Prompt, "Pune, Maharashtra, India")
	assert.Contains(t, fx.requests[0].Prompt, "User request context: movie suggestions.")
}

func TestClient_FetchFailures(t *testing.T) {
	c := NewClient(&fakeExtractor{err: errors.New("credits exhausted")})

	res := c.FetchMovies(context.Background(), pune, "thriller")
	assert.False(t, res.OK())
	assert.EqualError(t, res.Err, "credits exhausted")

	dir := c.FetchCinemaDirectory(context.Background(), outing.Destination{}, "")
	assert.ErrorIs(t, dir.Err, ErrNoTarget)

	shows := c.FetchShowtimeCinemas(context.Background(), normalize.Movie{Title: "Dune"}, pune, nil, "")
	assert.ErrorIs(t, shows.Err, ErrNoTarget)
}

func TestClient_FetchShowtimeCinemas(t *testing.T) {
	id := "ET00012345"
	target := "https://in.bookmyshow.com/movies/pune/dune/buytickets/ET00012345/20260222"
	fx := &fakeExtractor{answers: map[string]map[string]any{
		target: {"cinemas": []any{
			map[string]any{"name": "PVR", "showtimes": []any{"7:00 PM"}},
			map[string]any{"name": "PVR"},
		}},
	}}
	date, _ := outing.ParseEventDate("2026-02-22")

	res := NewClient(fx).FetchShowtimeCinemas(context.Background(), normalize.Movie{Title: "Dune", MovieID: &id}, pune, date, "")
	require.True(t, res.OK())
	require.Len(t, res.Value, 1)
	assert.Equal(t, "7:00 PM", *res.Value[0].Showtimes[0].Time)
	assert.Contains(t, fx.requests[0].Prompt, "Sunday, February 22, 2026")
}

func TestClient_Label(t *testing.T) {
	assert.Equal(t, "BookMyShow (fake)", NewClient(&fakeExtractor{}).Label())
	assert.Equal(t, SourceLabel, NewClient(nil).Label()+" (Firecrawl)")
}
