package bookmyshow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rahul/outing/internal/extract"
	"github.com/rahul/outing/internal/normalize"
	"github.com/rahul/outing/internal/outing"
)

// ErrNoTarget is returned when no listing URL can be built for a request.
var ErrNoTarget = errors.New("bookmyshow: no listing URL for destination")

const site = "BookMyShow"

// SourceLabel is the provenance label of answers extracted by Firecrawl.
const SourceLabel = site + " (Firecrawl)"

const defaultMovieLimit = 5

// Client extracts BookMyShow listings through an Extractor.
type Client struct {
	Extractor  extract.Extractor
	Region     *extract.Region
	MovieLimit int
}

func NewClient(extractor extract.Extractor) *Client {
	return &Client{
		Extractor:  extractor,
		MovieLimit: defaultMovieLimit,
	}
}

// Label is the provenance label for the configured extraction backend.
func (c *Client) Label() string {
	return extract.SourceLabel(site, c.Extractor)
}

func (c *Client) movieLimit() int {
	if c.MovieLimit <= 0 {
		return defaultMovieLimit
	}
	return c.MovieLimit
}

func placeLabel(dest outing.Destination) string {
	if label := dest.Label(); label != "" {
		return label
	}
	return "the selected destination"
}

func requestContext(prompt string) string {
	if strings.TrimSpace(prompt) == "" {
		prompt = "movie suggestions"
	}
	return fmt.Sprintf("User request context: %s.", prompt)
}

// FetchMovies extracts the deduplicated, capped "now showing" listing.
func (c *Client) FetchMovies(ctx context.Context, dest outing.Destination, prompt string) extract.Result[[]normalize.Movie] {
	target := MoviesURL(dest.City)
	if target == "" {
		return extract.Fail[[]normalize.Movie]("", ErrNoTarget)
	}

	answer, err := c.Extractor.Extract(ctx, extract.Request{
		URL:    target,
		Schema: MoviesSchema(c.movieLimit()),
		Prompt: strings.Join([]string{
			fmt.Sprintf("Use %s to extract every active movie listing for %s.", target, placeLabel(dest)),
			"Ignore ads/promoted tiles. For each movie capture title, languages, formats, genres, certificate, runtime, release date, poster URL, booking link, and any ID embedded in the URL. Deduplicate movies and return null for missing fields.",
			requestContext(prompt),
		}, " "),
		Region: c.Region,
	})
	if err != nil {
		return extract.Fail[[]normalize.Movie](target, err)
	}

	movies := normalize.DedupeMovies(normalize.Records(answer["movies"]))
	if len(movies) > c.movieLimit() {
		movies = movies[:c.movieLimit()]
	}
	return extract.Succeed(target, movies)
}

// FetchCinemaDirectory extracts every cinema listed for the city.
func (c *Client) FetchCinemaDirectory(ctx context.Context, dest outing.Destination, prompt string) extract.Result[[]normalize.Cinema] {
	target := DirectoryURL(dest.City)
	if target == "" {
		return extract.Fail[[]normalize.Cinema]("", ErrNoTarget)
	}

	answer, err := c.Extractor.Extract(ctx, extract.Request{
		URL:    target,
		Schema: DirectorySchema(),
		Prompt: strings.Join([]string{
			fmt.Sprintf("Use %s to list every cinema/theatre for %s.", target, placeLabel(dest)),
			"Capture locality, address, amenities, distance, poster/image URL, and booking link. Deduplicate by cinema name and return null when a field is missing.",
			requestContext(prompt),
		}, " "),
		Region: c.Region,
	})
	if err != nil {
		return extract.Fail[[]normalize.Cinema](target, err)
	}
	return extract.Succeed(target, normalize.DedupeCinemas(normalize.Records(answer["cinemas"])))
}

// ShowtimeTargetFor resolves the ticketing page of movie. The movie's own
// booking link supplies city, movie slug and event id when it has the
// ticketing shape; the requested date, when given, overrides the link's.
func ShowtimeTargetFor(movie normalize.Movie, dest outing.Destination, date *outing.EventDate) ShowtimeTarget {
	target := ShowtimeTarget{
		CitySlug:  SlugifyCity(dest.City),
		MovieSlug: SlugifyCity(movie.Title),
	}
	if movie.BookingLink != nil {
		if meta := ParseShowtimeMetadata(*movie.BookingLink); meta != nil {
			target.CitySlug = meta.CitySlug
			target.MovieSlug = meta.MovieSlug
			target.EventID = meta.EventID
			target.DateSegment = meta.DateSegment
		}
	}
	if target.EventID == "" && movie.MovieID != nil {
		target.EventID = *movie.MovieID
	}
	if seg := date.Segment(); seg != "" {
		target.DateSegment = seg
	}
	return target
}

// FetchShowtimeCinemas extracts the cinemas screening movie on date.
func (c *Client) FetchShowtimeCinemas(ctx context.Context, movie normalize.Movie, dest outing.Destination, date *outing.EventDate, prompt string) extract.Result[[]normalize.Cinema] {
	if SlugifyCity(dest.City) == "" {
		return extract.Fail[[]normalize.Cinema]("", ErrNoTarget)
	}
	target := ShowtimeURL(ShowtimeTargetFor(movie, dest, date))
	if target == "" {
		return extract.Fail[[]normalize.Cinema]("", ErrNoTarget)
	}

	dateLabel := date.Label()
	if dateLabel == "" {
		dateLabel = "today"
	}

	answer, err := c.Extractor.Extract(ctx, extract.Request{
		URL:    target,
		Schema: ShowtimeSchema(),
		Prompt: strings.Join([]string{
			fmt.Sprintf("Use %s to extract every cinema showing the selected movie on %s.", target, dateLabel),
			"For each cinema capture locality, address, show date, and every showtime with time, format, language, price range, availability badge, and booking URL. Deduplicate entries and return null when data is missing.",
			requestContext(prompt),
		}, " "),
		Region: c.Region,
	})
	if err != nil {
		return extract.Fail[[]normalize.Cinema](target, err)
	}
	return extract.Succeed(target, normalize.DedupeCinemas(normalize.Records(answer["cinemas"])))
}
