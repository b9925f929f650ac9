package normalize

import (
	"regexp"
	"strings"
)

// Movie is the canonical movie record. Unknown fields are null.
type Movie struct {
	Title       string   `json:"title"`
	Language    *string  `json:"language"`
	Languages   []string `json:"languages"`
	Format      *string  `json:"format"`
	Formats     []string `json:"formats"`
	Genre       []string `json:"genre"`
	Certificate *string  `json:"certificate"`
	Duration    *string  `json:"duration"`
	ReleaseDate *string  `json:"release_date"`
	PosterURL   *string  `json:"poster_url"`
	BookingLink *string  `json:"booking_link"`
	MovieID     *string  `json:"movie_id"`
}

// Key is the deduplication identity: lowercase title plus primary language.
func (m Movie) Key() string {
	lang := "all"
	if m.Language != nil {
		lang = *m.Language
	}
	return strings.ToLower(m.Title) + "-" + lang
}

var eventCode = regexp.MustCompile(`(?i)(ET\d{5,})`)

// MovieIDFromURL extracts the ticketing event code embedded in a booking
// link, e.g. ".../ET00123456". It returns nil when there is none.
func MovieIDFromURL(link string) *string {
	m := eventCode.FindStringSubmatch(link)
	if m == nil {
		return nil
	}
	id := strings.ToUpper(m[1])
	return &id
}

// NormalizeMovie converts one raw record. ok is false when the record has
// no title.
func NormalizeMovie(rec Record) (Movie, bool) {
	title, ok := text(rec["title"])
	if !ok {
		return Movie{}, false
	}

	languages := StringList(firstValue(rec, "languages", "language"))
	formats := StringList(firstValue(rec, "formats", "format"))
	genres := StringList(rec["genre"])
	booking := firstText(rec, "booking_link", "bookingLink", "url")

	m := Movie{
		Title:       title,
		Languages:   nonEmpty(languages),
		Formats:     nonEmpty(formats),
		Genre:       nonEmpty(genres),
		Certificate: firstText(rec, "certificate"),
		Duration:    firstText(rec, "duration"),
		ReleaseDate: firstText(rec, "release_date", "releaseDate"),
		PosterURL:   firstText(rec, "poster_url", "posterUrl", "poster", "image"),
		BookingLink: booking,
		MovieID:     firstText(rec, "movie_id", "movieId"),
	}
	if len(languages) > 0 {
		m.Language = &languages[0]
	} else {
		m.Language = firstText(rec, "language")
	}
	if len(formats) > 0 {
		m.Format = &formats[0]
	} else {
		m.Format = firstText(rec, "format")
	}
	if m.MovieID == nil && booking != nil {
		m.MovieID = MovieIDFromURL(*booking)
	}
	return m, true
}

// DedupeMovies normalizes records and keeps the first record per key, in
// input order.
func DedupeMovies(records []Record) []Movie {
	seen := make(map[string]struct{}, len(records))
	out := make([]Movie, 0, len(records))
	for _, rec := range records {
		m, ok := NormalizeMovie(rec)
		if !ok {
			continue
		}
		if _, dup := seen[m.Key()]; dup {
			continue
		}
		seen[m.Key()] = struct{}{}
		out = append(out, m)
	}
	return out
}
