// Package bookmyshow builds BookMyShow listing URLs and extracts movie,
// cinema directory and showtime records from them.
package bookmyshow

import (
	"net/url"
	"regexp"
	"slices"
	"strings"
)

const baseURL = "https://in.bookmyshow.com"

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// SlugifyCity lowercases value and collapses non-alphanumeric runs into a
// single dash. It returns "" when nothing is left.
func SlugifyCity(value string) string {
	slug := nonAlnum.ReplaceAllString(strings.ToLower(value), "-")
	return strings.Trim(slug, "-")
}

// MoviesURL is the "now showing" listing for a city.
func MoviesURL(city string) string {
	slug := SlugifyCity(city)
	if slug == "" {
		return ""
	}
	return baseURL + "/explore/movies-" + slug + "?cat=MT"
}

// DirectoryURL is the cinema directory for a city.
func DirectoryURL(city string) string {
	slug := SlugifyCity(city)
	if slug == "" {
		return ""
	}
	return baseURL + "/" + slug + "/cinemas"
}

// ShowtimeTarget identifies one movie's ticketing page.
type ShowtimeTarget struct {
	CitySlug    string
	MovieSlug   string
	EventID     string
	DateSegment string
}

// ShowtimeURL builds the ticketing page URL, or "" when the city, movie or
// event id is missing.
func ShowtimeURL(t ShowtimeTarget) string {
	if t.CitySlug == "" || t.MovieSlug == "" || t.EventID == "" {
		return ""
	}
	u := baseURL + "/movies/" + t.CitySlug + "/" + t.MovieSlug + "/buytickets/" + t.EventID
	if t.DateSegment != "" {
		u += "/" + t.DateSegment
	}
	return u
}

// ParseShowtimeMetadata reads the ticketing coordinates out of a booking
// link shaped like /movies/<city>/<movie>/buytickets/<ET id>[/<yyyymmdd>].
// It returns nil when the link does not have that shape. EventID is empty
// when the id segment is not an ET code.
func ParseShowtimeMetadata(bookingLink string) *ShowtimeTarget {
	if bookingLink == "" {
		return nil
	}
	u, err := url.Parse(bookingLink)
	if err != nil {
		return nil
	}

	segments := slices.DeleteFunc(strings.Split(u.Path, "/"), func(s string) bool { return s == "" })
	idx := slices.Index(segments, "movies")
	if idx == -1 || len(segments) < idx+5 {
		return nil
	}

	t := &ShowtimeTarget{
		CitySlug:  segments[idx+1],
		MovieSlug: segments[idx+2],
	}
	if eventID := segments[idx+4]; strings.HasPrefix(eventID, "ET") {
		t.EventID = eventID
	}
	if len(segments) > idx+5 {
		t.DateSegment = segments[idx+5]
	}
	return t
}
