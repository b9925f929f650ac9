// Package zomato extracts restaurant listings from Zomato city pages.
package zomato

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rahul/outing/internal/extract"
	"github.com/rahul/outing/internal/normalize"
	"github.com/rahul/outing/internal/outing"
)

const site = "Zomato"

// SourceLabel is the provenance label of answers extracted by Firecrawl.
const SourceLabel = site + " (Firecrawl)"

// ErrNoTarget is returned when the destination has no usable city.
var ErrNoTarget = errors.New("zomato: no listing URL for destination")

const defaultLimit = 5

var slugOverrides = map[string]string{
	"bengaluru": "bangalore",
	"bangalore": "bangalore",
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// SlugifyCity returns Zomato's slug for a city.
func SlugifyCity(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if slug, ok := slugOverrides[normalized]; ok {
		return slug
	}
	return strings.Trim(nonAlnum.ReplaceAllString(normalized, "-"), "-")
}

// ListingURL is the restaurant listing for a city, or "".
func ListingURL(city string) string {
	slug := SlugifyCity(city)
	if slug == "" {
		return ""
	}
	return "https://www.zomato.com/" + slug
}

// Client extracts Zomato listings through an Extractor.
type Client struct {
	Extractor extract.Extractor
	Region    *extract.Region
	Limit     int
}

func NewClient(extractor extract.Extractor) *Client {
	return &Client{Extractor: extractor, Limit: defaultLimit}
}

// Label is the provenance label for the configured extraction backend.
func (c *Client) Label() string {
	return extract.SourceLabel(site, c.Extractor)
}

func (c *Client) limit() int {
	if c.Limit <= 0 {
		return defaultLimit
	}
	return c.Limit
}

// FetchRestaurants extracts the deduplicated, capped restaurant listing.
func (c *Client) FetchRestaurants(ctx context.Context, dest outing.Destination, prompt string) extract.Result[[]normalize.Restaurant] {
	target := ListingURL(dest.City)
	if target == "" {
		return extract.Fail[[]normalize.Restaurant]("", ErrNoTarget)
	}

	place := dest.Label()
	if place == "" {
		place = "the selected destination"
	}
	if strings.TrimSpace(prompt) == "" {
		prompt = "restaurant hunt"
	}

	answer, err := c.Extractor.Extract(ctx, extract.Request{
		URL:    target,
		Schema: ListingSchema(c.limit()),
		Prompt: strings.Join([]string{
			fmt.Sprintf("Extract every legitimate restaurant in %s from %s.", place, target),
			"Return data strictly as valid JSON. Include only true dining venues (skip closed listings, ads, and non-food establishments).",
			"For each restaurant capture the name, cuisines, veg/non-veg status, pure veg flag, full address, rating, cost for two or price range, opening hours, contact number, amenities (AC, Outdoor Seating, Live Music, etc.), detailed menu categories with items, hero image URL, reservation/official link, and the exact source URL for the listing.",
			"Menu items must include name, description if visible, indicative price, and veg flag (Veg, Non-Veg, or Unknown). Deduplicate restaurants and set null for unknown fields.",
			fmt.Sprintf("User context: %s.", prompt),
		}, " "),
		Region: c.Region,
	})
	if err != nil {
		return extract.Fail[[]normalize.Restaurant](target, err)
	}

	restaurants := normalize.DedupeRestaurants(normalize.Records(answer["restaurants"]))
	if len(restaurants) > c.limit() {
		restaurants = restaurants[:c.limit()]
	}
	return extract.Succeed(target, restaurants)
}
