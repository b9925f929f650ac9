package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// asRecords round-trips canonical records through JSON so they can be fed
// back into the normalizers.
func asRecords(t *testing.T, v any) []Record {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	var raw []any
	require.NoError(t, json.Unmarshal(b, &raw))
	return Records(raw)
}

func decode(t *testing.T, s string) []Record {
	t.Helper()
	var raw []any
	require.NoError(t, json.Unmarshal([]byte(s), &raw))
	return Records(raw)
}

func TestStringList(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []string
	}{
		{"list", []any{" Hindi ", "", 3, "English"}, []string{"Hindi", "English"}},
		{"comma string", "2D, IMAX 3D,", []string{"2D", "IMAX 3D"}},
		{"pipe string", "Action|Drama | ", []string{"Action", "Drama"}},
		{"blank string", "   ", []string{}},
		{"number", 42.0, []string{}},
		{"nil", nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StringList(tt.in))
		})
	}
}

func TestMovieIDFromURL(t *testing.T) {
	id := MovieIDFromURL("https://in.bookmyshow.com/movies/pune/dune/ET1234567")
	require.NotNil(t, id)
	assert.Equal(t, "ET1234567", *id)

	id = MovieIDFromURL("https://in.bookmyshow.com/movies/pune/dune/et00012345/20260222")
	require.NotNil(t, id)
	assert.Equal(t, "ET00012345", *id)

	assert.Nil(t, MovieIDFromURL("https://in.bookmyshow.com/movies/pune/dune/ET123"))
	assert.Nil(t, MovieIDFromURL(""))
}

func TestNormalizeMovie(t *testing.T) {
	recs := decode(t, `[{
		"title": "Dune: Part Two",
		"language": "English, Hindi",
		"format": "2D|IMAX",
		"genre": "Action, Sci-Fi",
		"duration": 166,
		"poster": "https://img/dune.jpg",
		"bookingLink": "https://in.bookmyshow.com/movies/pune/dune/ET00356724"
	}]`)
	m, ok := NormalizeMovie(recs[0])
	require.True(t, ok)

	assert.Equal(t, "Dune: Part Two", m.Title)
	assert.Equal(t, "English", *m.Language)
	assert.Equal(t, []string{"English", "Hindi"}, m.Languages)
	assert.Equal(t, "2D", *m.Format)
	assert.Equal(t, []string{"Action", "Sci-Fi"}, m.Genre)
	assert.Equal(t, "166", *m.Duration)
	assert.Equal(t, "https://img/dune.jpg", *m.PosterURL)
	assert.Equal(t, "ET00356724", *m.MovieID)
	assert.Nil(t, m.Certificate)
	assert.Nil(t, m.ReleaseDate)
}

func TestNormalizeMovie_NullsEveryMissingField(t *testing.T) {
	m, ok := NormalizeMovie(Record{"title": "Heist"})
	require.True(t, ok)

	b, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"title": "Heist", "language": null, "languages": null, "format": null, "formats": null,
		"genre": null, "certificate": null, "duration": null, "release_date": null,
		"poster_url": null, "booking_link": null, "movie_id": null
	}`, string(b))
}

func TestDedupeMovies(t *testing.T) {
	recs := decode(t, `[
		{"title": "Dune", "language": "English", "certificate": "UA"},
		{"language": "English"},
		{"title": "DUNE", "language": "English", "certificate": "A"},
		{"title": "Dune", "language": "Hindi"}
	]`)
	movies := DedupeMovies(recs)

	require.Len(t, movies, 2)
	assert.Equal(t, "Dune", movies[0].Title)
	assert.Equal(t, "UA", *movies[0].Certificate)
	assert.Equal(t, "Hindi", *movies[1].Language)
}

func TestDedupeMovies_Idempotent(t *testing.T) {
	recs := decode(t, `[
		{"title": "Dune", "languages": ["English", "Hindi"], "formats": "2D", "booking_link": "https://x/ET00011111"},
		{"title": "Kalki", "language": "Telugu", "movie_id": "ET00022222", "release_date": "2024-06-27"},
		{"title": "Heist"}
	]`)
	first := DedupeMovies(recs)
	second := DedupeMovies(asRecords(t, first))
	assert.Equal(t, first, second)
}

func TestNormalizeCinema(t *testing.T) {
	recs := decode(t, `[{
		"name": "PVR Phoenix",
		"amenities": "Parking | Food Court",
		"imageUrl": "https://img/pvr.jpg",
		"bookingUrl": "https://book/pvr",
		"showtimes_available": true,
		"showtimes": ["10:00 AM", {"label": "1:15 PM", "screen": "IMAX", "price": "₹350", "status": "Fast Filling", "link": "https://book/pvr/1315"}, 7]
	}]`)
	c, ok := NormalizeCinema(recs[0])
	require.True(t, ok)

	assert.Equal(t, []string{"Parking", "Food Court"}, c.Amenities)
	assert.Equal(t, "https://img/pvr.jpg", *c.Image)
	assert.Equal(t, "https://book/pvr", *c.BookingLink)
	require.NotNil(t, c.ShowtimesAvailable)
	assert.True(t, *c.ShowtimesAvailable)
	require.Len(t, c.Showtimes, 2)
	assert.Equal(t, "10:00 AM", *c.Showtimes[0].Time)
	assert.Nil(t, c.Showtimes[0].Format)
	assert.Equal(t, "IMAX", *c.Showtimes[1].Format)
	assert.Equal(t, "₹350", *c.Showtimes[1].PriceRange)
	assert.Equal(t, "Fast Filling", *c.Showtimes[1].Availability)
	assert.Equal(t, "https://book/pvr/1315", *c.Showtimes[1].BookingURL)
}

func TestDedupeCinemas(t *testing.T) {
	recs := decode(t, `[
		{"name": "Cineplex", "address": "MG Road"},
		{"address": "no name"},
		{"name": "Cineplex", "address": "Elsewhere"},
		{"name": "cineplex"}
	]`)
	cinemas := DedupeCinemas(recs)

	require.Len(t, cinemas, 2)
	assert.Equal(t, "MG Road", *cinemas[0].Address)
	assert.Equal(t, "cineplex", cinemas[1].Name)
	assert.Equal(t, []string{}, cinemas[1].Amenities)
	assert.Equal(t, []Showtime{}, cinemas[1].Showtimes)

	assert.Equal(t, cinemas, DedupeCinemas(asRecords(t, cinemas)))
}

func TestMergeCinemaEntries_FillsFromDirectory(t *testing.T) {
	directory := DedupeCinemas([]Record{{"name": "Cineplex", "amenities": []any{"AC"}, "address": "MG Road", "bookingUrl": "https://dir/cineplex"}})
	showtime := DedupeCinemas([]Record{{"name": "Cineplex", "amenities": []any{}, "showtimes": []any{"9:00 PM"}}})

	merged := MergeCinemaEntries(showtime, directory)

	require.Len(t, merged, 1)
	assert.Equal(t, []string{"AC"}, merged[0].Amenities)
	assert.Equal(t, "MG Road", *merged[0].Address)
	assert.Equal(t, "https://dir/cineplex", *merged[0].BookingLink)
	assert.Equal(t, "9:00 PM", *merged[0].Showtimes[0].Time)
}

func TestMergeCinemaEntries_ShowtimeWinsAndOrder(t *testing.T) {
	directory := DedupeCinemas([]Record{
		{"name": "Directory Only", "address": "Ring Road"},
		{"name": "B", "address": "Dir B", "distance": "2 km"},
		{"name": "A", "address": "Dir A"},
	})
	showtime := DedupeCinemas([]Record{
		{"name": "A", "address": "Show A"},
		{"name": "Show Only"},
		{"name": "B"},
	})

	merged := MergeCinemaEntries(showtime, directory)

	names := make([]string, len(merged))
	for i, c := range merged {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"A", "Show Only", "B", "Directory Only"}, names)
	assert.Equal(t, "Show A", *merged[0].Address)
	assert.Equal(t, "Dir B", *merged[2].Address)
	assert.Equal(t, "2 km", *merged[2].Distance)
	assert.Nil(t, merged[1].Address)
}

func TestMergeCinemaEntries_Empty(t *testing.T) {
	assert.Empty(t, MergeCinemaEntries(nil, nil))
	dir := DedupeCinemas([]Record{{"name": "X"}})
	assert.Equal(t, dir, MergeCinemaEntries(nil, dir))
}

func TestNormalizeRestaurant(t *testing.T) {
	recs := decode(t, `[{
		"name": "Spice Route",
		"cuisine": "North Indian, Chinese",
		"veg_nonveg": "Veg & Non-Veg",
		"address": "Bistupur",
		"rating": "4.3/5",
		"cost_for_two": "₹1,200 for two",
		"hours": "12 PM - 11 PM",
		"phone": "+91 99999 00000",
		"amenities": ["AC", "Live Music"],
		"menu": [
			{"name": "Starters", "items": ["Paneer Tikka", {"name": "Chicken 65", "price": 320, "vegFlag": "Non-Veg"}, {"price": "10"}]},
			{"items": []},
			{"category_name": "Desserts"}
		],
		"image": "https://img/spice.jpg",
		"url": "https://www.zomato.com/jamshedpur/spice-route"
	}]`)
	r, ok := NormalizeRestaurant(recs[0])
	require.True(t, ok)

	assert.Equal(t, []string{"North Indian", "Chinese"}, r.Cuisines)
	assert.Equal(t, VegNonVeg, r.VegStatus)
	assert.Nil(t, r.IsPureVeg)
	require.NotNil(t, r.Rating)
	assert.InDelta(t, 4.3, *r.Rating, 0.0001)
	assert.Equal(t, "₹1,200 for two", *r.PriceRange)
	assert.Equal(t, "12 PM - 11 PM", *r.OpeningHours)
	assert.Equal(t, "+91 99999 00000", *r.ContactNumber)
	assert.Equal(t, "https://img/spice.jpg", *r.ImageURL)
	assert.Equal(t, "https://www.zomato.com/jamshedpur/spice-route", *r.SourceURL)
	assert.Nil(t, r.ReservationLink)

	require.Len(t, r.Menu, 2)
	assert.Equal(t, "Starters", *r.Menu[0].CategoryName)
	require.Len(t, r.Menu[0].Items, 2)
	assert.Equal(t, MenuItem{ItemName: "Paneer Tikka", VegFlag: "Unknown"}, r.Menu[0].Items[0])
	assert.Equal(t, "320", *r.Menu[0].Items[1].Price)
	assert.Equal(t, "Non-Veg", r.Menu[0].Items[1].VegFlag)
	assert.Equal(t, "Desserts", *r.Menu[1].CategoryName)
	assert.Nil(t, r.Menu[1].Items)
}

func TestNormalizeRestaurant_VegStatus(t *testing.T) {
	r, _ := NormalizeRestaurant(Record{"name": "Sattvik", "veg_nonveg": "Non-Veg", "is_pure_veg": true})
	assert.Equal(t, PureVeg, r.VegStatus)

	r, _ = NormalizeRestaurant(Record{"name": "Dhaba", "veg_nonveg": "mostly veg"})
	assert.Equal(t, VegUnknown, r.VegStatus)

	r, _ = NormalizeRestaurant(Record{"name": "Grill", "rating": 0.0})
	assert.Nil(t, r.Rating)
}

func TestDedupeRestaurants(t *testing.T) {
	recs := decode(t, `[
		{"name": "Spice Route", "address": "Bistupur", "rating": 4.1},
		{"name": "spice route", "address": "Bistupur", "rating": 3.0},
		{"name": "Spice Route", "address": "Sakchi"},
		{"cuisine": "Chinese"}
	]`)
	restaurants := DedupeRestaurants(recs)

	require.Len(t, restaurants, 2)
	assert.InDelta(t, 4.1, *restaurants[0].Rating, 0.0001)
	assert.Equal(t, "Sakchi", *restaurants[1].Address)
}

func TestDedupeRestaurants_Idempotent(t *testing.T) {
	recs := decode(t, `[
		{"name": "Spice Route", "cuisine": "Chinese|Thai", "is_pure_veg": false, "veg_nonveg": "Non-Veg", "source_url": "https://z/spice",
		 "menu": [{"category_name": "Mains", "items": [{"item_name": "Pad Thai", "price": "₹300"}]}]},
		{"name": "Sattvik", "is_pure_veg": true, "rating": 4.6}
	]`)
	first := DedupeRestaurants(recs)
	second := DedupeRestaurants(asRecords(t, first))
	assert.Equal(t, first, second)
}

func TestRecords(t *testing.T) {
	assert.Nil(t, Records("not a list"))
	assert.Len(t, Records([]any{map[string]any{"a": 1}, "x", nil}), 1)
}
