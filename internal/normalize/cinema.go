package normalize

// Showtime is one screening slot at a cinema.
type Showtime struct {
	Time         *string `json:"time"`
	Format       *string `json:"format"`
	Language     *string `json:"language"`
	PriceRange   *string `json:"price_range"`
	Availability *string `json:"availability"`
	BookingURL   *string `json:"booking_url"`
}

// Cinema is the canonical cinema record. Amenities and Showtimes are always
// lists, possibly empty.
type Cinema struct {
	Name               string     `json:"name"`
	Location           *string    `json:"location"`
	Address            *string    `json:"address"`
	Amenities          []string   `json:"amenities"`
	Distance           *string    `json:"distance"`
	ShowtimesAvailable *bool      `json:"showtimes_available"`
	Image              *string    `json:"image"`
	ShowDate           *string    `json:"show_date"`
	Showtimes          []Showtime `json:"showtimes"`
	BookingLink        *string    `json:"booking_link"`
}

func normalizeShowtimes(v any) []Showtime {
	out := []Showtime{}
	items, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		switch entry := item.(type) {
		case string:
			t := entry
			out = append(out, Showtime{Time: &t})
		case map[string]any:
			out = append(out, Showtime{
				Time:         firstText(entry, "time", "label"),
				Format:       firstText(entry, "format", "screen"),
				Language:     firstText(entry, "language"),
				PriceRange:   firstText(entry, "price_range", "price"),
				Availability: firstText(entry, "availability", "status"),
				BookingURL:   firstText(entry, "booking_url", "bookingUrl", "link"),
			})
		}
	}
	return out
}

// NormalizeCinema converts one raw record. ok is false when the record has
// no name.
func NormalizeCinema(rec Record) (Cinema, bool) {
	name, ok := text(rec["name"])
	if !ok {
		return Cinema{}, false
	}
	return Cinema{
		Name:               name,
		Location:           firstText(rec, "location"),
		Address:            firstText(rec, "address"),
		Amenities:          StringList(rec["amenities"]),
		Distance:           firstText(rec, "distance"),
		ShowtimesAvailable: boolField(rec, "showtimes_available", "showtimesAvailable"),
		Image:              firstText(rec, "image", "imageUrl", "image_url", "poster"),
		ShowDate:           firstText(rec, "show_date", "showDate"),
		Showtimes:          normalizeShowtimes(rec["showtimes"]),
		BookingLink:        firstText(rec, "booking_link", "bookingLink", "bookingUrl", "booking_url", "link"),
	}, true
}

// DedupeCinemas normalizes records and keeps the first record per exact
// name, in input order.
func DedupeCinemas(records []Record) []Cinema {
	seen := make(map[string]struct{}, len(records))
	out := make([]Cinema, 0, len(records))
	for _, rec := range records {
		c, ok := NormalizeCinema(rec)
		if !ok {
			continue
		}
		if _, dup := seen[c.Name]; dup {
			continue
		}
		seen[c.Name] = struct{}{}
		out = append(out, c)
	}
	return out
}

// MergeCinemaEntries reconciles showtime-derived cinemas with the city
// directory. Cinemas present in both keep showtime fields and borrow
// location, address, amenities, distance, image and booking link from the
// directory when the showtime side left them empty. Showtime order is kept;
// directory-only cinemas are appended in directory order.
func MergeCinemaEntries(showtime, directory []Cinema) []Cinema {
	byName := make(map[string]Cinema, len(directory))
	for _, c := range directory {
		if _, ok := byName[c.Name]; !ok {
			byName[c.Name] = c
		}
	}

	merged := make([]Cinema, 0, len(showtime)+len(directory))
	present := make(map[string]struct{}, len(showtime))
	for _, show := range showtime {
		present[show.Name] = struct{}{}
		dir, ok := byName[show.Name]
		if !ok {
			merged = append(merged, show)
			continue
		}
		c := show
		c.Location = orString(show.Location, dir.Location)
		c.Address = orString(show.Address, dir.Address)
		c.Distance = orString(show.Distance, dir.Distance)
		c.Image = orString(show.Image, dir.Image)
		c.BookingLink = orString(show.BookingLink, dir.BookingLink)
		c.Amenities = show.Amenities
		if len(c.Amenities) == 0 {
			c.Amenities = dir.Amenities
		}
		if c.Amenities == nil {
			c.Amenities = []string{}
		}
		merged = append(merged, c)
	}

	for _, c := range directory {
		if _, ok := present[c.Name]; ok {
			continue
		}
		present[c.Name] = struct{}{}
		merged = append(merged, c)
	}
	return merged
}

func orString(primary, fallback *string) *string {
	if primary != nil && *primary != "" {
		return primary
	}
	return fallback
}
