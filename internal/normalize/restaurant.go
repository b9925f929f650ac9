package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// VegStatus is the dietary classification of a restaurant.
type VegStatus string

const (
	PureVeg    VegStatus = "Pure Veg"
	VegNonVeg  VegStatus = "Veg & Non-Veg"
	NonVeg     VegStatus = "Non-Veg"
	VegUnknown VegStatus = "Unknown"
)

var vegStatuses = map[string]VegStatus{
	string(PureVeg):    PureVeg,
	string(VegNonVeg):  VegNonVeg,
	string(NonVeg):     NonVeg,
	string(VegUnknown): VegUnknown,
}

// MenuItem is one dish on a menu.
type MenuItem struct {
	ItemName    string  `json:"item_name"`
	Description *string `json:"description"`
	Price       *string `json:"price"`
	VegFlag     string  `json:"veg_flag"`
}

// MenuCategory groups menu items.
type MenuCategory struct {
	CategoryName *string    `json:"category_name"`
	Items        []MenuItem `json:"items"`
}

// Restaurant is the canonical restaurant record. Unknown fields are null.
type Restaurant struct {
	Name            string         `json:"name"`
	Cuisines        []string       `json:"cuisines"`
	VegStatus       VegStatus      `json:"veg_status"`
	IsPureVeg       *bool          `json:"is_pure_veg"`
	Address         *string        `json:"address"`
	Rating          *float64       `json:"rating"`
	PriceRange      *string        `json:"price_range"`
	OpeningHours    *string        `json:"opening_hours"`
	ContactNumber   *string        `json:"contact_number"`
	Amenities       []string       `json:"amenities"`
	Menu            []MenuCategory `json:"menu"`
	ImageURL        *string        `json:"image_url"`
	ReservationLink *string        `json:"reservation_link"`
	SourceURL       *string        `json:"source_url"`
}

// Key is the deduplication identity: lowercase name plus address.
func (r Restaurant) Key() string {
	return strings.ToLower(r.Name) + "-" + deref(r.Address)
}

func deriveVegStatus(v any, isPureVeg *bool) VegStatus {
	if isPureVeg != nil && *isPureVeg {
		return PureVeg
	}
	if s, ok := v.(string); ok {
		if status, known := vegStatuses[s]; known {
			return status
		}
	}
	return VegUnknown
}

var leadingNumber = regexp.MustCompile(`\d+(\.\d+)?`)

// rating accepts numbers and numeric strings such as "4.3" or "4.3/5".
// Zero and unparsable values are unknown.
func rating(v any) *float64 {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case int:
		f = float64(val)
	case string:
		m := leadingNumber.FindString(val)
		if m == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func normalizeMenuItems(v any) []MenuItem {
	items, _ := v.([]any)
	out := make([]MenuItem, 0, len(items))
	for _, item := range items {
		switch entry := item.(type) {
		case string:
			if strings.TrimSpace(entry) == "" {
				continue
			}
			out = append(out, MenuItem{ItemName: strings.TrimSpace(entry), VegFlag: string(VegUnknown)})
		case map[string]any:
			name := firstText(entry, "item_name", "name")
			if name == nil {
				continue
			}
			flag := firstText(entry, "veg_flag", "vegFlag")
			out = append(out, MenuItem{
				ItemName:    *name,
				Description: firstText(entry, "description", "details"),
				Price:       firstText(entry, "price"),
				VegFlag:     derefOr(flag, string(VegUnknown)),
			})
		}
	}
	return out
}

func normalizeMenu(v any) []MenuCategory {
	var out []MenuCategory
	for _, rec := range Records(v) {
		name := firstText(rec, "category_name", "name")
		items := normalizeMenuItems(rec["items"])
		if name == nil && len(items) == 0 {
			continue
		}
		cat := MenuCategory{CategoryName: name}
		if len(items) > 0 {
			cat.Items = items
		}
		out = append(out, cat)
	}
	return out
}

// NormalizeRestaurant converts one raw record. ok is false when the record
// has no name.
func NormalizeRestaurant(rec Record) (Restaurant, bool) {
	name, ok := text(rec["name"])
	if !ok {
		return Restaurant{}, false
	}
	isPureVeg := boolField(rec, "is_pure_veg", "isPureVeg")
	return Restaurant{
		Name:            name,
		Cuisines:        nonEmpty(StringList(firstValue(rec, "cuisines", "cuisine"))),
		VegStatus:       deriveVegStatus(firstValue(rec, "veg_status", "veg_nonveg", "vegStatus"), isPureVeg),
		IsPureVeg:       isPureVeg,
		Address:         firstText(rec, "address"),
		Rating:          rating(rec["rating"]),
		PriceRange:      firstText(rec, "price_range", "cost_for_two"),
		OpeningHours:    firstText(rec, "opening_hours", "hours"),
		ContactNumber:   firstText(rec, "contact_number", "phone"),
		Amenities:       nonEmpty(StringList(rec["amenities"])),
		Menu:            normalizeMenu(rec["menu"]),
		ImageURL:        firstText(rec, "image_url", "image"),
		ReservationLink: firstText(rec, "reservation_link", "booking_link", "source_url"),
		SourceURL:       firstText(rec, "source_url", "url"),
	}, true
}

// DedupeRestaurants normalizes records and keeps the first record per key,
// in input order.
func DedupeRestaurants(records []Record) []Restaurant {
	seen := make(map[string]struct{}, len(records))
	out := make([]Restaurant, 0, len(records))
	for _, rec := range records {
		r, ok := NormalizeRestaurant(rec)
		if !ok {
			continue
		}
		if _, dup := seen[r.Key()]; dup {
			continue
		}
		seen[r.Key()] = struct{}{}
		out = append(out, r)
	}
	return out
}

func derefOr(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}
