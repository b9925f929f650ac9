// Package outing holds the request-scoped entities shared by the planner,
// the aggregator and the domain agents.
package outing

import (
	"encoding/json"
	"strings"
	"time"
)

// Destination is the resolved country/state/city triple anchoring every
// downstream query.
type Destination struct {
	Country string `json:"country"`
	State   string `json:"state"`
	City    string `json:"city"`
}

// NewDestination trims the three parts. It returns nil when all parts are
// empty so callers can treat it as "no override".
func NewDestination(country, state, city string) *Destination {
	d := Destination{
		Country: strings.TrimSpace(country),
		State:   strings.TrimSpace(state),
		City:    strings.TrimSpace(city),
	}
	if d.Country == "" && d.State == "" && d.City == "" {
		return nil
	}
	return &d
}

// Complete reports whether all three parts are present.
func (d Destination) Complete() bool {
	return strings.TrimSpace(d.Country) != "" &&
		strings.TrimSpace(d.State) != "" &&
		strings.TrimSpace(d.City) != ""
}

// Validate returns a validation error for a partial destination.
func (d Destination) Validate() error {
	if !d.Complete() {
		return NewValidationError("Location is incomplete. Ensure country, state, and city are provided.")
	}
	return nil
}

// Label renders "City, State, Country", skipping empty parts.
func (d Destination) Label() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{d.City, d.State, d.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

const (
	isoDate     = "2006-01-02"
	labelLayout = "Monday, January 2, 2006"
)

// EventDate is a calendar date. A nil *EventDate means the caller accepts
// the next available date.
type EventDate struct {
	t time.Time
}

// ParseEventDate accepts an ISO date or an RFC 3339 timestamp. An empty
// string yields nil without error.
func ParseEventDate(value string) (*EventDate, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(isoDate, value); err == nil {
		return &EventDate{t: t}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		y, m, d := t.Date()
		return &EventDate{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}, nil
	}
	return nil, NewValidationError("Invalid date format. Provide an ISO 8601 string (e.g. 2026-02-22).")
}

// DateOf builds an EventDate from a time, dropping the clock part.
func DateOf(t time.Time) *EventDate {
	y, m, d := t.Date()
	return &EventDate{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Time returns the date at midnight UTC.
func (e *EventDate) Time() time.Time { return e.t }

// ISO returns the YYYY-MM-DD form, or "" for a nil date.
func (e *EventDate) ISO() string {
	if e == nil {
		return ""
	}
	return e.t.Format(isoDate)
}

// Label returns the human-readable form, e.g. "Sunday, February 22, 2026".
func (e *EventDate) Label() string {
	if e == nil {
		return ""
	}
	return e.t.Format(labelLayout)
}

// Segment returns the compact 8-digit YYYYMMDD form used in showtime URLs.
func (e *EventDate) Segment() string {
	if e == nil {
		return ""
	}
	return e.t.Format("20060102")
}

func (e *EventDate) MarshalJSON() ([]byte, error) {
	if e == nil {
		return []byte("null"), nil
	}
	return json.Marshal(e.ISO())
}

func (e *EventDate) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseEventDate(s)
	if err != nil {
		return err
	}
	if parsed != nil {
		*e = *parsed
	}
	return nil
}

// Subtask names one requested information domain.
type Subtask string

const (
	SubtaskMovie      Subtask = "movie"
	SubtaskRestaurant Subtask = "restaurant"
	SubtaskWeather    Subtask = "weather"
	SubtaskWebSearch  Subtask = "web_search"
)

// Subtasks is the fixed enumeration, in planner schema order.
var Subtasks = []Subtask{SubtaskMovie, SubtaskRestaurant, SubtaskWeather, SubtaskWebSearch}

// Known reports whether s belongs to the enumeration.
func (s Subtask) Known() bool {
	for _, k := range Subtasks {
		if s == k {
			return true
		}
	}
	return false
}

// SubtaskNames returns the enumeration as plain strings.
func SubtaskNames() []string {
	out := make([]string, len(Subtasks))
	for i, s := range Subtasks {
		out[i] = string(s)
	}
	return out
}
