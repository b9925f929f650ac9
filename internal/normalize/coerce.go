// Package normalize turns loosely-typed extracted records into canonical
// movie, cinema and restaurant records and reconciles overlapping ones.
//
// All functions are pure: they never mutate their inputs.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

// Record is one raw extracted object as decoded from JSON.
type Record = map[string]any

var listSeparator = regexp.MustCompile(`[,|]`)

// StringList coerces a field expected to hold a list of strings. A real list
// keeps its non-empty trimmed strings; a single string is split on comma or
// pipe. Any other shape yields an empty list.
func StringList(v any) []string {
	out := []string{}
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case []string:
		for _, s := range val {
			if strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case string:
		for _, part := range listSeparator.Split(val, -1) {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// text renders scalar values as strings. Empty strings, false booleans and
// nil count as absent.
func text(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		return s, s != ""
	case float64:
		if val == 0 {
			return "", false
		}
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		if val == 0 {
			return "", false
		}
		return strconv.Itoa(val), true
	}
	return "", false
}

// firstText returns the first present value among keys, or nil.
func firstText(rec Record, keys ...string) *string {
	for _, k := range keys {
		if s, ok := text(rec[k]); ok {
			return &s
		}
	}
	return nil
}

// firstValue returns the first key whose value is not nil.
func firstValue(rec Record, keys ...string) any {
	for _, k := range keys {
		if v, ok := rec[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func boolField(rec Record, keys ...string) *bool {
	for _, k := range keys {
		if b, ok := rec[k].(bool); ok {
			return &b
		}
	}
	return nil
}

// Records filters a decoded JSON value down to its object entries.
func Records(v any) []Record {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]Record, 0, len(items))
	for _, item := range items {
		if rec, ok := item.(map[string]any); ok {
			out = append(out, rec)
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nonEmpty(list []string) []string {
	if len(list) == 0 {
		return nil
	}
	return list
}
