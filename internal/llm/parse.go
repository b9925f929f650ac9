package llm

import (
	"encoding/json"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Parse decodes completion text into an Answer. Markdown code fences are
// stripped first. Text that is not a JSON object degrades to a raw answer.
// When schema is non-nil, schema violations are reported but do not reject
// the answer.
func Parse(text string, schema map[string]any) Answer {
	raw := strings.TrimSpace(text)
	answer := Answer{Raw: raw}

	var obj map[string]any
	if err := json.Unmarshal([]byte(stripFences(raw)), &obj); err != nil || obj == nil {
		return answer
	}
	answer.JSON = obj
	if schema != nil {
		answer.Violations = Validate(schema, obj)
	}
	return answer
}

// Validate checks doc against a JSON schema and returns the violations.
func Validate(schema map[string]any, doc any) []string {
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return []string{err.Error()}
	}
	if result.Valid() {
		return nil
	}
	out := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		out = append(out, e.String())
	}
	return out
}

func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
