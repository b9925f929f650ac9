package outing

// Origin tells whether an agent answer came from a live listing or from a
// generative fallback.
type Origin string

const (
	OriginLive     Origin = "live"
	OriginFallback Origin = "fallback"
)

// Payload is the domain data an agent returns. Every payload carries its
// provenance so callers can render attribution.
type Payload interface {
	Provenance() Attribution
}

// Attribution pairs the source label shown to users with its origin.
// Payload structs embed it, which flattens "source" and "origin" into
// their JSON.
type Attribution struct {
	Source string `json:"source"`
	Origin Origin `json:"origin"`
}

func (a Attribution) Provenance() Attribution { return a }

// Live builds a live-source attribution.
func Live(source string) Attribution { return Attribution{Source: source, Origin: OriginLive} }

// Fallback builds a fallback-source attribution.
func Fallback(source string) Attribution { return Attribution{Source: source, Origin: OriginFallback} }

// AgentResult is the tagged outcome of one subtask: either Data or Error is
// set, never both.
type AgentResult struct {
	Agent string  `json:"agent"`
	Data  Payload `json:"data,omitempty"`
	Error string  `json:"error,omitempty"`
}

// Succeeded wraps a payload.
func Succeeded(agent string, data Payload) AgentResult {
	return AgentResult{Agent: agent, Data: data}
}

// Failed wraps an error message. An empty message is replaced with a generic one.
func Failed(agent, message string) AgentResult {
	if message == "" {
		message = "Agent execution failed"
	}
	return AgentResult{Agent: agent, Error: message}
}

// OK reports whether the subtask produced data.
func (r AgentResult) OK() bool { return r.Error == "" && r.Data != nil }
