package governance

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Effect defines the result of a policy evaluation.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Request describes one outbound extraction to be evaluated.
type Request struct {
	Backend string
	URL     string
}

// Result contains the outcome of a policy evaluation.
type Result struct {
	Effect Effect
	Reason string
}

// PolicyEngine evaluates outbound extractions against a set of rules.
type PolicyEngine interface {
	Evaluate(ctx context.Context, req Request) (Result, error)
}

// DefaultPolicyEngine denies by backend name, by host and by URL pattern.
// Everything else is allowed.
type DefaultPolicyEngine struct {
	DeniedBackends map[string]bool
	DeniedHosts    map[string]bool
	DeniedRegex    []*regexp.Regexp
}

func NewDefaultPolicyEngine() *DefaultPolicyEngine {
	return &DefaultPolicyEngine{
		DeniedBackends: make(map[string]bool),
		DeniedHosts:    make(map[string]bool),
		DeniedRegex:    make([]*regexp.Regexp, 0),
	}
}

func (e *DefaultPolicyEngine) DenyBackend(name string) {
	e.DeniedBackends[name] = true
}

// DenyHost blocks a host and all of its subdomains.
func (e *DefaultPolicyEngine) DenyHost(host string) {
	e.DeniedHosts[strings.ToLower(strings.TrimPrefix(host, "."))] = true
}

func (e *DefaultPolicyEngine) DenyURLPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	e.DeniedRegex = append(e.DeniedRegex, re)
	return nil
}

func deny(format string, args ...any) (Result, error) {
	return Result{Effect: EffectDeny, Reason: fmt.Sprintf(format, args...)}, nil
}

// Evaluate checks the backend first, then the URL shape, its host and
// finally the URL patterns.
func (e *DefaultPolicyEngine) Evaluate(_ context.Context, req Request) (Result, error) {
	if e.DeniedBackends[req.Backend] {
		return deny("Backend '%s' is restricted by system policy", req.Backend)
	}

	u, err := url.Parse(req.URL)
	switch {
	case err != nil || u.Hostname() == "":
		return deny("URL '%s' is not absolute", req.URL)
	case u.Scheme != "http" && u.Scheme != "https":
		return deny("Scheme '%s' is not allowed", u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	for denied := range e.DeniedHosts {
		if host == denied || strings.HasSuffix(host, "."+denied) {
			return deny("Host '%s' is restricted by system policy", host)
		}
	}
	for _, re := range e.DeniedRegex {
		if re.MatchString(req.URL) {
			return deny("URL matches restricted pattern: %s", re.String())
		}
	}
	return Result{Effect: EffectAllow, Reason: "Approved by default policy"}, nil
}
