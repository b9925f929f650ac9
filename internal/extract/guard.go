package extract

import (
	"context"
	"fmt"

	"github.com/rahul/outing/internal/governance"
)

// Guarded checks every request against a policy before delegating.
type Guarded struct {
	next   Extractor
	policy governance.PolicyEngine
}

func Guard(next Extractor, policy governance.PolicyEngine) *Guarded {
	return &Guarded{next: next, policy: policy}
}

func (g *Guarded) Name() string {
	return g.next.Name()
}

func (g *Guarded) Extract(ctx context.Context, req Request) (map[string]any, error) {
	res, err := g.policy.Evaluate(ctx, governance.Request{Backend: g.next.Name(), URL: req.URL})
	if err != nil {
		return nil, fmt.Errorf("policy evaluation failed: %w", err)
	}
	if res.Effect == governance.EffectDeny {
		return nil, fmt.Errorf("extraction of %s denied: %s", req.URL, res.Reason)
	}
	return g.next.Extract(ctx, req)
}
