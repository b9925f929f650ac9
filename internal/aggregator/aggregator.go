// Package aggregator fans the subtasks of a plan out to the domain agents
// and collects one result per subtask.
package aggregator

import (
	"context"
	"fmt"
	"sync"

	"github.com/rahul/outing/internal/agent"
	"github.com/rahul/outing/internal/observability"
	"github.com/rahul/outing/internal/outing"
)

type Aggregator struct {
	registry *agent.Registry
	log      observability.Logger
}

func New(registry *agent.Registry, log observability.Logger) *Aggregator {
	if log == nil {
		log = observability.NewNopLogger()
	}
	return &Aggregator{registry: registry, log: log.Event(observability.EventAgent)}
}

// Run invokes the agent of every subtask concurrently and waits for all of
// them. Results follow subtask order. A failing or unknown subtask yields an
// error entry and never affects its siblings.
func (a *Aggregator) Run(ctx context.Context, in agent.Input, subtasks []outing.Subtask) []outing.AgentResult {
	results := make([]outing.AgentResult, len(subtasks))

	var wg sync.WaitGroup
	for i, name := range subtasks {
		ag, ok := a.registry.Get(name)
		if !ok {
			err := outing.NewUnsupportedSubtaskError(string(name))
			a.log.WithError(err.Err).Error("unsupported subtask", observability.Fields{"agent": string(name)})
			results[i] = outing.Failed(string(name), err.Error())
			continue
		}

		wg.Add(1)
		go func(i int, ag agent.Agent) {
			defer wg.Done()
			results[i] = a.invoke(ctx, ag, in)
		}(i, ag)
	}
	wg.Wait()
	return results
}

func (a *Aggregator) invoke(ctx context.Context, ag agent.Agent, in agent.Input) (result outing.AgentResult) {
	name := string(ag.Name())
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("agent panicked", observability.Fields{"agent": name, "panic": fmt.Sprint(r)})
			result = outing.Failed(name, "")
		}
	}()

	payload, err := ag.Run(ctx, in)
	if err != nil {
		a.log.WithError(err).Error("agent failed", observability.Fields{
			"agent": name,
			"code":  string(outing.CodeOf(err)),
		})
		return outing.Failed(name, err.Error())
	}
	if payload == nil {
		return outing.Failed(name, "")
	}
	return outing.Succeeded(name, payload)
}
