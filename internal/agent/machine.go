package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rahul/outing/internal/observability"
	"github.com/rahul/outing/internal/outing"
)

// State tells which step of an invocation produced the outcome.
type State int

const (
	StateLive State = iota
	StateFallback
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLive:
		return string(outing.OriginLive)
	case StateFallback:
		return string(outing.OriginFallback)
	default:
		return "failed"
	}
}

// Outcome is the tagged result of one invocation: Live(payload),
// Fallback(payload) or Failed(err).
type Outcome struct {
	State   State
	Payload outing.Payload
	Err     error
}

// Result collapses the outcome into the Agent.Run return pair.
func (o Outcome) Result() (outing.Payload, error) {
	if o.State == StateFailed {
		return nil, o.Err
	}
	return o.Payload, nil
}

// Attempt is one way of answering. A nil payload with a nil error means
// the attempt produced nothing usable.
type Attempt func(ctx context.Context, in Input) (outing.Payload, error)

// errNoAnswer is reported when a fallback returns neither data nor error.
var errNoAnswer = errors.New("fallback produced no answer")

// Machine runs the live step, then the fallback step when the live step
// failed or was empty. There is no step after the fallback.
type Machine struct {
	Agent    outing.Subtask
	Source   string // live source name, used in logs and metrics
	Live     Attempt
	Fallback Attempt
	Log      observability.Logger
	Metrics  *observability.Metrics
}

func (m *Machine) Run(ctx context.Context, in Input) Outcome {
	start := time.Now()
	out := m.run(ctx, in)
	m.Metrics.ObserveAgent(string(m.Agent), out.State.String(), time.Since(start))
	return out
}

func (m *Machine) run(ctx context.Context, in Input) Outcome {
	log := m.Log
	if log == nil {
		log = observability.NewNopLogger()
	}
	log = log.With(observability.Fields{"agent": string(m.Agent)})

	if m.Live != nil {
		payload, err := m.Live(ctx, in)
		switch {
		case err != nil:
			m.Metrics.ObserveExtractionFailure(m.Source)
			log.Event(observability.EventExtraction).WithError(err).Warn("live source failed, falling back", observability.Fields{
				"source": m.Source,
			})
		case payload == nil:
			m.Metrics.ObserveExtractionFailure(m.Source)
			log.Event(observability.EventExtraction).Warn("live source returned nothing, falling back", observability.Fields{
				"source": m.Source,
			})
		default:
			return Outcome{State: StateLive, Payload: payload}
		}
	}

	if m.Fallback == nil {
		return Outcome{State: StateFailed, Err: fmt.Errorf("%s agent has no fallback", m.Agent)}
	}
	payload, err := m.Fallback(ctx, in)
	if err == nil && payload == nil {
		err = errNoAnswer
	}
	if err != nil {
		return Outcome{State: StateFailed, Err: err}
	}
	log.Event(observability.EventFallback).Debug("answered by fallback", observability.Fields{
		"source": payload.Provenance().Source,
	})
	return Outcome{State: StateFallback, Payload: payload}
}
