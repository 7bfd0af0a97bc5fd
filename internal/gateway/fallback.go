// Package gateway runs capability calls against an ordered list of provider
// candidates, falling back on failure and aggregating every attempt's error
// when the whole chain fails.
package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Candidate is one provider attempt in a fallback chain.
type Candidate[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// Attempt records the outcome of a single candidate.
type Attempt struct {
	Provider string `json:"provider"`
	Reason   string `json:"reason"`
}

// AttemptErrors aggregates every failed attempt, in attempt order, so callers
// can present actionable diagnostics rather than only the last failure.
type AttemptErrors struct {
	Capability string
	Attempts   []Attempt
}

func (e *AttemptErrors) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s: %s", a.Provider, a.Reason)
	}
	return fmt.Sprintf("%s failed (%d providers): %s",
		e.Capability, len(e.Attempts), strings.Join(parts, " | "))
}

// Details returns the per-provider failure reasons in attempt order.
func (e *AttemptErrors) Details() []string {
	out := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		out[i] = fmt.Sprintf("%s: %s", a.Provider, a.Reason)
	}
	return out
}

// Invoke tries each candidate in order and returns the first success along
// with the winning provider's name. Each attempt is independent: a failed
// candidate is never retried, and its failure cannot affect later attempts.
// On total failure the returned error is an *AttemptErrors.
func Invoke[T any](ctx context.Context, capability string, candidates []Candidate[T]) (T, string, error) {
	var zero T
	if len(candidates) == 0 {
		return zero, "", &AttemptErrors{Capability: capability, Attempts: []Attempt{
			{Provider: "none", Reason: "no providers configured"},
		}}
	}

	agg := &AttemptErrors{Capability: capability}
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			agg.Attempts = append(agg.Attempts, Attempt{Provider: c.Name, Reason: err.Error()})
			break
		}
		out, err := c.Run(ctx)
		if err == nil {
			return out, c.Name, nil
		}
		log.Warn().
			Str("capability", capability).
			Str("provider", c.Name).
			Err(err).
			Msg("provider attempt failed, trying next candidate")
		agg.Attempts = append(agg.Attempts, Attempt{Provider: c.Name, Reason: err.Error()})
	}
	return zero, "", agg
}
