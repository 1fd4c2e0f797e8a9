package engine

import (
	"context"
	"encoding/json"
	"fmt"
)

// Stabilizer performs one stabilization attempt per call: it reads the
// resource, partitions the status, and decides done / retry / fail / fatal.
// It never sleeps; InProgress tells the host when to call back.
type Stabilizer[M any] struct {
	res    *Resource[M]
	client *Client[M]
	opts   Options
}

// NewStabilizer creates a Stabilizer reading through client.
func NewStabilizer[M any](res *Resource[M], client *Client[M], opts ...Option) *Stabilizer[M] {
	return &Stabilizer[M]{res: res, client: client, opts: buildOptions(opts)}
}

// Stabilize reads model once and evaluates its status against the sets
// configured for op. paused is nil on the first attempt after a mutate, in
// which case the budget starts at the policy's RetryBudget.
//
// For OpDelete a NotFound read confirms the deletion and yields Success.
// A status outside every declared set returns an *UnknownStatusError.
func (s *Stabilizer[M]) Stabilize(
	ctx context.Context, op Operation, model M, paused *PausedState,
) (Result[M], error) {
	identity := s.res.identify(model)
	label := fmt.Sprintf("%s %q", s.res.TypeName, identity)

	obs, he := s.client.Read(ctx, model)
	if he != nil {
		if op == OpDelete && he.Kind == KindNotFound {
			s.record(op, PhaseStable, identity, "not found after delete")
			return Success(model), nil
		}
		return FailedFrom[M](he), nil
	}

	phase := s.res.sets(op).Phase(obs.Status)
	s.record(op, phase, identity, obs.Status)

	switch phase {
	case PhaseStable:
		return Success(obs.Model), nil

	case PhaseTransient:
		remaining := s.res.Policy.RetryBudget
		var summary json.RawMessage
		if paused != nil {
			remaining = paused.RetryBudget
			summary = paused.ResourceSummary
		}
		remaining--
		if remaining <= 0 {
			return Failed[M](KindNotStabilized,
				fmt.Sprintf("%s failed to stabilize after all attempts", label)), nil
		}
		if summary == nil {
			var err error
			if summary, err = summarize(model); err != nil {
				return Failed[M](KindInternalFailure, fmt.Sprintf("%s: %v", label, err)), nil
			}
		}
		return InProgress[M](PausedState{
			RetryBudget:          remaining,
			CallbackDelaySeconds: s.res.Policy.DelaySeconds,
			ResourceSummary:      summary,
		}), nil

	case PhaseFailed:
		return Failed[M](KindNotStabilized,
			fmt.Sprintf("%s failed to stabilize due to internal failure, error: %s",
				label, obs.StatusMessage)), nil

	default:
		return Result[M]{}, &UnknownStatusError{
			ResourceType: s.res.TypeName,
			Identity:     identity,
			Operation:    op,
			Status:       obs.Status,
		}
	}
}

func (s *Stabilizer[M]) record(op Operation, phase Phase, identity, status string) {
	s.opts.Metrics.observeStabilization(s.res.TypeName, op, phase)
	s.opts.Logger.Debug("stabilization attempt",
		"type", s.res.TypeName, "operation", op, "identity", identity,
		"status", status, "phase", phase)
}
