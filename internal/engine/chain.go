package engine

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoResumePoint is returned when a paused state is replayed into a chain
// that has no stabilize step to re-enter.
var ErrNoResumePoint = errors.New("chain has no stabilize step to resume")

// StepKind marks the role of a step in a chain.
type StepKind int

// Step kinds. Only StepStabilize is a resume point.
const (
	StepMutate StepKind = iota
	StepStabilize
	StepReadBack
)

// Progress is the value threaded between steps.
type Progress[M any] struct {
	Model  M
	Paused *PausedState
}

// StepFunc runs one step. A non-nil *Result short-circuits the chain; a
// non-nil error is fatal and propagates to the host.
type StepFunc[M any] func(ctx context.Context, p Progress[M]) (Progress[M], *Result[M], error)

// Step is a named unit of a Chain.
type Step[M any] struct {
	Name string
	Kind StepKind
	Run  StepFunc[M]
}

// Chain is an ordered list of steps executed strictly in order.
type Chain[M any] struct {
	steps []Step[M]
}

// NewChain builds a chain from steps.
func NewChain[M any](steps ...Step[M]) *Chain[M] {
	return &Chain[M]{steps: steps}
}

// Run executes the chain. With a nil paused state it starts at the first
// step; otherwise it re-enters at the stabilize step with the model restored
// from the paused resource summary, so earlier steps are never replayed.
// Completing every step yields Success with the last model.
func (c *Chain[M]) Run(ctx context.Context, model M, paused *PausedState) (Result[M], error) {
	start := 0
	p := Progress[M]{Model: model}
	if paused != nil {
		start = c.resumeIndex()
		if start < 0 {
			return Result[M]{}, ErrNoResumePoint
		}
		restored, err := restore(paused.ResourceSummary, model)
		if err != nil {
			return Failed[M](KindInvalidRequest, fmt.Sprintf("paused state: %v", err)), nil
		}
		p = Progress[M]{Model: restored, Paused: paused}
	}

	for _, step := range c.steps[start:] {
		next, res, err := step.Run(ctx, p)
		if err != nil {
			return Result[M]{}, fmt.Errorf("step %s: %w", step.Name, err)
		}
		if res != nil {
			return *res, nil
		}
		p = next
	}
	return Success(p.Model), nil
}

func (c *Chain[M]) resumeIndex() int {
	for i, step := range c.steps {
		if step.Kind == StepStabilize {
			return i
		}
	}
	return -1
}

// MutateStep calls fn once and folds its returned model into the progress.
// A failure short-circuits with Failed; mutations are never retried here.
func MutateStep[M any](name string, fn func(ctx context.Context, model M) (M, *HandlerError)) Step[M] {
	return Step[M]{
		Name: name,
		Kind: StepMutate,
		Run: func(ctx context.Context, p Progress[M]) (Progress[M], *Result[M], error) {
			out, he := fn(ctx, p.Model)
			if he != nil {
				res := FailedFrom[M](he)
				return p, &res, nil
			}
			return Progress[M]{Model: out}, nil, nil
		},
	}
}

// StabilizeStep runs one stabilization attempt for op. InProgress and Failed
// halt the chain and are returned verbatim; Success continues.
func StabilizeStep[M any](s *Stabilizer[M], op Operation) Step[M] {
	return Step[M]{
		Name: "stabilize",
		Kind: StepStabilize,
		Run: func(ctx context.Context, p Progress[M]) (Progress[M], *Result[M], error) {
			res, err := s.Stabilize(ctx, op, p.Model, p.Paused)
			if err != nil {
				return p, nil, err
			}
			if res.Status != StatusSuccess {
				return p, &res, nil
			}
			return Progress[M]{Model: p.Model}, nil, nil
		},
	}
}

// ReadBackStep re-fetches the canonical representation so the final result
// reflects the settled remote state rather than the mutate response.
func ReadBackStep[M any](c *Client[M]) Step[M] {
	return Step[M]{
		Name: "read-back",
		Kind: StepReadBack,
		Run: func(ctx context.Context, p Progress[M]) (Progress[M], *Result[M], error) {
			obs, he := c.Read(ctx, p.Model)
			if he != nil {
				res := FailedFrom[M](he)
				return p, &res, nil
			}
			return Progress[M]{Model: obs.Model}, nil, nil
		},
	}
}
