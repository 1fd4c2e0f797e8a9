package engine

import (
	"context"
	"fmt"
	"slices"
)

// Request is one inbound invocation for a resource type.
type Request[M any] struct {
	Operation Operation
	Desired   M
	Previous  M
	Paused    *PausedState
	NextToken string
}

// Handler assembles the step chains of one resource type and dispatches
// inbound invocations to them.
type Handler[M any] struct {
	res    *Resource[M]
	client *Client[M]
	stab   *Stabilizer[M]
	opts   Options
}

// NewHandler validates res and wires a Client and Stabilizer over api.
func NewHandler[M any](res *Resource[M], api API[M], opts ...Option) (*Handler[M], error) {
	if err := res.Validate(); err != nil {
		return nil, err
	}
	if res.Classifier == nil {
		res.Classifier = NewClassifier()
	}
	client := NewClient(res, api, opts...)
	return &Handler[M]{
		res:    res,
		client: client,
		stab:   NewStabilizer(res, client, opts...),
		opts:   buildOptions(opts),
	}, nil
}

// TypeName returns the resource type handled.
func (h *Handler[M]) TypeName() string {
	return h.res.TypeName
}

// Handle runs one invocation. The returned error is non-nil only for fatal
// defects (see IsFatal); every classified remote failure is a Failed result.
func (h *Handler[M]) Handle(ctx context.Context, req Request[M]) (Result[M], error) {
	ctx, span := h.opts.startSpan(ctx, "handler."+string(req.Operation), h.res.TypeName, req.Operation)
	defer span.End()

	var (
		res Result[M]
		err error
	)
	switch req.Operation {
	case OpCreate:
		res, err = h.createChain().Run(ctx, req.Desired, req.Paused)
	case OpUpdate:
		res, err = h.updateChain(req.Previous).Run(ctx, req.Desired, req.Paused)
	case OpDelete:
		res, err = h.deleteChain().Run(ctx, req.Desired, req.Paused)
		if err == nil && res.Status == StatusSuccess {
			var zero M
			res.Model = zero
		}
	case OpRead:
		res = h.read(ctx, req.Desired)
	case OpList:
		res = h.list(ctx, req.Desired, req.NextToken)
	default:
		return Result[M]{}, fmt.Errorf("%s: %w", h.res.TypeName, req.Operation.Validate())
	}
	if err != nil {
		h.opts.Logger.Error("fatal handler error",
			"type", h.res.TypeName, "operation", req.Operation, "error", err)
		return Result[M]{}, err
	}

	h.opts.Metrics.observeResult(h.res.TypeName, req.Operation, res.Status)
	h.opts.Logger.Info("handler result",
		"type", h.res.TypeName, "operation", req.Operation,
		"status", res.Status, "kind", res.Kind, "delay_seconds", res.DelaySeconds)
	return res, nil
}

// createChain: create → stabilize → read-back.
func (h *Handler[M]) createChain() *Chain[M] {
	return NewChain(
		MutateStep("create", h.client.Create),
		StabilizeStep(h.stab, OpCreate),
		ReadBackStep(h.client),
	)
}

// updateChain: update → stabilize → read-back.
func (h *Handler[M]) updateChain(previous M) *Chain[M] {
	return NewChain(
		MutateStep("update", func(ctx context.Context, desired M) (M, *HandlerError) {
			return h.client.Update(ctx, desired, previous)
		}),
		StabilizeStep(h.stab, OpUpdate),
		ReadBackStep(h.client),
	)
}

// deleteChain: delete → stabilize. A NotFound from the delete call fails;
// a NotFound from the stabilization read confirms the deletion.
func (h *Handler[M]) deleteChain() *Chain[M] {
	return NewChain(
		MutateStep("delete", func(ctx context.Context, current M) (M, *HandlerError) {
			return current, h.client.Delete(ctx, current)
		}),
		StabilizeStep(h.stab, OpDelete),
	)
}

func (h *Handler[M]) read(ctx context.Context, desired M) Result[M] {
	obs, he := h.client.Read(ctx, desired)
	if he != nil {
		return FailedFrom[M](he)
	}
	if slices.Contains(h.res.Gone, obs.Status) {
		return Failed[M](KindNotFound, fmt.Sprintf("%s %q not found (status %s)",
			h.res.TypeName, h.res.identify(desired), obs.Status))
	}
	return Success(obs.Model)
}

func (h *Handler[M]) list(ctx context.Context, filter M, nextToken string) Result[M] {
	models, next, he := h.client.List(ctx, filter, nextToken)
	if he != nil {
		return FailedFrom[M](he)
	}
	return SuccessList(models, next)
}
