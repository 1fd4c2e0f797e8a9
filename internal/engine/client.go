package engine

import (
	"context"
	"time"
)

// Observation is the outcome of a single remote read.
type Observation[M any] struct {
	// Model is the canonical representation returned by the read.
	Model M
	// Status is the remote status value, compared against StatusSets.
	Status string
	// StatusMessage is the remote-reported failure detail, if any.
	StatusMessage string
}

// API is the per-resource translator: it maps the model onto the remote
// request and response shapes for each verb. Errors are returned raw; the
// Client classifies them.
type API[M any] interface {
	// Create issues the create call and returns the model with the
	// server-assigned identity folded in.
	Create(ctx context.Context, desired M) (M, error)
	// Read fetches the current representation and status.
	Read(ctx context.Context, current M) (Observation[M], error)
	// Update issues the update call for desired, given the previous model.
	Update(ctx context.Context, desired, previous M) (M, error)
	// Delete issues the delete call.
	Delete(ctx context.Context, current M) error
	// List returns one page of summaries scoped by filter.
	List(ctx context.Context, filter M, nextToken string) ([]M, string, error)
}

// Client executes one verb against the remote API and funnels every failure
// through the Classifier. It holds no per-invocation state and is safe to
// reuse across invocations.
type Client[M any] struct {
	res  *Resource[M]
	api  API[M]
	opts Options
}

// NewClient creates a Client for the resource type.
func NewClient[M any](res *Resource[M], api API[M], opts ...Option) *Client[M] {
	return &Client[M]{res: res, api: api, opts: buildOptions(opts)}
}

// Create issues the create call.
func (c *Client[M]) Create(ctx context.Context, desired M) (M, *HandlerError) {
	var out M
	he := c.call(ctx, OpCreate, desired, func(ctx context.Context) error {
		var err error
		out, err = c.api.Create(ctx, desired)
		return err
	})
	return out, he
}

// Read fetches the current representation and status.
func (c *Client[M]) Read(ctx context.Context, current M) (Observation[M], *HandlerError) {
	var obs Observation[M]
	he := c.call(ctx, OpRead, current, func(ctx context.Context) error {
		var err error
		obs, err = c.api.Read(ctx, current)
		return err
	})
	return obs, he
}

// Update issues the update call.
func (c *Client[M]) Update(ctx context.Context, desired, previous M) (M, *HandlerError) {
	var out M
	he := c.call(ctx, OpUpdate, desired, func(ctx context.Context) error {
		var err error
		out, err = c.api.Update(ctx, desired, previous)
		return err
	})
	return out, he
}

// Delete issues the delete call.
func (c *Client[M]) Delete(ctx context.Context, current M) *HandlerError {
	return c.call(ctx, OpDelete, current, func(ctx context.Context) error {
		return c.api.Delete(ctx, current)
	})
}

// List returns one page of summaries.
func (c *Client[M]) List(ctx context.Context, filter M, nextToken string) ([]M, string, *HandlerError) {
	var (
		models []M
		next   string
	)
	he := c.call(ctx, OpList, filter, func(ctx context.Context) error {
		var err error
		models, next, err = c.api.List(ctx, filter, nextToken)
		return err
	})
	return models, next, he
}

// call runs fn inside a span, records metrics, and classifies its error.
func (c *Client[M]) call(ctx context.Context, verb Operation, model M, fn func(context.Context) error) *HandlerError {
	ctx, span := c.opts.startSpan(ctx, "datazone."+string(verb), c.res.TypeName, verb)
	start := time.Now()
	err := fn(ctx)
	if err == nil {
		c.opts.Metrics.observeCall(c.res.TypeName, verb, "ok", time.Since(start))
		endSpan(span, nil)
		return nil
	}
	he := c.res.Classifier.Classify(err, verb, c.res.TypeName, c.res.identify(model))
	c.opts.Metrics.observeCall(c.res.TypeName, verb, string(he.Kind), time.Since(start))
	c.opts.Logger.Debug("remote call failed",
		"type", c.res.TypeName, "verb", verb, "kind", he.Kind, "code", he.Code, "error", err)
	endSpan(span, he)
	return he
}
