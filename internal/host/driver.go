// Package host drives engine invocations outside of a managed orchestrator:
// it owns the sleeping between InProgress callbacks and checkpoints each
// paused request so a restarted process resumes instead of re-mutating.
package host

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AltairaLabs/datazone-handlers/internal/checkpoint"
	"github.com/AltairaLabs/datazone-handlers/internal/engine"
)

// Invoker performs one engine invocation. *engine.Registry satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, req engine.RawRequest) (engine.RawResult, error)
}

// ErrMissingPausedState is returned when an invocation reports InProgress
// without a state to replay.
var ErrMissingPausedState = errors.New("in-progress result carries no paused state")

// Driver runs invocations to completion.
type Driver struct {
	inv    Invoker
	store  checkpoint.Store
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
	now    func() time.Time

	// maxInvocations bounds Run; zero means unbounded.
	maxInvocations int
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the driver logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// WithSleep replaces the callback wait, e.g. to run without delay in tests.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(d *Driver) { d.sleep = fn }
}

// WithClock replaces the checkpoint timestamp source.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) { d.now = now }
}

// WithMaxInvocations stops Run after n invocations, returning the last
// InProgress result.
func WithMaxInvocations(n int) Option {
	return func(d *Driver) { d.maxInvocations = n }
}

// New creates a Driver. store may be nil to disable checkpointing.
func New(inv Invoker, store checkpoint.Store, opts ...Option) *Driver {
	d := &Driver{
		inv:    inv,
		store:  store,
		logger: slog.Default(),
		sleep:  sleepContext,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Invoke performs exactly one invocation and returns its result unchanged.
func (d *Driver) Invoke(ctx context.Context, req engine.RawRequest) (engine.RawResult, error) {
	if req.PausedState != nil {
		if err := req.PausedState.Validate(); err != nil {
			return engine.RawResult{}, err
		}
	}
	return d.inv.Invoke(ctx, req)
}

// Run repeats invocations of req until a terminal result, waiting the
// returned callback delay between them. When key is non-empty, an existing
// checkpoint for the same type and operation is resumed, each InProgress
// request is saved under key, and the checkpoint is removed once the result
// is terminal.
func (d *Driver) Run(ctx context.Context, key string, req engine.RawRequest) (engine.RawResult, error) {
	req = d.resume(ctx, key, req)

	for n := 1; ; n++ {
		res, err := d.Invoke(ctx, req)
		if err != nil {
			return res, err
		}
		// A cancelled call surfaces as a classified failure; the checkpoint
		// still describes the last completed step.
		if ctxErr := ctx.Err(); ctxErr != nil {
			d.logger.Warn("invocation interrupted; keeping checkpoint",
				"key", key, "type", req.TypeName, "operation", req.Operation, "error", ctxErr)
			return res, ctxErr
		}
		if res.Status.IsTerminal() {
			d.clear(ctx, key)
			d.logger.Info("invocation finished",
				"type", req.TypeName, "operation", req.Operation,
				"status", res.Status, "invocations", n)
			return res, nil
		}
		if res.PausedState == nil {
			return res, fmt.Errorf("%s %s: %w", req.TypeName, req.Operation, ErrMissingPausedState)
		}

		req.PausedState = res.PausedState
		if err := d.save(ctx, key, req); err != nil {
			return res, err
		}
		if d.maxInvocations > 0 && n >= d.maxInvocations {
			return res, nil
		}

		delay := time.Duration(res.DelaySeconds) * time.Second
		d.logger.Info("waiting for stabilization",
			"type", req.TypeName, "operation", req.Operation,
			"delay", delay, "retry_budget", res.PausedState.RetryBudget)
		if err := d.sleep(ctx, delay); err != nil {
			return res, err
		}
	}
}

func (d *Driver) resume(ctx context.Context, key string, req engine.RawRequest) engine.RawRequest {
	if d.store == nil || key == "" || req.PausedState != nil {
		return req
	}
	cp, err := d.store.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, checkpoint.ErrNotFound) {
			d.logger.Warn("checkpoint load failed; starting fresh", "key", key, "error", err)
		}
		return req
	}
	if cp.Request.TypeName != req.TypeName || cp.Request.Operation != req.Operation {
		d.logger.Warn("checkpoint belongs to another invocation; ignoring",
			"key", key, "checkpoint_type", cp.Request.TypeName, "checkpoint_operation", cp.Request.Operation)
		return req
	}
	d.logger.Info("resuming from checkpoint",
		"key", key, "type", req.TypeName, "operation", req.Operation, "saved_at", cp.UpdatedAt)
	return cp.Request
}

func (d *Driver) save(ctx context.Context, key string, req engine.RawRequest) error {
	if d.store == nil || key == "" {
		return nil
	}
	if err := d.store.Save(ctx, &checkpoint.Checkpoint{Key: key, Request: req, UpdatedAt: d.now()}); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

func (d *Driver) clear(ctx context.Context, key string) {
	if d.store == nil || key == "" {
		return
	}
	if err := d.store.Delete(ctx, key); err != nil {
		d.logger.Warn("checkpoint delete failed", "key", key, "error", err)
	}
}

// CheckpointKey derives a stable key for req from its type, operation and
// desired model, so repeating the same command finds its own checkpoint.
// The model is compacted first; whitespace does not change the key.
func CheckpointKey(req engine.RawRequest) string {
	model := []byte(req.DesiredModel)
	var buf bytes.Buffer
	if err := json.Compact(&buf, model); err == nil {
		model = buf.Bytes()
	}
	h := sha256.New()
	h.Write([]byte(req.TypeName))
	h.Write([]byte{0})
	h.Write([]byte(req.Operation))
	h.Write([]byte{0})
	h.Write(model)
	return fmt.Sprintf("%s/%s", req.Operation, hex.EncodeToString(h.Sum(nil))[:16])
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
