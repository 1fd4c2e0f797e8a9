package host

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/AltairaLabs/datazone-handlers/internal/checkpoint"
	"github.com/AltairaLabs/datazone-handlers/internal/engine"
)

// scriptedInvoker returns results in order and records every request.
type scriptedInvoker struct {
	results  []engine.RawResult
	err      error
	requests []engine.RawRequest
}

func (s *scriptedInvoker) Invoke(_ context.Context, req engine.RawRequest) (engine.RawResult, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return engine.RawResult{}, s.err
	}
	i := min(len(s.requests)-1, len(s.results)-1)
	return s.results[i], nil
}

func inProgress(budget int) engine.RawResult {
	return engine.RawResult{
		Status:       engine.StatusInProgress,
		DelaySeconds: 5,
		PausedState: &engine.PausedState{
			RetryBudget:          budget,
			CallbackDelaySeconds: 5,
			ResourceSummary:      json.RawMessage(`{"id":"dzd_1"}`),
		},
	}
}

func recordSleeps(sleeps *[]time.Duration) Option {
	return WithSleep(func(_ context.Context, d time.Duration) error {
		*sleeps = append(*sleeps, d)
		return nil
	})
}

var createReq = engine.RawRequest{
	TypeName:     "AWS::DataZone::Domain",
	Operation:    engine.OpCreate,
	DesiredModel: json.RawMessage(`{"name":"sales"}`),
}

func TestRun_UntilTerminal(t *testing.T) {
	inv := &scriptedInvoker{results: []engine.RawResult{
		inProgress(9), inProgress(8), {Status: engine.StatusSuccess, Model: json.RawMessage(`{"id":"dzd_1"}`)},
	}}
	store := checkpoint.NewMemoryStore()
	var sleeps []time.Duration
	d := New(inv, store, recordSleeps(&sleeps))

	res, err := d.Run(context.Background(), "k", createReq)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != engine.StatusSuccess {
		t.Fatalf("Status = %s", res.Status)
	}
	if len(inv.requests) != 3 {
		t.Fatalf("invocations = %d, want 3", len(inv.requests))
	}
	if inv.requests[0].PausedState != nil {
		t.Error("first invocation should carry no paused state")
	}
	if got := inv.requests[2].PausedState.RetryBudget; got != 8 {
		t.Errorf("third invocation budget = %d, want 8", got)
	}
	if len(sleeps) != 2 || sleeps[0] != 5*time.Second {
		t.Errorf("sleeps = %v, want two 5s waits", sleeps)
	}
	if _, err := store.Load(context.Background(), "k"); !errors.Is(err, checkpoint.ErrNotFound) {
		t.Errorf("checkpoint after success: err = %v, want ErrNotFound", err)
	}
}

func TestRun_ResumesFromCheckpoint(t *testing.T) {
	ctx := context.Background()
	store := checkpoint.NewMemoryStore()
	saved := createReq
	saved.PausedState = inProgress(4).PausedState
	if err := store.Save(ctx, &checkpoint.Checkpoint{Key: "k", Request: saved}); err != nil {
		t.Fatal(err)
	}

	inv := &scriptedInvoker{results: []engine.RawResult{{Status: engine.StatusSuccess}}}
	var sleeps []time.Duration
	if _, err := New(inv, store, recordSleeps(&sleeps)).Run(ctx, "k", createReq); err != nil {
		t.Fatal(err)
	}
	if inv.requests[0].PausedState == nil || inv.requests[0].PausedState.RetryBudget != 4 {
		t.Errorf("first request paused = %+v, want checkpointed state", inv.requests[0].PausedState)
	}
}

func TestRun_IgnoresForeignCheckpoint(t *testing.T) {
	ctx := context.Background()
	store := checkpoint.NewMemoryStore()
	other := createReq
	other.Operation = engine.OpDelete
	other.PausedState = inProgress(4).PausedState
	_ = store.Save(ctx, &checkpoint.Checkpoint{Key: "k", Request: other})

	inv := &scriptedInvoker{results: []engine.RawResult{{Status: engine.StatusSuccess}}}
	if _, err := New(inv, store).Run(ctx, "k", createReq); err != nil {
		t.Fatal(err)
	}
	if inv.requests[0].PausedState != nil || inv.requests[0].Operation != engine.OpCreate {
		t.Errorf("request = %+v, want the fresh create", inv.requests[0])
	}
}

func TestRun_CheckpointsEachPause(t *testing.T) {
	ctx := context.Background()
	store := checkpoint.NewMemoryStore()
	inv := &scriptedInvoker{results: []engine.RawResult{inProgress(9), inProgress(8)}}
	now := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	var sleeps []time.Duration
	d := New(inv, store, recordSleeps(&sleeps), WithMaxInvocations(2), WithClock(func() time.Time { return now }))

	res, err := d.Run(ctx, "k", createReq)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != engine.StatusInProgress {
		t.Errorf("Status = %s, want IN_PROGRESS at the invocation limit", res.Status)
	}
	cp, err := store.Load(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if cp.Request.PausedState.RetryBudget != 8 || !cp.UpdatedAt.Equal(now) {
		t.Errorf("checkpoint = %+v", cp)
	}
	if len(sleeps) != 1 {
		t.Errorf("sleeps = %d, want 1", len(sleeps))
	}
}

func TestRun_FatalErrorStops(t *testing.T) {
	boom := &engine.UnknownStatusError{ResourceType: "AWS::DataZone::Domain", Status: "MELTING"}
	inv := &scriptedInvoker{err: boom}
	_, err := New(inv, nil).Run(context.Background(), "", createReq)
	if !engine.IsFatal(err) {
		t.Errorf("err = %v, want fatal", err)
	}
}

func TestRun_InProgressWithoutState(t *testing.T) {
	inv := &scriptedInvoker{results: []engine.RawResult{{Status: engine.StatusInProgress}}}
	_, err := New(inv, nil).Run(context.Background(), "", createReq)
	if !errors.Is(err, ErrMissingPausedState) {
		t.Errorf("err = %v, want ErrMissingPausedState", err)
	}
}

func TestRun_ContextCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	inv := &scriptedInvoker{results: []engine.RawResult{inProgress(9)}}
	_, err := New(inv, nil).Run(ctx, "", createReq)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

// cancellingInvoker cancels the run mid-call and reports the failure the
// classifier gives an interrupted request.
type cancellingInvoker struct {
	cancel context.CancelFunc
}

func (c *cancellingInvoker) Invoke(_ context.Context, _ engine.RawRequest) (engine.RawResult, error) {
	c.cancel()
	return engine.RawResult{
		Status:    engine.StatusFailed,
		ErrorKind: engine.KindUnknown,
		Message:   "operation error DataZone: GetDomain, context canceled",
	}, nil
}

func TestRun_CancelledCallKeepsCheckpoint(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	saved := createReq
	saved.PausedState = inProgress(4).PausedState
	if err := store.Save(context.Background(), &checkpoint.Checkpoint{Key: "k", Request: saved}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err := New(&cancellingInvoker{cancel: cancel}, store).Run(ctx, "k", createReq)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	cp, err := store.Load(context.Background(), "k")
	if err != nil {
		t.Fatalf("checkpoint lost after cancellation: %v", err)
	}
	if cp.Request.PausedState == nil || cp.Request.PausedState.RetryBudget != 4 {
		t.Errorf("checkpoint = %+v, want the paused create", cp.Request)
	}
}

func TestInvoke_RejectsInvalidPausedState(t *testing.T) {
	inv := &scriptedInvoker{results: []engine.RawResult{{Status: engine.StatusSuccess}}}
	req := createReq
	req.PausedState = &engine.PausedState{RetryBudget: 3}
	if _, err := New(inv, nil).Invoke(context.Background(), req); err == nil {
		t.Error("expected invalid paused state to be rejected")
	}
	if len(inv.requests) != 0 {
		t.Error("invoker should not be called")
	}
}

func TestCheckpointKey(t *testing.T) {
	a := CheckpointKey(createReq)
	if a != CheckpointKey(createReq) {
		t.Error("key is not stable")
	}
	other := createReq
	other.DesiredModel = json.RawMessage(`{"name":"marketing"}`)
	if a == CheckpointKey(other) {
		t.Error("different models share a key")
	}
}

func TestCheckpointKey_IgnoresWhitespace(t *testing.T) {
	tests := []struct {
		name  string
		model string
	}{
		{"spaced", `{ "name" : "sales" }`},
		{"trailing newline", "{\"name\":\"sales\"}\n"},
		{"indented", "{\n  \"name\": \"sales\"\n}"},
	}
	want := CheckpointKey(createReq)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := createReq
			req.DesiredModel = json.RawMessage(tt.model)
			if got := CheckpointKey(req); got != want {
				t.Errorf("key = %s, want %s", got, want)
			}
		})
	}
}
