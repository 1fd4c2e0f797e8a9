package engine

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestRegistry(t *testing.T, api *fakeAPI, opts ...Option) *Registry {
	t.Helper()
	h, err := NewHandler(testResource(10), API[widget](api), opts...)
	if err != nil {
		t.Fatal(err)
	}
	reg := NewRegistry()
	if err := reg.Register(Bind(h)); err != nil {
		t.Fatal(err)
	}
	return reg
}

func TestRegistry_Invoke(t *testing.T) {
	reg := newTestRegistry(t, &fakeAPI{statuses: []string{"ACTIVE"}})

	out, err := reg.Invoke(context.Background(), RawRequest{
		TypeName:     "Test::Widget",
		Operation:    OpCreate,
		DesiredModel: json.RawMessage(`{"name":"a"}`),
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != StatusSuccess {
		t.Fatalf("Status = %s (%s)", out.Status, out.Message)
	}
	var got widget
	if err := json.Unmarshal(out.Model, &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != "w-1" {
		t.Errorf("model = %+v", got)
	}
}

func TestRegistry_InvokeInProgressRoundTrip(t *testing.T) {
	reg := newTestRegistry(t, &fakeAPI{statuses: []string{"CREATING", "ACTIVE"}})
	ctx := context.Background()

	first, err := reg.Invoke(ctx, RawRequest{TypeName: "Test::Widget", Operation: OpCreate, DesiredModel: json.RawMessage(`{"name":"a"}`)})
	if err != nil {
		t.Fatal(err)
	}
	if first.Status != StatusInProgress || first.DelaySeconds != 5 {
		t.Fatalf("got %s delay=%d", first.Status, first.DelaySeconds)
	}

	encoded, err := EncodePausedState(first.PausedState)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodePausedState(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(decoded, first.PausedState) {
		t.Errorf("round trip = %+v, want %+v", decoded, first.PausedState)
	}

	second, err := reg.Invoke(ctx, RawRequest{
		TypeName: "Test::Widget", Operation: OpCreate,
		DesiredModel: json.RawMessage(`{"name":"a"}`), PausedState: decoded,
	})
	if err != nil {
		t.Fatal(err)
	}
	if second.Status != StatusSuccess {
		t.Errorf("Status = %s (%s)", second.Status, second.Message)
	}
}

func TestRegistry_BadModel(t *testing.T) {
	reg := newTestRegistry(t, &fakeAPI{})
	out, err := reg.Invoke(context.Background(), RawRequest{
		TypeName: "Test::Widget", Operation: OpCreate, DesiredModel: json.RawMessage(`[1,2]`),
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != StatusFailed || out.ErrorKind != KindInvalidRequest {
		t.Errorf("got %s/%s", out.Status, out.ErrorKind)
	}
}

func TestRegistry_DeleteAndList(t *testing.T) {
	api := &fakeAPI{
		readErrs: []error{apiErr(CodeResourceNotFound, "gone")},
		listed:   []widget{{ID: "a"}, {ID: "b"}},
	}
	reg := newTestRegistry(t, api)
	ctx := context.Background()

	out, err := reg.Invoke(ctx, RawRequest{TypeName: "Test::Widget", Operation: OpDelete, DesiredModel: json.RawMessage(`{"id":"w-1"}`)})
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != StatusSuccess || out.Model != nil {
		t.Errorf("delete got %s model=%s", out.Status, out.Model)
	}

	out, err = reg.Invoke(ctx, RawRequest{TypeName: "Test::Widget", Operation: OpList})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Models) != 2 {
		t.Errorf("models = %d, want 2", len(out.Models))
	}
}

func TestRegistry_UnknownType(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Invoke(context.Background(), RawRequest{TypeName: "Nope", Operation: OpRead})
	if !errors.Is(err, ErrUnknownType) {
		t.Errorf("err = %v, want ErrUnknownType", err)
	}
}

func TestRegistry_DuplicateAndNames(t *testing.T) {
	api := &fakeAPI{}
	reg := newTestRegistry(t, api)
	h, _ := NewHandler(testResource(10), API[widget](api))
	if err := reg.Register(Bind(h)); err == nil {
		t.Error("expected duplicate registration to fail")
	}
	if got := reg.TypeNames(); !reflect.DeepEqual(got, []string{"Test::Widget"}) {
		t.Errorf("TypeNames = %v", got)
	}
}

func TestMetrics_Recorded(t *testing.T) {
	promReg := prometheus.NewRegistry()
	m, err := NewMetrics(promReg)
	if err != nil {
		t.Fatal(err)
	}
	reg := newTestRegistry(t, &fakeAPI{statuses: []string{"CREATING"}}, WithMetrics(m))

	if _, err := reg.Invoke(context.Background(), RawRequest{
		TypeName: "Test::Widget", Operation: OpCreate, DesiredModel: json.RawMessage(`{"name":"a"}`),
	}); err != nil {
		t.Fatal(err)
	}

	if got := testutil.ToFloat64(m.results.WithLabelValues("Test::Widget", "create", "IN_PROGRESS")); got != 1 {
		t.Errorf("results = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.stabilizations.WithLabelValues("Test::Widget", "create", "transient")); got != 1 {
		t.Errorf("stabilizations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.remoteCalls.WithLabelValues("Test::Widget", "create", "ok")); got != 1 {
		t.Errorf("remote calls = %v, want 1", got)
	}
}

func TestPausedState_Decode(t *testing.T) {
	p, err := DecodePausedState("")
	if err != nil || p != nil {
		t.Errorf("empty: got %v, %v", p, err)
	}
	if _, err := DecodePausedState("{broken"); err == nil {
		t.Error("expected error for invalid JSON")
	}
	s, err := EncodePausedState(nil)
	if err != nil || s != "" {
		t.Errorf("nil: got %q, %v", s, err)
	}
	if err := (&PausedState{RetryBudget: 1}).Validate(); err == nil {
		t.Error("expected zero delay to be rejected")
	}
}
