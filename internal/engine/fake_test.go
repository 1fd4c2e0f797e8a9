package engine

import (
	"context"
	"testing"
)

type widget struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
}

// fakeAPI scripts the remote side. Reads return statuses in order and repeat
// the last one once the script is exhausted.
type fakeAPI struct {
	createErr error
	updateErr error
	deleteErr error
	listErr   error

	statuses []string
	readErrs []error
	message  string

	listed   []widget
	listNext string

	creates, updates, deletes, reads int
}

func (f *fakeAPI) Create(_ context.Context, desired widget) (widget, error) {
	f.creates++
	if f.createErr != nil {
		return widget{}, f.createErr
	}
	return widget{ID: "w-1", Name: desired.Name}, nil
}

func (f *fakeAPI) Read(_ context.Context, current widget) (Observation[widget], error) {
	i := f.reads
	f.reads++
	if i < len(f.readErrs) && f.readErrs[i] != nil {
		return Observation[widget]{}, f.readErrs[i]
	}
	status := "ACTIVE"
	if len(f.statuses) > 0 {
		status = f.statuses[min(i, len(f.statuses)-1)]
	}
	return Observation[widget]{
		Model:         widget{ID: current.ID, Name: current.Name, Status: status},
		Status:        status,
		StatusMessage: f.message,
	}, nil
}

func (f *fakeAPI) Update(_ context.Context, desired, previous widget) (widget, error) {
	f.updates++
	if f.updateErr != nil {
		return widget{}, f.updateErr
	}
	desired.ID = previous.ID
	return desired, nil
}

func (f *fakeAPI) Delete(_ context.Context, _ widget) error {
	f.deletes++
	return f.deleteErr
}

func (f *fakeAPI) List(_ context.Context, _ widget, _ string) ([]widget, string, error) {
	if f.listErr != nil {
		return nil, "", f.listErr
	}
	return f.listed, f.listNext, nil
}

func testResource(budget int) *Resource[widget] {
	return &Resource[widget]{
		TypeName: "Test::Widget",
		Policy:   Policy{DelaySeconds: 5, RetryBudget: budget},
		Create: StatusSets{
			Stable: []string{"ACTIVE"}, Transient: []string{"CREATING"}, Failed: []string{"CREATE_FAILED"},
		},
		Update: StatusSets{
			Stable: []string{"ACTIVE"}, Transient: []string{"UPDATING"}, Failed: []string{"UPDATE_FAILED"},
		},
		Delete: StatusSets{
			Stable: []string{"DELETED"}, Transient: []string{"DELETING"}, Failed: []string{"DELETE_FAILED"},
		},
		Gone:     []string{"DELETED"},
		Identify: func(w widget) string { return w.ID },
	}
}

func newTestHandler(t *testing.T, budget int, api *fakeAPI) *Handler[widget] {
	t.Helper()
	h, err := NewHandler(testResource(budget), API[widget](api))
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	return h
}
