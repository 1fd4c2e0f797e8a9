package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownType is returned when no handler is registered for a type name.
var ErrUnknownType = errors.New("unknown resource type")

// RawRequest is the JSON form of an inbound invocation.
type RawRequest struct {
	TypeName      string          `json:"typeName"`
	Operation     Operation       `json:"operation"`
	DesiredModel  json.RawMessage `json:"desiredModel,omitempty"`
	PreviousModel json.RawMessage `json:"previousModel,omitempty"`
	PausedState   *PausedState    `json:"pausedState,omitempty"`
	NextToken     string          `json:"nextToken,omitempty"`
}

// RawResult is the JSON form of an OperationResult.
type RawResult struct {
	Status       Status            `json:"status"`
	Model        json.RawMessage   `json:"model,omitempty"`
	Models       []json.RawMessage `json:"models,omitempty"`
	NextToken    string            `json:"nextToken,omitempty"`
	PausedState  *PausedState      `json:"pausedState,omitempty"`
	DelaySeconds int               `json:"callbackDelaySeconds,omitempty"`
	ErrorKind    ErrorKind         `json:"errorCode,omitempty"`
	Message      string            `json:"message,omitempty"`
}

// Invoker handles RawRequests for one resource type.
type Invoker interface {
	TypeName() string
	Invoke(ctx context.Context, req RawRequest) (RawResult, error)
}

// Bind adapts a typed Handler to the JSON boundary.
func Bind[M any](h *Handler[M]) Invoker {
	return &boundHandler[M]{h: h}
}

type boundHandler[M any] struct {
	h *Handler[M]
}

func (b *boundHandler[M]) TypeName() string {
	return b.h.TypeName()
}

func (b *boundHandler[M]) Invoke(ctx context.Context, req RawRequest) (RawResult, error) {
	if err := req.Operation.Validate(); err != nil {
		return rawFailed(KindInvalidRequest, err.Error()), nil
	}
	desired, err := decodeModel[M](req.DesiredModel)
	if err != nil {
		return rawFailed(KindInvalidRequest, fmt.Sprintf("desired model: %v", err)), nil
	}
	previous, err := decodeModel[M](req.PreviousModel)
	if err != nil {
		return rawFailed(KindInvalidRequest, fmt.Sprintf("previous model: %v", err)), nil
	}

	res, err := b.h.Handle(ctx, Request[M]{
		Operation: req.Operation,
		Desired:   desired,
		Previous:  previous,
		Paused:    req.PausedState,
		NextToken: req.NextToken,
	})
	if err != nil {
		return RawResult{}, err
	}
	return encodeResult(req.Operation, res)
}

func decodeModel[M any](raw json.RawMessage) (M, error) {
	var m M
	if len(raw) == 0 || string(raw) == "null" {
		return m, nil
	}
	err := json.Unmarshal(raw, &m)
	return m, err
}

func encodeResult[M any](op Operation, res Result[M]) (RawResult, error) {
	out := RawResult{
		Status:       res.Status,
		NextToken:    res.NextToken,
		PausedState:  res.Paused,
		DelaySeconds: res.DelaySeconds,
		ErrorKind:    res.Kind,
		Message:      res.Message,
	}
	if res.Status != StatusSuccess {
		return out, nil
	}
	switch op {
	case OpDelete:
	case OpList:
		out.Models = make([]json.RawMessage, 0, len(res.Models))
		for _, m := range res.Models {
			b, err := json.Marshal(m)
			if err != nil {
				return RawResult{}, fmt.Errorf("encode model: %w", err)
			}
			out.Models = append(out.Models, b)
		}
	default:
		b, err := json.Marshal(res.Model)
		if err != nil {
			return RawResult{}, fmt.Errorf("encode model: %w", err)
		}
		out.Model = b
	}
	return out, nil
}

func rawFailed(kind ErrorKind, msg string) RawResult {
	return RawResult{Status: StatusFailed, ErrorKind: kind, Message: msg}
}

// Registry maps resource type names to invokers.
type Registry struct {
	mu       sync.RWMutex
	invokers map[string]Invoker
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{invokers: make(map[string]Invoker)}
}

// Register adds inv under its type name.
func (r *Registry) Register(inv Invoker) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := inv.TypeName()
	if _, dup := r.invokers[name]; dup {
		return fmt.Errorf("resource type %q already registered", name)
	}
	r.invokers[name] = inv
	return nil
}

// Lookup returns the invoker for name.
func (r *Registry) Lookup(name string) (Invoker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.invokers[name]
	return inv, ok
}

// TypeNames returns the registered type names in sorted order.
func (r *Registry) TypeNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.invokers))
	for name := range r.invokers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke dispatches req to the invoker registered for req.TypeName.
func (r *Registry) Invoke(ctx context.Context, req RawRequest) (RawResult, error) {
	inv, ok := r.Lookup(req.TypeName)
	if !ok {
		return RawResult{}, fmt.Errorf("%w: %q", ErrUnknownType, req.TypeName)
	}
	return inv.Invoke(ctx, req)
}
