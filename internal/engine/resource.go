package engine

import (
	"fmt"
	"slices"
)

// Phase is the engine's partition of a remote status value.
type Phase string

// Status phases. PhaseUnknown is never business-as-usual.
const (
	PhaseStable    Phase = "stable"
	PhaseTransient Phase = "transient"
	PhaseFailed    Phase = "failed"
	PhaseUnknown   Phase = "unknown"
)

// StatusSets partitions the remote statuses of one operation into three
// disjoint sets. Any value outside all three is PhaseUnknown.
type StatusSets struct {
	Stable    []string
	Transient []string
	Failed    []string
}

// Phase returns the phase status belongs to.
func (s StatusSets) Phase(status string) Phase {
	switch {
	case slices.Contains(s.Stable, status):
		return PhaseStable
	case slices.Contains(s.Transient, status):
		return PhaseTransient
	case slices.Contains(s.Failed, status):
		return PhaseFailed
	default:
		return PhaseUnknown
	}
}

// Validate checks the three sets are disjoint.
func (s StatusSets) Validate() error {
	seen := make(map[string]Phase)
	for phase, set := range map[Phase][]string{
		PhaseStable: s.Stable, PhaseTransient: s.Transient, PhaseFailed: s.Failed,
	} {
		for _, status := range set {
			if prior, dup := seen[status]; dup && prior != phase {
				return fmt.Errorf("status %q declared both %s and %s", status, prior, phase)
			}
			seen[status] = phase
		}
	}
	return nil
}

// Policy is the per-resource-type stabilization configuration.
type Policy struct {
	// DelaySeconds is the callback delay returned with every InProgress.
	DelaySeconds int `yaml:"delay_seconds" json:"delay_seconds" validate:"gt=0"`
	// RetryBudget is the number of transient observations tolerated.
	RetryBudget int `yaml:"retry_budget" json:"retry_budget" validate:"gt=0"`
}

// Retry policies observed across the resource family.
var (
	FastPolicy = Policy{DelaySeconds: 5, RetryBudget: 10}
	SlowPolicy = Policy{DelaySeconds: 60, RetryBudget: 20}
)

// Resource describes one resource type as data: its status partitions, retry
// policy, and classifier overrides. Control flow is shared by every type.
type Resource[M any] struct {
	// TypeName is the registry key (e.g. "AWS::DataZone::Domain").
	TypeName string
	Policy   Policy

	// Status sets consulted when stabilizing after each mutating verb.
	Create StatusSets
	Update StatusSets
	Delete StatusSets

	// Gone lists statuses a Read reports as NotFound.
	Gone []string

	Classifier *Classifier

	// Identify renders the identity of a model for messages.
	Identify func(M) string
}

// Validate checks the descriptor is usable.
func (r *Resource[M]) Validate() error {
	if r.TypeName == "" {
		return fmt.Errorf("resource: type name is required")
	}
	if r.Policy.DelaySeconds <= 0 || r.Policy.RetryBudget <= 0 {
		return fmt.Errorf("resource %s: policy %+v must be positive", r.TypeName, r.Policy)
	}
	for op, sets := range map[Operation]StatusSets{OpCreate: r.Create, OpUpdate: r.Update, OpDelete: r.Delete} {
		if err := sets.Validate(); err != nil {
			return fmt.Errorf("resource %s %s: %w", r.TypeName, op, err)
		}
	}
	return nil
}

func (r *Resource[M]) sets(op Operation) StatusSets {
	switch op {
	case OpCreate:
		return r.Create
	case OpUpdate:
		return r.Update
	case OpDelete:
		return r.Delete
	default:
		return StatusSets{}
	}
}

func (r *Resource[M]) identify(m M) string {
	if r.Identify == nil {
		return ""
	}
	return r.Identify(m)
}
