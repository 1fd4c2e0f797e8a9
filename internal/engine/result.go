// Package engine implements the reconciliation core shared by every resource
// type: error classification, status-driven stabilization with a retry
// budget, and resumable step chains for Create/Read/Update/Delete/List.
package engine

import "fmt"

// Operation is one of the five handler verbs.
type Operation string

// Handler operations.
const (
	OpCreate Operation = "create"
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
	OpList   Operation = "list"
)

// Validate checks that the operation is one of the five verbs.
func (o Operation) Validate() error {
	switch o {
	case OpCreate, OpRead, OpUpdate, OpDelete, OpList:
		return nil
	default:
		return fmt.Errorf("invalid operation %q", o)
	}
}

// Status tags an OperationResult.
type Status string

// Result statuses. Success and Failed are terminal.
const (
	StatusSuccess    Status = "SUCCESS"
	StatusInProgress Status = "IN_PROGRESS"
	StatusFailed     Status = "FAILED"
)

// IsTerminal returns true if the status ends the operation.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// Result is the tagged outcome of one handler invocation.
//
//   - Success carries the final Model (or Models and NextToken for List).
//   - InProgress carries the PausedState to replay and a positive DelaySeconds.
//   - Failed carries the ErrorKind and a message naming the resource.
type Result[M any] struct {
	Status       Status
	Model        M
	Models       []M
	NextToken    string
	Paused       *PausedState
	DelaySeconds int
	Kind         ErrorKind
	Message      string
}

// Success returns a terminal successful result.
func Success[M any](model M) Result[M] {
	return Result[M]{Status: StatusSuccess, Model: model}
}

// SuccessList returns a successful List result with the next page token.
func SuccessList[M any](models []M, nextToken string) Result[M] {
	return Result[M]{Status: StatusSuccess, Models: models, NextToken: nextToken}
}

// InProgress returns a non-terminal result asking the host to call back with
// paused no earlier than paused.CallbackDelaySeconds.
func InProgress[M any](paused PausedState) Result[M] {
	return Result[M]{
		Status:       StatusInProgress,
		Paused:       &paused,
		DelaySeconds: paused.CallbackDelaySeconds,
	}
}

// Failed returns a terminal failed result.
func Failed[M any](kind ErrorKind, message string) Result[M] {
	return Result[M]{Status: StatusFailed, Kind: kind, Message: message}
}

// FailedFrom converts a classified error into a Failed result.
func FailedFrom[M any](he *HandlerError) Result[M] {
	return Failed[M](he.Kind, he.Error())
}
