// Package query defines the contract for the external engine that serves the
// logical data relation (date, time, merchant, amount).
package query

import "context"

// State is the lifecycle state of a submitted query execution.
type State string

const (
	StateQueued    State = "QUEUED"
	StateRunning   State = "RUNNING"
	StateSucceeded State = "SUCCEEDED"
	StateFailed    State = "FAILED"
	StateCancelled State = "CANCELLED"
)

// Terminal reports whether the execution has finished, successfully or not.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateCancelled:
		return true
	}
	return false
}

// Status describes one execution of a submitted query. Reason carries the
// engine's explanation for a non-success terminal state.
type Status struct {
	State  State
	Reason string
}

// Parameter is a named query parameter.
type Parameter struct {
	Name  string
	Value interface{}
}

// Engine submits parameterized queries and exposes the poll/fetch cycle the
// report generator drives.
type Engine interface {
	// Submit starts a query execution and returns its identifier.
	Submit(ctx context.Context, sql string, params []Parameter) (string, error)

	// Poll reports the execution's current status.
	Poll(ctx context.Context, executionID string) (Status, error)

	// Results fetches all result rows as string cells, in the order the
	// query requested. Only valid once the execution has succeeded.
	Results(ctx context.Context, executionID string) ([][]string, error)
}
