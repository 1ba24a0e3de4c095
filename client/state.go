package client

import "github.com/scout-labs/tradescout/models"

// Phase is the lifecycle stage of a workflow.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseInProgress
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseInProgress:
		return "in_progress"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// WorkflowState tracks one workflow's phase and, when failed, its error.
// Err is non-nil iff Phase == PhaseFailed.
type WorkflowState struct {
	Phase Phase
	Err   *ErrorInfo
}

// Snapshot is a consistent, read-only view of the orchestrator: both
// workflow states plus the current result set, captured under one lock so
// a consumer never observes a phase paired with another operation's
// result or error.
type Snapshot struct {
	Search  WorkflowState
	Export  WorkflowState
	Results *models.SearchResults
}
