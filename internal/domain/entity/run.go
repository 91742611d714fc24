package entity

import "time"

// Stage is the furthest pipeline stage that completed successfully.
type Stage string

const (
	StageNone       Stage = "none"
	StageCollected  Stage = "collected"
	StageCurated    Stage = "curated"
	StageDispatched Stage = "dispatched"
)

// State is a Pipeline Controller state.
type State string

const (
	StateIdle        State = "idle"
	StateCollecting  State = "collecting"
	StateCurating    State = "curating"
	StateDispatching State = "dispatching"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// RunResult is the terminal report of a pipeline execution.
type RunResult struct {
	RunID        string
	StageReached Stage
	// FailedIn is the state the controller was in when the run failed. Empty on success.
	FailedIn   State
	FinalState State
	Success    bool
	Kind       ErrorKind
	Err        error

	// Attempts is the number of transport attempts made by the Dispatcher.
	Attempts  int
	Subject   string
	StartedAt time.Time
	Duration  time.Duration
}

// ExitCode maps the result onto a process exit status.
// Zero means the newsletter was dispatched.
func (r RunResult) ExitCode() int {
	if r.Success && r.StageReached == StageDispatched {
		return 0
	}
	switch r.Kind {
	case KindInvalidRecipient, KindAuthentication:
		return 2
	case KindAborted:
		return 3
	default:
		return 1
	}
}
