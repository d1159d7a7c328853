package scheduler

import (
	"fmt"
	"time"

	"github.com/skillcoder/admission-scheduler/internal/logic/ledger"
)

// Status is the persisted lifecycle state of a workload.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusFailed    Status = "failed"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusFailed, StatusCompleted:
		return true
	default:
		return false
	}
}

// Workload is a deployment request bound to one cluster.
// Priority is stored but never consulted by admission.
type Workload struct {
	ID           string
	Name         string
	ClusterID    string
	Image        string
	Status       Status
	Priority     int
	Required     ledger.Resources
	Dependencies []string
}

// Cluster owns exactly one resource pool.
type Cluster struct {
	ID   string
	Name string
	Pool ledger.Pool
}

// Decision is what a single check-and-reserve concluded.
type Decision int

const (
	DecisionInsufficient Decision = iota
	DecisionAdmitted
	DecisionNotPending
	DecisionInvalid
)

func (d Decision) String() string {
	switch d {
	case DecisionInsufficient:
		return "insufficient"
	case DecisionAdmitted:
		return "admitted"
	case DecisionNotPending:
		return "not-pending"
	case DecisionInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// AdmitResult is the state committed by Repository.AdmitCommand.
type AdmitResult struct {
	Workload Workload
	Pool     ledger.Pool
	Decision Decision
}

// CompleteResult is the state committed by Repository.CompleteCommand.
type CompleteResult struct {
	Workload Workload
	Pool     ledger.Pool
	// Capped is set when the release had to be clipped at the pool limit.
	Capped bool
}

// Request identifies one admission attempt for a workload.
type Request struct {
	WorkloadID string
	// Attempt is 0 for the initial evaluation and counts delayed retries.
	Attempt int
	// Faults counts consecutive persistence faults for the current attempt.
	Faults int
}

// OutcomeKind classifies the result of one attempt.
type OutcomeKind string

const (
	OutcomeAdmitted  OutcomeKind = "admitted"
	OutcomeDeferred  OutcomeKind = "deferred"
	OutcomeNotFound  OutcomeKind = "not-found"
	OutcomeExhausted OutcomeKind = "exhausted"
	OutcomeSkipped   OutcomeKind = "skipped"
	OutcomeFaulted   OutcomeKind = "faulted"
	OutcomeFailed    OutcomeKind = "failed"
)

// Outcome is reported once per attempt.
type Outcome struct {
	Kind       OutcomeKind
	WorkloadID string
	ClusterID  string
	Attempt    int
	Status     Status
	Pool       ledger.Pool
	Err        error
}

// Terminal reports whether no further attempt will follow.
func (o Outcome) Terminal() bool {
	return o.Kind != OutcomeDeferred && o.Kind != OutcomeFaulted
}

// Message renders the human-readable result of the attempt.
func (o Outcome) Message() string {
	switch o.Kind {
	case OutcomeAdmitted:
		return fmt.Sprintf("workload %s is now running", o.WorkloadID)
	case OutcomeDeferred:
		if o.Err != nil {
			return fmt.Sprintf("workload %s is pending: %v", o.WorkloadID, o.Err)
		}

		return fmt.Sprintf("workload %s is pending due to insufficient resources", o.WorkloadID)
	case OutcomeNotFound:
		return fmt.Sprintf("workload %s not found", o.WorkloadID)
	case OutcomeExhausted:
		return fmt.Sprintf("workload %s exhausted retries after %d attempts, not scheduled",
			o.WorkloadID, o.Attempt+1)
	case OutcomeSkipped:
		return fmt.Sprintf("workload %s is already %s", o.WorkloadID, o.Status)
	case OutcomeFaulted:
		return fmt.Sprintf("error scheduling workload %s, will retry: %v", o.WorkloadID, o.Err)
	case OutcomeFailed:
		return fmt.Sprintf("error scheduling workload %s: %v", o.WorkloadID, o.Err)
	default:
		return fmt.Sprintf("workload %s: %s", o.WorkloadID, o.Kind)
	}
}

// ExhaustedWorkload records a workload the scheduler gave up on.
type ExhaustedWorkload struct {
	WorkloadID  string    `json:"workloadId"`
	ClusterID   string    `json:"clusterId"`
	Attempts    int       `json:"attempts"`
	ExhaustedAt time.Time `json:"exhaustedAt"`
}
