package scheduler

import (
	"fmt"

	"github.com/skillcoder/admission-scheduler/internal/logic/ledger"
)

// Decide is the admission rule applied inside a store transaction. It mutates
// the workload status and the pool counters in place; the caller persists
// both together when the decision is DecisionAdmitted or DecisionInsufficient.
func Decide(workload *Workload, pool *ledger.Pool) Decision {
	if workload.Status != StatusPending {
		return DecisionNotPending
	}

	if workload.Required.Validate() != nil {
		return DecisionInvalid
	}

	if pool.TryReserve(workload.Required) {
		workload.Status = StatusRunning

		return DecisionAdmitted
	}

	workload.Status = StatusPending

	return DecisionInsufficient
}

// CheckRegistration rejects a workload registered as running. A running
// workload holds a reservation, and only Decide takes one from the pool.
func CheckRegistration(workload *Workload) error {
	if workload.Status == StatusRunning {
		return fmt.Errorf("%w: %s", ErrRegisterRunning, workload.ID)
	}

	return nil
}

// Finish moves a running workload to a final status and credits its
// requirements back to the pool. It reports whether the release was capped.
func Finish(workload *Workload, pool *ledger.Pool, final Status) (bool, error) {
	if final != StatusCompleted && final != StatusFailed {
		return false, fmt.Errorf("%w: %q", ErrInvalidStatus, final)
	}

	if workload.Status != StatusRunning {
		return false, fmt.Errorf("%w: status %s", ErrNotRunning, workload.Status)
	}

	workload.Status = final

	return pool.Release(workload.Required), nil
}
