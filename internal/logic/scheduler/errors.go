package scheduler

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrWorkloadNotFound     = errors.New("workload not found")
	ErrClusterNotFound      = errors.New("cluster not found")
	ErrPersistence          = errors.New("persistence fault")
	ErrNotRunning           = errors.New("workload is not running")
	ErrInvalidStatus        = errors.New("invalid completion status")
	ErrInvalidRequirements  = errors.New("invalid resource requirements")
	ErrEmptyWorkloadID      = errors.New("empty workload id")
	ErrEnqueue              = errors.New("enqueue admission")
	ErrRetrySchedule        = errors.New("schedule retry")
	ErrDependencyCycle      = errors.New("dependency cycle")
	ErrFaultBudgetExhausted = errors.New("fault budget exhausted")
	ErrUnexpected           = errors.New("unexpected fault")
	ErrRegisterRunning      = errors.New("workload cannot be registered as running")
)

// WrapStoreError annotates a store failure with op. Domain outcomes keep
// their identity; everything else becomes a persistence fault.
func WrapStoreError(op string, err error) error {
	switch {
	case errors.Is(err, ErrWorkloadNotFound),
		errors.Is(err, ErrClusterNotFound),
		errors.Is(err, ErrNotRunning),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
	}
}
