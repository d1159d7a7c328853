package scheduler

import "time"

const (
	// DefaultRetryDelay is the wait before each deferred re-attempt.
	DefaultRetryDelay = 60 * time.Second

	// DefaultRetryBudget is the number of delayed re-attempts after the initial one.
	DefaultRetryBudget = 3

	// DefaultFaultBudget bounds re-attempts caused by persistence faults.
	DefaultFaultBudget = 3

	// maxDependencyWalk bounds how many workloads a dependency check loads.
	maxDependencyWalk = 256
)
