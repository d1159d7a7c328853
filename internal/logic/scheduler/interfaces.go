package scheduler

import (
	"context"
	"time"
)

// Repository is the port to the workload and cluster store.
// AdmitCommand and CompleteCommand must load, decide and persist the workload
// and its cluster pool inside one transaction.
type Repository interface {
	GetWorkloadQuery(
		ctx context.Context,
		id string,
	) (*Workload, error)

	AdmitCommand(
		ctx context.Context,
		id string,
	) (*AdmitResult, error)

	CompleteCommand(
		ctx context.Context,
		id string,
		status Status,
	) (*CompleteResult, error)

	PingQuery(ctx context.Context) error
}

// taskQueue runs attempts on a worker pool.
type taskQueue interface {
	Submit(task func(ctx context.Context)) error
	SubmitAfter(delay time.Duration, task func(ctx context.Context)) error
}

// Observer receives every attempt outcome.
type Observer interface {
	ObserveOutcome(ctx context.Context, outcome Outcome)
}
