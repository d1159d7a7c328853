package auditor

import (
	"context"
	"time"

	"github.com/skillcoder/admission-scheduler/internal/logic/scheduler"
)

// Repository lists the clusters whose pools are audited.
type Repository interface {
	ListClustersQuery(ctx context.Context) ([]scheduler.Cluster, error)
}

type scheduleParser interface {
	NextAfter(spec, tz string, after time.Time) (time.Time, error)
}
