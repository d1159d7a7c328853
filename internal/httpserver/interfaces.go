package httpserver

import (
	"context"
	"time"

	"github.com/skillcoder/admission-scheduler/internal/infra/appstate"
	"github.com/skillcoder/admission-scheduler/internal/infra/pinger"
	"github.com/skillcoder/admission-scheduler/internal/logic/scheduler"
)

// appstater is an internal interface for application state management
type appstater interface {
	GetState() appstate.State
	IsHealthy() bool
	IsReady() bool
	GetUptime() time.Duration
	GetStartTime() time.Time
	GetAllStats() map[string]*pinger.Statistics
}

type admissionService interface {
	EnqueueCommand(ctx context.Context, workloadID string) error
	CompleteCommand(ctx context.Context, workloadID string, status scheduler.Status) (*scheduler.CompleteResult, error)
	ExhaustedQuery() []scheduler.ExhaustedWorkload
}

type storeReader interface {
	GetWorkloadQuery(ctx context.Context, id string) (*scheduler.Workload, error)
	ListClustersQuery(ctx context.Context) ([]scheduler.Cluster, error)
}
