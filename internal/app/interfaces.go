package app

import (
	"context"
	"os"
	"time"

	"github.com/skillcoder/admission-scheduler/internal/adapters/outbound/k8s"
	"github.com/skillcoder/admission-scheduler/internal/infra/appstate"
	"github.com/skillcoder/admission-scheduler/internal/infra/pinger"
	"github.com/skillcoder/admission-scheduler/internal/infra/shutdown"
	"github.com/skillcoder/admission-scheduler/internal/logic/scheduler"
)

// appstater defines the interface for application state management
type appstater interface {
	RegisterPinger(pinger pinger.Pinger) error
	GetAllStats() map[string]*pinger.Statistics
	RegisterShutdowner(shutdowner shutdown.Shutdowner) error
	StartPinger(ctx context.Context) (<-chan struct{}, error)
	Quit() <-chan os.Signal
	SetStarting(ctx context.Context) error
	SetRunning(ctx context.Context) error
	GetStartTime() time.Time
	GetState() appstate.State
	GetUptime() time.Duration
	IsHealthy() bool
	IsReady() bool
	Shutdown(ctx context.Context) error
}

type signalHandler interface {
	HandleSignals(ctx context.Context, cancel func())
	CheckTermination(ctx context.Context) error
}

// component is a long-running part of the application with its own
// lifecycle.
type component interface {
	pinger.Pinger
	shutdown.Shutdowner
	Start(ctx context.Context) error
	Ready() <-chan struct{}
}

// store is what every storage backend offers to the application.
type store interface {
	scheduler.Repository
	clusterRegistrar

	RegisterWorkloadCommand(ctx context.Context, w scheduler.Workload) (bool, error)
	ListClustersQuery(ctx context.Context) ([]scheduler.Cluster, error)
	Name() string
}

type storePinger interface {
	Name() string
	PingQuery(ctx context.Context) error
}

type clusterRegistrar interface {
	RegisterClusterCommand(ctx context.Context, c scheduler.Cluster) (bool, error)
}

// schemaEnsurer is implemented by stores that own a schema.
type schemaEnsurer interface {
	EnsureSchema(ctx context.Context) error
}

type capacityQuerier interface {
	CapacityQuery(ctx context.Context, labelSelector string) (*k8s.Capacity, error)
}
