package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/skillcoder/admission-scheduler/internal/adapters/inbound/seedfile"
	"github.com/skillcoder/admission-scheduler/internal/adapters/outbound/k8s"
	"github.com/skillcoder/admission-scheduler/internal/config"
	"github.com/skillcoder/admission-scheduler/internal/httpserver"
	"github.com/skillcoder/admission-scheduler/internal/infra/cronparser"
	"github.com/skillcoder/admission-scheduler/internal/infra/shutdown"
	"github.com/skillcoder/admission-scheduler/internal/infra/workqueue"
	"github.com/skillcoder/admission-scheduler/internal/logic/auditor"
	"github.com/skillcoder/admission-scheduler/internal/logic/ledger"
	"github.com/skillcoder/admission-scheduler/internal/logic/scheduler"
)

type App struct {
	logger     *slog.Logger
	cfg        *config.Config
	appState   appstater
	signals    signalHandler
	store      store
	admission  *scheduler.Service
	components []component
}

// New creates a new application instance with all dependencies wired.
func New(ctx context.Context, logger *slog.Logger, cfg *config.Config, appState appstater) (*App, error) {
	st, err := openStore(ctx, logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	queue := workqueue.New(logger.With("component", "work-queue"), cfg.Workers, cfg.QueueSize)

	admission := scheduler.New(
		logger.With("component", "admission-scheduler"),
		st,
		queue,
		scheduler.RetryPolicy{
			Delay:       cfg.RetryDelay,
			Budget:      cfg.RetryBudget,
			FaultBudget: cfg.FaultBudget,
		},
		scheduler.WithDependencyGating(cfg.DependencyGating),
	)

	audit, err := auditor.New(logger, st, cronparser.New(), cfg.AuditSchedule, cfg.AuditTZ)
	if err != nil {
		return nil, fmt.Errorf("create ledger auditor: %w", err)
	}

	return &App{
		logger:    logger,
		cfg:       cfg,
		appState:  appState,
		signals:   shutdown.New(logger, appState, cfg.TerminationFile),
		store:     st,
		admission: admission,
		// Started in order and shut down in reverse: the API stops accepting
		// requests before the queue drains.
		components: []component{
			queue,
			audit,
			httpserver.NewMetricsServer(logger, cfg.MetricsPort),
			httpserver.New(logger, appState, admission, st, cfg.HTTPPort),
		},
	}, nil
}

// Run starts the application and blocks until a termination signal arrives
// or ctx is cancelled, then shuts every component down.
func (a *App) Run(originCtx context.Context) error {
	err := a.signals.CheckTermination(originCtx)
	if err != nil {
		return fmt.Errorf("check termination: %w", err)
	}

	ctx, cancel := context.WithCancel(originCtx)
	defer cancel()

	go a.signals.HandleSignals(ctx, cancel)

	runErr := a.start(ctx)
	if runErr == nil {
		a.logger.InfoContext(ctx, "admission scheduler is running")

		<-ctx.Done()
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := a.appState.Shutdown(shutdownCtx); err != nil {
		return errors.Join(runErr, fmt.Errorf("shutdown: %w", err))
	}

	return runErr
}

func (a *App) start(ctx context.Context) error {
	if err := a.appState.SetStarting(ctx); err != nil {
		return fmt.Errorf("set starting: %w", err)
	}

	if err := a.startStore(ctx); err != nil {
		return err
	}

	readyChans := make([]<-chan struct{}, 0, len(a.components))

	for _, c := range a.components {
		if err := a.appState.RegisterShutdowner(c); err != nil {
			return fmt.Errorf("register shutdowner: %w", err)
		}

		if err := a.appState.RegisterPinger(c); err != nil {
			return fmt.Errorf("register pinger: %w", err)
		}

		if err := c.Start(ctx); err != nil {
			return fmt.Errorf("start %s: %w", c.Name(), err)
		}

		readyChans = append(readyChans, c.Ready())
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("waiting for components: %w", ctx.Err())
	case <-allChannelsClose(ctx, a.logger, readyChans...):
	}

	if ctx.Err() != nil {
		return fmt.Errorf("waiting for components: %w", ctx.Err())
	}

	pingerReady, err := a.appState.StartPinger(ctx)
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("waiting for first ping round: %w", ctx.Err())
	case <-pingerReady:
	}

	if err := a.appState.SetRunning(ctx); err != nil {
		return fmt.Errorf("set running: %w", err)
	}

	return nil
}

// startStore registers the store first so that it is closed last, waits for
// it and loads the initial clusters and workloads.
func (a *App) startStore(ctx context.Context) error {
	if closer, ok := a.store.(shutdown.Shutdowner); ok {
		if err := a.appState.RegisterShutdowner(closer); err != nil {
			return fmt.Errorf("register shutdowner: %w", err)
		}
	}

	// the scheduler pings through to the store
	if err := a.appState.RegisterPinger(a.admission); err != nil {
		return fmt.Errorf("register pinger: %w", err)
	}

	if err := waitForStore(ctx, a.logger, a.store, a.cfg.StoreConnectTimeout); err != nil {
		return err
	}

	if ensurer, ok := a.store.(schemaEnsurer); ok {
		if err := ensurer.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	if a.cfg.SeedFile != "" {
		seed, err := seedfile.Load(a.cfg.SeedFile)
		if err != nil {
			return fmt.Errorf("load seed: %w", err)
		}

		if _, err := seedfile.Apply(ctx, a.logger, a.store, seed); err != nil {
			return fmt.Errorf("apply seed: %w", err)
		}
	}

	if a.cfg.KubeCapacityCluster != "" {
		capacity, err := a.newCapacityAdapter()
		if err != nil {
			return err
		}

		err = registerCapacity(ctx, a.logger, capacity, a.store, a.cfg.KubeCapacityCluster, a.cfg.KubeNodeSelector)
		if err != nil {
			return err
		}
	}

	return nil
}

func (a *App) newCapacityAdapter() (*k8s.Adapter, error) {
	kubeConfig, err := clientcmd.BuildConfigFromFlags(
		a.cfg.KubeMaster,
		a.cfg.KubeConfig,
	)
	if err != nil {
		return nil, fmt.Errorf("build k8s config: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(kubeConfig)
	if err != nil {
		return nil, fmt.Errorf("create clientset: %w", err)
	}

	return k8s.New(a.logger, clientset), nil
}

// registerCapacity turns the allocatable resources of the Kubernetes nodes
// into the pool of clusterID. An already registered cluster keeps its ledger.
func registerCapacity(
	ctx context.Context,
	logger *slog.Logger,
	capacity capacityQuerier,
	registrar clusterRegistrar,
	clusterID,
	selector string,
) error {
	found, err := capacity.CapacityQuery(ctx, selector)
	if err != nil {
		return fmt.Errorf("query capacity: %w", err)
	}

	pool, err := ledger.NewPool(found.Resources)
	if err != nil {
		return fmt.Errorf("capacity pool: %w", err)
	}

	created, err := registrar.RegisterClusterCommand(ctx, scheduler.Cluster{
		ID:   clusterID,
		Name: clusterID,
		Pool: pool,
	})
	if err != nil {
		return fmt.Errorf("register capacity cluster: %w", err)
	}

	logger.InfoContext(ctx, "capacity cluster registered",
		"clusterID", clusterID,
		"created", created,
		"capacity", found.Resources.String(),
	)

	return nil
}

// allChannelsClose returns a channel that is closed once every input channel
// is closed or ctx is done.
func allChannelsClose(ctx context.Context, logger *slog.Logger, chans ...<-chan struct{}) <-chan struct{} {
	out := make(chan struct{})

	go func() {
		defer close(out)

		for _, ch := range chans {
			select {
			case <-ctx.Done():
				logger.DebugContext(ctx, "stopped waiting for ready channels", "reason", ctx.Err())

				return
			case <-ch:
			}
		}
	}()

	return out
}
