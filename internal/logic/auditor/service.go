package auditor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skillcoder/admission-scheduler/internal/infra/metrics"
)

// Service periodically checks every cluster pool for conservation.
type Service struct {
	logger     *slog.Logger
	repo       Repository
	parser     scheduleParser
	schedule   string
	tz         string
	ready      chan struct{}
	doneCh     chan struct{}
	inShutdown atomic.Bool
	mu         sync.RWMutex
	lastErr    error
	lastReport Report
}

// New validates the schedule and creates a ledger auditor.
func New(
	logger *slog.Logger,
	repo Repository,
	parser scheduleParser,
	schedule,
	tz string,
) (*Service, error) {
	if _, err := parser.NextAfter(schedule, tz, time.Now()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchedule, err)
	}

	return &Service{
		logger:   logger.With("component", "ledger-auditor"),
		repo:     repo,
		parser:   parser,
		schedule: schedule,
		tz:       tz,
		ready:    make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

func (s *Service) Name() string {
	return "ledger-auditor"
}

func (s *Service) Start(ctx context.Context) error {
	if s.inShutdown.Load() {
		s.logger.InfoContext(ctx, "ledger auditor is shutting down, skipping start")

		return nil
	}

	go s.RunCommand(ctx)

	return nil
}

func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

// Ping fails until the first pass ran and while the last pass could not list clusters.
func (s *Service) Ping(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ready:
		s.mu.RLock()
		defer s.mu.RUnlock()

		return s.lastErr
	default:
		return ErrNotReady
	}
}

// PingerReadyCritical keeps a failing audit out of readiness.
func (s *Service) PingerReadyCritical() bool {
	return false
}

func (s *Service) Shutdown(ctx context.Context) error {
	if !s.inShutdown.CompareAndSwap(false, true) {
		s.logger.ErrorContext(ctx, "ledger auditor is already shutting down, skipping shutdown")

		return nil
	}

	defer func() {
		s.logger.InfoContext(ctx, "ledger auditor shut downed")
	}()

	s.logger.InfoContext(ctx, "shutting down ledger auditor")

	select {
	case <-ctx.Done():
		return fmt.Errorf("shutdown context done before audit loop exited: %w", ctx.Err())
	case <-s.doneCh:
		s.logger.InfoContext(ctx, "audit loop exited")
	}

	return nil
}

// LastReport returns the result of the most recent pass.
func (s *Service) LastReport() Report {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastReport
}

// AuditCommand runs one audit pass over every cluster.
func (s *Service) AuditCommand(ctx context.Context) (Report, error) {
	clusters, err := s.repo.ListClustersQuery(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrListClusters, err)
		s.setResult(Report{}, err)

		return Report{}, err
	}

	report := Report{Clusters: len(clusters)}

	for i := range clusters {
		c := &clusters[i]
		pool := c.Pool

		metrics.SetPool(
			c.ID,
			[3]float64{pool.Limit.CPU, pool.Limit.RAM, pool.Limit.GPU},
			[3]float64{pool.Available.CPU, pool.Available.RAM, pool.Available.GPU},
		)

		if err := pool.Validate(); err != nil {
			metrics.RecordAuditViolation(c.ID)
			s.logger.ErrorContext(ctx, "pool conservation violated",
				"clusterID", c.ID,
				"limit", pool.Limit.String(),
				"available", pool.Available.String(),
				"reason", err,
			)

			report.Violations = append(report.Violations, Violation{ClusterID: c.ID, Reason: err})
		}
	}

	report.FinishedAt = time.Now()
	s.setResult(report, nil)

	s.logger.DebugContext(ctx, "ledger audited",
		"clusters", report.Clusters,
		"violations", len(report.Violations),
	)

	return report, nil
}

// RunCommand audits once, then on every schedule occurrence until ctx is done.
func (s *Service) RunCommand(ctx context.Context) {
	defer close(s.doneCh)

	s.audit(ctx)
	close(s.ready)

	for {
		next, err := s.parser.NextAfter(s.schedule, s.tz, time.Now())
		if err != nil {
			s.logger.ErrorContext(ctx, "compute next audit", "reason", err)

			return
		}

		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.InfoContext(ctx, "terminating audit loop")

			return
		case <-timer.C:
		}

		s.audit(ctx)
	}
}

func (s *Service) audit(ctx context.Context) {
	if _, err := s.AuditCommand(ctx); err != nil {
		s.logger.ErrorContext(ctx, "audit error", "reason", err)
	}
}

func (s *Service) setResult(report Report, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastErr = err
	if err == nil {
		s.lastReport = report
	}
}
