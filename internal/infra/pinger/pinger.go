package pinger

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skillcoder/admission-scheduler/internal/infra/metrics"
	"github.com/skillcoder/admission-scheduler/internal/infra/shutdown"
)

const (
	defaultPingTimeout = 1 * time.Second

	// defaultFailureThreshold is how many consecutive failures make a
	// health-critical component unhealthy.
	defaultFailureThreshold = 3
)

// Optional interface types for type assertions
type readyCriticalPinger interface {
	PingerReadyCritical() bool
}

type healthCriticalPinger interface {
	PingerCritical() bool
}

type timeoutPinger interface {
	PingerTimeout() time.Duration
}

type thresholdPinger interface {
	PingerFailureThreshold() int
}

type pingerInfo struct {
	pinger           Pinger
	readyCritical    bool
	healthCritical   bool
	timeout          time.Duration
	failureThreshold int
}

// Service pings registered components on an interval and keeps their results.
type Service struct {
	logger     *slog.Logger
	interval   time.Duration
	pingers    map[string]*pingerInfo
	stats      map[string]*Stats
	mu         sync.RWMutex
	ready      chan struct{}
	inShutdown atomic.Bool
	doneCh     chan struct{}
	wg         sync.WaitGroup
}

func New(
	logger *slog.Logger,
	interval time.Duration,
) *Service {
	return &Service{
		logger:   logger.With("component", "pinger"),
		interval: interval,
		pingers:  make(map[string]*pingerInfo),
		stats:    make(map[string]*Stats),
		ready:    make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

var _ shutdown.Shutdowner = (*Service)(nil)

func (s *Service) Name() string {
	return "pinger-service"
}

// Register adds a component. Optional methods on p override the defaults:
// PingerReadyCritical, PingerCritical, PingerTimeout, PingerFailureThreshold.
func (s *Service) Register(p Pinger) error {
	if p == nil {
		return fmt.Errorf("register pinger: %w", ErrNilPinger)
	}

	info := &pingerInfo{
		pinger:           p,
		readyCritical:    true,
		healthCritical:   true,
		timeout:          defaultPingTimeout,
		failureThreshold: defaultFailureThreshold,
	}

	if rc, ok := p.(readyCriticalPinger); ok {
		info.readyCritical = rc.PingerReadyCritical()
	}

	if hc, ok := p.(healthCriticalPinger); ok {
		info.healthCritical = hc.PingerCritical()
	}

	if tp, ok := p.(timeoutPinger); ok && tp.PingerTimeout() > 0 {
		info.timeout = tp.PingerTimeout()
	}

	if fp, ok := p.(thresholdPinger); ok && fp.PingerFailureThreshold() > 0 {
		info.failureThreshold = fp.PingerFailureThreshold()
	}

	name := p.Name()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.pingers[name]; exists {
		return fmt.Errorf("register pinger %s: %w", name, ErrPingerAlreadyRegistered)
	}

	s.pingers[name] = info
	s.stats[name] = newStats(name)

	s.logger.Info("pinger registered",
		"name", name,
		"readyCritical", info.readyCritical,
		"healthCritical", info.healthCritical,
		"timeout", info.timeout,
	)

	return nil
}

func (s *Service) Start(ctx context.Context) error {
	if s.inShutdown.Load() {
		s.logger.InfoContext(ctx, "pinger service is shutting down, skipping start")

		return nil
	}

	go s.run(ctx)

	return nil
}

// Ready is closed after the first round of pings finished.
func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

func (s *Service) Shutdown(ctx context.Context) error {
	if !s.inShutdown.CompareAndSwap(false, true) {
		s.logger.ErrorContext(ctx, "pinger service is already shutting down, skipping shutdown")

		return nil
	}

	defer func() {
		s.logger.InfoContext(ctx, "pinger service shut downed")
	}()

	s.logger.InfoContext(ctx, "shutting down pinger service")

	select {
	case <-ctx.Done():
		return fmt.Errorf("shutdown context done before pinger loop exited: %w", ctx.Err())
	case <-s.doneCh:
		s.logger.InfoContext(ctx, "pinger loop exited")
	}

	s.wg.Wait()

	return nil
}

func (s *Service) GetStats(name string) (*Statistics, error) {
	s.mu.RLock()
	info, infoExists := s.pingers[name]
	stats, statsExists := s.stats[name]
	s.mu.RUnlock()

	if !infoExists || !statsExists {
		return nil, fmt.Errorf("get stats: %w: %s", ErrPingerNotFound, name)
	}

	return stats.snapshot(info), nil
}

// GetAllStats returns a copy of every component's statistics.
func (s *Service) GetAllStats() map[string]*Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*Statistics, len(s.stats))
	for name, stats := range s.stats {
		result[name] = stats.snapshot(s.pingers[name])
	}

	return result
}

// PingAll runs one round of pings and waits for it.
func (s *Service) PingAll(ctx context.Context) {
	s.runPingers(ctx)
}

func (s *Service) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runPingers(ctx)
	close(s.ready)

	for {
		if s.inShutdown.Load() {
			s.logger.InfoContext(ctx, "terminating pinger loop")

			return
		}

		select {
		case <-ticker.C:
			s.runPingers(ctx)
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "terminating pinger loop")

			return
		}
	}
}

func (s *Service) runPingers(ctx context.Context) {
	s.mu.RLock()
	pingers := maps.Clone(s.pingers)
	s.mu.RUnlock()

	var wg sync.WaitGroup

	for name, info := range pingers {
		if ctx.Err() != nil {
			return
		}

		wg.Add(1)
		s.wg.Add(1)

		go func() {
			defer wg.Done()
			defer s.wg.Done()

			s.ping(ctx, name, info)
		}()
	}

	wg.Wait()
}

func (s *Service) ping(ctx context.Context, name string, info *pingerInfo) {
	pingCtx, cancel := context.WithTimeout(ctx, info.timeout)
	defer cancel()

	start := time.Now()
	err := info.pinger.Ping(pingCtx)
	latency := time.Since(start)

	s.mu.RLock()
	stats := s.stats[name]
	s.mu.RUnlock()

	stats.record(start, latency, err)
	metrics.RecordPing(name, latency.Seconds(), err == nil)

	if err != nil {
		s.logger.DebugContext(ctx, "pinger error", "name", name, "latency", latency, "reason", err)

		return
	}

	s.logger.DebugContext(ctx, "pinger success", "name", name, "latency", latency)
}
