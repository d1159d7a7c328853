package pinger

import (
	"sync"
	"time"
)

// ErrorSnapshot records the most recent failed ping.
type ErrorSnapshot struct {
	Timestamp time.Time
	Latency   time.Duration
	Error     error
}

// Stats accumulates ping results of one component.
type Stats struct {
	mu                  sync.RWMutex
	name                string
	lastRun             time.Time
	lastLatency         time.Duration
	lastError           error
	lastErrorSnapshot   *ErrorSnapshot
	successCount        int
	errorCount          int
	consecutiveFailures int
}

func newStats(name string) *Stats {
	return &Stats{name: name}
}

func (s *Stats) record(at time.Time, latency time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastRun = at
	s.lastLatency = latency
	s.lastError = err

	if err != nil {
		s.errorCount++
		s.consecutiveFailures++
		s.lastErrorSnapshot = &ErrorSnapshot{Timestamp: at, Latency: latency, Error: err}

		return
	}

	s.successCount++
	s.consecutiveFailures = 0
}

// Statistics is a point-in-time view of a component's health.
type Statistics struct {
	IsReady             bool
	IsHealthy           bool
	LastRun             time.Time
	LastLatency         time.Duration
	LastError           error
	LastErrorSnapshot   *ErrorSnapshot
	SuccessCount        int
	ErrorCount          int
	ConsecutiveFailures int
}

func (s *Stats) snapshot(info *pingerInfo) *Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var lastErrorSnapshot *ErrorSnapshot
	if s.lastErrorSnapshot != nil {
		snap := *s.lastErrorSnapshot
		lastErrorSnapshot = &snap
	}

	failing := s.lastError != nil

	return &Statistics{
		IsReady:             !info.readyCritical || !failing,
		IsHealthy:           !info.healthCritical || s.consecutiveFailures < info.failureThreshold,
		LastRun:             s.lastRun,
		LastLatency:         s.lastLatency,
		LastError:           s.lastError,
		LastErrorSnapshot:   lastErrorSnapshot,
		SuccessCount:        s.successCount,
		ErrorCount:          s.errorCount,
		ConsecutiveFailures: s.consecutiveFailures,
	}
}
