package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/skillcoder/admission-scheduler/internal/infra/metrics"
	"github.com/skillcoder/admission-scheduler/internal/logic/depgraph"
	"github.com/skillcoder/admission-scheduler/internal/logic/ledger"
)

// RetryPolicy bounds deferred and faulted re-attempts.
type RetryPolicy struct {
	Delay       time.Duration
	Budget      int
	FaultBudget int
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Delay:       DefaultRetryDelay,
		Budget:      DefaultRetryBudget,
		FaultBudget: DefaultFaultBudget,
	}
}

type Option func(*Service)

// WithObserver registers an observer notified after every attempt.
func WithObserver(observer Observer) Option {
	return func(s *Service) {
		s.observers = append(s.observers, observer)
	}
}

// WithDependencyGating defers workloads whose dependencies are not completed.
func WithDependencyGating(enabled bool) Option {
	return func(s *Service) {
		s.dependencyGating = enabled
	}
}

type Service struct {
	logger           *slog.Logger
	repo             Repository
	queue            taskQueue
	policy           RetryPolicy
	dependencyGating bool
	observers        []Observer

	mu        sync.Mutex
	active    map[string]struct{}
	exhausted map[string]ExhaustedWorkload
}

// New creates a new admission scheduler.
func New(
	logger *slog.Logger,
	repo Repository,
	queue taskQueue,
	policy RetryPolicy,
	opts ...Option,
) *Service {
	s := &Service{
		logger:    logger,
		repo:      repo,
		queue:     queue,
		policy:    policy,
		active:    make(map[string]struct{}),
		exhausted: make(map[string]ExhaustedWorkload),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the name of the scheduler component
func (s *Service) Name() string {
	return "admission-scheduler"
}

// Ping reports whether the backing store answers.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.repo.PingQuery(ctx); err != nil {
		return fmt.Errorf("ping repository: %w", err)
	}

	return nil
}

// EnqueueCommand accepts an admission request for a workload and queues its
// first attempt. A request for a workload whose attempt chain is still active
// is coalesced into that chain.
func (s *Service) EnqueueCommand(ctx context.Context, workloadID string) error {
	if workloadID == "" {
		return ErrEmptyWorkloadID
	}

	logger := s.logger.With("controller", "EnqueueCommand", "workloadID", workloadID)

	if !s.activate(workloadID) {
		logger.DebugContext(ctx, "admission already in progress, coalescing request")

		return nil
	}

	err := s.queue.Submit(s.attemptTask(Request{WorkloadID: workloadID}))
	if err != nil {
		s.deactivate(workloadID)

		return fmt.Errorf("%w: %w", ErrEnqueue, err)
	}

	logger.DebugContext(ctx, "admission request accepted")

	return nil
}

// AdmitCommand runs one admission attempt and, when the workload is deferred
// or hit a persistence fault, schedules the next attempt on the queue.
func (s *Service) AdmitCommand(ctx context.Context, req Request) (outcome Outcome) {
	logger := s.logger.With(
		"controller", "AdmitCommand",
		"workloadID", req.WorkloadID,
		"attempt", req.Attempt,
	)

	defer func() {
		if r := recover(); r != nil {
			outcome = Outcome{
				Kind:       OutcomeFailed,
				WorkloadID: req.WorkloadID,
				Attempt:    req.Attempt,
				Err:        fmt.Errorf("%w: %v", ErrUnexpected, r),
			}
		}

		s.finish(ctx, logger, outcome)
	}()

	outcome = s.evaluate(ctx, req)

	switch outcome.Kind {
	case OutcomeDeferred:
		if req.Attempt >= s.policy.Budget {
			outcome.Kind = OutcomeExhausted
			outcome.Err = nil
			s.recordExhausted(outcome)

			return outcome
		}

		next := Request{WorkloadID: req.WorkloadID, Attempt: req.Attempt + 1}

		if err := s.queue.SubmitAfter(s.policy.Delay, s.attemptTask(next)); err != nil {
			outcome.Kind = OutcomeFailed
			outcome.Err = fmt.Errorf("%w: %w", ErrRetrySchedule, err)
		}
	case OutcomeFaulted:
		if req.Faults >= s.policy.FaultBudget {
			outcome.Kind = OutcomeFailed
			outcome.Err = fmt.Errorf("%w: %w", ErrFaultBudgetExhausted, outcome.Err)

			return outcome
		}

		// a fault before the decision keeps the same attempt number
		next := Request{WorkloadID: req.WorkloadID, Attempt: req.Attempt, Faults: req.Faults + 1}

		if err := s.queue.SubmitAfter(s.policy.Delay, s.attemptTask(next)); err != nil {
			outcome.Kind = OutcomeFailed
			outcome.Err = errors.Join(outcome.Err, fmt.Errorf("%w: %w", ErrRetrySchedule, err))
		}
	}

	return outcome
}

// CompleteCommand marks a running workload completed or failed and releases
// its reservation back to the cluster pool.
func (s *Service) CompleteCommand(
	ctx context.Context,
	workloadID string,
	status Status,
) (*CompleteResult, error) {
	if workloadID == "" {
		return nil, ErrEmptyWorkloadID
	}

	if status != StatusCompleted && status != StatusFailed {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	logger := s.logger.With("controller", "CompleteCommand", "workloadID", workloadID)

	result, err := s.repo.CompleteCommand(ctx, workloadID, status)
	if err != nil {
		return nil, fmt.Errorf("complete workload: %w", err)
	}

	publishPool(result.Workload.ClusterID, result.Pool)

	if result.Capped {
		metrics.RecordReleaseCapped(result.Workload.ClusterID)
		logger.WarnContext(ctx, "release capped at pool limit",
			"clusterID", result.Workload.ClusterID,
			"available", result.Pool.Available.String(),
		)
	}

	logger.InfoContext(ctx, "workload finished, resources released",
		"clusterID", result.Workload.ClusterID,
		"status", string(result.Workload.Status),
		"released", result.Workload.Required.String(),
	)

	return result, nil
}

// ExhaustedQuery lists workloads whose retry budget ran out, oldest first.
func (s *Service) ExhaustedQuery() []ExhaustedWorkload {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ExhaustedWorkload, 0, len(s.exhausted))
	for _, e := range s.exhausted {
		out = append(out, e)
	}

	slices.SortFunc(out, func(a, b ExhaustedWorkload) int {
		if c := a.ExhaustedAt.Compare(b.ExhaustedAt); c != 0 {
			return c
		}

		return strings.Compare(a.WorkloadID, b.WorkloadID)
	})

	return out
}

func (s *Service) evaluate(ctx context.Context, req Request) Outcome {
	outcome := Outcome{WorkloadID: req.WorkloadID, Attempt: req.Attempt}

	if s.dependencyGating {
		root, waiting, err := s.pendingDependencies(ctx, req.WorkloadID)
		if err != nil {
			return s.classifyError(outcome, err)
		}

		if len(waiting) > 0 {
			outcome.ClusterID = root.ClusterID
			outcome.Kind = OutcomeDeferred
			outcome.Status = StatusPending
			outcome.Err = fmt.Errorf("waiting for dependencies %s", strings.Join(waiting, ", "))

			return outcome
		}
	}

	result, err := s.repo.AdmitCommand(ctx, req.WorkloadID)
	if err != nil {
		return s.classifyError(outcome, err)
	}

	outcome.ClusterID = result.Workload.ClusterID
	outcome.Status = result.Workload.Status
	outcome.Pool = result.Pool

	switch result.Decision {
	case DecisionAdmitted:
		outcome.Kind = OutcomeAdmitted
	case DecisionInsufficient:
		outcome.Kind = OutcomeDeferred
	case DecisionNotPending:
		outcome.Kind = OutcomeSkipped
	case DecisionInvalid:
		outcome.Kind = OutcomeFailed
		outcome.Err = fmt.Errorf("%w: %s", ErrInvalidRequirements, result.Workload.Required)
	default:
		outcome.Kind = OutcomeFailed
		outcome.Err = fmt.Errorf("%w: decision %s", ErrUnexpected, result.Decision)
	}

	return outcome
}

func (s *Service) classifyError(outcome Outcome, err error) Outcome {
	outcome.Err = err

	switch {
	case errors.Is(err, ErrWorkloadNotFound):
		outcome.Kind = OutcomeNotFound
		outcome.Err = nil
	case errors.Is(err, ErrClusterNotFound),
		errors.Is(err, ErrDependencyCycle),
		errors.Is(err, depgraph.ErrWalkLimit),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		outcome.Kind = OutcomeFailed
	default:
		outcome.Kind = OutcomeFaulted
	}

	return outcome
}

// pendingDependencies loads the workload and lists its direct dependencies
// that have not completed yet. It returns ErrDependencyCycle when the
// workload can never run.
func (s *Service) pendingDependencies(ctx context.Context, workloadID string) (*Workload, []string, error) {
	workloads := make(map[string]*Workload)

	fetch := func(ctx context.Context, id string) ([]string, bool, error) {
		w, err := s.repo.GetWorkloadQuery(ctx, id)
		if err != nil {
			if errors.Is(err, ErrWorkloadNotFound) && id != workloadID {
				return nil, false, nil
			}

			return nil, false, err
		}

		workloads[id] = w

		return w.Dependencies, true, nil
	}

	graph, err := depgraph.Walk(ctx, workloadID, maxDependencyWalk, fetch)
	if err != nil {
		return nil, nil, err
	}

	root := workloads[workloadID]

	// a workload that already left pending is judged by the store alone
	if root.Status != StatusPending {
		return root, nil, nil
	}

	if cycle := graph.FindCycle(workloadID); cycle != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrDependencyCycle, strings.Join(cycle, " -> "))
	}

	var waiting []string

	for _, dep := range graph.Dependencies(workloadID) {
		w, ok := workloads[dep]
		if !ok {
			continue
		}

		if w.Status != StatusCompleted {
			waiting = append(waiting, dep)
		}
	}

	return root, waiting, nil
}

func (s *Service) attemptTask(req Request) func(ctx context.Context) {
	return func(ctx context.Context) {
		s.AdmitCommand(ctx, req)
	}
}

func (s *Service) finish(ctx context.Context, logger *slog.Logger, outcome Outcome) {
	if outcome.Terminal() {
		s.deactivate(outcome.WorkloadID)
	}

	metrics.RecordAdmissionOutcome(string(outcome.Kind))

	// outcomes decided before the store was reached carry no pool
	if outcome.ClusterID != "" && outcome.Pool != (ledger.Pool{}) {
		publishPool(outcome.ClusterID, outcome.Pool)
	}

	logger = logger.With("outcome", string(outcome.Kind))
	if outcome.ClusterID != "" {
		logger = logger.With("clusterID", outcome.ClusterID)
	}

	switch outcome.Kind {
	case OutcomeAdmitted:
		logger.InfoContext(ctx, outcome.Message(), "available", outcome.Pool.Available.String())
	case OutcomeExhausted:
		metrics.RecordRetriesExhausted(outcome.ClusterID)
		logger.WarnContext(ctx, outcome.Message(), "event", "retries_exhausted")
	case OutcomeFaulted, OutcomeFailed:
		logger.ErrorContext(ctx, outcome.Message(), "reason", outcome.Err)
	default:
		logger.InfoContext(ctx, outcome.Message())
	}

	for _, o := range s.observers {
		o.ObserveOutcome(ctx, outcome)
	}
}

func (s *Service) recordExhausted(outcome Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.exhausted[outcome.WorkloadID] = ExhaustedWorkload{
		WorkloadID:  outcome.WorkloadID,
		ClusterID:   outcome.ClusterID,
		Attempts:    outcome.Attempt + 1,
		ExhaustedAt: time.Now(),
	}
}

func (s *Service) activate(workloadID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.active[workloadID]; ok {
		return false
	}

	s.active[workloadID] = struct{}{}
	// a fresh request starts a new retry budget
	delete(s.exhausted, workloadID)

	return true
}

func (s *Service) deactivate(workloadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.active, workloadID)
}

func publishPool(clusterID string, pool ledger.Pool) {
	metrics.SetPool(
		clusterID,
		[3]float64{pool.Limit.CPU, pool.Limit.RAM, pool.Limit.GPU},
		[3]float64{pool.Available.CPU, pool.Available.RAM, pool.Available.GPU},
	)
}
