package ledger

import (
	"fmt"
	"math"
)

// releaseTolerance is the relative rounding error Release absorbs before
// it counts an overshoot of the limit as a cap.
const releaseTolerance = 1e-9

// Pool holds a cluster's fixed limits and its unreserved counters.
// Pool is a plain value: callers that share a pool across goroutines must
// serialize access, either through Ledger or through a store transaction.
type Pool struct {
	Limit     Resources `json:"limit"`
	Available Resources `json:"available"`
}

// NewPool returns a pool with every unit of limit available.
func NewPool(limit Resources) (Pool, error) {
	if err := limit.Validate(); err != nil {
		return Pool{}, fmt.Errorf("new pool: %w", err)
	}

	return Pool{Limit: limit, Available: limit}, nil
}

// TryReserve decrements all three counters by demand when every dimension
// fits, and leaves the pool untouched otherwise.
func (p *Pool) TryReserve(demand Resources) bool {
	if demand.Validate() != nil {
		return false
	}

	if !demand.FitsIn(p.Available) {
		return false
	}

	p.Available = p.Available.Sub(demand)

	return true
}

// Release credits amount back to the pool, capped at the limit.
// It reports whether the cap had to be applied.
func (p *Pool) Release(amount Resources) bool {
	if amount.Validate() != nil {
		return false
	}

	raw := p.Available.Add(amount)

	var capped [3]bool

	p.Available.CPU, capped[0] = settle(raw.CPU, p.Limit.CPU)
	p.Available.RAM, capped[1] = settle(raw.RAM, p.Limit.RAM)
	p.Available.GPU, capped[2] = settle(raw.GPU, p.Limit.GPU)

	return capped[0] || capped[1] || capped[2]
}

// settle clamps sum to limit. Sums within rounding distance of the limit
// snap to it exactly and are not reported as capped.
func settle(sum, limit float64) (float64, bool) {
	tolerance := releaseTolerance * math.Max(1, limit)

	switch {
	case sum > limit+tolerance:
		return limit, true
	case sum >= limit-tolerance:
		return limit, false
	default:
		return sum, false
	}
}

// Validate checks 0 <= available <= limit in every dimension.
func (p Pool) Validate() error {
	if err := p.Limit.Validate(); err != nil {
		return fmt.Errorf("limit: %w", err)
	}

	if err := p.Available.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConservation, err)
	}

	if !p.Available.FitsIn(p.Limit) {
		return fmt.Errorf("%w: %w: available %s, limit %s",
			ErrConservation, ErrAvailableExceed, p.Available, p.Limit)
	}

	return nil
}

// Reserved returns limit minus available.
func (p Pool) Reserved() Resources {
	return p.Limit.Sub(p.Available)
}
