package ledger

import "sync"

// Ledger guards a single pool with a mutex so that check-and-decrement is
// one atomically visible step for every caller.
type Ledger struct {
	mu   sync.Mutex
	pool Pool
}

func New(pool Pool) *Ledger {
	return &Ledger{pool: pool}
}

func (l *Ledger) TryReserve(demand Resources) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.pool.TryReserve(demand)
}

func (l *Ledger) Release(amount Resources) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.pool.Release(amount)
}

// Snapshot returns a copy of the pool.
func (l *Ledger) Snapshot() Pool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.pool
}

// Update runs fn with exclusive access to the pool. Changes made by fn are
// kept only when fn returns nil.
func (l *Ledger) Update(fn func(pool *Pool) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	working := l.pool

	if err := fn(&working); err != nil {
		return err
	}

	l.pool = working

	return nil
}
