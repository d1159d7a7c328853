package workqueue

import "errors"

var (
	// ErrQueueFull is returned when the task buffer has no free slot
	ErrQueueFull = errors.New("work queue is full")

	// ErrQueueClosed is returned after shutdown has started
	ErrQueueClosed = errors.New("work queue is closed")
)
