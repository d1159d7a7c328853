package k8s

import "errors"

var (
	// ErrNoSchedulableNodes is returned when no ready node can take workloads
	ErrNoSchedulableNodes = errors.New("no schedulable nodes")

	// ErrForbidden is returned when the service account may not list nodes
	ErrForbidden = errors.New("listing nodes is forbidden")
)

// TooManyRequestsError represents API throttling; callers may retry later.
type TooManyRequestsError struct{}

func (e *TooManyRequestsError) Error() string {
	return "too many requests"
}

func (e *TooManyRequestsError) IsTooManyRequests() {}

var errTooManyRequests = &TooManyRequestsError{}
