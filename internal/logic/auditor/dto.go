package auditor

import "time"

// Violation is a pool found outside 0 <= available <= limit.
type Violation struct {
	ClusterID string
	Reason    error
}

// Report summarizes one audit pass.
type Report struct {
	Clusters   int
	Violations []Violation
	FinishedAt time.Time
}
