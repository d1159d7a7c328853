package auditor

import "errors"

var (
	ErrListClusters = errors.New("list clusters")
	ErrNotReady     = errors.New("ledger auditor is not ready")
	ErrSchedule     = errors.New("invalid audit schedule")
)
