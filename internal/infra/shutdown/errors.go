package shutdown

import "errors"

// ErrTerminationRequested is returned when the termination file exists at startup.
var ErrTerminationRequested = errors.New("termination requested")
