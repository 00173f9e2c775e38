package utils

// Constants
const (
	// ARRIVAL_LAYOUT is the fixed, second-precision layout of crossing arrival times.
	ARRIVAL_LAYOUT = "2006-01-02T15:04:05"

	// NCTS_SYSTEM tags the external reference that carries a transit mrn.
	NCTS_SYSTEM = "NCTS"
)
