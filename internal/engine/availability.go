// Package engine holds the dashboard-side data plane: concurrent fetching,
// incremental history sync, windowed decimation, and the small pieces of
// presentation state machinery (availability tracking, value interpolation,
// tick scheduling) the UI drives.
package engine

// Availability tracks whether the server is considered reachable. A single
// failed poll is tolerated as a blip; the dashboard only degrades after
// consecutive failures, and recovers on the first success.
type Availability struct {
	failThreshold    int
	consecutiveFails int
	degraded         bool
}

// NewAvailability returns a tracker that degrades after failThreshold
// consecutive failures. Values below 1 are treated as 1.
func NewAvailability(failThreshold int) *Availability {
	if failThreshold < 1 {
		failThreshold = 1
	}
	return &Availability{failThreshold: failThreshold}
}

// RecordFailure notes one failed poll. Returns true when this failure flipped
// the state to degraded.
func (a *Availability) RecordFailure() bool {
	a.consecutiveFails++
	if !a.degraded && a.consecutiveFails >= a.failThreshold {
		a.degraded = true
		return true
	}
	return false
}

// RecordSuccess notes one successful poll. Returns true when this success
// flipped the state back to available.
func (a *Availability) RecordSuccess() bool {
	a.consecutiveFails = 0
	if a.degraded {
		a.degraded = false
		return true
	}
	return false
}

// Degraded reports whether the server is currently considered unreachable.
func (a *Availability) Degraded() bool {
	return a.degraded
}

// ConsecutiveFails returns the current failure streak.
func (a *Availability) ConsecutiveFails() int {
	return a.consecutiveFails
}
