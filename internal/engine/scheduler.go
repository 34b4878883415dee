package engine

import "time"

// Task is a named recurring job with its own interval.
type Task struct {
	Name     string
	Interval time.Duration

	lastFired time.Time
}

// Scheduler multiplexes several poll cadences onto one UI tick. The UI ticks
// at its own rate and asks which tasks are due; each task fires at most once
// per interval no matter how fast the ticks arrive.
type Scheduler struct {
	tasks []*Task
	now   func() time.Time
}

// NewScheduler registers the given tasks. A nil clock uses time.Now.
// Every task is due on the first Tick.
func NewScheduler(now func() time.Time, tasks ...*Task) *Scheduler {
	if now == nil {
		now = time.Now
	}
	return &Scheduler{tasks: tasks, now: now}
}

// Tick returns the names of tasks whose interval has elapsed, marking them
// fired.
func (s *Scheduler) Tick() []string {
	now := s.now()
	var due []string
	for _, t := range s.tasks {
		if t.lastFired.IsZero() || now.Sub(t.lastFired) >= t.Interval {
			t.lastFired = now
			due = append(due, t.Name)
		}
	}
	return due
}

// Force marks a task due on the next Tick. Unknown names are ignored.
func (s *Scheduler) Force(name string) {
	for _, t := range s.tasks {
		if t.Name == name {
			t.lastFired = time.Time{}
		}
	}
}
