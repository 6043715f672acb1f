package editor

import (
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/profilekeeper/internal/client/models"
	"github.com/dmitrijs2005/profilekeeper/internal/timex"
)

// Scheduler runs at most one delayed task per field. Arming a field
// replaces its pending task; fields never affect each other.
type Scheduler struct {
	clock timex.Clock
	delay time.Duration

	mu    sync.Mutex
	tasks map[models.Field]*task
}

type task struct {
	timer timex.Timer
}

func NewScheduler(clock timex.Clock, delay time.Duration) *Scheduler {
	return &Scheduler{
		clock: clock,
		delay: delay,
		tasks: make(map[models.Field]*task),
	}
}

// Arm schedules fn for field f after the delay, replacing any pending task
// for f.
func (s *Scheduler) Arm(f models.Field, fn func()) {
	t := &task{}

	s.mu.Lock()
	defer s.mu.Unlock()
	if old := s.tasks[f]; old != nil {
		old.timer.Stop()
	}
	s.tasks[f] = t
	t.timer = s.clock.AfterFunc(s.delay, func() {
		s.mu.Lock()
		// A replaced or cancelled task may still fire if Stop lost the race.
		if s.tasks[f] != t {
			s.mu.Unlock()
			return
		}
		delete(s.tasks, f)
		s.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending task for f. It reports whether there was one.
func (s *Scheduler) Cancel(f models.Field) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tasks[f]
	if t == nil {
		return false
	}
	t.timer.Stop()
	delete(s.tasks, f)
	return true
}

// CancelAll drops every pending task and returns the fields it dropped.
func (s *Scheduler) CancelAll() []models.Field {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Field
	for f, t := range s.tasks {
		t.timer.Stop()
		out = append(out, f)
	}
	clear(s.tasks)
	slices.Sort(out)
	return out
}

// Pending returns the fields with an armed task, sorted.
func (s *Scheduler) Pending() []models.Field {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Field, 0, len(s.tasks))
	for f := range s.tasks {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}
