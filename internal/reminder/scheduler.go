package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Scheduler is an in-process Gateway backed by a timer registry. It stands
// in for the OS notification scheduler: firing an alert logs it and drops
// the registration, matching the one-shot semantics of the real thing.
type Scheduler struct {
	logger zerolog.Logger

	mu      sync.Mutex
	granted bool
	timers  map[string]*time.Timer

	// onFire is invoked after an alert fires, if set. Tests use it to
	// observe delivery.
	onFire func(id, title, body string)
}

func NewScheduler(logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		logger: logger,
		timers: map[string]*time.Timer{},
	}
}

// SetPermissionGranted seeds the permission state before RequestPermission
// is called, mirroring the OS-level prompt outcome.
func (s *Scheduler) SetPermissionGranted(granted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.granted = granted
}

func (s *Scheduler) OnFire(fn func(id, title, body string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFire = fn
}

func (s *Scheduler) RequestPermission(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.granted {
		s.logger.Warn().Msg("notification permission denied")
		return ErrPermissionDenied
	}
	s.logger.Info().Msg("notification permission granted")
	return nil
}

func (s *Scheduler) ScheduleOneShot(_ context.Context, id, title, body string, fireAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.granted {
		// Degrade silently rather than blocking the task lifecycle.
		s.logger.Debug().
			Str("id", id).
			Msg("skipped scheduling, permission not granted")
		return nil
	}

	if _, exists := s.timers[id]; exists {
		s.logger.Error().
			Str("id", id).
			Msg("reminder already scheduled")
		return ErrAlreadyScheduled
	}

	s.timers[id] = time.AfterFunc(time.Until(fireAt), func() {
		s.fire(id, title, body)
	})
	s.logger.Debug().
		Str("id", id).
		Time("fire_at", fireAt).
		Msg("scheduled reminder")
	return nil
}

func (s *Scheduler) Cancel(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer, ok := s.timers[id]
	if !ok {
		return nil
	}
	timer.Stop()
	delete(s.timers, id)
	s.logger.Debug().
		Str("id", id).
		Msg("canceled reminder")
	return nil
}

// Stop cancels every outstanding timer. Called on shutdown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}

func (s *Scheduler) fire(id, title, body string) {
	s.mu.Lock()
	delete(s.timers, id)
	onFire := s.onFire
	s.mu.Unlock()

	s.logger.Info().
		Str("id", id).
		Str("title", title).
		Msg("reminder fired")

	if onFire != nil {
		onFire(id, title, body)
	}
}
