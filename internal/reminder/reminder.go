package reminder

import (
	"context"
	"errors"
	"time"
)

var (
	ErrPermissionDenied = errors.New("notification permission denied")
	// ErrAlreadyScheduled is returned when an id is re-registered without
	// an intervening cancel. Callers must always cancel first.
	ErrAlreadyScheduled = errors.New("reminder already scheduled")
)

// Gateway registers one-shot, time-triggered local alerts keyed by task id.
// Cancel is idempotent: canceling an unknown or already-fired id is not an
// error.
type Gateway interface {
	RequestPermission(ctx context.Context) error
	ScheduleOneShot(ctx context.Context, id, title, body string, fireAt time.Time) error
	Cancel(ctx context.Context, id string) error
}
