package app

import (
	"context"
	"errors"

	"github.com/hyeonup/eisenmatrix/internal/config"
	"github.com/hyeonup/eisenmatrix/internal/reminder"
)

var globalReminderScheduler *reminder.Scheduler

func InitReminderScheduler() {
	cfg := config.Global().Reminder

	globalReminderScheduler = reminder.NewScheduler(globalLogger)
	globalReminderScheduler.SetPermissionGranted(cfg.PermissionGranted)

	// A denied permission degrades scheduling to a no-op; it must never
	// block task creation or editing.
	err := globalReminderScheduler.RequestPermission(context.Background())
	if err != nil && !errors.Is(err, reminder.ErrPermissionDenied) {
		globalLogger.Error().
			Err(err).
			Msg("failed to request notification permission")
	}
}

func StopReminderScheduler() {
	globalReminderScheduler.Stop()
	globalLogger.Info().Msg("stopped reminder scheduler")
}
