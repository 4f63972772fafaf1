package models

import "time"

const (
	// SortByUrgency and SortByImportance are the two list orderings the
	// matrix views support. The chosen criterion is persisted as a user
	// preference and restored on startup.
	SortByUrgency    = "urgency"
	SortByImportance = "importance"
)

// DefaultColor is the palette entry used when a task carries no display tag.
const DefaultColor = "#3B82F6"

type Task struct {
	ID          string
	Title       string
	Description string
	Urgency     int
	Importance  int
	Color       string
	CreatedDate time.Time

	// NotificationDate is the requested reminder time; nil means no reminder.
	// NotificationID is non-empty iff a reminder is currently registered.
	NotificationDate *time.Time
	NotificationID   string
}

// CompletedTask is a snapshot taken at the moment of completion. It is a
// copy of the active task, not a reference, and never changes afterwards.
type CompletedTask struct {
	Task
	CompletedDate time.Time
}
