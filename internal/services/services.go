package services

import (
	"context"
	"errors"
	"time"

	"github.com/hyeonup/eisenmatrix/internal/models"
)

var (
	ErrTaskNotFound         = errors.New("task not found")
	ErrInvalidSortCriterion = errors.New("invalid sort criterion")
)

type TaskService interface {
	// LoadAll restores both collections and the sort preference from the
	// storage gateway. Missing keys are treated as empty collections and
	// records that fail to decode are dropped, so a corrupt entry can
	// never prevent startup.
	LoadAll(ctx context.Context) error

	// CreateTask clamps the scores to [0,10] and rounds them, falls back
	// to a placeholder title when the given one is blank, and schedules a
	// reminder when a notification date is set. It never fails on valid
	// numeric input.
	CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error)

	// UpdateTask replaces the mutable fields of the task with the given
	// ID. The previous reminder is always canceled before a new one is
	// scheduled. It returns ErrTaskNotFound if no active task matches.
	UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error)

	// CompleteTask moves the task from the active to the completed
	// collection, canceling its reminder. The completed collection is
	// kept sorted by completion date descending and truncated to the
	// retention bound.
	CompleteTask(ctx context.Context, id string) (*models.CompletedTask, error)

	// DeleteCompletedTask removes one entry from the completed
	// collection. It returns ErrTaskNotFound if no entry matches.
	DeleteCompletedTask(ctx context.Context, id string) error

	DeleteAllCompletedTasks(ctx context.Context) error

	// DeleteAllActiveTasks cancels every outstanding reminder before
	// emptying the active collection.
	DeleteAllActiveTasks(ctx context.Context) error

	ActiveTasks() []models.Task
	CompletedTasks() []models.CompletedTask

	// SortedActiveTasks returns the active collection ordered descending
	// by the chosen criterion, ties broken by the other metric
	// descending. It is a pure projection.
	SortedActiveTasks(criterion string) []models.Task

	SortCriterion() string
	SetSortCriterion(ctx context.Context, criterion string) error

	// GroupByGridCell partitions the active collection by the
	// (urgency, importance) integer pair so the matrix view can render
	// one marker per occupied cell. Tasks keep insertion order within a
	// group; groups appear in first-seen cell order.
	GroupByGridCell() []GridCellGroup

	// UpcomingReminders returns active tasks whose notification date is
	// strictly after now, ascending. It is a pure projection.
	UpcomingReminders(now time.Time) []models.Task
}

type CreateTaskParams struct {
	Title       string
	Description string
	// Urgency and Importance may arrive fractional from a slider; they
	// are clamped and rounded before storage.
	Urgency          float64
	Importance       float64
	Color            string
	NotificationDate *time.Time
}

type UpdateTaskParams struct {
	ID               string
	Title            string
	Description      string
	Urgency          float64
	Importance       float64
	Color            string
	NotificationDate *time.Time
}

type GridCellGroup struct {
	Urgency    int
	Importance int
	Tasks      []models.Task
}
