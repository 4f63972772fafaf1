package services

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hyeonup/eisenmatrix/internal/models"
	"github.com/hyeonup/eisenmatrix/internal/reminder"
	"github.com/hyeonup/eisenmatrix/internal/storage"
)

// completedTaskRetention bounds the completed collection: only the most
// recently completed tasks are kept, oldest discarded first.
const completedTaskRetention = 30

// placeholderTitle is stored when a task is created with a blank title.
const placeholderTitle = "Untitled task"

const reminderTitle = "Task Reminder"

type taskServiceImpl struct {
	logger    zerolog.Logger
	store     storage.Gateway
	reminders reminder.Gateway

	// The mutex is held across gateway calls during mutations, which
	// serializes snapshot writes per key: the last write always carries
	// the latest state.
	mu            sync.RWMutex
	active        []models.Task
	completed     []models.CompletedTask
	sortCriterion string
}

func NewTaskService(
	logger zerolog.Logger,
	store storage.Gateway,
	reminders reminder.Gateway,
) TaskService {
	return &taskServiceImpl{
		logger:        logger,
		store:         store,
		reminders:     reminders,
		active:        []models.Task{},
		completed:     []models.CompletedTask{},
		sortCriterion: models.SortByUrgency,
	}
}

// clampScore commits a possibly fractional slider value as an integer
// score in [0,10].
func clampScore(v float64) int {
	return int(math.Round(math.Min(math.Max(v, 0), 10)))
}

func (s *taskServiceImpl) LoadAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadActiveLocked(ctx); err != nil {
		return err
	}
	if err := s.loadCompletedLocked(ctx); err != nil {
		return err
	}
	s.loadSortCriterionLocked(ctx)

	s.logger.Info().
		Int("active", len(s.active)).
		Int("completed", len(s.completed)).
		Str("sort", s.sortCriterion).
		Msg("restored tasks")
	return nil
}

func (s *taskServiceImpl) loadActiveLocked(ctx context.Context) error {
	s.active = []models.Task{}

	payload, err := s.store.Get(ctx, storage.KeyActiveTasks)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil
		}
		s.logger.Error().
			Err(err).
			Msg("failed to read active tasks")
		return err
	}

	tasks, dropped, err := decodeActiveTasks(payload)
	if err != nil {
		// The whole payload is unparseable: start from an empty
		// collection rather than refusing to start.
		s.logger.Error().
			Err(err).
			Msg("failed to decode active tasks, starting empty")
		return nil
	}
	if dropped > 0 {
		s.logger.Warn().
			Int("dropped", dropped).
			Msg("dropped unparseable active task records")
	}

	s.active = tasks
	return nil
}

func (s *taskServiceImpl) loadCompletedLocked(ctx context.Context) error {
	s.completed = []models.CompletedTask{}

	payload, err := s.store.Get(ctx, storage.KeyCompletedTasks)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil
		}
		s.logger.Error().
			Err(err).
			Msg("failed to read completed tasks")
		return err
	}

	tasks, dropped, err := decodeCompletedTasks(payload)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to decode completed tasks, starting empty")
		return nil
	}
	if dropped > 0 {
		s.logger.Warn().
			Int("dropped", dropped).
			Msg("dropped unparseable completed task records")
	}

	s.completed = tasks
	s.sortCompletedLocked()
	s.truncateCompletedLocked()
	return nil
}

func (s *taskServiceImpl) loadSortCriterionLocked(ctx context.Context) {
	value, err := s.store.Get(ctx, storage.KeySortCriterion)
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			s.logger.Error().
				Err(err).
				Msg("failed to read sort preference")
		}
		return
	}

	if value != models.SortByUrgency && value != models.SortByImportance {
		s.logger.Warn().
			Str("value", value).
			Msg("ignoring unknown sort preference")
		return
	}
	s.sortCriterion = value
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error) {
	taskUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate task uuid")
		return nil, err
	}

	title := strings.TrimSpace(params.Title)
	if title == "" {
		title = placeholderTitle
	}
	color := params.Color
	if color == "" {
		color = models.DefaultColor
	}

	task := models.Task{
		ID:               taskUUID.String(),
		Title:            title,
		Description:      params.Description,
		Urgency:          clampScore(params.Urgency),
		Importance:       clampScore(params.Importance),
		Color:            color,
		CreatedDate:      time.Now(),
		NotificationDate: params.NotificationDate,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if task.NotificationDate != nil {
		s.scheduleReminderLocked(ctx, &task)
	}

	s.active = append(s.active, task)
	s.persistActiveLocked(ctx)

	s.logger.Debug().
		Str("task_id", task.ID).
		Int("urgency", task.Urgency).
		Int("importance", task.Importance).
		Msg("created task")

	s.logger.Info().
		Str("task_id", task.ID).
		Msg("created task")
	return &task, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findActiveLocked(params.ID)
	if idx < 0 {
		s.logger.Error().
			Str("task_id", params.ID).
			Msg("task not found")
		return nil, ErrTaskNotFound
	}

	task := s.active[idx]

	// Cancel before reschedule, unconditionally: at most one live
	// reminder may exist per task, and re-registering a live id without
	// an intervening cancel is undefined at the gateway.
	s.cancelReminderLocked(ctx, &task)

	title := strings.TrimSpace(params.Title)
	if title == "" {
		title = placeholderTitle
	}
	task.Title = title
	task.Description = params.Description
	task.Urgency = clampScore(params.Urgency)
	task.Importance = clampScore(params.Importance)
	if params.Color != "" {
		task.Color = params.Color
	}
	task.NotificationDate = params.NotificationDate

	if task.NotificationDate != nil {
		s.scheduleReminderLocked(ctx, &task)
	}

	s.active[idx] = task
	s.persistActiveLocked(ctx)

	s.logger.Debug().
		Str("task_id", task.ID).
		Msg("updated task")

	s.logger.Info().
		Str("task_id", task.ID).
		Msg("updated task")
	return &task, nil
}

func (s *taskServiceImpl) CompleteTask(ctx context.Context, id string) (*models.CompletedTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findActiveLocked(id)
	if idx < 0 {
		s.logger.Error().
			Str("task_id", id).
			Msg("task not found")
		return nil, ErrTaskNotFound
	}

	task := s.active[idx]
	s.cancelReminderLocked(ctx, &task)
	s.active = append(s.active[:idx], s.active[idx+1:]...)

	completed := models.CompletedTask{
		Task:          task,
		CompletedDate: time.Now(),
	}
	s.completed = append(s.completed, completed)
	s.sortCompletedLocked()
	s.truncateCompletedLocked()

	s.persistActiveLocked(ctx)
	s.persistCompletedLocked(ctx)

	s.logger.Debug().
		Str("task_id", id).
		Time("completed_date", completed.CompletedDate).
		Msg("completed task")

	s.logger.Info().
		Str("task_id", id).
		Msg("completed task")
	return &completed, nil
}

func (s *taskServiceImpl) DeleteCompletedTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.completed {
		if t.ID != id {
			continue
		}
		s.completed = append(s.completed[:i], s.completed[i+1:]...)
		s.persistCompletedLocked(ctx)

		s.logger.Info().
			Str("task_id", id).
			Msg("deleted completed task")
		return nil
	}

	s.logger.Warn().
		Str("task_id", id).
		Msg("completed task not found")
	return ErrTaskNotFound
}

func (s *taskServiceImpl) DeleteAllCompletedTasks(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := len(s.completed)
	s.completed = []models.CompletedTask{}
	s.persistCompletedLocked(ctx)

	s.logger.Info().
		Int("count", count).
		Msg("deleted all completed tasks")
	return nil
}

func (s *taskServiceImpl) DeleteAllActiveTasks(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Best effort: every cancellation is attempted before the removal is
	// final, and canceling a dead reminder is a no-op at the gateway.
	for i := range s.active {
		s.cancelReminderLocked(ctx, &s.active[i])
	}

	count := len(s.active)
	s.active = []models.Task{}
	s.persistActiveLocked(ctx)

	s.logger.Info().
		Int("count", count).
		Msg("deleted all active tasks")
	return nil
}

func (s *taskServiceImpl) ActiveTasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Task, len(s.active))
	copy(out, s.active)
	return out
}

func (s *taskServiceImpl) CompletedTasks() []models.CompletedTask {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.CompletedTask, len(s.completed))
	copy(out, s.completed)
	return out
}

func (s *taskServiceImpl) SortedActiveTasks(criterion string) []models.Task {
	out := s.ActiveTasks()

	sort.SliceStable(out, func(i, j int) bool {
		var primaryI, primaryJ, secondaryI, secondaryJ int
		if criterion == models.SortByImportance {
			primaryI, primaryJ = out[i].Importance, out[j].Importance
			secondaryI, secondaryJ = out[i].Urgency, out[j].Urgency
		} else {
			primaryI, primaryJ = out[i].Urgency, out[j].Urgency
			secondaryI, secondaryJ = out[i].Importance, out[j].Importance
		}
		if primaryI != primaryJ {
			return primaryI > primaryJ
		}
		return secondaryI > secondaryJ
	})
	return out
}

func (s *taskServiceImpl) SortCriterion() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortCriterion
}

func (s *taskServiceImpl) SetSortCriterion(ctx context.Context, criterion string) error {
	if criterion != models.SortByUrgency && criterion != models.SortByImportance {
		return ErrInvalidSortCriterion
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sortCriterion = criterion
	if err := s.store.Set(ctx, storage.KeySortCriterion, criterion); err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to persist sort preference")
	}

	s.logger.Info().
		Str("sort", criterion).
		Msg("set sort preference")
	return nil
}

func (s *taskServiceImpl) GroupByGridCell() []GridCellGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type cell struct{ urgency, importance int }

	groups := []GridCellGroup{}
	index := map[cell]int{}
	for _, t := range s.active {
		c := cell{t.Urgency, t.Importance}
		i, ok := index[c]
		if !ok {
			i = len(groups)
			index[c] = i
			groups = append(groups, GridCellGroup{
				Urgency:    c.urgency,
				Importance: c.importance,
			})
		}
		groups[i].Tasks = append(groups[i].Tasks, t)
	}
	return groups
}

func (s *taskServiceImpl) UpcomingReminders(now time.Time) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Task{}
	for _, t := range s.active {
		if t.NotificationDate != nil && t.NotificationDate.After(now) {
			out = append(out, t)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].NotificationDate.Before(*out[j].NotificationDate)
	})
	return out
}

func (s *taskServiceImpl) findActiveLocked(id string) int {
	for i, t := range s.active {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *taskServiceImpl) sortCompletedLocked() {
	sort.SliceStable(s.completed, func(i, j int) bool {
		return s.completed[i].CompletedDate.After(s.completed[j].CompletedDate)
	})
}

func (s *taskServiceImpl) truncateCompletedLocked() {
	if len(s.completed) > completedTaskRetention {
		s.completed = s.completed[:completedTaskRetention]
	}
}

// scheduleReminderLocked registers a reminder for the task and records the
// notification id on success. Gateway failures are logged and never block
// the lifecycle operation.
func (s *taskServiceImpl) scheduleReminderLocked(ctx context.Context, task *models.Task) {
	err := s.reminders.ScheduleOneShot(ctx, task.ID, reminderTitle, task.Title, *task.NotificationDate)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to schedule reminder")
		return
	}
	task.NotificationID = task.ID
}

func (s *taskServiceImpl) cancelReminderLocked(ctx context.Context, task *models.Task) {
	if err := s.reminders.Cancel(ctx, task.ID); err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to cancel reminder")
	}
	task.NotificationID = ""
}

// persistActiveLocked mirrors the current active snapshot to the storage
// gateway. Failures are logged: the in-memory state stays authoritative
// and the next successful write carries the full collection anyway.
func (s *taskServiceImpl) persistActiveLocked(ctx context.Context) {
	payload, err := encodeActiveTasks(s.active)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to encode active tasks")
		return
	}
	if err := s.store.Set(ctx, storage.KeyActiveTasks, payload); err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to persist active tasks")
	}
}

func (s *taskServiceImpl) persistCompletedLocked(ctx context.Context) {
	payload, err := encodeCompletedTasks(s.completed)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to encode completed tasks")
		return
	}
	if err := s.store.Set(ctx, storage.KeyCompletedTasks, payload); err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to persist completed tasks")
	}
}
