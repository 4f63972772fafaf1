package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyeonup/eisenmatrix/internal/models"
	"github.com/hyeonup/eisenmatrix/internal/storage"
)

// fakeReminderGateway records every call so tests can assert the
// cancel-before-reschedule protocol.
type fakeReminderGateway struct {
	mu          sync.Mutex
	calls       []string
	scheduleErr error
}

func (f *fakeReminderGateway) RequestPermission(context.Context) error {
	return nil
}

func (f *fakeReminderGateway) ScheduleOneShot(_ context.Context, id, _, _ string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scheduleErr != nil {
		return f.scheduleErr
	}
	f.calls = append(f.calls, "schedule:"+id)
	return nil
}

func (f *fakeReminderGateway) Cancel(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "cancel:"+id)
	return nil
}

func (f *fakeReminderGateway) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func newTaskServiceForTests(t *testing.T) (TaskService, *storage.MemoryStore, *fakeReminderGateway) {
	t.Helper()
	store := storage.NewMemoryStore()
	reminders := &fakeReminderGateway{}
	return NewTaskService(zerolog.Nop(), store, reminders), store, reminders
}

func TestCreateTask_Defaults(t *testing.T) {
	svc, _, _ := newTaskServiceForTests(t)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, CreateTaskParams{
		Title:      "   ",
		Urgency:    5,
		Importance: 7,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "Untitled task", task.Title)
	assert.Equal(t, models.DefaultColor, task.Color)
	assert.Equal(t, 5, task.Urgency)
	assert.Equal(t, 7, task.Importance)
	assert.False(t, task.CreatedDate.IsZero())
	assert.Nil(t, task.NotificationDate)
	assert.Empty(t, task.NotificationID)
}

func TestCreateTask_UniqueIDs(t *testing.T) {
	svc, _, _ := newTaskServiceForTests(t)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		task, err := svc.CreateTask(ctx, CreateTaskParams{Title: fmt.Sprintf("task %d", i)})
		require.NoError(t, err)
		assert.False(t, seen[task.ID], "duplicate id %s", task.ID)
		seen[task.ID] = true
	}
}

func TestCreateTask_ScoreClamping(t *testing.T) {
	svc, _, _ := newTaskServiceForTests(t)
	ctx := context.Background()

	cases := []struct {
		in   float64
		want int
	}{
		{-3, 0},
		{0, 0},
		{0.49, 0},
		{5.4, 5},
		{5.5, 6},
		{10, 10},
		{11.4, 10},
		{100, 10},
	}
	for _, tc := range cases {
		task, err := svc.CreateTask(ctx, CreateTaskParams{
			Title:      "clamp",
			Urgency:    tc.in,
			Importance: tc.in,
		})
		require.NoError(t, err)
		assert.Equal(t, tc.want, task.Urgency, "urgency for input %v", tc.in)
		assert.Equal(t, tc.want, task.Importance, "importance for input %v", tc.in)
	}
}

func TestCreateTask_SchedulesReminder(t *testing.T) {
	svc, _, reminders := newTaskServiceForTests(t)
	ctx := context.Background()

	fireAt := time.Now().Add(time.Hour)
	task, err := svc.CreateTask(ctx, CreateTaskParams{
		Title:            "remind me",
		NotificationDate: &fireAt,
	})
	require.NoError(t, err)

	assert.Equal(t, task.ID, task.NotificationID)
	assert.Equal(t, []string{"schedule:" + task.ID}, reminders.recorded())
}

func TestCreateTask_ReminderFailureDoesNotBlockCreation(t *testing.T) {
	svc, _, reminders := newTaskServiceForTests(t)
	reminders.scheduleErr = errors.New("permission denied")
	ctx := context.Background()

	fireAt := time.Now().Add(time.Hour)
	task, err := svc.CreateTask(ctx, CreateTaskParams{
		Title:            "remind me",
		NotificationDate: &fireAt,
	})
	require.NoError(t, err)

	assert.Empty(t, task.NotificationID)
	assert.Len(t, svc.ActiveTasks(), 1)
}

func TestSortedActiveTasks(t *testing.T) {
	svc, _, _ := newTaskServiceForTests(t)
	ctx := context.Background()

	for _, scores := range [][2]float64{{5, 3}, {5, 7}, {8, 1}} {
		_, err := svc.CreateTask(ctx, CreateTaskParams{
			Title:      "task",
			Urgency:    scores[0],
			Importance: scores[1],
		})
		require.NoError(t, err)
	}

	byUrgency := svc.SortedActiveTasks(models.SortByUrgency)
	require.Len(t, byUrgency, 3)
	assert.Equal(t, [2]int{8, 1}, [2]int{byUrgency[0].Urgency, byUrgency[0].Importance})
	assert.Equal(t, [2]int{5, 7}, [2]int{byUrgency[1].Urgency, byUrgency[1].Importance})
	assert.Equal(t, [2]int{5, 3}, [2]int{byUrgency[2].Urgency, byUrgency[2].Importance})

	byImportance := svc.SortedActiveTasks(models.SortByImportance)
	require.Len(t, byImportance, 3)
	assert.Equal(t, 7, byImportance[0].Importance)
	assert.Equal(t, 3, byImportance[1].Importance)
	assert.Equal(t, 1, byImportance[2].Importance)

	// Pure projection: the underlying collection keeps insertion order.
	active := svc.ActiveTasks()
	assert.Equal(t, 5, active[0].Urgency)
	assert.Equal(t, 3, active[0].Importance)
}

func TestGroupByGridCell(t *testing.T) {
	svc, _, _ := newTaskServiceForTests(t)
	ctx := context.Background()

	// 5.4 and 4.6 both round to 5; 8 lands in its own cell.
	for _, scores := range [][2]float64{{5.4, 3}, {4.6, 3}, {8, 1}} {
		_, err := svc.CreateTask(ctx, CreateTaskParams{
			Title:      "task",
			Urgency:    scores[0],
			Importance: scores[1],
		})
		require.NoError(t, err)
	}

	groups := svc.GroupByGridCell()
	require.Len(t, groups, 2)

	assert.Equal(t, 5, groups[0].Urgency)
	assert.Equal(t, 3, groups[0].Importance)
	assert.Len(t, groups[0].Tasks, 2)

	assert.Equal(t, 8, groups[1].Urgency)
	assert.Equal(t, 1, groups[1].Importance)
	assert.Len(t, groups[1].Tasks, 1)
}

func TestUpdateTask_NotFound(t *testing.T) {
	svc, _, _ := newTaskServiceForTests(t)

	_, err := svc.UpdateTask(context.Background(), UpdateTaskParams{ID: "missing"})
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestUpdateTask_CancelBeforeReschedule(t *testing.T) {
	svc, _, reminders := newTaskServiceForTests(t)
	ctx := context.Background()

	fireAt := time.Now().Add(time.Hour)
	task, err := svc.CreateTask(ctx, CreateTaskParams{
		Title:            "remind me",
		Urgency:          4,
		Importance:       4,
		NotificationDate: &fireAt,
	})
	require.NoError(t, err)

	newFireAt := fireAt.Add(time.Hour)
	updated, err := svc.UpdateTask(ctx, UpdateTaskParams{
		ID:               task.ID,
		Title:            "remind me later",
		Urgency:          4,
		Importance:       4,
		NotificationDate: &newFireAt,
	})
	require.NoError(t, err)
	assert.Equal(t, task.ID, updated.NotificationID)

	calls := reminders.recorded()
	require.Equal(t, []string{
		"schedule:" + task.ID,
		"cancel:" + task.ID,
		"schedule:" + task.ID,
	}, calls)
}

func TestUpdateTask_ClearingReminderCancels(t *testing.T) {
	svc, _, reminders := newTaskServiceForTests(t)
	ctx := context.Background()

	fireAt := time.Now().Add(time.Hour)
	task, err := svc.CreateTask(ctx, CreateTaskParams{
		Title:            "remind me",
		NotificationDate: &fireAt,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateTask(ctx, UpdateTaskParams{
		ID:    task.ID,
		Title: "no reminder",
	})
	require.NoError(t, err)

	assert.Nil(t, updated.NotificationDate)
	assert.Empty(t, updated.NotificationID)
	assert.Equal(t, []string{"schedule:" + task.ID, "cancel:" + task.ID}, reminders.recorded())
}

func TestCompleteTask_IsAMove(t *testing.T) {
	svc, _, _ := newTaskServiceForTests(t)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, CreateTaskParams{Title: "finish me"})
	require.NoError(t, err)

	before := time.Now()
	completed, err := svc.CompleteTask(ctx, task.ID)
	require.NoError(t, err)

	assert.Empty(t, svc.ActiveTasks())

	completedTasks := svc.CompletedTasks()
	require.Len(t, completedTasks, 1)
	assert.Equal(t, task.ID, completedTasks[0].ID)
	assert.False(t, completed.CompletedDate.Before(before))

	// Disjointness: the id exists in exactly one collection.
	for _, active := range svc.ActiveTasks() {
		assert.NotEqual(t, task.ID, active.ID)
	}
}

func TestCompleteTask_NotFound(t *testing.T) {
	svc, _, _ := newTaskServiceForTests(t)

	_, err := svc.CompleteTask(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestCompleteTask_CancelsReminder(t *testing.T) {
	svc, _, reminders := newTaskServiceForTests(t)
	ctx := context.Background()

	fireAt := time.Now().Add(time.Hour)
	task, err := svc.CreateTask(ctx, CreateTaskParams{
		Title:            "remind me",
		NotificationDate: &fireAt,
	})
	require.NoError(t, err)

	completed, err := svc.CompleteTask(ctx, task.ID)
	require.NoError(t, err)

	assert.Empty(t, completed.NotificationID)
	assert.Equal(t, []string{"schedule:" + task.ID, "cancel:" + task.ID}, reminders.recorded())
}

func TestCompletedRetentionBound(t *testing.T) {
	svc, _, _ := newTaskServiceForTests(t)
	ctx := context.Background()

	const total = completedTaskRetention + 5

	oldest := make([]string, 0, 5)
	for i := 0; i < total; i++ {
		task, err := svc.CreateTask(ctx, CreateTaskParams{Title: fmt.Sprintf("task %d", i)})
		require.NoError(t, err)

		_, err = svc.CompleteTask(ctx, task.ID)
		require.NoError(t, err)

		if i < 5 {
			oldest = append(oldest, task.ID)
		}
		// Distinct completion timestamps keep the retention order
		// unambiguous.
		time.Sleep(time.Millisecond)
	}

	completed := svc.CompletedTasks()
	require.Len(t, completed, completedTaskRetention)

	retained := map[string]bool{}
	for _, t0 := range completed {
		retained[t0.ID] = true
	}
	for _, id := range oldest {
		assert.False(t, retained[id], "oldest completion %s should have been discarded", id)
	}

	// Most recent first.
	for i := 1; i < len(completed); i++ {
		assert.False(t, completed[i-1].CompletedDate.Before(completed[i].CompletedDate))
	}
}

func TestDeleteCompletedTask(t *testing.T) {
	svc, _, _ := newTaskServiceForTests(t)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, CreateTaskParams{Title: "finish me"})
	require.NoError(t, err)
	_, err = svc.CompleteTask(ctx, task.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCompletedTask(ctx, task.ID))
	assert.Empty(t, svc.CompletedTasks())

	assert.ErrorIs(t, svc.DeleteCompletedTask(ctx, task.ID), ErrTaskNotFound)
}

func TestDeleteAllActiveTasks_CancelsReminders(t *testing.T) {
	svc, _, reminders := newTaskServiceForTests(t)
	ctx := context.Background()

	fireAt := time.Now().Add(time.Hour)
	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		task, err := svc.CreateTask(ctx, CreateTaskParams{
			Title:            fmt.Sprintf("task %d", i),
			NotificationDate: &fireAt,
		})
		require.NoError(t, err)
		ids = append(ids, task.ID)
	}

	require.NoError(t, svc.DeleteAllActiveTasks(ctx))
	assert.Empty(t, svc.ActiveTasks())

	calls := reminders.recorded()
	for _, id := range ids {
		assert.Contains(t, calls, "cancel:"+id)
	}
}

func TestUpcomingReminders(t *testing.T) {
	svc, _, _ := newTaskServiceForTests(t)
	ctx := context.Background()

	now := time.Now()
	past := now.Add(-time.Hour)
	soon := now.Add(time.Hour)
	later := now.Add(2 * time.Hour)

	_, err := svc.CreateTask(ctx, CreateTaskParams{Title: "no reminder"})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, CreateTaskParams{Title: "already fired", NotificationDate: &past})
	require.NoError(t, err)
	laterTask, err := svc.CreateTask(ctx, CreateTaskParams{Title: "later", NotificationDate: &later})
	require.NoError(t, err)
	soonTask, err := svc.CreateTask(ctx, CreateTaskParams{Title: "soon", NotificationDate: &soon})
	require.NoError(t, err)

	upcoming := svc.UpcomingReminders(now)
	require.Len(t, upcoming, 2)
	assert.Equal(t, soonTask.ID, upcoming[0].ID)
	assert.Equal(t, laterTask.ID, upcoming[1].ID)
}

func TestLoadAll_MissingKeys(t *testing.T) {
	svc, _, _ := newTaskServiceForTests(t)

	require.NoError(t, svc.LoadAll(context.Background()))
	assert.Empty(t, svc.ActiveTasks())
	assert.Empty(t, svc.CompletedTasks())
	assert.Equal(t, models.SortByUrgency, svc.SortCriterion())
}

func TestLoadAll_RoundTrip(t *testing.T) {
	store := storage.NewMemoryStore()
	reminders := &fakeReminderGateway{}
	svc := NewTaskService(zerolog.Nop(), store, reminders)
	ctx := context.Background()

	fireAt := time.Now().Add(time.Hour).Truncate(time.Millisecond)
	created, err := svc.CreateTask(ctx, CreateTaskParams{
		Title:            "persist me",
		Description:      "round trip",
		Urgency:          6,
		Importance:       9,
		NotificationDate: &fireAt,
	})
	require.NoError(t, err)

	done, err := svc.CreateTask(ctx, CreateTaskParams{Title: "finish me"})
	require.NoError(t, err)
	_, err = svc.CompleteTask(ctx, done.ID)
	require.NoError(t, err)

	require.NoError(t, svc.SetSortCriterion(ctx, models.SortByImportance))

	restored := NewTaskService(zerolog.Nop(), store, reminders)
	require.NoError(t, restored.LoadAll(ctx))

	active := restored.ActiveTasks()
	require.Len(t, active, 1)
	assert.Equal(t, created.ID, active[0].ID)
	assert.Equal(t, "persist me", active[0].Title)
	assert.Equal(t, "round trip", active[0].Description)
	assert.Equal(t, 6, active[0].Urgency)
	assert.Equal(t, 9, active[0].Importance)
	require.NotNil(t, active[0].NotificationDate)
	assert.True(t, active[0].NotificationDate.Equal(fireAt))

	completed := restored.CompletedTasks()
	require.Len(t, completed, 1)
	assert.Equal(t, done.ID, completed[0].ID)
	assert.False(t, completed[0].CompletedDate.IsZero())

	assert.Equal(t, models.SortByImportance, restored.SortCriterion())
}

func TestLoadAll_DropsUnparseableRecords(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	payload := `[
		{"id":"a","title":"first","urgency":3,"importance":9,"createdDate":"2026-08-01T10:00:00Z"},
		{"id":"b","title":"second","urgency":5,"importance":5,"createdDate":"not-a-date"},
		{"id":"c","title":"third","urgency":1,"importance":2,"createdDate":"2026-08-02T10:00:00Z"}
	]`
	require.NoError(t, store.Set(ctx, storage.KeyActiveTasks, payload))

	svc := NewTaskService(zerolog.Nop(), store, &fakeReminderGateway{})
	require.NoError(t, svc.LoadAll(ctx))

	active := svc.ActiveTasks()
	require.Len(t, active, 2)
	assert.Equal(t, "a", active[0].ID)
	assert.Equal(t, "c", active[1].ID)
}

func TestLoadAll_UnparseableOptionalDateBecomesAbsent(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	payload := `[{"id":"a","title":"first","urgency":3,"importance":9,` +
		`"createdDate":"2026-08-01T10:00:00Z","notificationDate":"garbage","notificationId":"a"}]`
	require.NoError(t, store.Set(ctx, storage.KeyActiveTasks, payload))

	svc := NewTaskService(zerolog.Nop(), store, &fakeReminderGateway{})
	require.NoError(t, svc.LoadAll(ctx))

	active := svc.ActiveTasks()
	require.Len(t, active, 1)
	assert.Nil(t, active[0].NotificationDate)
	assert.Empty(t, active[0].NotificationID)
}

func TestLoadAll_GarbagePayloadMeansEmpty(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, storage.KeyActiveTasks, "{{{"))
	require.NoError(t, store.Set(ctx, storage.KeyCompletedTasks, "not json"))

	svc := NewTaskService(zerolog.Nop(), store, &fakeReminderGateway{})
	require.NoError(t, svc.LoadAll(ctx))

	assert.Empty(t, svc.ActiveTasks())
	assert.Empty(t, svc.CompletedTasks())
}

func TestSetSortCriterion_Invalid(t *testing.T) {
	svc, _, _ := newTaskServiceForTests(t)

	err := svc.SetSortCriterion(context.Background(), "priority")
	assert.ErrorIs(t, err, ErrInvalidSortCriterion)
}

func TestEndToEndScenario(t *testing.T) {
	svc, _, _ := newTaskServiceForTests(t)
	ctx := context.Background()

	taskA, err := svc.CreateTask(ctx, CreateTaskParams{
		Title:      "task A",
		Urgency:    3,
		Importance: 9,
	})
	require.NoError(t, err)

	byImportance := svc.SortedActiveTasks(models.SortByImportance)
	require.NotEmpty(t, byImportance)
	assert.Equal(t, taskA.ID, byImportance[0].ID)

	completed, err := svc.CompleteTask(ctx, taskA.ID)
	require.NoError(t, err)
	assert.Empty(t, svc.ActiveTasks())
	assert.False(t, completed.CompletedDate.IsZero())

	require.NoError(t, svc.DeleteAllCompletedTasks(ctx))
	assert.Empty(t, svc.CompletedTasks())
}
