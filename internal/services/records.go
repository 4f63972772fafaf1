package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hyeonup/eisenmatrix/internal/models"
)

// Persisted record layout. Date fields are serialized as RFC 3339 strings
// and reconstituted field by field on read: a record with an unparseable
// created date is dropped, an unparseable optional date becomes absent.
// The layout is private to the store/gateway pair.

type taskRecord struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	Urgency          int    `json:"urgency"`
	Importance       int    `json:"importance"`
	Color            string `json:"color,omitempty"`
	CreatedDate      string `json:"createdDate"`
	NotificationDate string `json:"notificationDate,omitempty"`
	NotificationID   string `json:"notificationId,omitempty"`
}

type completedTaskRecord struct {
	taskRecord
	CompletedDate string `json:"completedDate"`
}

func newTaskRecord(t models.Task) taskRecord {
	r := taskRecord{
		ID:             t.ID,
		Title:          t.Title,
		Description:    t.Description,
		Urgency:        t.Urgency,
		Importance:     t.Importance,
		Color:          t.Color,
		CreatedDate:    t.CreatedDate.Format(time.RFC3339Nano),
		NotificationID: t.NotificationID,
	}
	if t.NotificationDate != nil {
		r.NotificationDate = t.NotificationDate.Format(time.RFC3339Nano)
	}
	return r
}

func (r taskRecord) decode() (models.Task, error) {
	createdDate, err := time.Parse(time.RFC3339Nano, r.CreatedDate)
	if err != nil {
		return models.Task{}, fmt.Errorf("invalid created date %q: %w", r.CreatedDate, err)
	}

	t := models.Task{
		ID:             r.ID,
		Title:          r.Title,
		Description:    r.Description,
		Urgency:        r.Urgency,
		Importance:     r.Importance,
		Color:          r.Color,
		CreatedDate:    createdDate,
		NotificationID: r.NotificationID,
	}

	if r.NotificationDate != "" {
		notificationDate, err := time.Parse(time.RFC3339Nano, r.NotificationDate)
		if err != nil {
			// Optional field: an unparseable value means no reminder.
			t.NotificationID = ""
		} else {
			t.NotificationDate = &notificationDate
		}
	}

	return t, nil
}

func encodeActiveTasks(tasks []models.Task) (string, error) {
	records := make([]taskRecord, len(tasks))
	for i, t := range tasks {
		records[i] = newTaskRecord(t)
	}

	b, err := json.Marshal(records)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeActiveTasks returns the decodable tasks and the number of records
// that were dropped. A wholly unparseable payload is an error; the caller
// treats it as an empty collection.
func decodeActiveTasks(payload string) ([]models.Task, int, error) {
	var records []taskRecord
	if err := json.Unmarshal([]byte(payload), &records); err != nil {
		return nil, 0, err
	}

	tasks := make([]models.Task, 0, len(records))
	dropped := 0
	for _, r := range records {
		t, err := r.decode()
		if err != nil {
			dropped++
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, dropped, nil
}

func encodeCompletedTasks(tasks []models.CompletedTask) (string, error) {
	records := make([]completedTaskRecord, len(tasks))
	for i, t := range tasks {
		records[i] = completedTaskRecord{
			taskRecord:    newTaskRecord(t.Task),
			CompletedDate: t.CompletedDate.Format(time.RFC3339Nano),
		}
	}

	b, err := json.Marshal(records)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeCompletedTasks(payload string) ([]models.CompletedTask, int, error) {
	var records []completedTaskRecord
	if err := json.Unmarshal([]byte(payload), &records); err != nil {
		return nil, 0, err
	}

	tasks := make([]models.CompletedTask, 0, len(records))
	dropped := 0
	for _, r := range records {
		t, err := r.taskRecord.decode()
		if err != nil {
			dropped++
			continue
		}
		completedDate, err := time.Parse(time.RFC3339Nano, r.CompletedDate)
		if err != nil {
			dropped++
			continue
		}
		tasks = append(tasks, models.CompletedTask{
			Task:          t,
			CompletedDate: completedDate,
		})
	}
	return tasks, dropped, nil
}
