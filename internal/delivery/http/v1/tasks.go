package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hyeonup/eisenmatrix/internal/models"
	"github.com/hyeonup/eisenmatrix/internal/services"
)

// confirmDeleteAllPhrase is the literal a client must echo back before a
// destructive bulk delete is forwarded to the task store.
const confirmDeleteAllPhrase = "delete all"

type taskResponse struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Urgency          int        `json:"urgency"`
	Importance       int        `json:"importance"`
	Color            string     `json:"color"`
	CreatedDate      time.Time  `json:"created_date"`
	NotificationDate *time.Time `json:"notification_date,omitempty"`
	NotificationID   string     `json:"notification_id,omitempty"`
}

func newTaskResponse(task *models.Task) taskResponse {
	return taskResponse{
		ID:               task.ID,
		Title:            task.Title,
		Description:      task.Description,
		Urgency:          task.Urgency,
		Importance:       task.Importance,
		Color:            task.Color,
		CreatedDate:      task.CreatedDate,
		NotificationDate: task.NotificationDate,
		NotificationID:   task.NotificationID,
	}
}

func newTaskListResponse(tasks []models.Task) []taskResponse {
	response := make([]taskResponse, len(tasks))
	for i := range tasks {
		response[i] = newTaskResponse(&tasks[i])
	}
	return response
}

type completedTaskResponse struct {
	taskResponse
	CompletedDate time.Time `json:"completed_date"`
}

func newCompletedTaskResponse(task *models.CompletedTask) completedTaskResponse {
	return completedTaskResponse{
		taskResponse:  newTaskResponse(&task.Task),
		CompletedDate: task.CompletedDate,
	}
}

type taskRequest struct {
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Urgency          float64    `json:"urgency"`
	Importance       float64    `json:"importance"`
	Color            string     `json:"color"`
	NotificationDate *time.Time `json:"notification_date,omitempty"`
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	var req taskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError("invalid request body"))
		return
	}

	task, err := h.tasks.CreateTask(c, services.CreateTaskParams{
		Title:            req.Title,
		Description:      req.Description,
		Urgency:          req.Urgency,
		Importance:       req.Importance,
		Color:            req.Color,
		NotificationDate: req.NotificationDate,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create task")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusCreated, newTaskResponse(task))
}

func (h *handlerImpl) HandleGetTasks(c *gin.Context) {
	criterion := c.Query("sort")
	if criterion == "" {
		criterion = h.tasks.SortCriterion()
	}
	if criterion != models.SortByUrgency && criterion != models.SortByImportance {
		abort(c, newBadRequestError("invalid sort criterion"))
		return
	}

	tasks := h.tasks.SortedActiveTasks(criterion)
	c.JSON(http.StatusOK, newTaskListResponse(tasks))
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		abort(c, newBadRequestError("no task id provided"))
		return
	}

	var req taskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError("invalid request body"))
		return
	}

	task, err := h.tasks.UpdateTask(c, services.UpdateTaskParams{
		ID:               taskID,
		Title:            req.Title,
		Description:      req.Description,
		Urgency:          req.Urgency,
		Importance:       req.Importance,
		Color:            req.Color,
		NotificationDate: req.NotificationDate,
	})
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			abort(c, newNotFoundError("task not found"))
			return
		}

		h.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to update task")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}

func (h *handlerImpl) HandleCompleteTask(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		abort(c, newBadRequestError("no task id provided"))
		return
	}

	task, err := h.tasks.CompleteTask(c, taskID)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			abort(c, newNotFoundError("task not found"))
			return
		}

		h.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to complete task")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, newCompletedTaskResponse(task))
}

type confirmRequest struct {
	Confirm string `json:"confirm" binding:"required"`
}

func (h *handlerImpl) bindConfirmation(c *gin.Context) bool {
	var req confirmRequest
	err := c.ShouldBindJSON(&req)
	if err != nil || req.Confirm != confirmDeleteAllPhrase {
		h.logger.Warn().Msg("bulk delete not confirmed")
		abort(c, newBadRequestError("confirmation phrase required"))
		return false
	}
	return true
}

func (h *handlerImpl) HandleDeleteAllTasks(c *gin.Context) {
	if !h.bindConfirmation(c) {
		return
	}

	if err := h.tasks.DeleteAllActiveTasks(c); err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to delete all tasks")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.Status(http.StatusNoContent)
}

type gridCellResponse struct {
	Urgency    int            `json:"urgency"`
	Importance int            `json:"importance"`
	Tasks      []taskResponse `json:"tasks"`
}

func (h *handlerImpl) HandleGetMatrix(c *gin.Context) {
	groups := h.tasks.GroupByGridCell()

	response := make([]gridCellResponse, len(groups))
	for i, g := range groups {
		response[i] = gridCellResponse{
			Urgency:    g.Urgency,
			Importance: g.Importance,
			Tasks:      newTaskListResponse(g.Tasks),
		}
	}

	c.JSON(http.StatusOK, response)
}

func (h *handlerImpl) HandleGetUpcoming(c *gin.Context) {
	tasks := h.tasks.UpcomingReminders(time.Now())
	c.JSON(http.StatusOK, newTaskListResponse(tasks))
}

func (h *handlerImpl) HandleGetCompletedTasks(c *gin.Context) {
	tasks := h.tasks.CompletedTasks()

	response := make([]completedTaskResponse, len(tasks))
	for i := range tasks {
		response[i] = newCompletedTaskResponse(&tasks[i])
	}

	c.JSON(http.StatusOK, response)
}

func (h *handlerImpl) HandleDeleteCompletedTask(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		abort(c, newBadRequestError("no task id provided"))
		return
	}

	err := h.tasks.DeleteCompletedTask(c, taskID)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			abort(c, newNotFoundError("task not found"))
			return
		}

		h.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to delete completed task")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) HandleDeleteAllCompletedTasks(c *gin.Context) {
	if !h.bindConfirmation(c) {
		return
	}

	if err := h.tasks.DeleteAllCompletedTasks(c); err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to delete all completed tasks")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.Status(http.StatusNoContent)
}

type sortPreferenceRequest struct {
	Sort string `json:"sort" binding:"required"`
}

func (h *handlerImpl) HandleSetSortPreference(c *gin.Context) {
	var req sortPreferenceRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError("invalid request body"))
		return
	}

	if err := h.tasks.SetSortCriterion(c, req.Sort); err != nil {
		if errors.Is(err, services.ErrInvalidSortCriterion) {
			abort(c, newBadRequestError("invalid sort criterion"))
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to set sort preference")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.Status(http.StatusNoContent)
}
