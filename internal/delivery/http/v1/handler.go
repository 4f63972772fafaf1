package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/hyeonup/eisenmatrix/internal/services"
)

type Handler interface {
	HandleRequestLogger(c *gin.Context)

	HandleCreateTask(c *gin.Context)
	HandleGetTasks(c *gin.Context)
	HandleUpdateTask(c *gin.Context)
	HandleCompleteTask(c *gin.Context)
	HandleDeleteAllTasks(c *gin.Context)
	HandleGetMatrix(c *gin.Context)
	HandleGetUpcoming(c *gin.Context)

	HandleGetCompletedTasks(c *gin.Context)
	HandleDeleteCompletedTask(c *gin.Context)
	HandleDeleteAllCompletedTasks(c *gin.Context)

	HandleSetSortPreference(c *gin.Context)
}

type handlerImpl struct {
	logger zerolog.Logger
	tasks  services.TaskService
}

func New(
	logger zerolog.Logger,
	taskService services.TaskService,
) Handler {
	return &handlerImpl{
		logger: logger,
		tasks:  taskService,
	}
}
