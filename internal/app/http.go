package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/hyeonup/eisenmatrix/internal/config"
	v1 "github.com/hyeonup/eisenmatrix/internal/delivery/http/v1"
	"github.com/hyeonup/eisenmatrix/internal/services"
)

func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	taskService := services.NewTaskService(globalLogger, globalStorage, globalReminderScheduler)
	err := taskService.LoadAll(context.Background())
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to restore tasks, continuing in-memory")
	}

	router := gin.New()
	router.Use(gin.Recovery())
	registerRoutes(router, taskService)

	server := &http.Server{
		Addr:    net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler: router,
	}

	go func() {
		globalLogger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
	}()

	// Wait for the interrupt signal to gracefully
	// shut down the server with a timeout.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	globalLogger.Info().
		Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err = server.Shutdown(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

func registerRoutes(router gin.IRouter, taskService services.TaskService) {
	v1Handler := v1.New(globalLogger, taskService)

	api := router.Group("/api/v1")
	api.Use(v1Handler.HandleRequestLogger)

	tasksRouter := api.Group("/tasks")
	tasksRouter.POST("", v1Handler.HandleCreateTask)
	tasksRouter.GET("", v1Handler.HandleGetTasks)
	tasksRouter.DELETE("", v1Handler.HandleDeleteAllTasks)
	tasksRouter.GET("/matrix", v1Handler.HandleGetMatrix)
	tasksRouter.GET("/upcoming", v1Handler.HandleGetUpcoming)
	tasksRouter.PUT("/:id", v1Handler.HandleUpdateTask)
	tasksRouter.POST("/:id/complete", v1Handler.HandleCompleteTask)

	completedRouter := api.Group("/completed")
	completedRouter.GET("", v1Handler.HandleGetCompletedTasks)
	completedRouter.DELETE("", v1Handler.HandleDeleteAllCompletedTasks)
	completedRouter.DELETE("/:id", v1Handler.HandleDeleteCompletedTask)

	api.PUT("/prefs/sort", v1Handler.HandleSetSortPreference)
}
