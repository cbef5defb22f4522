package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"soldera/internal/models"
	"soldera/internal/services"

	"github.com/gin-gonic/gin"
)

const defaultTasksLimit = 20

type TaskProvider interface {
	GetTask(ctx context.Context, id string) (models.Task, error)
	ListTasks(ctx context.Context, limit int) ([]models.Task, error)
}

type RunLogProvider interface {
	GetRunLogs(ctx context.Context, eventID string) ([]models.Log, error)
}

type TasksController struct {
	tasks TaskProvider
	logs  RunLogProvider
}

// TaskResponse is a task together with the audit entries its run wrote.
type TaskResponse struct {
	models.Task
	Logs []models.Log `json:"logs"`
}

func NewTasksController(tasks TaskProvider, logs RunLogProvider) (*TasksController, error) {
	if tasks == nil {
		return nil, errors.New("task service is nil")
	}
	if logs == nil {
		return nil, errors.New("log service is nil")
	}

	return &TasksController{tasks: tasks, logs: logs}, nil
}

func (c *TasksController) RegisterRoutes(router *gin.Engine) error {
	if c == nil {
		return errors.New("tasks controller is nil")
	}
	if router == nil {
		return errors.New("router is nil")
	}

	router.GET("/api/tasks", c.listTasks)
	router.GET("/api/tasks/:id", c.getTask)
	return nil
}

func (c *TasksController) listTasks(ctx *gin.Context) {
	limit := defaultTasksLimit
	if value := ctx.Query("n"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid tasks limit"})
			return
		}
		limit = parsed
	}

	tasks, err := c.tasks.ListTasks(ctx.Request.Context(), limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to load tasks"})
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	ctx.JSON(http.StatusOK, tasks)
}

func (c *TasksController) getTask(ctx *gin.Context) {
	task, err := c.tasks.GetTask(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{Error: "task not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to load task"})
		return
	}

	logs, err := c.logs.GetRunLogs(ctx.Request.Context(), task.ID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to load task logs"})
		return
	}
	if logs == nil {
		logs = []models.Log{}
	}

	ctx.JSON(http.StatusOK, TaskResponse{Task: task, Logs: logs})
}
