package controllers

import (
	"context"
	"errors"
	"net/http"

	"soldera/internal/models"

	"github.com/gin-gonic/gin"
)

type TaskEnqueuer interface {
	Enqueue(ctx context.Context) (models.Task, error)
}

type RefreshController struct {
	service TaskEnqueuer
}

type RefreshResponse struct {
	ID string `json:"id"`
}

func NewRefreshController(service TaskEnqueuer) (*RefreshController, error) {
	if service == nil {
		return nil, errors.New("task service is nil")
	}

	return &RefreshController{service: service}, nil
}

func (c *RefreshController) RegisterRoutes(router *gin.Engine) error {
	if c == nil {
		return errors.New("refresh controller is nil")
	}
	if router == nil {
		return errors.New("router is nil")
	}

	router.POST("/api/auction-results/refresh", c.refresh)
	return nil
}

// refresh only enqueues; the discovery run itself is followed through
// /api/tasks/:id.
func (c *RefreshController) refresh(ctx *gin.Context) {
	task, err := c.service.Enqueue(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to enqueue discovery"})
		return
	}

	ctx.JSON(http.StatusOK, RefreshResponse{ID: task.ID})
}
