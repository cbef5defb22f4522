package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"soldera/internal/models"
	"soldera/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	defaultLogsLimit = 20
	maxLogsLimit     = 500
)

type LogFinder interface {
	FindLogs(ctx context.Context, query services.LogQuery) ([]models.Log, error)
}

// LogsController serves the read-only audit trail.
type LogsController struct {
	service LogFinder
}

func NewLogsController(service LogFinder) (*LogsController, error) {
	if service == nil {
		return nil, errors.New("log service is nil")
	}

	return &LogsController{service: service}, nil
}

func (c *LogsController) RegisterRoutes(router *gin.Engine) error {
	if c == nil {
		return errors.New("logs controller is nil")
	}
	if router == nil {
		return errors.New("router is nil")
	}

	router.GET("/logs", c.listLogs)
	return nil
}

// listLogs handles GET /logs?n=&eventId=&action=&outcome=.
func (c *LogsController) listLogs(ctx *gin.Context) {
	query, message := logQueryFromRequest(ctx)
	if message != "" {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
		return
	}

	logs, err := c.service.FindLogs(ctx.Request.Context(), query)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to load logs"})
		return
	}
	if logs == nil {
		logs = []models.Log{}
	}

	ctx.JSON(http.StatusOK, logs)
}

func logQueryFromRequest(ctx *gin.Context) (services.LogQuery, string) {
	query := services.LogQuery{
		Limit:   defaultLogsLimit,
		EventID: ctx.Query("eventId"),
		Action:  strings.ToUpper(strings.TrimSpace(ctx.Query("action"))),
		Outcome: strings.ToUpper(strings.TrimSpace(ctx.Query("outcome"))),
	}
	if query.EventID == "" {
		query.EventID = ctx.Query("event_id")
	}

	if value := ctx.Query("n"); value != "" {
		limit, err := strconv.Atoi(value)
		if err != nil || limit <= 0 {
			return services.LogQuery{}, "invalid logs limit"
		}
		query.Limit = min(limit, maxLogsLimit)
	}
	if query.Action != "" && !services.IsLogAction(query.Action) {
		return services.LogQuery{}, "unknown log action"
	}
	if query.Outcome != "" && !services.IsLogOutcome(query.Outcome) {
		return services.LogQuery{}, "unknown log outcome"
	}

	return query, ""
}
