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

type BatchProvider interface {
	ListBatches(ctx context.Context, query services.BatchQuery) ([]models.AuctionBatch, error)
	GetBatch(ctx context.Context, id uint) (models.AuctionBatch, error)
}

type AuctionResultsController struct {
	service BatchProvider
}

func NewAuctionResultsController(service BatchProvider) (*AuctionResultsController, error) {
	if service == nil {
		return nil, errors.New("result service is nil")
	}

	return &AuctionResultsController{service: service}, nil
}

func (c *AuctionResultsController) RegisterRoutes(router *gin.Engine) error {
	if c == nil {
		return errors.New("auction results controller is nil")
	}
	if router == nil {
		return errors.New("router is nil")
	}

	router.GET("/api/auction-results", c.listBatches)
	router.GET("/api/auction-results/:id", c.getBatch)
	return nil
}

func (c *AuctionResultsController) listBatches(ctx *gin.Context) {
	query, err := services.ParseBatchQuery(ctx.Query("sort"), ctx.Query("from"), ctx.Query("to"), ctx.Query("limit"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: queryErrorMessage(err)})
		return
	}

	batches, err := c.service.ListBatches(ctx.Request.Context(), query)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to load auction results"})
		return
	}
	if batches == nil {
		batches = []models.AuctionBatch{}
	}

	ctx.JSON(http.StatusOK, batches)
}

func (c *AuctionResultsController) getBatch(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || id == 0 {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
		return
	}

	batch, err := c.service.GetBatch(ctx.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrBatchNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{Error: "auction results not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to load auction results"})
		return
	}

	ctx.JSON(http.StatusOK, batch)
}

func queryErrorMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrInvalidSort):
		return "invalid sort"
	case errors.Is(err, services.ErrInvalidLimit):
		return "invalid limit"
	case errors.Is(err, services.ErrInvalidMonthRange):
		return "invalid month range"
	default:
		return "invalid query"
	}
}
