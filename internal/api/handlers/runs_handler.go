package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ssds/seat-allocation/pkg/core/services"
	"github.com/ssds/seat-allocation/pkg/db"
)

const defaultRunsLimit = 20

// RunsHandler serves stored run history
type RunsHandler struct {
	store  services.RunHistoryStore
	logger *zap.Logger
}

func NewRunsHandler(store services.RunHistoryStore, logger *zap.Logger) *RunsHandler {
	return &RunsHandler{store: store, logger: logger}
}

// ListRuns returns the newest runs; ?limit=0 returns all of them
func (h *RunsHandler) ListRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultRunsLimit)))
	if err != nil || limit < 0 {
		Error(c, badRequest("limit must be a non-negative whole number"))
		return
	}

	runs, err := services.ListRuns(c.Request.Context(), h.store, h.logger, limit)
	if err != nil {
		Error(c, err)
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}

	c.JSON(http.StatusOK, gin.H{"status": StatusSuccess, "runs": runs})
}

// GetRun returns one run with its ranked assignments
func (h *RunsHandler) GetRun(c *gin.Context) {
	detail, err := services.GetRun(c.Request.Context(), h.store, h.logger, c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      StatusSuccess,
		"run":         detail.Run,
		"assignments": detail.Assignments,
	})
}
