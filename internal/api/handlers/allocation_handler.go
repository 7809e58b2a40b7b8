package handlers

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ssds/seat-allocation/internal/config"
	"github.com/ssds/seat-allocation/pkg/core/services"
	"github.com/ssds/seat-allocation/pkg/exporter"
	"github.com/ssds/seat-allocation/pkg/metrics"
	"github.com/ssds/seat-allocation/pkg/roster"
)

// StatsPayload is the run summary returned with every allocation
type StatsPayload struct {
	Assigned   int `json:"assigned"`
	Unassigned int `json:"unassigned"`
	Total      int `json:"total"`
	Skipped    int `json:"skipped"`
}

// DistributeResponse is the body of a successful POST /distribute
type DistributeResponse struct {
	Status   string         `json:"status"`
	RunID    string         `json:"run_id,omitempty"`
	Stats    StatsPayload   `json:"stats"`
	Data     []exporter.Row `json:"data"`
	FileB64  string         `json:"file_b64"`
	FileName string         `json:"file_name"`
}

// ScanResponse is the body of a successful POST /scan
type ScanResponse struct {
	Status string `json:"status"`
	*services.ScanResult
}

// AllocationHandler serves roster scans and allocation runs
type AllocationHandler struct {
	store     services.AllocationStore
	recorder  metrics.Recorder
	configs   *config.Store
	logger    *zap.Logger
	timeout   time.Duration
	maxUpload int64
}

func NewAllocationHandler(
	store services.AllocationStore,
	recorder metrics.Recorder,
	configs *config.Store,
	logger *zap.Logger,
	timeout time.Duration,
	maxUpload int64,
) *AllocationHandler {
	return &AllocationHandler{
		store:     store,
		recorder:  recorder,
		configs:   configs,
		logger:    logger,
		timeout:   timeout,
		maxUpload: maxUpload,
	}
}

// Scan reports the student count and chosen departments of an uploaded roster
func (h *AllocationHandler) Scan(c *gin.Context) {
	r, _, err := h.readRoster(c)
	if err != nil {
		Error(c, err)
		return
	}

	c.JSON(http.StatusOK, ScanResponse{Status: StatusSuccess, ScanResult: services.ScanRoster(r, h.logger)})
}

// Distribute runs an allocation for an uploaded roster.
// Form fields mode, total_capacity, capacities and quotas override the saved configuration.
func (h *AllocationHandler) Distribute(c *gin.Context) {
	req, err := h.parseRequest(c)
	if err != nil {
		Error(c, err)
		return
	}

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	result, err := services.RunAllocation(ctx, h.store, h.recorder, h.configs.Get(), h.logger, req)
	if err != nil {
		Error(c, err)
		return
	}

	stats := result.Result.Stats
	c.JSON(http.StatusOK, DistributeResponse{
		Status: StatusSuccess,
		RunID:  result.RunID,
		Stats: StatsPayload{
			Assigned:   stats.Assigned,
			Unassigned: stats.Unassigned,
			Total:      stats.Total,
			Skipped:    stats.Skipped,
		},
		Data:     exporter.Rows(result.Result),
		FileB64:  base64.StdEncoding.EncodeToString(result.File),
		FileName: exporter.FileName,
	})
}

func (h *AllocationHandler) parseRequest(c *gin.Context) (services.AllocationRequest, error) {
	var req services.AllocationRequest

	r, source, err := h.readRoster(c)
	if err != nil {
		return req, err
	}
	req.Roster = r
	req.Source = source

	if req.Mode, err = parseMode(c.PostForm("mode")); err != nil {
		return req, err
	}
	if req.TotalSeats, err = parseTotal(c.PostForm("total_capacity")); err != nil {
		return req, err
	}
	if req.Capacities, err = parseCapacities(c.PostForm("capacities")); err != nil {
		return req, err
	}
	if req.Quotas, err = parseQuotas(c.PostForm("quotas")); err != nil {
		return req, err
	}

	return req, nil
}

// readRoster loads the uploaded "file" field
func (h *AllocationHandler) readRoster(c *gin.Context) (*roster.Roster, string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, "", badRequest("no roster file uploaded")
	}

	if h.maxUpload > 0 && fh.Size > h.maxUpload {
		return nil, "", badRequest(fmt.Sprintf("roster file is larger than %d bytes", h.maxUpload))
	}

	format, err := roster.FormatFromName(fh.Filename)
	if err != nil {
		return nil, "", badRequest(err.Error())
	}

	file, err := fh.Open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	r, err := roster.Load(file, format)
	if err != nil {
		return nil, "", badRequest(fmt.Sprintf("failed to read roster: %v", err))
	}

	h.logger.Debug("Roster uploaded",
		zap.String("file", fh.Filename),
		zap.Int64("bytes", fh.Size),
		zap.Int("students", r.Count()))

	return r, fh.Filename, nil
}
