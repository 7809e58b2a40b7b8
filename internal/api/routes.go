// Package api serves the allocation engine over HTTP.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ssds/seat-allocation/internal/api/handlers"
	"github.com/ssds/seat-allocation/internal/api/middleware"
	"github.com/ssds/seat-allocation/internal/config"
	"github.com/ssds/seat-allocation/pkg/db"
	"github.com/ssds/seat-allocation/pkg/metrics"
)

const DefaultRequestTimeout = 60 * time.Second

// Options holds the router's dependencies
type Options struct {
	Store    db.RunStore
	Recorder metrics.Recorder
	Configs  *config.Store
	Logger   *zap.Logger

	// Gatherer backs GET /metrics; nil leaves the route out
	Gatherer prometheus.Gatherer

	// RequestTimeout bounds a single allocation run
	RequestTimeout time.Duration
}

// NewRouter builds the gin engine with every route registered
func NewRouter(opts Options) *gin.Engine {
	if opts.Recorder == nil {
		opts.Recorder = metrics.NewNop()
	}
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}

	maxUpload := int64(opts.Configs.Get().Server.MaxUploadMB) << 20

	router := gin.New()
	router.MaxMultipartMemory = maxUpload
	router.Use(middleware.Recovery(opts.Logger), middleware.Logging(opts.Logger))

	healthHandler := handlers.NewHealthHandler()
	allocationHandler := handlers.NewAllocationHandler(opts.Store, opts.Recorder, opts.Configs, opts.Logger, opts.RequestTimeout, maxUpload)
	configHandler := handlers.NewConfigHandler(opts.Configs, opts.Logger)
	runsHandler := handlers.NewRunsHandler(opts.Store, opts.Logger)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthHandler.CheckHealth)

		v1.POST("/scan", allocationHandler.Scan)
		v1.POST("/distribute", allocationHandler.Distribute)

		v1.GET("/config", configHandler.GetConfig)
		v1.POST("/config", configHandler.UpdateConfig)

		v1.GET("/runs", runsHandler.ListRuns)
		v1.GET("/runs/:id", runsHandler.GetRun)
	}

	if opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	return router
}
