package router

import (
	"time"

	"github.com/Pipe0105/visor-realtime/internal/config"
	"github.com/Pipe0105/visor-realtime/internal/forecast"
	"github.com/Pipe0105/visor-realtime/internal/handler"
	"github.com/Pipe0105/visor-realtime/internal/ingest"
	"github.com/Pipe0105/visor-realtime/internal/middleware"
	"github.com/Pipe0105/visor-realtime/internal/realtime"
	"github.com/Pipe0105/visor-realtime/internal/repository"
	"github.com/Pipe0105/visor-realtime/internal/rollover"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps bundles the shared components built in main that the HTTP layer
// attaches to.
type Deps struct {
	Invoices  repository.InvoiceRepository
	Branches  repository.BranchRepository
	Rollover  rollover.Runner
	Forecast  *forecast.Service
	Rescanner *ingest.Rescanner
	Hub       *realtime.Hub
}

// New wires the middleware chain, the handlers and the routes.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, deps Deps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute))

	invoicesH := handler.NewInvoicesHandler(deps.Invoices, deps.Rollover)
	branchesH := handler.NewBranchesHandler(deps.Branches)
	forecastH := handler.NewForecastHandler(deps.Forecast)
	rescanH := handler.NewRescanHandler(deps.Rescanner)
	realtimeH := handler.NewRealtimeHandler(deps.Hub)

	r.GET("/health", handler.Health(db, rdb))

	r.GET("/invoices", invoicesH.ListRecent)
	r.GET("/invoices/today", invoicesH.ListToday)
	r.POST("/invoices/rescan", rescanH.Trigger)

	r.GET("/branches", branchesH.List)
	r.POST("/branches", branchesH.Create)

	r.GET("/forecast", forecastH.Get)

	r.GET("/ws/:branch_code", realtimeH.Serve)

	return r
}
