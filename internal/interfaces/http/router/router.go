package router

import (
	"net/http"

	"github.com/erp/procurement/internal/infrastructure/logger"
	"github.com/erp/procurement/internal/infrastructure/persistence"
	"github.com/erp/procurement/internal/interfaces/http/handler"
	"github.com/erp/procurement/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxBodyBytes caps request body size for all endpoints
const maxBodyBytes = 1 << 20 // 1 MiB

// Config holds router dependencies
type Config struct {
	Logger      *zap.Logger
	Database    *persistence.Database
	Requisition *handler.RequisitionHandler
	Production  bool
}

// New builds the gin engine with middleware and all routes registered
func New(cfg Config) *gin.Engine {
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(
		logger.Recovery(cfg.Logger),
		logger.GinMiddleware(cfg.Logger),
		middleware.CORS(),
		middleware.Secure(),
		middleware.BodyLimit(maxBodyBytes),
	)

	engine.GET("/health", healthHandler(cfg.Database))

	api := engine.Group("/api/v1")
	registerRequisitionRoutes(api, cfg.Requisition)

	return engine
}

// registerRequisitionRoutes wires the requisition endpoints.
// Static segments (summary, number) are registered before the :id wildcard.
func registerRequisitionRoutes(api *gin.RouterGroup, h *handler.RequisitionHandler) {
	requisitions := api.Group("/requisitions")
	{
		requisitions.POST("", h.Create)
		requisitions.GET("", h.List)
		requisitions.GET("/summary", h.StatusSummary)
		requisitions.GET("/number/:number", h.GetByNumber)
		requisitions.GET("/:id", h.GetByID)
		requisitions.GET("/:id/validation", h.Validate)
		requisitions.GET("/:id/budget", h.CheckBudget)
		requisitions.GET("/:id/audit", h.AuditTrail)
		requisitions.POST("/:id/submit", h.Submit)
		requisitions.POST("/:id/approve", h.Approve)
		requisitions.POST("/:id/reject", h.Reject)
		requisitions.POST("/:id/cancel", h.Cancel)
		requisitions.DELETE("/:id", h.Delete)
	}
}

// healthHandler reports service and database health
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			if err := db.Ping(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "degraded",
					"db":     "unreachable",
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
