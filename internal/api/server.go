package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"supplyArchive/internal/metrics"
)

// NewRouter wires the archive API routes.
func NewRouter(h *Handler, logger *zap.Logger, m *metrics.Metrics, corsOrigins []string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	if logger != nil {
		r.Use(RequestLogger(logger))
	}
	r.Use(CORS(corsOrigins))

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(m.Handler()))

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/products", h.ListProducts)
		apiGroup.GET("/products/:uid", h.GetProduct)
		apiGroup.GET("/stats", h.Stats)
		apiGroup.GET("/search", h.Search)
		apiGroup.GET("/export", h.Export)
		apiGroup.GET("/manufacturer/:address", h.ByManufacturer)
		apiGroup.GET("/customer/:address", h.ByCustomer)
		apiGroup.POST("/archive/:uid", h.Archive)
	}

	r.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "endpoint not found")
	})

	return r
}
