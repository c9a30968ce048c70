package handler

import (
	"net/http"

	"github.com/GoPolymarket/vaultscope/internal/config"
	"github.com/GoPolymarket/vaultscope/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires middleware and routes.
func NewRouter(cfg *config.Config, vaults *VaultHandler, risk *RiskHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.MetricsMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "vaultscope"})
	})

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	v1 := r.Group("/v1")
	v1.Use(middleware.RateLimitMiddleware(middleware.NewIPRateLimiter(cfg.RateLimit.QPS, cfg.RateLimit.Burst)))
	{
		v1.GET("/vaults", vaults.ListVaults)
		v1.GET("/vaults/total", vaults.TotalVaults)
		v1.GET("/vaults/endorsed", vaults.EndorsedVaults)
		v1.GET("/vaults/snapshot", vaults.Snapshot)
		v1.POST("/vaults/load", vaults.LoadAll)
		v1.GET("/vaults/:address", vaults.GetVault)
		v1.GET("/vaults/:address/strategies/:strategy", vaults.GetStrategy)
		v1.POST("/risk/classify", risk.Classify)
	}
	return r
}
