package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HyperBlockHQ/guildpulse/internal/handler"
)

// RegisterRoutes registers all API routes
func RegisterRoutes(
	r *gin.Engine,
	mw *MiddlewareManager,
	analyticsHandler *handler.AnalyticsHandler,
	exchangeHandler *handler.ExchangeHandler,
) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(mw.JWTAuth())
	{
		// Scheduler introspection and manual triggers (admin only)
		sched := api.Group("/scheduler")
		sched.Use(mw.AdminOnly())
		{
			sched.GET("/status", analyticsHandler.GetSchedulerStatus)
			sched.POST("/run-analytics", analyticsHandler.RunAnalytics)
			sched.POST("/run-async-analytics", analyticsHandler.RunAnalyticsSync)
			sched.POST("/trigger-job/:job_id", analyticsHandler.TriggerJob)
		}

		// Guild-local exchange is restricted to admins; the surrounding
		// platform grants guild owners the admin claim for their guilds.
		guilds := api.Group("/guilds")
		{
			guilds.POST("/:guild_id/exchange-points", mw.AdminOnly(), exchangeHandler.ExchangeGuildPoints)
		}

		users := api.Group("/users")
		{
			users.POST("/:user_id/guilds/:guild_id/exchange-global", exchangeHandler.ExchangeGuildPointsToGlobal)
		}
	}
}
