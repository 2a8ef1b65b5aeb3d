package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/HyperBlockHQ/guildpulse/internal/scheduler"
	"github.com/HyperBlockHQ/guildpulse/internal/service"
)

// AnalyticsHandler exposes the batch trigger and scheduler introspection
// endpoints.
type AnalyticsHandler struct {
	analyticsService service.IAnalyticsService
	sched            *scheduler.Scheduler
	logger           *zap.Logger
}

func NewAnalyticsHandler(analyticsService service.IAnalyticsService, sched *scheduler.Scheduler, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		sched:            sched,
		logger:           logger,
	}
}

// GetSchedulerStatus reports the scheduler state and its jobs
func (h *AnalyticsHandler) GetSchedulerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.sched.GetStatus())
}

// RunAnalytics triggers a full analytics pass in the background
func (h *AnalyticsHandler) RunAnalytics(c *gin.Context) {
	go func() {
		// The request context is cancelled once the response is written;
		// the background pass runs on its own context.
		count, err := h.analyticsService.RunGuildAnalytics(context.Background())
		if err != nil {
			h.logger.Error("analytics run failed", zap.Error(err))
			return
		}
		h.logger.Info("analytics run completed", zap.Int("guilds_updated", count))
	}()

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Guild analytics calculation triggered",
	})
}

// RunAnalyticsSync runs a full analytics pass and waits for the result
func (h *AnalyticsHandler) RunAnalyticsSync(c *gin.Context) {
	count, err := h.analyticsService.RunGuildAnalytics(c.Request.Context())
	if err != nil {
		h.logger.Error("analytics run failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run analytics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": fmt.Sprintf("Guild analytics calculation completed. Updated %d guilds.", count),
	})
}

// TriggerJob fires a scheduled job by id
func (h *AnalyticsHandler) TriggerJob(c *gin.Context) {
	jobID := c.Param("job_id")

	count, err := h.sched.TriggerJob(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, scheduler.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Job with ID '%s' not found", jobID)})
			return
		}
		h.logger.Error("job trigger failed", zap.String("job_id", jobID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to trigger job"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": fmt.Sprintf("Job '%s' triggered. Updated %d guilds.", jobID, count),
	})
}
