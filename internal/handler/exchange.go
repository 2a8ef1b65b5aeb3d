package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HyperBlockHQ/guildpulse/internal/service"
)

// GuildExchangeRequest moves points between a guild's reserve and vault.
type GuildExchangeRequest struct {
	ExchangeType string  `json:"exchange_type" binding:"required,oneof=reserve_to_vault vault_to_reserve"`
	PointsAmount float64 `json:"points_amount" binding:"required,gt=0"`
}

// GlobalExchangeRequest converts guild points to global points.
type GlobalExchangeRequest struct {
	PointsAmount float64 `json:"points_amount" binding:"required,gt=0"`
}

// ExchangeHandler exposes the points-exchange operations.
type ExchangeHandler struct {
	exchangeService service.IExchangeService
}

func NewExchangeHandler(exchangeService service.IExchangeService) *ExchangeHandler {
	return &ExchangeHandler{exchangeService: exchangeService}
}

// ExchangeGuildPoints handles reserve/vault exchanges for a guild
func (h *ExchangeHandler) ExchangeGuildPoints(c *gin.Context) {
	var req GuildExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	guildID := c.Param("guild_id")
	result, err := h.exchangeService.ExchangeGuildPoints(c.Request.Context(), guildID, req.ExchangeType, req.PointsAmount)
	if err != nil {
		respondExchangeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExchangeGuildPointsToGlobal handles converting a user's guild points into
// global HyperBlock points
func (h *ExchangeHandler) ExchangeGuildPointsToGlobal(c *gin.Context) {
	var req GlobalExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.Param("user_id")
	guildID := c.Param("guild_id")
	result, err := h.exchangeService.ExchangeGuildPointsToGlobal(c.Request.Context(), userID, guildID, req.PointsAmount)
	if err != nil {
		respondExchangeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func respondExchangeError(c *gin.Context, err error) {
	var insufficient *service.InsufficientFundsError
	switch {
	case errors.Is(err, service.ErrGuildNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrMembershipNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrGuildDelisted),
		errors.Is(err, service.ErrMembershipInactive),
		errors.Is(err, service.ErrInvalidExchangeType),
		errors.Is(err, service.ErrNonPositiveAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &insufficient):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process exchange"})
	}
}
