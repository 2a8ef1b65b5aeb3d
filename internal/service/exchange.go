package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/HyperBlockHQ/guildpulse/internal/model"
	"github.com/HyperBlockHQ/guildpulse/internal/pkg/kafka"
	"github.com/HyperBlockHQ/guildpulse/internal/repository"
)

const (
	ExchangeReserveToVault = "reserve_to_vault"
	ExchangeVaultToReserve = "vault_to_reserve"
)

var (
	ErrGuildNotFound       = errors.New("guild not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrMembershipNotFound  = errors.New("user has no membership in this guild")
	ErrGuildDelisted       = errors.New("guild has no usable exchange rate")
	ErrMembershipInactive  = errors.New("membership is not active")
	ErrInvalidExchangeType = errors.New("invalid exchange type")
	ErrNonPositiveAmount   = errors.New("points amount must be positive")
)

// InsufficientFundsError reports a withdrawal that exceeds the available
// balance of a pool.
type InsufficientFundsError struct {
	Pool      string
	Available float64
	Requested float64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient %s points. Available: %g, Requested: %g", e.Pool, e.Available, e.Requested)
}

// GuildExchangeResult is the before/after snapshot of a reserve/vault
// exchange.
type GuildExchangeResult struct {
	Success               bool    `json:"success"`
	PreviousReservePoints float64 `json:"previous_reserve_points"`
	NewReservePoints      float64 `json:"new_reserve_points"`
	PreviousVaultPoints   float64 `json:"previous_vault_points"`
	NewVaultPoints        float64 `json:"new_vault_points"`
	Message               string  `json:"message"`
}

// GlobalExchangeResult is the before/after snapshot of a guild-to-global
// exchange.
type GlobalExchangeResult struct {
	Success              bool    `json:"success"`
	PreviousGuildPoints  float64 `json:"previous_guild_points"`
	NewGuildPoints       float64 `json:"new_guild_points"`
	PreviousGlobalPoints float64 `json:"previous_global_points"`
	NewGlobalPoints      float64 `json:"new_global_points"`
	Message              string  `json:"message"`
}

// IExchangeService defines the points-exchange operations
type IExchangeService interface {
	ExchangeGuildPoints(ctx context.Context, guildID, exchangeType string, pointsAmount float64) (*GuildExchangeResult, error)
	ExchangeGuildPointsToGlobal(ctx context.Context, userID, guildID string, pointsAmount float64) (*GlobalExchangeResult, error)
}

// ExchangeService moves points between a guild's reserve and vault pools,
// and converts guild points into global HyperBlock points at the guild's
// derived exchange rate.
type ExchangeService struct {
	guildRepo    repository.IGuildRepository
	userRepo     repository.IUserRepository
	activityRepo repository.IActivityRepository
	cache        AnalyticsCache
	publisher    EventPublisher
	logger       *zap.Logger
}

// NewExchangeService creates a new IExchangeService instance. cache and
// publisher may be nil.
func NewExchangeService(
	guildRepo repository.IGuildRepository,
	userRepo repository.IUserRepository,
	activityRepo repository.IActivityRepository,
	cache AnalyticsCache,
	publisher EventPublisher,
	logger *zap.Logger,
) *ExchangeService {
	return &ExchangeService{
		guildRepo:    guildRepo,
		userRepo:     userRepo,
		activityRepo: activityRepo,
		cache:        cache,
		publisher:    publisher,
		logger:       logger,
	}
}

// resolveGuild looks a guild up by internal id first, then by external
// Discord guild id.
func (s *ExchangeService) resolveGuild(ctx context.Context, guildID string) (*model.Guild, error) {
	guild, err := s.guildRepo.FindByID(ctx, guildID)
	if err == nil {
		return guild, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to find guild: %w", err)
	}

	guild, err = s.guildRepo.FindByGuildID(ctx, guildID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGuildNotFound
		}
		return nil, fmt.Errorf("failed to find guild: %w", err)
	}
	return guild, nil
}

// ExchangeGuildPoints moves pointsAmount between the guild's reserve and
// vault pools. The amount moves in full; both pools are written in a single
// update so their sum is conserved.
func (s *ExchangeService) ExchangeGuildPoints(ctx context.Context, guildID, exchangeType string, pointsAmount float64) (*GuildExchangeResult, error) {
	if exchangeType != ExchangeReserveToVault && exchangeType != ExchangeVaultToReserve {
		return nil, ErrInvalidExchangeType
	}
	if pointsAmount <= 0 {
		return nil, ErrNonPositiveAmount
	}

	guild, err := s.resolveGuild(ctx, guildID)
	if err != nil {
		return nil, err
	}

	currentReserve := guild.Analytics.ReservedPoints
	currentVault := guild.Analytics.Vault

	var newReserve, newVault float64
	if exchangeType == ExchangeReserveToVault {
		if currentReserve < pointsAmount {
			return nil, &InsufficientFundsError{Pool: "reserve", Available: currentReserve, Requested: pointsAmount}
		}
		newReserve = currentReserve - pointsAmount
		newVault = currentVault + pointsAmount
	} else {
		if currentVault < pointsAmount {
			return nil, &InsufficientFundsError{Pool: "vault", Available: currentVault, Requested: pointsAmount}
		}
		newReserve = currentReserve + pointsAmount
		newVault = currentVault - pointsAmount
	}

	if err := s.guildRepo.UpdatePointPools(ctx, guild.ID, newReserve, newVault); err != nil {
		return nil, fmt.Errorf("failed to update guild points: %w", err)
	}

	s.afterGuildExchange(ctx, guild, exchangeType, pointsAmount)

	direction := "reserve to vault"
	if exchangeType == ExchangeVaultToReserve {
		direction = "vault to reserve"
	}

	return &GuildExchangeResult{
		Success:               true,
		PreviousReservePoints: currentReserve,
		NewReservePoints:      newReserve,
		PreviousVaultPoints:   currentVault,
		NewVaultPoints:        newVault,
		Message:               fmt.Sprintf("Successfully exchanged %g points from %s", pointsAmount, direction),
	}, nil
}

// ExchangeGuildPointsToGlobal converts pointsAmount of a user's guild-local
// balance into global HyperBlock points at the guild's stored exchange rate.
func (s *ExchangeService) ExchangeGuildPointsToGlobal(ctx context.Context, userID, guildID string, pointsAmount float64) (*GlobalExchangeResult, error) {
	if pointsAmount <= 0 {
		return nil, ErrNonPositiveAmount
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	guild, err := s.resolveGuild(ctx, guildID)
	if err != nil {
		return nil, err
	}

	var membership *model.ServerMembership
	for i := range user.ServerMemberships {
		if user.ServerMemberships[i].GuildID == guild.GuildID {
			membership = &user.ServerMemberships[i]
			break
		}
	}
	if membership == nil {
		return nil, ErrMembershipNotFound
	}

	if guild.Analytics.ERC <= 0 {
		return nil, ErrGuildDelisted
	}
	if membership.Status != "active" {
		return nil, ErrMembershipInactive
	}
	if membership.Points < pointsAmount {
		return nil, &InsufficientFundsError{Pool: "guild", Available: membership.Points, Requested: pointsAmount}
	}

	previousGuildPoints := membership.Points
	previousGlobalPoints := user.HyperBlockPoints

	// ERC is stored as round(rate*100); the stored integer is the divisor
	// used throughout the exchange path.
	globalPointsToAdd := pointsAmount / float64(guild.Analytics.ERC)
	newGuildPoints := previousGuildPoints - pointsAmount
	newGlobalPoints := previousGlobalPoints + globalPointsToAdd

	if err := s.userRepo.ApplyGlobalExchange(ctx, user.ID, membership.ID, newGuildPoints, newGlobalPoints); err != nil {
		return nil, fmt.Errorf("failed to update user points: %w", err)
	}

	s.afterGlobalExchange(ctx, user, guild, pointsAmount, globalPointsToAdd)

	return &GlobalExchangeResult{
		Success:              true,
		PreviousGuildPoints:  previousGuildPoints,
		NewGuildPoints:       newGuildPoints,
		PreviousGlobalPoints: previousGlobalPoints,
		NewGlobalPoints:      newGlobalPoints,
		Message:              fmt.Sprintf("Successfully exchanged %g guild points for %g HyperBlock points", pointsAmount, globalPointsToAdd),
	}, nil
}

// afterGuildExchange handles the best-effort side effects of a reserve/vault
// move: cache invalidation and event publication.
func (s *ExchangeService) afterGuildExchange(ctx context.Context, guild *model.Guild, exchangeType string, pointsAmount float64) {
	if s.cache != nil {
		if err := s.cache.InvalidateGuildAnalytics(ctx, guild.GuildID); err != nil {
			s.logger.Warn("failed to invalidate analytics cache",
				zap.String("guild_id", guild.GuildID), zap.Error(err))
		}
	}
	if s.publisher != nil {
		event := kafka.PointsExchangedEvent{
			ExchangeID:   uuid.New().String(),
			GuildID:      guild.GuildID,
			ExchangeType: exchangeType,
			PointsAmount: pointsAmount,
			Timestamp:    time.Now(),
		}
		if err := s.publisher.Publish(guild.GuildID, event); err != nil {
			s.logger.Warn("failed to publish exchange event",
				zap.String("guild_id", guild.GuildID), zap.Error(err))
		}
	}
}

// afterGlobalExchange records the audit rows feeding the next analytics
// pass, invalidates the cache, and publishes the exchange event. All side
// effects are best effort; the balance update has already committed.
func (s *ExchangeService) afterGlobalExchange(ctx context.Context, user *model.User, guild *model.Guild, pointsAmount, globalPoints float64) {
	now := time.Now()
	audit := &model.Transaction{
		ID:         uuid.New().String(),
		GuildID:    guild.GuildID,
		Type:       "exchange",
		Status:     "completed",
		HPBPEarned: globalPoints,
		CreatedAt:  now,
	}
	pointAudit := &model.PointTransaction{
		ID:        uuid.New().String(),
		GuildID:   guild.GuildID,
		UserID:    user.ID,
		Type:      "exchange",
		Amount:    pointsAmount,
		Timestamp: now,
	}
	if err := s.activityRepo.RecordExchange(ctx, audit, pointAudit); err != nil {
		s.logger.Warn("failed to record exchange audit",
			zap.String("guild_id", guild.GuildID),
			zap.String("user_id", user.ID), zap.Error(err))
	}

	if s.cache != nil {
		if err := s.cache.InvalidateGuildAnalytics(ctx, guild.GuildID); err != nil {
			s.logger.Warn("failed to invalidate analytics cache",
				zap.String("guild_id", guild.GuildID), zap.Error(err))
		}
	}
	if s.publisher != nil {
		event := kafka.PointsExchangedEvent{
			ExchangeID:   audit.ID,
			GuildID:      guild.GuildID,
			UserID:       user.ID,
			ExchangeType: "guild_to_global",
			PointsAmount: pointsAmount,
			GlobalPoints: globalPoints,
			Timestamp:    now,
		}
		if err := s.publisher.Publish(guild.GuildID, event); err != nil {
			s.logger.Warn("failed to publish exchange event",
				zap.String("guild_id", guild.GuildID), zap.Error(err))
		}
	}
}
