package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/HyperBlockHQ/guildpulse/internal/model"
	"github.com/HyperBlockHQ/guildpulse/internal/pkg/kafka"
	"github.com/HyperBlockHQ/guildpulse/internal/repository"
)

const analyticsCacheTTL = 24 * time.Hour

// AnalyticsCache mirrors the redis client's analytics methods so the runner
// can treat caching as optional.
type AnalyticsCache interface {
	SetGuildAnalytics(ctx context.Context, guildID string, analytics *model.GuildAnalytics, ttl time.Duration) error
	InvalidateGuildAnalytics(ctx context.Context, guildID string) error
}

// EventPublisher mirrors the kafka producer.
type EventPublisher interface {
	Publish(key string, payload interface{}) error
}

// IAnalyticsService defines the batch entry point exposed to the scheduler
// and the administrative trigger endpoint.
type IAnalyticsService interface {
	RunGuildAnalytics(ctx context.Context) (int, error)
}

// AnalyticsService orchestrates one full scoring pass over all guilds:
// batch-wide normalization maxima first, then aggregate, score, and persist
// per guild. A failing guild is logged and skipped; the pass continues.
type AnalyticsService struct {
	guildRepo  repository.IGuildRepository
	aggregator *MetricAggregator
	calculator *ScoreCalculator
	cache      AnalyticsCache
	publisher  EventPublisher
	logger     *zap.Logger
}

// NewAnalyticsService creates a new IAnalyticsService instance. cache and
// publisher may be nil, in which case caching and event publication are
// skipped.
func NewAnalyticsService(
	guildRepo repository.IGuildRepository,
	aggregator *MetricAggregator,
	calculator *ScoreCalculator,
	cache AnalyticsCache,
	publisher EventPublisher,
	logger *zap.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		guildRepo:  guildRepo,
		aggregator: aggregator,
		calculator: calculator,
		cache:      cache,
		publisher:  publisher,
		logger:     logger,
	}
}

// RunGuildAnalytics runs one batch pass and returns the number of guilds
// whose analytics were modified. Only a total enumeration failure
// propagates as an error.
func (s *AnalyticsService) RunGuildAnalytics(ctx context.Context) (int, error) {
	s.logger.Info("starting guild analytics calculation")

	guilds, err := s.guildRepo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list guilds: %w", err)
	}
	if len(guilds) == 0 {
		s.logger.Warn("no guilds found")
		return 0, nil
	}
	s.logger.Info("loaded guilds", zap.Int("count", len(guilds)))

	now := time.Now()
	maxCommunitySize, maxCommunityAge := normalizationMaxima(guilds, now)

	updated := 0
	for _, guild := range guilds {
		if err := s.processGuild(ctx, guild, now, maxCommunitySize, maxCommunityAge, &updated); err != nil {
			s.logger.Error("failed to process guild analytics",
				zap.String("guild_id", guild.GuildID),
				zap.String("guild_name", guild.GuildName),
				zap.Error(err))
		}
	}

	s.logger.Info("completed guild analytics calculation", zap.Int("updated", updated))
	return updated, nil
}

// normalizationMaxima computes the batch-wide maxima of community size and
// age, each floored at 1 so they are safe denominators.
func normalizationMaxima(guilds []*model.Guild, now time.Time) (int, int) {
	maxSize := 1
	maxAge := 1
	for _, guild := range guilds {
		if guild.TotalMembers > maxSize {
			maxSize = guild.TotalMembers
		}
		age := int(now.Sub(guild.CreatedAt).Hours() / 24)
		if age > maxAge {
			maxAge = age
		}
	}
	return maxSize, maxAge
}

func (s *AnalyticsService) processGuild(ctx context.Context, guild *model.Guild, now time.Time, maxCommunitySize, maxCommunityAge int, updated *int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while scoring guild: %v", r)
		}
	}()

	s.logger.Info("processing guild analytics",
		zap.String("guild_id", guild.GuildID),
		zap.String("guild_name", guild.GuildName))

	metrics := s.aggregator.Collect(ctx, guild, now)
	snapshot := s.calculator.Calculate(metrics, maxCommunitySize, maxCommunityAge)

	if snapshot.ERC == 0 && metrics.EventCountSixtyDays == 0 {
		s.logger.Warn("guild delisted for inactivity",
			zap.String("guild_id", guild.GuildID),
			zap.String("guild_name", guild.GuildName))
	}

	analytics := model.GuildAnalytics{
		CAS:            snapshot.CAS,
		CHS:            snapshot.CHS,
		EAS:            snapshot.EAS,
		CCS:            snapshot.CCS,
		ERC:            snapshot.ERC,
		Vault:          snapshot.Vault,
		ReservedPoints: snapshot.ReservedPoints,
	}

	rows, err := s.guildRepo.UpdateAnalytics(ctx, guild.ID, analytics, now)
	if err != nil {
		return fmt.Errorf("failed to persist analytics: %w", err)
	}
	if rows == 0 {
		s.logger.Warn("guild not updated",
			zap.String("guild_id", guild.GuildID),
			zap.String("guild_name", guild.GuildName))
		return nil
	}
	*updated++

	s.logger.Info("updated guild analytics",
		zap.String("guild_id", guild.GuildID),
		zap.Int("cas", snapshot.CAS), zap.Int("chs", snapshot.CHS),
		zap.Int("eas", snapshot.EAS), zap.Int("ccs", snapshot.CCS),
		zap.Int("erc", snapshot.ERC))

	if s.cache != nil {
		if err := s.cache.SetGuildAnalytics(ctx, guild.GuildID, &analytics, analyticsCacheTTL); err != nil {
			s.logger.Warn("failed to cache analytics",
				zap.String("guild_id", guild.GuildID), zap.Error(err))
		}
	}
	if s.publisher != nil {
		event := kafka.AnalyticsUpdatedEvent{
			GuildID:   guild.GuildID,
			GuildName: guild.GuildName,
			CAS:       snapshot.CAS,
			CHS:       snapshot.CHS,
			EAS:       snapshot.EAS,
			CCS:       snapshot.CCS,
			ERC:       snapshot.ERC,
			UpdatedAt: now,
		}
		if err := s.publisher.Publish(guild.GuildID, event); err != nil {
			s.logger.Warn("failed to publish analytics event",
				zap.String("guild_id", guild.GuildID), zap.Error(err))
		}
	}
	return nil
}
