package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/HyperBlockHQ/guildpulse/internal/model"
	"github.com/HyperBlockHQ/guildpulse/internal/repository"
)

// MetricsBundle is the flat set of per-guild inputs to the score calculator,
// collected for a fixed "now".
type MetricsBundle struct {
	TotalMembers   int
	ActiveMembers  int
	SocialEngagers int

	EventParticipants   int
	EventCount          int
	EventCountSixtyDays int

	AnnouncementFrequency  float64
	SocialTaskFrequency    float64
	StoreUpdateFrequency   float64
	AuctionUpdateFrequency float64

	EaseOfEarningPoints float64
	CommunityAge        int

	VaultPoints    float64
	ReservedPoints float64

	PointsFromSales  float64
	HPBPFromSales    float64
	HPBPFromExchange float64
	PointsFromVault  float64
}

// Degradation defaults. A failing source query never aborts the bundle;
// the affected metric falls back to the value below and the failure is
// logged as a warning.
//
//	source              metric                default
//	events (30d)        EventCount/Participants   0
//	events (60d)        EventCountSixtyDays       1  (suppresses delisting)
//	point_transactions  EaseOfEarningPoints       0.1
//	memberships sum     VaultPoints               500
//	raffles             reserved contribution     0
//	auctions            reserved contribution     0
//	transactions        PointsFromSales           100
//	transactions        HPBPFromSales             50
//	transactions        HPBPFromExchange          25
//	point_transactions  PointsFromVault           10
const (
	defaultEaseOfEarning   = 0.1
	defaultVaultPoints     = 500.0
	defaultPointsFromSales = 100.0
	defaultHPBPFromSales   = 50.0
	defaultHPBPFromExch    = 25.0
	defaultPointsFromVault = 10.0
)

// MetricAggregator gathers raw per-guild counts from the data store with
// safe fallbacks when a source is absent or failing.
type MetricAggregator struct {
	userRepo     repository.IUserRepository
	activityRepo repository.IActivityRepository
	logger       *zap.Logger
}

func NewMetricAggregator(userRepo repository.IUserRepository, activityRepo repository.IActivityRepository, logger *zap.Logger) *MetricAggregator {
	return &MetricAggregator{
		userRepo:     userRepo,
		activityRepo: activityRepo,
		logger:       logger,
	}
}

// Collect builds the metrics bundle for one guild. Sub-metric failures
// degrade to defaults and never fail the bundle.
func (a *MetricAggregator) Collect(ctx context.Context, guild *model.Guild, now time.Time) *MetricsBundle {
	thirtyDaysAgo := now.AddDate(0, 0, -30)
	sixtyDaysAgo := now.AddDate(0, 0, -60)

	m := &MetricsBundle{}

	m.TotalMembers = guild.TotalMembers
	if m.TotalMembers <= 0 {
		m.TotalMembers = 1
	}

	m.ActiveMembers, m.SocialEngagers = a.collectMemberActivity(ctx, guild.GuildID)

	m.EventCount, m.EventParticipants = a.collectRecentEvents(ctx, guild.GuildID, thirtyDaysAgo)
	m.EventCountSixtyDays = a.collectDelistWindow(ctx, guild.GuildID, sixtyDaysAgo)

	m.AnnouncementFrequency = float64(guild.Counter.WeeklyAnnouncementFrequency) / 7.0
	m.SocialTaskFrequency = float64(guild.Counter.WeeklySocialTasksCounter) / 7.0
	m.StoreUpdateFrequency = float64(guild.Counter.WeeklyStoreUpdateFrequency) / 7.0
	m.AuctionUpdateFrequency = float64(guild.Counter.WeeklyAuctionUpdateFrequency) / 7.0

	m.EaseOfEarningPoints = a.collectEaseOfEarning(ctx, guild.GuildID, thirtyDaysAgo, m.ActiveMembers)

	m.CommunityAge = communityAgeDays(guild.CreatedAt, now)

	m.VaultPoints = a.collectVaultPoints(ctx, guild.GuildID)
	m.ReservedPoints = a.collectReservedPoints(ctx, guild.GuildID)

	m.PointsFromSales = a.floatMetric(ctx, guild.GuildID, "points_from_sales", defaultPointsFromSales, a.activityRepo.SumSalePoints)
	m.HPBPFromSales = a.floatMetric(ctx, guild.GuildID, "hpbp_from_sales", defaultHPBPFromSales, a.activityRepo.SumSaleHPBP)
	m.HPBPFromExchange = a.floatMetric(ctx, guild.GuildID, "hpbp_from_exchange", defaultHPBPFromExch, a.activityRepo.SumExchangeHPBP)
	m.PointsFromVault = a.floatMetric(ctx, guild.GuildID, "points_from_vault", defaultPointsFromVault, a.activityRepo.SumVaultWithdrawals)

	return m
}

// collectMemberActivity counts active participants and, among them, members
// with at least one completed social task. ActiveMembers is floored at 1 so
// it can be used as a denominator.
func (a *MetricAggregator) collectMemberActivity(ctx context.Context, guildID string) (int, int) {
	memberships, err := a.userRepo.FindMembershipsByGuild(ctx, guildID)
	if err != nil {
		a.logger.Warn("failed to load memberships, using defaults",
			zap.String("guild_id", guildID), zap.Error(err))
		return 1, 0
	}

	activeMembers := 0
	socialEngagers := 0
	for _, membership := range memberships {
		if !membership.Counter.ActiveParticipant {
			continue
		}
		activeMembers++
		if membership.CompletedTasks > 0 {
			socialEngagers++
		}
	}
	if activeMembers < 1 {
		activeMembers = 1
	}
	return activeMembers, socialEngagers
}

func (a *MetricAggregator) collectRecentEvents(ctx context.Context, guildID string, since time.Time) (int, int) {
	count, err := a.activityRepo.CountEventsSince(ctx, guildID, since)
	if err != nil {
		a.logger.Warn("failed to count recent events, using defaults",
			zap.String("guild_id", guildID), zap.Error(err))
		return 0, 0
	}

	participants, err := a.activityRepo.SumEventParticipantsSince(ctx, guildID, since)
	if err != nil {
		a.logger.Warn("failed to sum event participants, using default",
			zap.String("guild_id", guildID), zap.Error(err))
		participants = 0
	}
	return int(count), int(participants)
}

// collectDelistWindow counts events in the sixty-day delisting window. A
// failing query reports 1 so a storage hiccup never delists a guild.
func (a *MetricAggregator) collectDelistWindow(ctx context.Context, guildID string, since time.Time) int {
	count, err := a.activityRepo.CountEventsSince(ctx, guildID, since)
	if err != nil {
		a.logger.Warn("failed to check delisting window, skipping delist check",
			zap.String("guild_id", guildID), zap.Error(err))
		return 1
	}
	return int(count)
}

// collectEaseOfEarning derives how freely reward points flow in the guild:
// points rewarded per active member per day, scaled so 100/day maps to 1.0.
func (a *MetricAggregator) collectEaseOfEarning(ctx context.Context, guildID string, since time.Time, activeMembers int) float64 {
	totalPointsGiven, err := a.activityRepo.SumRewardPointsSince(ctx, guildID, since)
	if err != nil {
		a.logger.Warn("failed to sum reward transactions, using default",
			zap.String("guild_id", guildID), zap.Error(err))
		return defaultEaseOfEarning
	}
	if totalPointsGiven <= 0 {
		return defaultEaseOfEarning
	}

	ease := (totalPointsGiven / float64(maxInt(activeMembers, 1)) / 30.0) / 100.0
	return math.Min(1.0, ease)
}

func (a *MetricAggregator) collectVaultPoints(ctx context.Context, guildID string) float64 {
	total, err := a.userRepo.SumActivePoints(ctx, guildID)
	if err != nil {
		a.logger.Warn("failed to sum vault points, using default",
			zap.String("guild_id", guildID), zap.Error(err))
		return defaultVaultPoints
	}
	return total
}

// collectReservedPoints sums raffle prize pools and auction bids. The two
// sub-queries degrade independently to a 0 contribution.
func (a *MetricAggregator) collectReservedPoints(ctx context.Context, guildID string) float64 {
	rafflePoints, err := a.activityRepo.SumRafflePool(ctx, guildID)
	if err != nil {
		a.logger.Warn("failed to sum raffle pools, using default",
			zap.String("guild_id", guildID), zap.Error(err))
		rafflePoints = 0
	}

	auctionPoints, err := a.activityRepo.SumAuctionBids(ctx, guildID)
	if err != nil {
		a.logger.Warn("failed to sum auction bids, using default",
			zap.String("guild_id", guildID), zap.Error(err))
		auctionPoints = 0
	}
	return rafflePoints + auctionPoints
}

func (a *MetricAggregator) floatMetric(ctx context.Context, guildID, name string, fallback float64, query func(context.Context, string) (float64, error)) float64 {
	total, err := query(ctx, guildID)
	if err != nil {
		a.logger.Warn("failed to aggregate exchange metric, using default",
			zap.String("guild_id", guildID), zap.String("metric", name),
			zap.Float64("default", fallback), zap.Error(err))
		return fallback
	}
	return total
}

// communityAgeDays is the guild's age in whole days, floored at 1.
func communityAgeDays(createdAt, now time.Time) int {
	days := int(now.Sub(createdAt).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}
