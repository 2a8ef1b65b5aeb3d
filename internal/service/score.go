package service

import (
	"math"

	"github.com/HyperBlockHQ/guildpulse/config"
)

// ScoreSnapshot is the output of one scoring pass for one guild. All score
// fields are 0-100 integers; ERC is the exchange rate stored as
// round(rate*100). Vault and ReservedPoints are carried through from the
// metrics bundle so the whole analytics record is overwritten at once.
type ScoreSnapshot struct {
	CAS            int
	CHS            int
	EAS            int
	CCS            int
	ERC            int
	Vault          float64
	ReservedPoints float64
}

// ScoreCalculator turns an aggregated metrics bundle into the five
// community scores. It holds no state beyond the weight configuration and
// performs no I/O.
type ScoreCalculator struct {
	weights config.AnalyticsConfig
}

func NewScoreCalculator(weights config.AnalyticsConfig) *ScoreCalculator {
	return &ScoreCalculator{weights: weights}
}

// Calculate computes CAS, CHS, EAS, CCS, and ERC for one guild.
// maxCommunitySize and maxCommunityAge are the batch-wide normalization
// maxima, both floored at 1 by the caller.
func (c *ScoreCalculator) Calculate(m *MetricsBundle, maxCommunitySize, maxCommunityAge int) ScoreSnapshot {
	w := c.weights

	totalMembers := float64(maxInt(m.TotalMembers, 1))
	activeMembers := float64(maxInt(m.ActiveMembers, 1))
	eventFrequency := float64(m.EventCount) / 30.0

	casRaw := w.ActiveMembersWeight*(activeMembers/totalMembers) +
		w.SocialEngagementWeight*(float64(m.SocialEngagers)/activeMembers) +
		w.EventParticipationWeight*(float64(m.EventParticipants)/activeMembers) +
		w.AnnouncementFrequencyWeight*m.AnnouncementFrequency +
		w.EventFrequencyWeight*eventFrequency +
		w.SocialTaskFrequencyWeight*m.SocialTaskFrequency -
		w.EaseOfEarningPointsWeight*m.EaseOfEarningPoints +
		w.StoreUpdateFrequencyWeight*m.StoreUpdateFrequency +
		w.AuctionUpdateFrequencyWeight*m.AuctionUpdateFrequency
	cas := roundScore(clamp(casRaw*100, 0, 100))

	chsRaw := w.CommunitySizeWeight*(float64(m.TotalMembers)/float64(maxCommunitySize)) +
		w.CommunityAgeWeight*(float64(m.CommunityAge)/float64(maxCommunityAge))
	chs := roundScore(clamp(chsRaw*100, 0, 100))

	reservedSafe := math.Max(1, m.ReservedPoints)

	easRaw := w.CommunityPointsFromSaleWeight*(m.PointsFromSales/reservedSafe) +
		w.HPBPFromSaleWeight*(m.HPBPFromSales/reservedSafe) +
		w.HPBPFromExchangeWeight*(m.HPBPFromExchange/reservedSafe) -
		w.CommunityPointsFromVaultWeight*(m.PointsFromVault/reservedSafe)
	eas := roundScore(clamp(easRaw*100, 0, 100))

	// The combined score uses the rounded component scores, matching the
	// values persisted for each guild.
	ccsRaw := w.CommunityActivityWeight*float64(cas) +
		w.CommunityHealthWeight*float64(chs) +
		w.ExchangeActivityWeight*float64(eas)
	ccs := roundScore(clamp(ccsRaw, 0, 100))

	erc := c.exchangeRate(float64(ccs), m, reservedSafe)

	return ScoreSnapshot{
		CAS:            cas,
		CHS:            chs,
		EAS:            eas,
		CCS:            ccs,
		ERC:            int(math.Round(erc * 100)),
		Vault:          m.VaultPoints,
		ReservedPoints: m.ReservedPoints,
	}
}

// exchangeRate derives the guild-to-global conversion rate from the combined
// score via a sigmoid curve, then applies the policy adjustments: a 10%
// penalty below five recent events, delisting after sixty event-free days,
// and a supply penalty proportional to vault withdrawals.
func (c *ScoreCalculator) exchangeRate(ccs float64, m *MetricsBundle, reservedSafe float64) float64 {
	w := c.weights

	sigmoid := 1.0 / (1.0 + math.Exp(-w.Steepness*((ccs-w.Center)/100.0)))
	erc := w.MinRate + (w.MaxRate-w.MinRate)*sigmoid

	if m.EventCount < 5 {
		erc *= 0.9
	}
	if m.EventCountSixtyDays == 0 {
		// Delisted: no conversion until the guild hosts events again.
		erc = 0
	}
	if m.PointsFromVault > 0 {
		erc *= 1.0 - math.Min(0.5, m.PointsFromVault/reservedSafe)
	}
	return erc
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func roundScore(x float64) int {
	return int(math.Round(x))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
