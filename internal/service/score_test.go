package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/HyperBlockHQ/guildpulse/config"
)

func newCalculator(t *testing.T) *ScoreCalculator {
	t.Helper()
	return NewScoreCalculator(config.DefaultConfig().Analytics)
}

// quietBundle is a guild with no activity beyond its membership: no events,
// no frequencies, default ease of earning.
func quietBundle() *MetricsBundle {
	return &MetricsBundle{
		TotalMembers:        100,
		ActiveMembers:       50,
		SocialEngagers:      25,
		EventCount:          0,
		EventCountSixtyDays: 1,
		EaseOfEarningPoints: 0.1,
		CommunityAge:        30,
	}
}

func TestCalculate_CommunityActivityScore(t *testing.T) {
	calc := newCalculator(t)

	// 0.3*(50/100) + 0.2*(25/50) - 0.1*0.1 = 0.24
	snapshot := calc.Calculate(quietBundle(), 100, 100)
	assert.Equal(t, 24, snapshot.CAS)
}

func TestCalculate_CommunityHealthScore(t *testing.T) {
	calc := newCalculator(t)

	// 0.6*(100/100) + 0.4*(30/100) = 0.72
	snapshot := calc.Calculate(quietBundle(), 100, 100)
	assert.Equal(t, 72, snapshot.CHS)
}

func TestCalculate_ExchangeActivityScoreClampsAt100(t *testing.T) {
	calc := newCalculator(t)

	m := quietBundle()
	m.ReservedPoints = 0 // reservedSafe = 1
	m.PointsFromSales = 100
	m.HPBPFromSales = 50
	m.HPBPFromExchange = 25
	m.PointsFromVault = 0

	// raw = 0.3*100 + 0.3*50 + 0.3*25 = 52.5, scaled and clamped to 100
	snapshot := calc.Calculate(m, 100, 100)
	assert.Equal(t, 100, snapshot.EAS)
}

func TestCalculate_CombinedScoreAndRate(t *testing.T) {
	calc := newCalculator(t)

	m := quietBundle()
	m.ReservedPoints = 0
	m.PointsFromSales = 100
	m.HPBPFromSales = 50
	m.HPBPFromExchange = 25

	snapshot := calc.Calculate(m, 100, 100)
	require.Equal(t, 24, snapshot.CAS)
	require.Equal(t, 72, snapshot.CHS)
	require.Equal(t, 100, snapshot.EAS)

	// CCS = 0.5*24 + 0.3*72 + 0.2*100 = 53.6 -> 54
	assert.Equal(t, 54, snapshot.CCS)

	// sigmoid(54) = 1/(1+e^(-5*0.04)) ~ 0.5498
	// erc = 0.01 + 0.09*0.5498 ~ 0.05949, *0.9 (under 5 events) ~ 0.05354
	assert.Equal(t, 5, snapshot.ERC)
}

// saturatedBundle pins CAS, CHS, and EAS at 100 so ERC policy adjustments
// can be observed in isolation.
func saturatedBundle() *MetricsBundle {
	return &MetricsBundle{
		TotalMembers:          100,
		ActiveMembers:         100,
		SocialEngagers:        100,
		AnnouncementFrequency: 1000,
		EventCount:            5,
		EventCountSixtyDays:   5,
		CommunityAge:          100,
		ReservedPoints:        100,
		PointsFromSales:       1e6,
		HPBPFromSales:         1e6,
		HPBPFromExchange:      1e6,
	}
}

func TestCalculate_EventPenaltyBoundary(t *testing.T) {
	calc := newCalculator(t)

	// CCS = 100: erc = 0.01 + 0.09 * sigmoid(2.5) ~ 0.09317
	m := saturatedBundle()
	snapshot := calc.Calculate(m, 100, 100)
	require.Equal(t, 100, snapshot.CCS)
	assert.Equal(t, 9, snapshot.ERC, "exactly 5 events must not trigger the penalty")

	m.EventCount = 4
	snapshot = calc.Calculate(m, 100, 100)
	assert.Equal(t, 8, snapshot.ERC, "under 5 events reduces the rate by 10%")
}

func TestCalculate_DelistingForcesZeroRate(t *testing.T) {
	calc := newCalculator(t)

	m := saturatedBundle()
	m.EventCountSixtyDays = 0
	snapshot := calc.Calculate(m, 100, 100)
	assert.Equal(t, 0, snapshot.ERC)
}

func TestCalculate_VaultWithdrawalPenalty(t *testing.T) {
	calc := newCalculator(t)

	m := saturatedBundle()
	m.PointsFromVault = 100 // ratio 1.0, capped at 0.5
	snapshot := calc.Calculate(m, 100, 100)
	require.Equal(t, 100, snapshot.CCS)

	// 0.09317 * 0.5 ~ 0.0466 -> 5
	assert.Equal(t, 5, snapshot.ERC)
}

func TestCalculate_ZeroDenominatorsDoNotPanic(t *testing.T) {
	calc := newCalculator(t)

	m := &MetricsBundle{
		TotalMembers:        0,
		ActiveMembers:       0,
		ReservedPoints:      0,
		EventCountSixtyDays: 1,
	}
	assert.NotPanics(t, func() {
		snapshot := calc.Calculate(m, 1, 1)
		assert.GreaterOrEqual(t, snapshot.CAS, 0)
	})
}

func TestCalculate_NegativeRawScoresClampToZero(t *testing.T) {
	calc := newCalculator(t)

	// Only the subtractive terms are non-zero.
	m := &MetricsBundle{
		TotalMembers:        1,
		ActiveMembers:       1,
		EaseOfEarningPoints: 1.0,
		EventCountSixtyDays: 1,
		ReservedPoints:      10,
		PointsFromVault:     1000,
	}
	snapshot := calc.Calculate(m, 1000, 1000)
	assert.GreaterOrEqual(t, snapshot.CAS, 0)
	assert.Equal(t, 0, snapshot.EAS)
}

func TestCalculate_VaultAndReservedCarriedThrough(t *testing.T) {
	calc := newCalculator(t)

	m := quietBundle()
	m.VaultPoints = 1234.5
	m.ReservedPoints = 67.5
	snapshot := calc.Calculate(m, 100, 100)
	assert.Equal(t, 1234.5, snapshot.Vault)
	assert.Equal(t, 67.5, snapshot.ReservedPoints)
}

// TestProperty_ScoresAlwaysInRange checks that for any finite non-negative
// metrics, all scores land in [0,100] and ERC is never negative. A guild
// with no events in sixty days always gets a zero rate.
func TestProperty_ScoresAlwaysInRange(t *testing.T) {
	calc := newCalculator(t)

	rapid.Check(t, func(rt *rapid.T) {
		m := &MetricsBundle{
			TotalMembers:           rapid.IntRange(0, 1_000_000).Draw(rt, "totalMembers"),
			ActiveMembers:          rapid.IntRange(0, 1_000_000).Draw(rt, "activeMembers"),
			SocialEngagers:         rapid.IntRange(0, 1_000_000).Draw(rt, "socialEngagers"),
			EventParticipants:      rapid.IntRange(0, 1_000_000).Draw(rt, "eventParticipants"),
			EventCount:             rapid.IntRange(0, 1000).Draw(rt, "eventCount"),
			EventCountSixtyDays:    rapid.IntRange(0, 1000).Draw(rt, "eventCountSixtyDays"),
			AnnouncementFrequency:  rapid.Float64Range(0, 100).Draw(rt, "announcementFrequency"),
			SocialTaskFrequency:    rapid.Float64Range(0, 100).Draw(rt, "socialTaskFrequency"),
			StoreUpdateFrequency:   rapid.Float64Range(0, 100).Draw(rt, "storeUpdateFrequency"),
			AuctionUpdateFrequency: rapid.Float64Range(0, 100).Draw(rt, "auctionUpdateFrequency"),
			EaseOfEarningPoints:    rapid.Float64Range(0, 1).Draw(rt, "easeOfEarningPoints"),
			CommunityAge:           rapid.IntRange(1, 10000).Draw(rt, "communityAge"),
			VaultPoints:            rapid.Float64Range(0, 1e9).Draw(rt, "vaultPoints"),
			ReservedPoints:         rapid.Float64Range(0, 1e9).Draw(rt, "reservedPoints"),
			PointsFromSales:        rapid.Float64Range(0, 1e9).Draw(rt, "pointsFromSales"),
			HPBPFromSales:          rapid.Float64Range(0, 1e9).Draw(rt, "hpbpFromSales"),
			HPBPFromExchange:       rapid.Float64Range(0, 1e9).Draw(rt, "hpbpFromExchange"),
			PointsFromVault:        rapid.Float64Range(0, 1e9).Draw(rt, "pointsFromVault"),
		}
		maxSize := rapid.IntRange(1, 1_000_000).Draw(rt, "maxCommunitySize")
		maxAge := rapid.IntRange(1, 10000).Draw(rt, "maxCommunityAge")

		snapshot := calc.Calculate(m, maxSize, maxAge)

		for name, score := range map[string]int{
			"CAS": snapshot.CAS, "CHS": snapshot.CHS,
			"EAS": snapshot.EAS, "CCS": snapshot.CCS,
		} {
			if score < 0 || score > 100 {
				rt.Fatalf("%s out of range: %d", name, score)
			}
		}
		if snapshot.ERC < 0 {
			rt.Fatalf("ERC negative: %d", snapshot.ERC)
		}
		if m.EventCountSixtyDays == 0 && snapshot.ERC != 0 {
			rt.Fatalf("delisted guild has non-zero ERC: %d", snapshot.ERC)
		}
	})
}
