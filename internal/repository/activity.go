package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/HyperBlockHQ/guildpulse/internal/model"
)

// IActivityRepository aggregates the event, transaction, raffle, and auction
// sources the analytics job reads. Each method is a single scalar query so
// the aggregator can degrade them independently.
type IActivityRepository interface {
	CountEventsSince(ctx context.Context, guildID string, since time.Time) (int64, error)
	SumEventParticipantsSince(ctx context.Context, guildID string, since time.Time) (int64, error)
	SumRewardPointsSince(ctx context.Context, guildID string, since time.Time) (float64, error)
	SumVaultWithdrawals(ctx context.Context, guildID string) (float64, error)
	SumSalePoints(ctx context.Context, guildID string) (float64, error)
	SumSaleHPBP(ctx context.Context, guildID string) (float64, error)
	SumExchangeHPBP(ctx context.Context, guildID string) (float64, error)
	SumRafflePool(ctx context.Context, guildID string) (float64, error)
	SumAuctionBids(ctx context.Context, guildID string) (float64, error)
	RecordExchange(ctx context.Context, tx *model.Transaction, ptx *model.PointTransaction) error
}

// ActivityRepository implements IActivityRepository interface
type ActivityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates a new IActivityRepository instance
func NewActivityRepository(db *gorm.DB) IActivityRepository {
	return &ActivityRepository{db: db}
}

// CountEventsSince counts events created for the guild since the cutoff
func (r *ActivityRepository) CountEventsSince(ctx context.Context, guildID string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("guild_id = ? AND created_at >= ?", guildID, since).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// SumEventParticipantsSince sums participant counts over recent events
func (r *ActivityRepository) SumEventParticipantsSince(ctx context.Context, guildID string, since time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("guild_id = ? AND created_at >= ?", guildID, since).
		Select("COALESCE(SUM(participant_count), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// SumRewardPointsSince sums reward-type point transactions since the cutoff
func (r *ActivityRepository) SumRewardPointsSince(ctx context.Context, guildID string, since time.Time) (float64, error) {
	return r.sumPointTransactions(ctx, guildID, "reward", &since)
}

// SumVaultWithdrawals sums points moved out of the vault into circulation
func (r *ActivityRepository) SumVaultWithdrawals(ctx context.Context, guildID string) (float64, error) {
	return r.sumPointTransactions(ctx, guildID, "vault_addition", nil)
}

func (r *ActivityRepository) sumPointTransactions(ctx context.Context, guildID, txType string, since *time.Time) (float64, error) {
	query := r.db.WithContext(ctx).
		Model(&model.PointTransaction{}).
		Where("guild_id = ? AND type = ?", guildID, txType)
	if since != nil {
		query = query.Where("timestamp >= ?", *since)
	}

	var total float64
	err := query.Select("COALESCE(SUM(amount), 0)").Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// SumSalePoints sums guild points earned from completed sales
func (r *ActivityRepository) SumSalePoints(ctx context.Context, guildID string) (float64, error) {
	return r.sumTransactions(ctx, guildID, "sale", "points_earned")
}

// SumSaleHPBP sums HyperBlock points earned from completed sales
func (r *ActivityRepository) SumSaleHPBP(ctx context.Context, guildID string) (float64, error) {
	return r.sumTransactions(ctx, guildID, "sale", "hpbp_earned")
}

// SumExchangeHPBP sums HyperBlock points produced by completed exchanges
func (r *ActivityRepository) SumExchangeHPBP(ctx context.Context, guildID string) (float64, error) {
	return r.sumTransactions(ctx, guildID, "exchange", "hpbp_earned")
}

func (r *ActivityRepository) sumTransactions(ctx context.Context, guildID, txType, column string) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("guild_id = ? AND type = ? AND status = ?", guildID, txType, "completed").
		Select("COALESCE(SUM(" + column + "), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// SumRafflePool sums prize pools of active and pending raffles
func (r *ActivityRepository) SumRafflePool(ctx context.Context, guildID string) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&model.Raffle{}).
		Where("guild_id = ? AND status IN ?", guildID, []string{"active", "pending"}).
		Select("COALESCE(SUM(points_pool), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// SumAuctionBids sums current highest bids of active and pending auctions
func (r *ActivityRepository) SumAuctionBids(ctx context.Context, guildID string) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&model.Auction{}).
		Where("guild_id = ? AND status IN ?", guildID, []string{"active", "pending"}).
		Select("COALESCE(SUM(current_bid), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// RecordExchange writes the audit rows for a completed guild-to-global
// exchange. Both rows are written in one transaction.
func (r *ActivityRepository) RecordExchange(ctx context.Context, tx *model.Transaction, ptx *model.PointTransaction) error {
	return r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		if tx != nil {
			if err := db.Create(tx).Error; err != nil {
				return err
			}
		}
		if ptx != nil {
			return db.Create(ptx).Error
		}
		return nil
	})
}
