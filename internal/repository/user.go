package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/HyperBlockHQ/guildpulse/internal/model"
)

// IUserRepository defines the interface for user and membership data operations
type IUserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindMembershipsByGuild(ctx context.Context, guildID string) ([]*model.ServerMembership, error)
	SumActivePoints(ctx context.Context, guildID string) (float64, error)
	ApplyGlobalExchange(ctx context.Context, userID, membershipID string, newGuildPoints, newGlobalPoints float64) error
}

// UserRepository implements IUserRepository interface
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new IUserRepository instance
func NewUserRepository(db *gorm.DB) IUserRepository {
	return &UserRepository{db: db}
}

// FindByID finds a user by id with server memberships loaded
func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("ServerMemberships").
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindMembershipsByGuild returns every server membership for a guild
func (r *UserRepository) FindMembershipsByGuild(ctx context.Context, guildID string) ([]*model.ServerMembership, error) {
	var memberships []*model.ServerMembership
	err := r.db.WithContext(ctx).
		Where("guild_id = ?", guildID).
		Find(&memberships).Error
	if err != nil {
		return nil, err
	}
	return memberships, nil
}

// SumActivePoints sums the guild-local points held by active members of a
// guild. This is the guild's vault figure as seen by the analytics job.
func (r *UserRepository) SumActivePoints(ctx context.Context, guildID string) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&model.ServerMembership{}).
		Where("guild_id = ? AND status = ?", guildID, "active").
		Select("COALESCE(SUM(points), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// ApplyGlobalExchange persists a guild-to-global exchange: the membership's
// guild points and the user's global balance change together or not at all.
func (r *UserRepository) ApplyGlobalExchange(ctx context.Context, userID, membershipID string, newGuildPoints, newGlobalPoints float64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.ServerMembership{}).
			Where("id = ?", membershipID).
			Update("points", newGuildPoints).Error; err != nil {
			return err
		}
		return tx.Model(&model.User{}).
			Where("id = ?", userID).
			Updates(map[string]interface{}{
				"hyper_block_points": newGlobalPoints,
				"updated_at":         time.Now(),
			}).Error
	})
}
