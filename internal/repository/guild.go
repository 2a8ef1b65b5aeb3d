package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/HyperBlockHQ/guildpulse/internal/model"
)

// IGuildRepository defines the interface for guild data operations
type IGuildRepository interface {
	List(ctx context.Context) ([]*model.Guild, error)
	FindByID(ctx context.Context, id string) (*model.Guild, error)
	FindByGuildID(ctx context.Context, guildID string) (*model.Guild, error)
	UpdateAnalytics(ctx context.Context, id string, analytics model.GuildAnalytics, updatedAt time.Time) (int64, error)
	UpdatePointPools(ctx context.Context, id string, reservedPoints, vault float64) error
}

// GuildRepository implements IGuildRepository interface
type GuildRepository struct {
	db *gorm.DB
}

// NewGuildRepository creates a new IGuildRepository instance
func NewGuildRepository(db *gorm.DB) IGuildRepository {
	return &GuildRepository{db: db}
}

// List returns every guild in the collection
func (r *GuildRepository) List(ctx context.Context) ([]*model.Guild, error) {
	var guilds []*model.Guild
	err := r.db.WithContext(ctx).Find(&guilds).Error
	if err != nil {
		return nil, err
	}
	return guilds, nil
}

// FindByID finds a guild by internal id
func (r *GuildRepository) FindByID(ctx context.Context, id string) (*model.Guild, error) {
	var guild model.Guild
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&guild).Error
	if err != nil {
		return nil, err
	}
	return &guild, nil
}

// FindByGuildID finds a guild by its external Discord guild id
func (r *GuildRepository) FindByGuildID(ctx context.Context, guildID string) (*model.Guild, error) {
	var guild model.Guild
	err := r.db.WithContext(ctx).Where("guild_id = ?", guildID).First(&guild).Error
	if err != nil {
		return nil, err
	}
	return &guild, nil
}

// UpdateAnalytics overwrites the guild's scoring record in a single update
// and reports the number of rows changed.
func (r *GuildRepository) UpdateAnalytics(ctx context.Context, id string, analytics model.GuildAnalytics, updatedAt time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Guild{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"analytics_cas":             analytics.CAS,
			"analytics_chs":             analytics.CHS,
			"analytics_eas":             analytics.EAS,
			"analytics_ccs":             analytics.CCS,
			"analytics_erc":             analytics.ERC,
			"analytics_vault":           analytics.Vault,
			"analytics_reserved_points": analytics.ReservedPoints,
			"updated_at":                updatedAt,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// UpdatePointPools persists both point pools as a single update so a
// reader never observes one pool moved without the other.
func (r *GuildRepository) UpdatePointPools(ctx context.Context, id string, reservedPoints, vault float64) error {
	return r.db.WithContext(ctx).
		Model(&model.Guild{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"analytics_reserved_points": reservedPoints,
			"analytics_vault":           vault,
			"updated_at":                time.Now(),
		}).Error
}
