package model

import "time"

// GuildCounter tracks weekly and cumulative activity frequencies for a guild.
// Weekly counters are maintained by the bot; the analytics job converts them
// to daily rates (weekly / 7).
type GuildCounter struct {
	AnnouncementCount            int `gorm:"default:0" json:"announcement_count"`
	WeeklyAnnouncementFrequency  int `gorm:"default:0" json:"weekly_announcement_frequency"`
	EventCount                   int `gorm:"default:0" json:"event_count"`
	WeeklyEventFrequency         int `gorm:"default:0" json:"weekly_event_frequency"`
	StoreUpdateCount             int `gorm:"default:0" json:"store_update_count"`
	WeeklyStoreUpdateFrequency   int `gorm:"default:0" json:"weekly_store_update_frequency"`
	AuctionUpdateCount           int `gorm:"default:0" json:"auction_update_count"`
	WeeklyAuctionUpdateFrequency int `gorm:"default:0" json:"weekly_auction_update_frequency"`
	SocialTasksCount             int `gorm:"default:0" json:"social_tasks_count"`
	WeeklySocialTasksCounter     int `gorm:"default:0" json:"weekly_social_tasks_counter"`
	TotalActiveParticipants      int `gorm:"default:0" json:"total_active_participants"`
}

// GuildAnalytics is the scoring record maintained by the analytics job.
// CAS/CHS/EAS/CCS are 0-100 integers; ERC is the exchange rate stored as
// round(rate*100). Vault and ReservedPoints are the guild's point pools and
// must never go negative.
type GuildAnalytics struct {
	CAS            int     `gorm:"column:cas;default:0" json:"CAS"`
	CHS            int     `gorm:"column:chs;default:0" json:"CHS"`
	EAS            int     `gorm:"column:eas;default:0" json:"EAS"`
	CCS            int     `gorm:"column:ccs;default:0" json:"CCS"`
	ERC            int     `gorm:"column:erc;default:0" json:"ERC"`
	Vault          float64 `gorm:"default:0" json:"vault"`
	ReservedPoints float64 `gorm:"default:0" json:"reservedPoints"`
}

type Guild struct {
	ID        string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	GuildID   string `gorm:"uniqueIndex;not null;type:varchar(64)" json:"guild_id"`
	GuildName string `gorm:"not null;type:varchar(255)" json:"guild_name"`
	BotStatus string `gorm:"type:varchar(32);default:active" json:"bot_status"`

	TotalMembers int `gorm:"default:0" json:"total_members"`

	Counter   GuildCounter   `gorm:"embedded;embeddedPrefix:counter_" json:"counter"`
	Analytics GuildAnalytics `gorm:"embedded;embeddedPrefix:analytics_" json:"analytics"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Guild) TableName() string {
	return "guilds"
}
