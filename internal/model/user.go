package model

import "time"

// MembershipCounter holds per-guild participation signals for one member.
type MembershipCounter struct {
	PreviousParticipationPoints int  `gorm:"default:0" json:"previous_participation_points"`
	EventEngager                int  `gorm:"default:0" json:"event_engager"`
	ActiveParticipant           bool `gorm:"default:false" json:"active_participant"`
}

// ServerMembership is a user's relationship to one guild. Points is the
// guild-local balance spent through the exchange; it must never go negative.
type ServerMembership struct {
	ID      string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID  string `gorm:"index;not null;type:varchar(64)" json:"user_id"`
	GuildID string `gorm:"index;not null;type:varchar(64)" json:"guild_id"`

	GuildName      string  `gorm:"type:varchar(255)" json:"guild_name"`
	Status         string  `gorm:"type:varchar(32);default:active" json:"status"`
	Points         float64 `gorm:"default:0" json:"points"`
	CompletedTasks int     `gorm:"default:0" json:"completed_tasks"`
	UserType       string  `gorm:"type:varchar(32);default:member" json:"user_type"`

	Counter MembershipCounter `gorm:"embedded;embeddedPrefix:counter_" json:"counter"`

	JoinedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"joined_at"`
}

func (ServerMembership) TableName() string {
	return "server_memberships"
}

// User is the global identity. HyperBlockPoints is the global balance,
// credited by guild-to-global exchanges.
type User struct {
	ID               string  `gorm:"primaryKey;type:varchar(64)" json:"id"`
	DiscordID        string  `gorm:"uniqueIndex;not null;type:varchar(64)" json:"discord_id"`
	DiscordUsername  string  `gorm:"not null;type:varchar(255)" json:"discord_username"`
	HyperBlockPoints float64 `gorm:"default:0" json:"hyper_block_points"`
	GlobalStatus     string  `gorm:"type:varchar(32);default:active" json:"global_status"`

	ServerMemberships []ServerMembership `gorm:"foreignKey:UserID" json:"server_memberships"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
