package model

import "time"

// Event is a community event hosted by a guild. Events drive the activity
// score and the delisting predicate.
type Event struct {
	ID               string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	GuildID          string    `gorm:"index;not null;type:varchar(64)" json:"guild_id"`
	Name             string    `gorm:"type:varchar(255)" json:"name"`
	ParticipantCount int       `gorm:"default:0" json:"participant_count"`
	CreatedAt        time.Time `gorm:"index;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Event) TableName() string {
	return "events"
}

// PointTransaction records guild-point movements: rewards handed out by the
// bot, vault withdrawals, and exchange debits.
type PointTransaction struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	GuildID   string    `gorm:"index;not null;type:varchar(64)" json:"guild_id"`
	UserID    string    `gorm:"index;type:varchar(64)" json:"user_id"`
	Type      string    `gorm:"index;not null;type:varchar(32)" json:"type"`
	Amount    float64   `gorm:"default:0" json:"amount"`
	Timestamp time.Time `gorm:"index;not null;default:CURRENT_TIMESTAMP" json:"timestamp"`
}

func (PointTransaction) TableName() string {
	return "point_transactions"
}

// Transaction records marketplace flows (shop sales and point exchanges)
// alongside the HyperBlock points they produced.
type Transaction struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	GuildID      string    `gorm:"index;not null;type:varchar(64)" json:"guild_id"`
	Type         string    `gorm:"index;not null;type:varchar(32)" json:"type"`
	Status       string    `gorm:"index;not null;type:varchar(32)" json:"status"`
	PointsEarned float64   `gorm:"default:0" json:"points_earned"`
	HPBPEarned   float64   `gorm:"default:0" json:"hpbp_earned"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// Raffle and Auction carry the point commitments that make up a guild's
// reserved pool while they are active or pending.
type Raffle struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	GuildID    string    `gorm:"index;not null;type:varchar(64)" json:"guild_id"`
	Status     string    `gorm:"index;not null;type:varchar(32)" json:"status"`
	PointsPool float64   `gorm:"default:0" json:"points_pool"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Raffle) TableName() string {
	return "raffles"
}

type Auction struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	GuildID    string    `gorm:"index;not null;type:varchar(64)" json:"guild_id"`
	Status     string    `gorm:"index;not null;type:varchar(32)" json:"status"`
	CurrentBid float64   `gorm:"default:0" json:"current_bid"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Auction) TableName() string {
	return "auctions"
}
