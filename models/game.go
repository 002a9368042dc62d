// models/game.go
package models

import (
	"time"
)

const (
	GameStatusPending   = "PENDING"
	GameStatusActive    = "ACTIVE"
	GameStatusCompleted = "COMPLETED"
	GameStatusCancelled = "CANCELLED"
)

const (
	GameTypeBTCOnly = "BTC_ONLY"
	GameTypeSOLOnly = "SOL_ONLY"
)

const RoundTypePriceDirection = "PRICE_DIRECTION"

const (
	AnswerUp   = "UP"
	AnswerDown = "DOWN"
)

// Game is created by the scheduler. GameID is the external, time-derived id
// shared with the on-chain game account; ID is the local row key.
type Game struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	GameID   string `gorm:"type:varchar(64);not null;uniqueIndex" json:"game_id"`
	GameType string `gorm:"type:varchar(16);not null;default:'BTC_ONLY'" json:"game_type"`
	Status   string `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`

	StartTime       time.Time  `gorm:"not null;index" json:"start_time"` // scheduled
	ActualStartTime *time.Time `json:"actual_start_time,omitempty"`      // set on activation

	CurrentRound int `gorm:"not null;default:0" json:"current_round"`
	TotalPlayers int `gorm:"not null;default:0" json:"total_players"`

	// Fixed at creation
	EntryFee    uint64 `gorm:"not null" json:"entry_fee"`
	MaxPlayers  int    `gorm:"not null" json:"max_players"`
	TotalRounds int    `gorm:"not null" json:"total_rounds"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Rounds  []Round      `json:"rounds,omitempty" gorm:"foreignKey:GameID"`
	Players []PlayerGame `json:"players,omitempty" gorm:"foreignKey:GameID"`
}

// PlayerGame links a user to a game they joined on-chain. At most one row per
// (game, user); duplicate PlayerJoined events hit the unique index and no-op.
type PlayerGame struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	GameID    string `gorm:"type:uuid;not null;uniqueIndex:idx_player_game" json:"game_id"`
	UserID    string `gorm:"type:uuid;not null;uniqueIndex:idx_player_game" json:"user_id"`
	EntrySlot uint64 `gorm:"not null" json:"entry_slot"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// Round belongs to a game, unique per (game, roundNumber). Price columns stay
// NULL until the oracle commits the matching sample; CorrectAnswer stays NULL
// until the round is evaluated.
type Round struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	GameID      string `gorm:"type:uuid;not null;uniqueIndex:idx_game_round" json:"game_id"`
	RoundNumber int    `gorm:"not null;uniqueIndex:idx_game_round" json:"round_number"`
	RoundType   string `gorm:"type:varchar(32);not null" json:"round_type"`

	StartTime time.Time `gorm:"not null" json:"start_time"`
	EndTime   time.Time `gorm:"not null" json:"end_time"`

	StartPriceBtc *float64 `gorm:"type:decimal(20,8)" json:"start_price_btc,omitempty"`
	EndPriceBtc   *float64 `gorm:"type:decimal(20,8)" json:"end_price_btc,omitempty"`
	StartPriceSol *float64 `gorm:"type:decimal(20,8)" json:"start_price_sol,omitempty"`
	EndPriceSol   *float64 `gorm:"type:decimal(20,8)" json:"end_price_sol,omitempty"`

	CorrectAnswer *string    `gorm:"type:varchar(8)" json:"correct_answer,omitempty"` // UP | DOWN
	EvaluatedAt   *time.Time `json:"evaluated_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// Prediction records a player's answer for one round. One per
// (game, round, user); the first prediction wins, revision is not supported.
type Prediction struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	GameID       string `gorm:"type:uuid;not null;uniqueIndex:idx_round_user" json:"game_id"`
	RoundNumber  int    `gorm:"not null;uniqueIndex:idx_round_user" json:"round_number"`
	UserID       string `gorm:"type:uuid;not null;uniqueIndex:idx_round_user" json:"user_id"`
	PlayerGameID string `gorm:"type:uuid;not null" json:"player_game_id"`

	Choice       string `gorm:"not null" json:"choice"` // JSON-serialized on-chain choice value
	ResponseTime uint32 `gorm:"not null;default:0" json:"response_time"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
