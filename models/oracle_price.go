// models/oracle_price.go
package models

import (
	"time"
)

const (
	PriceTypeStart = "START"
	PriceTypeEnd   = "END"
)

const (
	AssetBTC = "BTC"
	AssetSOL = "SOL"
)

// OraclePrice is an append-only sample per (game, round, asset, priceType).
// Rows are never updated or deleted.
type OraclePrice struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	GameID      string `gorm:"type:uuid;not null;index" json:"game_id"`
	RoundNumber int    `gorm:"not null" json:"round_number"`
	Asset       string `gorm:"type:varchar(8);not null" json:"asset"`       // BTC | SOL
	PriceType   string `gorm:"type:varchar(8);not null" json:"price_type"`  // START | END

	Price      float64 `gorm:"type:decimal(20,8);not null" json:"price"`
	Confidence float64 `gorm:"type:decimal(20,8);not null;default:0" json:"confidence"`

	Slot      string    `gorm:"type:varchar(32);not null" json:"slot"`
	Timestamp time.Time `gorm:"not null" json:"timestamp"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
