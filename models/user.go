// models/user.go
package models

import (
	"time"
)

// User is created on the first observed deposit, join, or prediction that
// references a wallet address. The wallet is the natural key; profile fields
// only arrive if the on-chain join carried a username.
type User struct {
	ID            string  `gorm:"primaryKey;type:uuid" json:"id"`
	WalletAddress string  `gorm:"type:varchar(64);not null;uniqueIndex" json:"wallet_address"`
	Username      *string `json:"username,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Balance *Balance `json:"balance,omitempty" gorm:"foreignKey:UserID"`
}

// Balance tracks the running DEGEN balance per user. Both counters only move
// upward here: they are incremented by confirmed Deposit events, and
// withdrawal/spend flows live elsewhere.
type Balance struct {
	ID            string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID        string `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	DegenBalance  uint64 `gorm:"not null;default:0" json:"degen_balance"`
	TotalDeposits uint64 `gorm:"not null;default:0" json:"total_deposits"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
