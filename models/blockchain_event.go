// models/blockchain_event.go
package models

import (
	"time"
)

// BlockchainEvent is the durable record of "this event was seen", written
// before any per-kind handling and independent of its outcome. The unique
// index on (program_id, signature, event_index) makes ingestion idempotent
// under the ledger's at-least-once notification delivery; a transaction that
// mentions several subscribed programs is a distinct event per program.
type BlockchainEvent struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	ProgramID string `gorm:"type:varchar(16);not null;uniqueIndex:idx_sig_event" json:"program_id"` // VAULT | GAME | PRIZE | ORACLE
	EventType string `gorm:"type:varchar(64);not null" json:"event_type"`

	// Best-effort payload references; absent fields stay NULL.
	GameID *string `gorm:"type:varchar(64)" json:"game_id,omitempty"`
	UserID *string `gorm:"type:varchar(64)" json:"user_id,omitempty"`

	Data string `gorm:"type:jsonb;not null" json:"data"`

	Slot       string `gorm:"type:varchar(32);not null" json:"slot"`
	Signature  string `gorm:"type:varchar(128);not null;uniqueIndex:idx_sig_event" json:"signature"`
	EventIndex int    `gorm:"not null;uniqueIndex:idx_sig_event" json:"event_index"`

	Timestamp time.Time `gorm:"not null" json:"timestamp"`
	Processed bool      `gorm:"not null;default:false" json:"processed"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
