package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog records one command submitted for a player, accepted or not.
type AuditLog struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	BattleID   string         `gorm:"index:idx_audit_battle;size:36;not null" json:"battle_id"`
	Turn       int            `json:"turn"`
	ActorIndex int            `json:"actor_index"`
	ActorName  string         `gorm:"size:32" json:"actor_name"`
	Action     string         `gorm:"size:16;not null" json:"action"`
	Request    datatypes.JSON `json:"request"`
	Error      string         `gorm:"type:text" json:"error"`
	DurationMs int            `json:"duration_ms"` // time spent waiting for the command
	CreatedAt  time.Time      `gorm:"index:idx_audit_created;autoCreateTime:milli" json:"created_at"`
}
