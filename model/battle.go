package model

import (
	"time"

	"gorm.io/datatypes"
)

// Battle results as stored in battle_records.result.
const (
	BattleResultWin     = "win"
	BattleResultLose    = "lose"
	BattleResultAborted = "aborted"
)

// BattleRecord is one finished (or aborted) battle.
type BattleRecord struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	Party     string         `gorm:"index:idx_battle_party;size:64;not null" json:"party"`
	Seed      int64          `json:"seed"`
	Result    string         `gorm:"index:idx_battle_result;size:16;not null" json:"result"`
	Turns     int            `json:"turns"`
	ItemsUsed int            `json:"items_used"`
	Players   datatypes.JSON `json:"players"` // []battle.CombatantSnapshot at the end
	Enemies   datatypes.JSON `json:"enemies"`
	Events    datatypes.JSON `json:"events,omitempty"`
	StartedAt time.Time      `json:"started_at"`
	EndedAt   time.Time      `gorm:"index:idx_battle_ended" json:"ended_at"`
	CreatedAt time.Time      `gorm:"autoCreateTime:milli" json:"created_at"`
}

func (BattleRecord) TableName() string { return "battle_records" }

// PartyWins is a row of the wins-per-party aggregate.
type PartyWins struct {
	Party string `json:"party"`
	Wins  int64  `json:"wins"`
}
