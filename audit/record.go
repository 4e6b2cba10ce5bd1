package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kasuganosora/turnbattle/game/battle"
	"github.com/kasuganosora/turnbattle/model"
	"gorm.io/datatypes"
)

// RecordedEvent is one entry of BattleRecord.Events.
type RecordedEvent struct {
	Type string            `json:"type"`
	Data battle.BattleEvent `json:"data"`
}

// BattleSummary is what a finished (or abandoned) run leaves behind.
type BattleSummary struct {
	ID        string
	Party     string
	Seed      int64
	StartedAt time.Time
	EndedAt   time.Time
	State     battle.State
	ItemsUsed int
	Events    []battle.BattleEvent
}

// NewBattleRecord builds the row stored for a battle. A battle that never
// reached its end is stored as aborted.
func NewBattleRecord(s BattleSummary) (*model.BattleRecord, error) {
	result := model.BattleResultAborted
	switch s.State.Result {
	case battle.ResultWin:
		result = model.BattleResultWin
	case battle.ResultLose:
		result = model.BattleResultLose
	}

	players, err := json.Marshal(s.State.Players)
	if err != nil {
		return nil, fmt.Errorf("marshal players: %w", err)
	}
	enemies, err := json.Marshal(s.State.Enemies)
	if err != nil {
		return nil, fmt.Errorf("marshal enemies: %w", err)
	}
	recorded := make([]RecordedEvent, len(s.Events))
	for i, ev := range s.Events {
		recorded[i] = RecordedEvent{Type: ev.EventType(), Data: ev}
	}
	events, err := json.Marshal(recorded)
	if err != nil {
		return nil, fmt.Errorf("marshal events: %w", err)
	}

	return &model.BattleRecord{
		ID:        s.ID,
		Party:     s.Party,
		Seed:      s.Seed,
		Result:    result,
		Turns:     s.State.Turn,
		ItemsUsed: s.ItemsUsed,
		Players:   datatypes.JSON(players),
		Enemies:   datatypes.JSON(enemies),
		Events:    datatypes.JSON(events),
		StartedAt: s.StartedAt,
		EndedAt:   s.EndedAt,
	}, nil
}
