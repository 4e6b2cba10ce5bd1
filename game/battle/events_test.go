package battle

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventLog_SinkSeesEveryEvent(t *testing.T) {
	var seen []string
	log := NewEventLog(func(ev BattleEvent) { seen = append(seen, ev.EventType()) })
	log.BattleStarted(nil, nil)
	log.HPChanged(CombatantID{SideEnemy, 0}, 5, 10)
	log.SPChanged(CombatantID{SidePlayer, 1}, 2, 5)
	log.CommandMenuClosed()

	assert.Equal(t, []string{"battle_start", "hp_changed", "sp_changed", "input_closed"}, seen)
	assert.Equal(t, seen, eventTypes(log.Events()))
}

func TestEventActionResult_JSON(t *testing.T) {
	ev := &EventActionResult{Outcome: Outcome{
		Kind:      CommandAttack,
		Actor:     CombatantID{SidePlayer, 0},
		Target:    CombatantID{SideEnemy, 1},
		Applied:   true,
		Amount:    10,
		Reflected: true,
	}}
	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "attack", m["kind"])
	assert.Equal(t, "none", m["reason"])
	assert.Equal(t, true, m["reflected"])
	assert.Equal(t, map[string]interface{}{"side": "enemy", "index": float64(1)}, m["target"])
}

func TestEventBattleEnd_JSON(t *testing.T) {
	data, err := json.Marshal(&EventBattleEnd{Victory: false, Result: ResultLose})
	require.NoError(t, err)
	assert.JSONEq(t, `{"victory":false,"result":"lose"}`, string(data))
}

func TestParseCommandType(t *testing.T) {
	cases := map[string]CommandType{
		"attack": CommandAttack, "0": CommandAttack,
		"Skill": CommandSkill, "1": CommandSkill,
		" item ": CommandItem, "2": CommandItem,
	}
	for in, want := range cases {
		got, err := ParseCommandType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseCommandType("flee")
	assert.Error(t, err)
}
