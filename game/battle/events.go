package battle

import "sync"

// BattleEvent is a serialisable record of one presenter call.
type BattleEvent interface {
	EventType() string
}

// --- Concrete event types ---

type EventBattleStart struct {
	Players []CombatantSnapshot `json:"players"`
	Enemies []CombatantSnapshot `json:"enemies"`
}

func (EventBattleStart) EventType() string { return "battle_start" }

type EventTurnStart struct {
	Turn int `json:"turn"`
}

func (EventTurnStart) EventType() string { return "turn_start" }

type EventInputRequest struct {
	ActorIndex int `json:"actor_index"`
}

func (EventInputRequest) EventType() string { return "input_request" }

type EventInputClosed struct{}

func (EventInputClosed) EventType() string { return "input_closed" }

type EventHPChanged struct {
	Combatant CombatantID `json:"combatant"`
	HP        int         `json:"hp"`
	MaxHP     int         `json:"max_hp"`
}

func (EventHPChanged) EventType() string { return "hp_changed" }

type EventSPChanged struct {
	Combatant CombatantID `json:"combatant"`
	SP        int         `json:"sp"`
	MaxSP     int         `json:"max_sp"`
}

func (EventSPChanged) EventType() string { return "sp_changed" }

type EventActionResult struct {
	Outcome
}

func (EventActionResult) EventType() string { return "action_result" }

type EventBattleEnd struct {
	Victory bool   `json:"victory"`
	Result  Result `json:"result"`
}

func (EventBattleEnd) EventType() string { return "battle_end" }

// EventLog records every presenter call as a BattleEvent. Each event is also
// passed to sink, if set, as soon as it is recorded.
type EventLog struct {
	mu     sync.Mutex
	events []BattleEvent
	sink   func(BattleEvent)
}

// NewEventLog creates an empty log. sink may be nil.
func NewEventLog(sink func(BattleEvent)) *EventLog {
	return &EventLog{sink: sink}
}

// Events returns a copy of everything recorded so far.
func (l *EventLog) Events() []BattleEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]BattleEvent, len(l.events))
	copy(out, l.events)
	return out
}

func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

func (l *EventLog) record(ev BattleEvent) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	sink := l.sink
	l.mu.Unlock()
	if sink != nil {
		sink(ev)
	}
}

func (l *EventLog) CommandMenuOpened(actorIndex int) {
	l.record(&EventInputRequest{ActorIndex: actorIndex})
}

func (l *EventLog) CommandMenuClosed() { l.record(&EventInputClosed{}) }

func (l *EventLog) HPChanged(id CombatantID, hp, maxHP int) {
	l.record(&EventHPChanged{Combatant: id, HP: hp, MaxHP: maxHP})
}

func (l *EventLog) SPChanged(id CombatantID, sp, maxSP int) {
	l.record(&EventSPChanged{Combatant: id, SP: sp, MaxSP: maxSP})
}

func (l *EventLog) BattleEnded(victory bool) {
	res := ResultLose
	if victory {
		res = ResultWin
	}
	l.record(&EventBattleEnd{Victory: victory, Result: res})
}

func (l *EventLog) BattleStarted(players, enemies []CombatantSnapshot) {
	l.record(&EventBattleStart{Players: players, Enemies: enemies})
}

func (l *EventLog) TurnStarted(turn int) { l.record(&EventTurnStart{Turn: turn}) }

func (l *EventLog) ActionResolved(out Outcome) {
	l.record(&EventActionResult{Outcome: out})
}
