package sse

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/kasuganosora/turnbattle/cache"
	"github.com/kasuganosora/turnbattle/game/battle"
	"go.uber.org/zap"
)

// LiveTTL bounds how long a live state outlives its last update.
const LiveTTL = 10 * time.Minute

// LiveCombatant is the spectator view of one combatant.
type LiveCombatant struct {
	ID    battle.CombatantID `json:"id"`
	Name  string             `json:"name"`
	HP    int                `json:"hp"`
	MaxHP int                `json:"max_hp"`
	SP    int                `json:"sp"`
	MaxSP int                `json:"max_sp"`
	Dead  bool               `json:"dead"`
}

// LiveState is the spectator view of a battle, rebuilt from its events.
type LiveState struct {
	BattleID   string          `json:"battle_id"`
	Turn       int             `json:"turn"`
	WaitingFor *int            `json:"waiting_for"`
	Players    []LiveCombatant `json:"players"`
	Enemies    []LiveCombatant `json:"enemies"`
	Result     battle.Result   `json:"result"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Publisher fans battle events out on the battle's pub/sub channel and keeps
// the LiveState in the cache. Its Publish method is an EventLog sink.
type Publisher struct {
	ctx    context.Context
	ps     cache.PubSub
	c      cache.Cache
	id     string
	logger *zap.Logger

	mu    sync.Mutex
	seq   int
	state LiveState
}

// NewPublisher creates a Publisher for battleID. ctx bounds every cache call.
func NewPublisher(ctx context.Context, ps cache.PubSub, c cache.Cache, battleID string, logger *zap.Logger) *Publisher {
	return &Publisher{
		ctx:    ctx,
		ps:     ps,
		c:      c,
		id:     battleID,
		logger: logger.With(zap.String("battle_id", battleID)),
		state:  LiveState{BattleID: battleID},
	}
}

// Publish sends ev to spectators. Failures are logged; the battle goes on.
func (p *Publisher) Publish(ev battle.BattleEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.Warn("marshal battle event", zap.String("type", ev.EventType()), zap.Error(err))
		return
	}
	env, err := json.Marshal(Envelope{Type: ev.EventType(), Seq: p.seq + 1, Data: data})
	if err != nil {
		p.logger.Warn("marshal battle envelope", zap.String("type", ev.EventType()), zap.Error(err))
		return
	}
	p.seq++
	if err := p.ps.Publish(p.ctx, Channel(p.id), string(env)); err != nil {
		p.logger.Warn("publish battle event", zap.String("type", ev.EventType()), zap.Error(err))
	}

	if p.apply(ev) {
		p.saveState()
	}
}

// State returns a copy of the current live state.
func (p *Publisher) State() LiveState {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.state
	st.Players = append([]LiveCombatant(nil), p.state.Players...)
	st.Enemies = append([]LiveCombatant(nil), p.state.Enemies...)
	return st
}

// apply folds ev into the live state and reports whether it is worth storing.
// HP and SP changes are stored with the action that caused them.
func (p *Publisher) apply(ev battle.BattleEvent) bool {
	st := &p.state
	switch e := ev.(type) {
	case *battle.EventBattleStart:
		st.Players = liveSide(e.Players)
		st.Enemies = liveSide(e.Enemies)
	case *battle.EventTurnStart:
		st.Turn = e.Turn
	case *battle.EventInputRequest:
		idx := e.ActorIndex
		st.WaitingFor = &idx
	case *battle.EventInputClosed:
		st.WaitingFor = nil
		return false
	case *battle.EventHPChanged:
		if lc := p.find(e.Combatant); lc != nil {
			lc.HP, lc.MaxHP, lc.Dead = e.HP, e.MaxHP, e.HP <= 0
		}
		return false
	case *battle.EventSPChanged:
		if lc := p.find(e.Combatant); lc != nil {
			lc.SP, lc.MaxSP = e.SP, e.MaxSP
		}
		return false
	case *battle.EventActionResult:
	case *battle.EventBattleEnd:
		st.WaitingFor = nil
		st.Result = e.Result
	default:
		return false
	}
	return true
}

func (p *Publisher) find(id battle.CombatantID) *LiveCombatant {
	side := p.state.Players
	if id.Side == battle.SideEnemy {
		side = p.state.Enemies
	}
	if id.Index < 0 || id.Index >= len(side) {
		return nil
	}
	return &side[id.Index]
}

func (p *Publisher) saveState() {
	p.state.UpdatedAt = time.Now()
	raw, err := json.Marshal(p.state)
	if err != nil {
		p.logger.Warn("marshal live state", zap.Error(err))
		return
	}
	if err := p.c.Set(p.ctx, LiveKey(p.id), string(raw), LiveTTL); err != nil {
		p.logger.Warn("store live state", zap.Error(err))
	}
}

func liveSide(snaps []battle.CombatantSnapshot) []LiveCombatant {
	out := make([]LiveCombatant, len(snaps))
	for i, s := range snaps {
		out[i] = LiveCombatant{
			ID: s.ID, Name: s.Name,
			HP: s.HP, MaxHP: s.MaxHP,
			SP: s.SP, MaxSP: s.MaxSP,
			Dead: s.Dead,
		}
	}
	return out
}
