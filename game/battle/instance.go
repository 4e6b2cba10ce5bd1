package battle

import (
	"context"
	"errors"
	"fmt"

	"github.com/kasuganosora/turnbattle/plugin/hook"
	"go.uber.org/zap"
)

// Stock item settings used by the default config.
const (
	DefaultItemHealAmount = 20
	DefaultItemMaxCount   = 5
)

// Phase is one stage of the turn cycle.
type Phase int

const (
	PhaseStart Phase = iota
	PhasePlayerTurn
	PhaseEnemyTurn
	PhaseEnd
)

func (p Phase) String() string {
	switch p {
	case PhaseStart:
		return "start"
	case PhasePlayerTurn:
		return "player_turn"
	case PhaseEnemyTurn:
		return "enemy_turn"
	case PhaseEnd:
		return "end"
	default:
		return "unknown"
	}
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Result is the outcome of a whole battle.
type Result int

const (
	ResultPending Result = iota
	ResultWin
	ResultLose
)

func (r Result) String() string {
	switch r {
	case ResultWin:
		return "win"
	case ResultLose:
		return "lose"
	default:
		return "pending"
	}
}

func (r Result) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Result) UnmarshalText(b []byte) error {
	switch string(b) {
	case "pending":
		*r = ResultPending
	case "win":
		*r = ResultWin
	case "lose":
		*r = ResultLose
	default:
		return fmt.Errorf("unknown result %q", b)
	}
	return nil
}

// Member is one roster entry.
type Member struct {
	Name    string
	Profile Profile
}

// Config configures a Battle.
type Config struct {
	Players []*Member
	Enemies []*Member

	ItemHealAmount int
	ItemMaxCount   int

	Presenter Presenter        // required
	RNG       Source           // nil = time-seeded
	Logger    *zap.Logger      // nil = no-op
	Hooks     *hook.HookCenter // optional
}

// State is a read-only view of a battle.
type State struct {
	Phase      Phase               `json:"phase"`
	Turn       int                 `json:"turn"`
	ActorIndex int                 `json:"actor_index"`
	Waiting    bool                `json:"waiting"`
	ItemsLeft  int                 `json:"items_left"`
	Result     Result              `json:"result"`
	Players    []CombatantSnapshot `json:"players"`
	Enemies    []CombatantSnapshot `json:"enemies"`
}

// Battle runs the Start -> PlayerTurn -> EnemyTurn cycle until one side is
// wiped out. The only suspension point is a living player actor waiting for
// its command; Submit resumes it. A Battle is not safe for concurrent use.
type Battle struct {
	players []*Combatant
	enemies []*Combatant
	pouch   *ItemPouch

	phase   Phase
	turn    int
	actor   int
	waiting bool
	started bool
	result  Result

	rng       Source
	presenter Presenter
	narrator  Narrator
	logger    *zap.Logger
	hooks     *hook.HookCenter
	ctx       context.Context
}

// New validates cfg and builds a battle that has not started yet.
// Every setup problem is reported together in a *ConfigError.
func New(cfg Config) (*Battle, error) {
	var problems []string
	if cfg.Presenter == nil {
		problems = append(problems, "presenter is required")
	}
	problems = append(problems, checkRoster("players", cfg.Players)...)
	problems = append(problems, checkRoster("enemies", cfg.Enemies)...)
	if cfg.ItemHealAmount < 0 {
		problems = append(problems, fmt.Sprintf("item_heal_amount must be >= 0, got %d", cfg.ItemHealAmount))
	}
	if cfg.ItemMaxCount < 0 {
		problems = append(problems, fmt.Sprintf("item_max_count must be >= 0, got %d", cfg.ItemMaxCount))
	}
	if len(problems) > 0 {
		return nil, &ConfigError{Problems: problems}
	}

	if cfg.RNG == nil {
		cfg.RNG, _ = NewSource(0)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	b := &Battle{
		pouch:     NewItemPouch(cfg.ItemHealAmount, cfg.ItemMaxCount),
		phase:     PhaseStart,
		rng:       cfg.RNG,
		presenter: cfg.Presenter,
		logger:    cfg.Logger,
		hooks:     cfg.Hooks,
		ctx:       context.Background(),
	}
	if n, ok := cfg.Presenter.(Narrator); ok {
		b.narrator = n
	}
	for i, m := range cfg.Players {
		b.players = append(b.players, NewCombatant(CombatantID{SidePlayer, i}, m.Name, m.Profile, cfg.RNG, cfg.Presenter))
	}
	for i, m := range cfg.Enemies {
		b.enemies = append(b.enemies, NewCombatant(CombatantID{SideEnemy, i}, m.Name, m.Profile, cfg.RNG, cfg.Presenter))
	}
	return b, nil
}

func checkRoster(side string, members []*Member) []string {
	if len(members) == 0 {
		return []string{side + ": at least one member is required"}
	}
	var problems []string
	for i, m := range members {
		if m == nil {
			problems = append(problems, fmt.Sprintf("%s[%d]: missing member", side, i))
			continue
		}
		if err := m.Profile.Validate(); err != nil {
			problems = append(problems, fmt.Sprintf("%s[%d] %q: %v", side, i, m.Name, err))
		}
	}
	return problems
}

// Start begins the battle and drives it to the first command request.
func (b *Battle) Start() error {
	if b.started {
		return ErrAlreadyStarted
	}
	b.started = true
	b.turn = 1
	b.logger.Info("battle started",
		zap.Int("players", len(b.players)),
		zap.Int("enemies", len(b.enemies)),
		zap.Int("items", b.pouch.Left()))
	if b.narrator != nil {
		b.narrator.BattleStarted(snapshotAll(b.players), snapshotAll(b.enemies))
	}
	b.trigger(hook.OnBattleStart, b.State())
	b.advance()
	return nil
}

// Waiting reports the player index whose command is awaited, if any.
func (b *Battle) Waiting() (int, bool) {
	return b.actor, b.waiting
}

// Submit applies cmd for the waiting actor and drives the battle to the next
// suspension point or to the end.
//
// A malformed command returns an error wrapping ErrInvalidCommand and the
// actor is still waiting. Any other command consumes the actor's turn, even
// when it turns out to be a no-op (dead target, empty pouch, not enough SP).
func (b *Battle) Submit(cmd Command) error {
	switch {
	case !b.started:
		return ErrNotStarted
	case b.phase == PhaseEnd:
		return ErrBattleOver
	case !b.waiting:
		return ErrNotWaiting
	}

	actor := b.players[b.actor]
	var out Outcome
	if actor.IsDead() {
		out = Outcome{Kind: cmd.Type, Actor: actor.ID(), Reason: ReasonActorDead}
	} else {
		if err := b.Validate(cmd); err != nil {
			b.logger.Debug("command rejected", zap.Int("actor", b.actor), zap.Stringer("cmd", cmd), zap.Error(err))
			return err
		}
		out = b.dispatch(actor, cmd)
	}

	b.waiting = false
	b.report(out)
	if b.checkEnd() {
		return nil
	}
	b.actor++
	b.advance()
	return nil
}

// Run drives the battle to completion, pulling each command from in.
// It starts the battle if needed. Invalid commands are asked for again.
// Cancelling ctx abandons the battle where it stands.
func (b *Battle) Run(ctx context.Context, in InputPort) (Result, error) {
	b.ctx = ctx
	if !b.started {
		if err := b.Start(); err != nil {
			return ResultPending, err
		}
	}
	for {
		if b.phase == PhaseEnd {
			return b.result, nil
		}
		idx, ok := b.Waiting()
		if !ok {
			return ResultPending, ErrNotWaiting
		}
		if err := ctx.Err(); err != nil {
			return ResultPending, err
		}
		cmd, err := in.RequestCommand(ctx, idx)
		if err != nil {
			return ResultPending, fmt.Errorf("request command for player %d: %w", idx, err)
		}
		if err := b.Submit(cmd); err != nil {
			if errors.Is(err, ErrInvalidCommand) {
				continue
			}
			return ResultPending, err
		}
	}
}

func (b *Battle) Phase() Phase { return b.phase }
func (b *Battle) Turn() int { return b.turn }
func (b *Battle) CurrentActor() int { return b.actor }
func (b *Battle) ItemsLeft() int { return b.pouch.Left() }
func (b *Battle) ItemsUsed() int { return b.pouch.Used() }
func (b *Battle) Result() Result { return b.result }

// Player returns the player combatant at i, or nil.
func (b *Battle) Player(i int) *Combatant {
	if i < 0 || i >= len(b.players) {
		return nil
	}
	return b.players[i]
}

// Enemy returns the enemy combatant at i, or nil.
func (b *Battle) Enemy(i int) *Combatant {
	if i < 0 || i >= len(b.enemies) {
		return nil
	}
	return b.enemies[i]
}

// State copies the current battle state.
func (b *Battle) State() State {
	return State{
		Phase:      b.phase,
		Turn:       b.turn,
		ActorIndex: b.actor,
		Waiting:    b.waiting,
		ItemsLeft:  b.pouch.Left(),
		Result:     b.result,
		Players:    snapshotAll(b.players),
		Enemies:    snapshotAll(b.enemies),
	}
}

// advance runs phases until a command is needed or the battle is over.
func (b *Battle) advance() {
	for {
		switch b.phase {
		case PhaseStart:
			b.actor = 0
			b.logger.Debug("battle turn start", zap.Int("turn", b.turn))
			if b.narrator != nil {
				b.narrator.TurnStarted(b.turn)
			}
			b.trigger(hook.OnTurnStart, b.turn)
			b.phase = PhasePlayerTurn

		case PhasePlayerTurn:
			if b.actor >= len(b.players) {
				b.presenter.CommandMenuClosed()
				b.phase = PhaseEnemyTurn
				continue
			}
			if b.players[b.actor].IsDead() {
				b.actor++
				continue
			}
			b.waiting = true
			b.presenter.CommandMenuOpened(b.actor)
			return

		case PhaseEnemyTurn:
			b.enemySweep()
			if b.checkEnd() {
				return
			}
			b.turn++
			b.phase = PhaseStart

		default:
			return
		}
	}
}

// Validate reports whether cmd is well-formed for this battle without
// submitting it. Errors wrap ErrInvalidCommand.
func (b *Battle) Validate(cmd Command) error {
	switch cmd.Type {
	case CommandAttack:
		if cmd.Target < 0 || cmd.Target >= len(b.enemies) {
			return fmt.Errorf("%w: attack target %d out of range [0,%d)", ErrInvalidCommand, cmd.Target, len(b.enemies))
		}
	case CommandItem:
		if cmd.Target < 0 || cmd.Target >= len(b.players) {
			return fmt.Errorf("%w: item target %d out of range [0,%d)", ErrInvalidCommand, cmd.Target, len(b.players))
		}
	case CommandSkill:
	default:
		return fmt.Errorf("%w: unknown command type %d", ErrInvalidCommand, int(cmd.Type))
	}
	return nil
}

func (b *Battle) dispatch(actor *Combatant, cmd Command) Outcome {
	switch cmd.Type {
	case CommandAttack:
		return Attack(actor, b.enemies[cmd.Target])
	case CommandItem:
		return UseItem(actor, b.players[cmd.Target], b.pouch)
	default:
		return UseReflectSkill(actor)
	}
}

// enemySweep lets every enemy that is alive at its slot attack a random
// living player. The end check runs once afterwards.
func (b *Battle) enemySweep() {
	for _, e := range b.enemies {
		if e.IsDead() {
			continue
		}
		target := b.randomLivingPlayer()
		if target == nil {
			return
		}
		b.report(Attack(e, target))
	}
}

func (b *Battle) randomLivingPlayer() *Combatant {
	alive := make([]*Combatant, 0, len(b.players))
	for _, p := range b.players {
		if !p.IsDead() {
			alive = append(alive, p)
		}
	}
	if len(alive) == 0 {
		return nil
	}
	return alive[b.rng.Intn(len(alive))]
}

func (b *Battle) report(out Outcome) {
	b.logger.Debug("battle action",
		zap.Stringer("kind", out.Kind),
		zap.Stringer("actor", out.Actor),
		zap.Stringer("target", out.Target),
		zap.Bool("applied", out.Applied),
		zap.Stringer("reason", out.Reason),
		zap.Int("amount", out.Amount),
		zap.Bool("reflected", out.Reflected))
	if b.narrator != nil {
		b.narrator.ActionResolved(out)
	}
	b.trigger(hook.AfterBattleAction, out)
}

// checkEnd ends the battle if a side is wiped out. Players are checked
// first, so a simultaneous wipe is a defeat.
func (b *Battle) checkEnd() bool {
	var res Result
	switch {
	case allDead(b.players):
		res = ResultLose
	case allDead(b.enemies):
		res = ResultWin
	default:
		return false
	}
	if b.phase == PhasePlayerTurn {
		b.presenter.CommandMenuClosed()
	}
	b.phase = PhaseEnd
	b.waiting = false
	b.result = res
	b.logger.Info("battle ended", zap.Stringer("result", res), zap.Int("turn", b.turn))
	b.presenter.BattleEnded(res == ResultWin)
	b.trigger(hook.OnBattleEnd, res)
	return true
}

func (b *Battle) trigger(event string, data any) {
	if b.hooks == nil {
		return
	}
	if err := b.hooks.Trigger(b.ctx, event, data); err != nil {
		b.logger.Warn("battle hook failed", zap.String("event", event), zap.Error(err))
	}
}

func allDead(cs []*Combatant) bool {
	for _, c := range cs {
		if !c.IsDead() {
			return false
		}
	}
	return true
}

func snapshotAll(cs []*Combatant) []CombatantSnapshot {
	out := make([]CombatantSnapshot, len(cs))
	for i, c := range cs {
		out[i] = c.Snapshot()
	}
	return out
}
