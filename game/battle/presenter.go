package battle

import "context"

// Presenter is told about everything the player should see, in the order it
// happened. It must not call back into the Battle.
type Presenter interface {
	CommandMenuOpened(actorIndex int)
	CommandMenuClosed()
	HPChanged(id CombatantID, hp, maxHP int)
	SPChanged(id CombatantID, sp, maxSP int)
	BattleEnded(victory bool)
}

// Narrator is an optional extension of Presenter for richer output.
type Narrator interface {
	BattleStarted(players, enemies []CombatantSnapshot)
	TurnStarted(turn int)
	ActionResolved(out Outcome)
}

// InputPort supplies the command for a living player actor. Run calls it once
// per actor per turn, and again after an invalid command.
type InputPort interface {
	RequestCommand(ctx context.Context, actorIndex int) (Command, error)
}

// InputFunc adapts a function to InputPort.
type InputFunc func(ctx context.Context, actorIndex int) (Command, error)

func (f InputFunc) RequestCommand(ctx context.Context, actorIndex int) (Command, error) {
	return f(ctx, actorIndex)
}

// Presenters fans every call out to ps in order. Nil entries are skipped.
func Presenters(ps ...Presenter) Presenter {
	out := make(multiPresenter, 0, len(ps))
	for _, p := range ps {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

type multiPresenter []Presenter

func (m multiPresenter) CommandMenuOpened(actorIndex int) {
	for _, p := range m {
		p.CommandMenuOpened(actorIndex)
	}
}

func (m multiPresenter) CommandMenuClosed() {
	for _, p := range m {
		p.CommandMenuClosed()
	}
}

func (m multiPresenter) HPChanged(id CombatantID, hp, maxHP int) {
	for _, p := range m {
		p.HPChanged(id, hp, maxHP)
	}
}

func (m multiPresenter) SPChanged(id CombatantID, sp, maxSP int) {
	for _, p := range m {
		p.SPChanged(id, sp, maxSP)
	}
}

func (m multiPresenter) BattleEnded(victory bool) {
	for _, p := range m {
		p.BattleEnded(victory)
	}
}

func (m multiPresenter) BattleStarted(players, enemies []CombatantSnapshot) {
	for _, p := range m {
		if n, ok := p.(Narrator); ok {
			n.BattleStarted(players, enemies)
		}
	}
}

func (m multiPresenter) TurnStarted(turn int) {
	for _, p := range m {
		if n, ok := p.(Narrator); ok {
			n.TurnStarted(turn)
		}
	}
}

func (m multiPresenter) ActionResolved(out Outcome) {
	for _, p := range m {
		if n, ok := p.(Narrator); ok {
			n.ActionResolved(out)
		}
	}
}
