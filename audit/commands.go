package audit

import (
	"context"
	"time"

	"github.com/kasuganosora/turnbattle/game/battle"
)

// BattleView is the part of a battle the command logger reads.
type BattleView interface {
	Turn() int
	Player(i int) *battle.Combatant
	Validate(cmd battle.Command) error
}

// CommandLogger wraps an InputPort and audits every command it returns,
// including the ones the battle is about to reject.
type CommandLogger struct {
	svc      *Service
	battleID string
	view     BattleView
	next     battle.InputPort
	now      func() time.Time
}

// NewCommandLogger returns an InputPort that forwards to next and logs each
// command under battleID.
func NewCommandLogger(svc *Service, battleID string, view BattleView, next battle.InputPort) *CommandLogger {
	return &CommandLogger{svc: svc, battleID: battleID, view: view, next: next, now: time.Now}
}

func (l *CommandLogger) RequestCommand(ctx context.Context, actorIndex int) (battle.Command, error) {
	start := l.now()
	cmd, err := l.next.RequestCommand(ctx, actorIndex)
	if err != nil {
		return cmd, err
	}

	entry := AuditEntry{
		BattleID:   l.battleID,
		Turn:       l.view.Turn(),
		ActorIndex: actorIndex,
		Action:     cmd.Type.String(),
		Request:    cmd,
		Duration:   l.now().Sub(start),
	}
	if p := l.view.Player(actorIndex); p != nil {
		entry.ActorName = p.Name()
	}
	if verr := l.view.Validate(cmd); verr != nil {
		entry.Error = verr.Error()
	}
	l.svc.Log(entry)
	return cmd, nil
}
