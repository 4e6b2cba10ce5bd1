// Package console plays a battle in a terminal: it reads commands from a
// line-oriented reader and prints the battle as text.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kasuganosora/turnbattle/game/battle"
)

// ErrClosed is returned by RequestCommand after Close.
var ErrClosed = errors.New("console: closed")

const usage = "commands: attack <enemy> | skill | item <player>   (or 0 <enemy> | 1 | 2 <player>)"

// Console is both the InputPort and a Presenter/Narrator for terminal play.
type Console struct {
	out    io.Writer
	pacing time.Duration
	sleep  func(time.Duration)

	lines     chan string
	readErr   error
	started   bool
	in        *bufio.Scanner
	done      chan struct{}
	closeOnce sync.Once

	names   map[battle.CombatantID]string
	pending []string
}

// New creates a console. pacing delays each enemy action line.
func New(in io.Reader, out io.Writer, pacing time.Duration) *Console {
	return &Console{
		out:    out,
		pacing: pacing,
		sleep:  time.Sleep,
		in:     bufio.NewScanner(in),
		lines:  make(chan string),
		done:   make(chan struct{}),
		names:  make(map[battle.CombatantID]string),
	}
}

// Close stops reading input. Pending and later RequestCommand calls return
// ErrClosed. A reader blocked in a read is released once its next line arrives.
func (c *Console) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Console) readLoop() {
	defer close(c.lines)
	for c.in.Scan() {
		select {
		case <-c.done:
			return
		default:
		}
		select {
		case c.lines <- c.in.Text():
		case <-c.done:
			return
		}
	}
	c.readErr = c.in.Err()
}

// RequestCommand prompts until a line parses. It returns io.EOF when input
// runs out, ctx.Err() when cancelled, or ErrClosed after Close.
func (c *Console) RequestCommand(ctx context.Context, actorIndex int) (battle.Command, error) {
	if !c.started {
		c.started = true
		go c.readLoop()
	}
	name := c.name(battle.CombatantID{Side: battle.SidePlayer, Index: actorIndex})
	for {
		select {
		case <-c.done:
			return battle.Command{}, ErrClosed
		default:
		}
		fmt.Fprintf(c.out, "%s> ", name)
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out)
			return battle.Command{}, ctx.Err()
		case <-c.done:
			fmt.Fprintln(c.out)
			return battle.Command{}, ErrClosed
		case line, ok := <-c.lines:
			if !ok {
				if c.readErr != nil {
					return battle.Command{}, c.readErr
				}
				return battle.Command{}, io.EOF
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if line == "help" || line == "?" {
				fmt.Fprintln(c.out, usage)
				continue
			}
			cmd, err := ParseCommand(line)
			if err != nil {
				fmt.Fprintf(c.out, "%v\n%s\n", err, usage)
				continue
			}
			return cmd, nil
		}
	}
}

// ParseCommand reads "attack 1", "a 1", "0 1", "skill", "item 0" and so on.
func ParseCommand(line string) (battle.Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return battle.Command{}, fmt.Errorf("empty command")
	}
	typ, err := battle.ParseCommandType(fields[0])
	if err != nil {
		return battle.Command{}, err
	}
	cmd := battle.Command{Type: typ}
	if typ == battle.CommandSkill {
		return cmd, nil
	}
	if len(fields) < 2 {
		return battle.Command{}, fmt.Errorf("%s needs a target number", typ)
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return battle.Command{}, fmt.Errorf("bad target %q", fields[1])
	}
	cmd.Target = n
	return cmd, nil
}

func (c *Console) name(id battle.CombatantID) string {
	if n, ok := c.names[id]; ok {
		return n
	}
	return id.String()
}

func (c *Console) flush() {
	for _, l := range c.pending {
		fmt.Fprintln(c.out, l)
	}
	c.pending = c.pending[:0]
}

func (c *Console) BattleStarted(players, enemies []battle.CombatantSnapshot) {
	fmt.Fprintln(c.out, "=== Battle start ===")
	fmt.Fprintln(c.out, "Party:")
	for _, p := range players {
		c.names[p.ID] = p.Name
		fmt.Fprintf(c.out, "  [%d] %-10s HP %d/%d  SP %d/%d\n", p.ID.Index, p.Name, p.HP, p.MaxHP, p.SP, p.MaxSP)
	}
	fmt.Fprintln(c.out, "Enemies:")
	for _, e := range enemies {
		c.names[e.ID] = e.Name
		fmt.Fprintf(c.out, "  [%d] %-10s HP %d/%d\n", e.ID.Index, e.Name, e.HP, e.MaxHP)
	}
}

func (c *Console) TurnStarted(turn int) {
	c.flush()
	fmt.Fprintf(c.out, "--- Turn %d ---\n", turn)
}

func (c *Console) CommandMenuOpened(actorIndex int) {
	c.flush()
	fmt.Fprintf(c.out, "%s's turn. %s\n", c.name(battle.CombatantID{Side: battle.SidePlayer, Index: actorIndex}), usage)
}

func (c *Console) CommandMenuClosed() { c.flush() }

func (c *Console) HPChanged(id battle.CombatantID, hp, maxHP int) {
	c.pending = append(c.pending, fmt.Sprintf("  %s HP %d/%d", c.name(id), hp, maxHP))
}

// SPChanged is only shown for the party.
func (c *Console) SPChanged(id battle.CombatantID, sp, maxSP int) {
	if id.Side != battle.SidePlayer {
		return
	}
	c.pending = append(c.pending, fmt.Sprintf("  %s SP %d/%d", c.name(id), sp, maxSP))
}

func (c *Console) ActionResolved(out battle.Outcome) {
	if out.Actor.Side == battle.SideEnemy && c.pacing > 0 {
		c.sleep(c.pacing)
	}
	fmt.Fprintln(c.out, describe(out, c.name))
	c.flush()
}

func (c *Console) BattleEnded(victory bool) {
	c.flush()
	if victory {
		fmt.Fprintln(c.out, "=== Victory! ===")
	} else {
		fmt.Fprintln(c.out, "=== Defeat... ===")
	}
}

func describe(out battle.Outcome, name func(battle.CombatantID) string) string {
	actor, target := name(out.Actor), name(out.Target)
	switch out.Reason {
	case battle.ReasonActorDead:
		return fmt.Sprintf("%s cannot act.", actor)
	case battle.ReasonTargetDead:
		return fmt.Sprintf("%s is already down; %s's %s does nothing.", target, actor, out.Kind)
	case battle.ReasonNoItems:
		return fmt.Sprintf("%s reaches for an item, but none are left.", actor)
	case battle.ReasonAlreadyReflecting:
		return fmt.Sprintf("%s is already reflecting.", actor)
	case battle.ReasonInsufficientSP:
		return fmt.Sprintf("%s does not have enough SP.", actor)
	case battle.ReasonNoReflect:
		return fmt.Sprintf("%s cannot reflect.", actor)
	}

	var b strings.Builder
	switch out.Kind {
	case battle.CommandAttack:
		fmt.Fprintf(&b, "%s attacks %s", actor, target)
		if out.Reflected {
			fmt.Fprintf(&b, ", but it is reflected! %s takes %d damage.", actor, out.Amount)
		} else {
			fmt.Fprintf(&b, " for %d damage.", out.Amount)
		}
		if out.TargetDefeated {
			fmt.Fprintf(&b, " %s is defeated!", target)
		}
		if out.ActorDefeated {
			fmt.Fprintf(&b, " %s is defeated!", actor)
		}
	case battle.CommandItem:
		fmt.Fprintf(&b, "%s uses an item on %s (+%d HP).", actor, target, out.Amount)
	case battle.CommandSkill:
		fmt.Fprintf(&b, "%s raises a reflect barrier (-%d SP).", actor, out.Amount)
	}
	return b.String()
}
