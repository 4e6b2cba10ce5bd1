package battle

import (
	"fmt"
	"strings"
)

// CommandType is the kind of action a player issues. Values match the
// numeric command menu order.
type CommandType int

const (
	CommandAttack CommandType = iota
	CommandSkill
	CommandItem
)

func (t CommandType) String() string {
	switch t {
	case CommandAttack:
		return "attack"
	case CommandSkill:
		return "skill"
	case CommandItem:
		return "item"
	default:
		return fmt.Sprintf("command(%d)", int(t))
	}
}

func (t CommandType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *CommandType) UnmarshalText(b []byte) error {
	v, err := ParseCommandType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseCommandType accepts a name ("attack", "skill", "item") or its numeric value.
func ParseCommandType(s string) (CommandType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "attack", "a", "0":
		return CommandAttack, nil
	case "skill", "reflect", "s", "1":
		return CommandSkill, nil
	case "item", "i", "2":
		return CommandItem, nil
	}
	return 0, fmt.Errorf("unknown command %q", s)
}

// Command is one player choice. Target indexes the enemy roster for Attack
// and the player roster for Item; Skill ignores it.
type Command struct {
	Type   CommandType `json:"type"`
	Target int         `json:"target"`
}

func (c Command) String() string {
	if c.Type == CommandSkill {
		return c.Type.String()
	}
	return fmt.Sprintf("%s %d", c.Type, c.Target)
}
