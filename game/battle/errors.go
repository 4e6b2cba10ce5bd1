package battle

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidCommand rejects a malformed command. The actor keeps its turn.
	ErrInvalidCommand = errors.New("battle: invalid command")
	ErrNotWaiting     = errors.New("battle: not waiting for a command")
	ErrAlreadyStarted = errors.New("battle: already started")
	ErrNotStarted     = errors.New("battle: not started")
	ErrBattleOver     = errors.New("battle: already over")
)

// ConfigError lists every problem found while validating a battle setup.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return "battle: invalid config: " + strings.Join(e.Problems, "; ")
}
