// Package hook lets plugins observe battle events. Handlers get copies of
// battle values and cannot change the battle.
package hook

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrInterrupt stops the remaining handlers for the current event.
var ErrInterrupt = errors.New("hook interrupted")

// Battle hook events.
const (
	OnBattleStart     = "on_battle_start"     // data: battle.State
	OnTurnStart       = "on_turn_start"       // data: int turn number
	AfterBattleAction = "after_battle_action" // data: battle.Outcome
	OnBattleEnd       = "on_battle_end"       // data: battle.Result
)

// HookFn handles one event. Returning ErrInterrupt skips later handlers.
type HookFn func(ctx context.Context, event string, data any) error

type hookEntry struct {
	priority int
	seq      uint64
	name     string
	fn       HookFn
}

// HookCenter manages event hook registrations. The zero value is not usable;
// call NewHookCenter.
type HookCenter struct {
	mu    sync.RWMutex
	seq   uint64
	hooks map[string][]*hookEntry
}

// NewHookCenter creates a new HookCenter.
func NewHookCenter() *HookCenter {
	return &HookCenter{hooks: make(map[string][]*hookEntry)}
}

// Register adds fn for event. Lower priority runs first; equal priorities run
// in registration order. name identifies the handler for Unregister.
func (hc *HookCenter) Register(event string, priority int, name string, fn HookFn) error {
	if event == "" || name == "" {
		return errors.New("hook: event and name are required")
	}
	if fn == nil {
		return fmt.Errorf("hook: nil handler %q for %s", name, event)
	}
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.seq++
	entries := append(hc.hooks[event], &hookEntry{priority: priority, seq: hc.seq, name: name, fn: fn})
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].priority != entries[j].priority {
			return entries[i].priority < entries[j].priority
		}
		return entries[i].seq < entries[j].seq
	})
	hc.hooks[event] = entries
	return nil
}

// Unregister removes the handlers named name from event.
func (hc *HookCenter) Unregister(event, name string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.remove(event, name)
}

// UnregisterAll removes the handlers named name from every event.
func (hc *HookCenter) UnregisterAll(name string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	for event := range hc.hooks {
		hc.remove(event, name)
	}
}

func (hc *HookCenter) remove(event, name string) {
	kept := hc.hooks[event][:0]
	for _, e := range hc.hooks[event] {
		if e.name != name {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		delete(hc.hooks, event)
		return
	}
	hc.hooks[event] = kept
}

// Handlers lists the handler names for event in run order.
func (hc *HookCenter) Handlers(event string) []string {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	names := make([]string, 0, len(hc.hooks[event]))
	for _, e := range hc.hooks[event] {
		names = append(names, e.name)
	}
	return names
}

// Has reports whether any handler listens on event.
func (hc *HookCenter) Has(event string) bool {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return len(hc.hooks[event]) > 0
}

// Trigger runs the handlers for event in order. A failing or panicking
// handler does not stop the others; their errors are joined and returned.
// ErrInterrupt stops the run without being reported.
func (hc *HookCenter) Trigger(ctx context.Context, event string, data any) error {
	hc.mu.RLock()
	entries := make([]*hookEntry, len(hc.hooks[event]))
	copy(entries, hc.hooks[event])
	hc.mu.RUnlock()

	var errs []error
	for _, e := range entries {
		err := call(ctx, e, event, data)
		if errors.Is(err, ErrInterrupt) {
			break
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.name, err))
		}
	}
	return errors.Join(errs...)
}

func call(ctx context.Context, e *hookEntry, event string, data any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return e.fn(ctx, event, data)
}
