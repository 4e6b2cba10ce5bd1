package hook

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(order *[]string, tag string) HookFn {
	return func(context.Context, string, any) error {
		*order = append(*order, tag)
		return nil
	}
}

func TestTrigger_NoHandlers(t *testing.T) {
	hc := NewHookCenter()
	assert.NoError(t, hc.Trigger(context.Background(), OnTurnStart, 1))
	assert.False(t, hc.Has(OnTurnStart))
}

func TestRegister_Validation(t *testing.T) {
	hc := NewHookCenter()
	assert.Error(t, hc.Register("", 0, "h", record(new([]string), "x")))
	assert.Error(t, hc.Register(OnTurnStart, 0, "", record(new([]string), "x")))
	assert.Error(t, hc.Register(OnTurnStart, 0, "h", nil))
	assert.False(t, hc.Has(OnTurnStart))
}

func TestTrigger_ReceivesEventAndData(t *testing.T) {
	hc := NewHookCenter()
	var gotEvent string
	var gotData any
	require.NoError(t, hc.Register(OnTurnStart, 0, "h1", func(_ context.Context, event string, data any) error {
		gotEvent, gotData = event, data
		return nil
	}))
	require.NoError(t, hc.Trigger(context.Background(), OnTurnStart, 3))
	assert.Equal(t, OnTurnStart, gotEvent)
	assert.Equal(t, 3, gotData)
}

func TestTrigger_PriorityThenRegistrationOrder(t *testing.T) {
	hc := NewHookCenter()
	var order []string
	require.NoError(t, hc.Register("ev", 10, "late", record(&order, "late")))
	require.NoError(t, hc.Register("ev", 1, "first", record(&order, "first")))
	require.NoError(t, hc.Register("ev", 1, "second", record(&order, "second")))

	require.NoError(t, hc.Trigger(context.Background(), "ev", nil))
	assert.Equal(t, []string{"first", "second", "late"}, order)
	assert.Equal(t, []string{"first", "second", "late"}, hc.Handlers("ev"))
}

func TestTrigger_Interrupt(t *testing.T) {
	hc := NewHookCenter()
	var order []string
	require.NoError(t, hc.Register("ev", 0, "stop", func(context.Context, string, any) error {
		order = append(order, "stop")
		return ErrInterrupt
	}))
	require.NoError(t, hc.Register("ev", 1, "never", record(&order, "never")))

	assert.NoError(t, hc.Trigger(context.Background(), "ev", nil))
	assert.Equal(t, []string{"stop"}, order)
}

func TestTrigger_ErrorsAndPanicsAreCollected(t *testing.T) {
	hc := NewHookCenter()
	boom := errors.New("boom")
	var order []string
	require.NoError(t, hc.Register("ev", 0, "fails", func(context.Context, string, any) error { return boom }))
	require.NoError(t, hc.Register("ev", 1, "panics", func(context.Context, string, any) error { panic("oops") }))
	require.NoError(t, hc.Register("ev", 2, "runs", record(&order, "runs")))

	err := hc.Trigger(context.Background(), "ev", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "fails: boom")
	assert.Contains(t, err.Error(), "panics: panic: oops")
	assert.Equal(t, []string{"runs"}, order)
}

func TestUnregister(t *testing.T) {
	hc := NewHookCenter()
	var order []string
	require.NoError(t, hc.Register("ev", 0, "a", record(&order, "a")))
	require.NoError(t, hc.Register("ev", 0, "b", record(&order, "b")))

	hc.Unregister("ev", "a")
	require.NoError(t, hc.Trigger(context.Background(), "ev", nil))
	assert.Equal(t, []string{"b"}, order)

	hc.Unregister("ev", "b")
	assert.False(t, hc.Has("ev"))
	hc.Unregister("missing", "b") // no-op
}

func TestUnregisterAll(t *testing.T) {
	hc := NewHookCenter()
	var order []string
	for _, ev := range []string{OnBattleStart, OnTurnStart, OnBattleEnd} {
		require.NoError(t, hc.Register(ev, 0, "plugin", record(&order, ev)))
	}
	require.NoError(t, hc.Register(OnBattleEnd, 1, "other", record(&order, "other")))

	hc.UnregisterAll("plugin")
	assert.False(t, hc.Has(OnBattleStart))
	assert.False(t, hc.Has(OnTurnStart))
	assert.Equal(t, []string{"other"}, hc.Handlers(OnBattleEnd))
}
