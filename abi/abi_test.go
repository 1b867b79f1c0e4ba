package abi

import (
	"testing"

	"github.com/cask-engine/cask/internal/core/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct{ n int }

type tickOnly struct{ ticks int }

func (t *tickOnly) Tick(*Handle) { t.ticks++ }

type allHooks struct{ calls []string }

func (a *allHooks) Init(*Handle) error         { a.calls = append(a.calls, "init"); return nil }
func (a *allHooks) Tick(*Handle)               { a.calls = append(a.calls, "tick") }
func (a *allHooks) Frame(_ *Handle, _ float64) { a.calls = append(a.calls, "frame") }
func (a *allHooks) Shutdown(*Handle) error     { a.calls = append(a.calls, "shutdown"); return nil }

func TestFromHooks_OnlyImplementedSlotsAreFilled(t *testing.T) {
	p := &tickOnly{}

	m := FromHooks("ticker", []string{"A"}, []string{"B"}, p)

	assert.Equal(t, "ticker", m.Name)
	assert.Equal(t, []string{"A"}, m.Defines)
	assert.Equal(t, []string{"B"}, m.Requires)
	assert.Nil(t, m.Init)
	assert.Nil(t, m.Frame)
	assert.Nil(t, m.Shutdown)
	require.NotNil(t, m.Tick)
	m.Tick(nil)
	assert.Equal(t, 1, p.ticks)
}

func TestFromHooks_AllSlots(t *testing.T) {
	p := &allHooks{}
	h := NewHandle(world.New())

	m := FromHooks("all", nil, nil, p)
	require.NoError(t, m.Init(h))
	m.Tick(h)
	m.Frame(h, 0.5)
	require.NoError(t, m.Shutdown(h))

	assert.Equal(t, []string{"init", "tick", "frame", "shutdown"}, p.calls)
}

func TestFromHooks_NilValue(t *testing.T) {
	m := FromHooks("bare", nil, nil, nil)

	assert.Nil(t, m.Init)
	assert.Nil(t, m.Tick)
	assert.Nil(t, m.Frame)
	assert.Nil(t, m.Shutdown)
}

func TestHandle_TypedAccess(t *testing.T) {
	w := world.New()
	h := NewHandle(w)
	c := &counter{n: 4}

	id, err := h.RegisterAndBind("Counter", c, nil)
	require.NoError(t, err)

	got, ok := Component[counter](h, id)
	require.True(t, ok)
	assert.Same(t, c, got)

	byName, ok := ResolveAs[counter](h, "Counter")
	require.True(t, ok)
	assert.Same(t, c, byName)

	_, ok = ResolveAs[tickOnly](h, "Counter")
	assert.False(t, ok)
	_, ok = ResolveAs[counter](h, "Missing")
	assert.False(t, ok)
}

func TestHandle_DelegatesToWorld(t *testing.T) {
	w := world.New()
	h := NewHandle(w)

	id := h.RegisterComponent("Counter")
	require.NoError(t, h.Bind(id, &counter{}))

	assert.Same(t, w, h.World())
	assert.Equal(t, w.Get(id), h.Get(id))
	assert.Equal(t, w.Resolve("Counter"), h.Resolve("Counter"))
	assert.Error(t, h.Bind(id, &counter{}))
}

func TestNames(t *testing.T) {
	ms := []*Manifest{{Name: "a"}, {Name: "b"}}

	assert.Equal(t, []string{"a", "b"}, Names(ms))
}
