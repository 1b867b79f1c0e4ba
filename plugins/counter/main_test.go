package main

import (
	"testing"

	"github.com/cask-engine/cask/abi"
	"github.com/cask-engine/cask/internal/core/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPluginInfo(t *testing.T) {
	m := PluginInfo()
	h := abi.NewHandle(world.New())

	assert.Equal(t, "counter", m.Name)
	assert.Equal(t, []string{"Counter"}, m.Defines)
	require.NoError(t, m.Init(h))

	m.Tick(h)
	m.Tick(h)
	m.Frame(h, 0.25)

	c, ok := abi.ResolveAs[Counter](h, "Counter")
	require.True(t, ok)
	assert.Equal(t, int64(2), c.Ticks)
	assert.Equal(t, int64(1), c.Frames)
	assert.Equal(t, 0.25, c.Alpha)
	assert.NoError(t, m.Shutdown(h))
}
