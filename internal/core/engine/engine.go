// Package engine runs plugin systems on a fixed simulation timestep with
// interpolated presentation frames.
package engine

import (
	"context"
	"math"
	"time"

	"github.com/cask-engine/cask/abi"
	"github.com/cask-engine/cask/internal/core/world"
)

// Engine owns a World and drives the registered systems. Tick hooks run at a
// fixed rate locked to the clock; frame hooks run once per Step with the
// fraction of a tick elapsed since the last completed one.
// Single-goroutine access only.
type Engine struct {
	world     *world.World
	handle    *abi.Handle
	systems   []System
	tickCount int64
	anchor    float64
	anchored  bool
}

func New() *Engine {
	return NewWithWorld(world.New())
}

// NewWithWorld builds an engine around an existing World.
func NewWithWorld(w *world.World) *Engine {
	return &Engine{
		world:   w,
		handle:  abi.NewHandle(w),
		systems: make([]System, 0, 16),
	}
}

func (e *Engine) World() *world.World { return e.world }
func (e *Engine) Handle() *abi.Handle { return e.handle }
func (e *Engine) TickCount() int64    { return e.tickCount }
func (e *Engine) Systems() []System   { return e.systems }

// AddSystem appends s; systems run in the order they were added.
func (e *Engine) AddSystem(s System) {
	e.systems = append(e.systems, s)
}

// Step advances the simulation to the clock's current reading. The first call
// only anchors time and presents a frame with alpha 0. Later calls run as many
// ticks as needed to reach floor(elapsed*tickRate), possibly none, then one
// frame.
func (e *Engine) Step(clock Clock, tickRate float64) {
	now := clock.Now()

	if !e.anchored {
		e.anchor = now
		e.anchored = true
		e.frame(0)
		return
	}

	fractional := (now - e.anchor) * tickRate
	target := math.Floor(fractional)

	for float64(e.tickCount) < target {
		for _, s := range e.systems {
			if s.Tick != nil {
				s.Tick(e.handle)
			}
		}
		e.tickCount++
	}

	e.frame(fractional - target)
}

func (e *Engine) frame(alpha float64) {
	for _, s := range e.systems {
		if s.Frame != nil {
			s.Frame(e.handle, alpha)
		}
	}
}

// Run calls Step until ctx is done. With pace > 0 steps are spaced by a ticker
// of that period; otherwise the loop spins.
func (e *Engine) Run(ctx context.Context, clock Clock, tickRate float64, pace time.Duration) error {
	if pace <= 0 {
		for ctx.Err() == nil {
			e.Step(clock, tickRate)
		}
		return nil
	}

	ticker := time.NewTicker(pace)
	defer ticker.Stop()

	e.Step(clock, tickRate)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.Step(clock, tickRate)
		}
	}
}
