package engine

import (
	"context"
	"testing"
	"time"

	"github.com/cask-engine/cask/abi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t float64 }

func (c *fakeClock) Now() float64 { return c.t }

type recorder struct {
	ticks  int
	alphas []float64
	events []string
}

func (r *recorder) system(name string) System {
	return System{
		Name: name,
		Tick: func(*abi.Handle) {
			r.ticks++
			r.events = append(r.events, name+".tick")
		},
		Frame: func(_ *abi.Handle, alpha float64) {
			r.alphas = append(r.alphas, alpha)
			r.events = append(r.events, name+".frame")
		},
	}
}

func TestStep_BootstrapRunsFramesOnly(t *testing.T) {
	for _, rate := range []float64{0.5, 1, 10, 60, 1000} {
		e := New()
		rec := &recorder{}
		e.AddSystem(rec.system("a"))

		e.Step(&fakeClock{t: 42}, rate)

		assert.Zero(t, rec.ticks, "rate %v", rate)
		assert.Equal(t, []float64{0}, rec.alphas, "rate %v", rate)
		assert.Zero(t, e.TickCount())
	}
}

func TestStep_OneTickPerSecondAtRateOne(t *testing.T) {
	e := New()
	rec := &recorder{}
	e.AddSystem(rec.system("a"))
	clock := &fakeClock{}

	e.Step(clock, 1.0)
	clock.t = 1.0
	e.Step(clock, 1.0)

	assert.Equal(t, 1, rec.ticks)
	assert.Equal(t, int64(1), e.TickCount())
	require.Len(t, rec.alphas, 2)
	assert.InDelta(t, 0, rec.alphas[1], 1e-9)
}

func TestStep_CatchUpAndAlpha(t *testing.T) {
	e := New()
	rec := &recorder{}
	e.AddSystem(rec.system("a"))
	clock := &fakeClock{}

	e.Step(clock, 10)
	clock.t = 0.35
	e.Step(clock, 10)

	assert.Equal(t, 3, rec.ticks)
	require.Len(t, rec.alphas, 2)
	assert.InDelta(t, 0.5, rec.alphas[1], 1e-9)
}

func TestStep_AnchorIsFirstReading(t *testing.T) {
	e := New()
	rec := &recorder{}
	e.AddSystem(rec.system("a"))
	clock := &fakeClock{t: 100}

	e.Step(clock, 4)
	clock.t = 101
	e.Step(clock, 4)

	assert.Equal(t, 4, rec.ticks)
}

func TestStep_NoTicksWhenCalledFasterThanRate(t *testing.T) {
	e := New()
	rec := &recorder{}
	e.AddSystem(rec.system("a"))
	clock := &fakeClock{}

	e.Step(clock, 2)
	for _, ts := range []float64{0.1, 0.2, 0.3, 0.4} {
		clock.t = ts
		e.Step(clock, 2)
	}

	assert.Zero(t, rec.ticks)
	assert.Len(t, rec.alphas, 5)

	clock.t = 0.5
	e.Step(clock, 2)
	assert.Equal(t, 1, rec.ticks)
}

func TestStep_TicksStayLockedToClock(t *testing.T) {
	e := New()
	rec := &recorder{}
	e.AddSystem(rec.system("a"))
	clock := &fakeClock{}

	e.Step(clock, 60)
	for i := 1; i <= 120; i++ {
		clock.t = float64(i) / 120
		e.Step(clock, 60)
	}

	assert.Equal(t, 60, rec.ticks)
}

func TestStep_RegistrationOrder(t *testing.T) {
	e := New()
	rec := &recorder{}
	e.AddSystem(rec.system("a"))
	e.AddSystem(rec.system("b"))
	clock := &fakeClock{}

	e.Step(clock, 1)
	clock.t = 2.5
	e.Step(clock, 1)

	assert.Equal(t, []string{
		"a.frame", "b.frame",
		"a.tick", "b.tick",
		"a.tick", "b.tick",
		"a.frame", "b.frame",
	}, rec.events)
}

func TestStep_SkipsMissingHooks(t *testing.T) {
	e := New()
	rec := &recorder{}
	tickOnly := rec.system("tick")
	tickOnly.Frame = nil
	frameOnly := rec.system("frame")
	frameOnly.Tick = nil
	e.AddSystem(tickOnly)
	e.AddSystem(frameOnly)
	e.AddSystem(System{Name: "empty"})
	clock := &fakeClock{}

	e.Step(clock, 1)
	clock.t = 1
	e.Step(clock, 1)

	assert.Equal(t, []string{"frame.frame", "tick.tick", "frame.frame"}, rec.events)
}

func TestStep_HooksShareEngineWorld(t *testing.T) {
	e := New()
	type counter struct{ n int }
	_, err := e.World().RegisterAndBind("Counter", &counter{}, nil)
	require.NoError(t, err)
	e.AddSystem(System{Tick: func(h *abi.Handle) {
		c, ok := abi.ResolveAs[counter](h, "Counter")
		require.True(t, ok)
		c.n++
	}})
	clock := &fakeClock{}

	e.Step(clock, 5)
	clock.t = 1
	e.Step(clock, 5)

	assert.Equal(t, 5, e.World().Resolve("Counter").(*counter).n)
	assert.Same(t, e.World(), e.Handle().World())
}

func TestSystemOf(t *testing.T) {
	ticks := 0
	m := &abi.Manifest{Name: "p", Tick: func(*abi.Handle) { ticks++ }}

	s := SystemOf(m)
	s.Tick(nil)

	assert.Equal(t, "p", s.Name)
	assert.Nil(t, s.Frame)
	assert.Equal(t, 1, ticks)
}

func TestRun_StopsOnCancel(t *testing.T) {
	e := New()
	frames := 0
	ctx, cancel := context.WithCancel(context.Background())
	e.AddSystem(System{Frame: func(*abi.Handle, float64) {
		frames++
		if frames == 3 {
			cancel()
		}
	}})

	err := e.Run(ctx, &fakeClock{}, 60, 0)

	require.NoError(t, err)
	assert.Equal(t, 3, frames)
}

func TestRun_Paced(t *testing.T) {
	e := New()
	frames := 0
	ctx, cancel := context.WithCancel(context.Background())
	e.AddSystem(System{Frame: func(*abi.Handle, float64) {
		frames++
		if frames == 2 {
			cancel()
		}
	}})

	done := make(chan error, 1)
	go func() { done <- e.Run(ctx, NewRealClock(), 60, time.Millisecond) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.GreaterOrEqual(t, frames, 2)
}

func TestRealClock_Monotonic(t *testing.T) {
	c := NewRealClock()
	a := c.Now()
	b := c.Now()

	assert.GreaterOrEqual(t, a, 0.0)
	assert.GreaterOrEqual(t, b, a)
}

func TestClockFunc(t *testing.T) {
	var c Clock = ClockFunc(func() float64 { return 3 })

	assert.Equal(t, 3.0, c.Now())
}
