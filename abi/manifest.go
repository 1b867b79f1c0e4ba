// Package abi is the contract between the cask host and every plugin module.
//
// A plugin is described by a Manifest: a unique name, the component names it
// defines, the component names it requires, and up to four optional lifecycle
// hooks. Hooks receive a Handle, the capability token through which they reach
// the shared World.
//
// Native plugins are Go packages built with -buildmode=plugin that export a
// function named by EntryPoint:
//
//	func PluginInfo() *abi.Manifest {
//		return abi.FromHooks("physics", []string{"Bodies"}, nil, &physics{})
//	}
//
// The plugin and the host must be built from the same version of this package.
package abi

import "github.com/cask-engine/cask/internal/core/world"

// EntryPoint is the symbol every native plugin module exports. Its type must be
// EntryFunc.
const EntryPoint = "PluginInfo"

// EntryFunc is the signature of the EntryPoint symbol.
type EntryFunc = func() *Manifest

type (
	InitFunc     func(h *Handle) error
	TickFunc     func(h *Handle)
	FrameFunc    func(h *Handle, alpha float64)
	ShutdownFunc func(h *Handle) error
)

// Manifest is a plugin's static declaration. Any hook may be nil.
type Manifest struct {
	Name     string
	Defines  []string
	Requires []string

	Init     InitFunc
	Tick     TickFunc
	Frame    FrameFunc
	Shutdown ShutdownFunc
}

// Optional hook capabilities recognised by FromHooks.
type (
	Initializer interface{ Init(h *Handle) error }
	Ticker      interface{ Tick(h *Handle) }
	Framer      interface {
		Frame(h *Handle, alpha float64)
	}
	Shutdowner interface{ Shutdown(h *Handle) error }
)

// FromHooks builds a Manifest whose hook slots are filled from whichever of
// Initializer, Ticker, Framer and Shutdowner v implements.
func FromHooks(name string, defines, requires []string, v any) *Manifest {
	m := &Manifest{
		Name:     name,
		Defines:  defines,
		Requires: requires,
	}
	if i, ok := v.(Initializer); ok {
		m.Init = i.Init
	}
	if t, ok := v.(Ticker); ok {
		m.Tick = t.Tick
	}
	if f, ok := v.(Framer); ok {
		m.Frame = f.Frame
	}
	if s, ok := v.(Shutdowner); ok {
		m.Shutdown = s.Shutdown
	}
	return m
}

// Names returns the names of ms in order.
func Names(ms []*Manifest) []string {
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.Name
	}
	return names
}

// ComponentID and Destructor are re-exported so plugin modules never import
// host internals.
type (
	ComponentID = world.ComponentID
	Destructor  = world.Destructor
)
