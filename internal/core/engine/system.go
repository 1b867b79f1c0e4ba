package engine

import "github.com/cask-engine/cask/abi"

// System is the per-plugin pair of loop hooks. Either hook may be nil.
type System struct {
	Name  string
	Tick  abi.TickFunc
	Frame abi.FrameFunc
}

// SystemOf extracts the loop hooks of a manifest.
func SystemOf(m *abi.Manifest) System {
	return System{Name: m.Name, Tick: m.Tick, Frame: m.Frame}
}
