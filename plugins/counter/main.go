// Command counter is a native plugin that defines the Counter component and
// advances it once per tick.
//
//	go build -buildmode=plugin -o counter.so ./plugins/counter
package main

import (
	"fmt"
	"os"

	"github.com/cask-engine/cask/abi"
)

// Counter is shared with other plugins under the name "Counter".
type Counter struct {
	Ticks  int64
	Frames int64
	Alpha  float64
}

type counter struct {
	id abi.ComponentID
}

func (c *counter) Init(h *abi.Handle) error {
	id, err := h.RegisterAndBind("Counter", &Counter{}, nil)
	if err != nil {
		return err
	}
	c.id = id
	return nil
}

func (c *counter) Tick(h *abi.Handle) {
	if v, ok := abi.Component[Counter](h, c.id); ok {
		v.Ticks++
	}
}

func (c *counter) Frame(h *abi.Handle, alpha float64) {
	if v, ok := abi.Component[Counter](h, c.id); ok {
		v.Frames++
		v.Alpha = alpha
	}
}

func (c *counter) Shutdown(h *abi.Handle) error {
	if v, ok := abi.Component[Counter](h, c.id); ok {
		fmt.Fprintf(os.Stderr, "counter: %d ticks, %d frames\n", v.Ticks, v.Frames)
	}
	return nil
}

// PluginInfo is the entry point looked up by the host.
func PluginInfo() *abi.Manifest {
	return abi.FromHooks("counter", []string{"Counter"}, nil, &counter{})
}

func main() {}
