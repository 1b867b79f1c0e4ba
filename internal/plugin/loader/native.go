//go:build linux || darwin || freebsd

package loader

import (
	"fmt"
	"plugin"

	"github.com/cask-engine/cask/abi"
)

// NativeStrategy opens a Go plugin built with -buildmode=plugin and calls its
// abi.EntryPoint function. The Go runtime cannot unload a plugin, so the
// returned module's release is a no-op.
func NativeStrategy(path string) (*Module, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, err
	}
	sym, err := p.Lookup(abi.EntryPoint)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrMissingEntryPoint, abi.EntryPoint, err)
	}
	entry, ok := sym.(abi.EntryFunc)
	if !ok {
		return nil, fmt.Errorf("%w: %s has type %T, want %T", ErrMissingEntryPoint, abi.EntryPoint, sym, abi.EntryFunc(nil))
	}
	return NewModule(path, entry(), nil), nil
}
