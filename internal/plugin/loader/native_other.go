//go:build !(linux || darwin || freebsd)

package loader

import (
	"fmt"
	"runtime"
)

// NativeStrategy is unavailable where the Go runtime has no plugin support.
func NativeStrategy(path string) (*Module, error) {
	return nil, fmt.Errorf("%w: native plugins are not supported on %s", ErrUnsupported, runtime.GOOS)
}
