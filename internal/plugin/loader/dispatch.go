package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cask-engine/cask/abi"
)

// Dispatch picks a strategy by file extension (".so", ".lua", ...). Paths with
// an unknown extension go to fallback, or fail with ErrUnsupported when
// fallback is nil.
func Dispatch(byExt map[string]Strategy, fallback Strategy) Strategy {
	table := make(map[string]Strategy, len(byExt))
	for ext, s := range byExt {
		table[strings.ToLower(ext)] = s
	}
	return func(path string) (*Module, error) {
		ext := strings.ToLower(filepath.Ext(path))
		if s, ok := table[ext]; ok {
			return s(path)
		}
		if fallback != nil {
			return fallback(path)
		}
		return nil, fmt.Errorf("%w: no strategy for extension %q", ErrUnsupported, ext)
	}
}

// Static serves manifests compiled into the host, keyed by path. It is the
// strategy tests and embedded builds use.
func Static(manifests map[string]func() *abi.Manifest) Strategy {
	return func(path string) (*Module, error) {
		entry, ok := manifests[path]
		if !ok {
			return nil, fmt.Errorf("no static module %q: %w", path, os.ErrNotExist)
		}
		return NewModule(path, entry(), nil), nil
	}
}
