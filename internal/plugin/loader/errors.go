package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingEntryPoint means the module opened but does not export the
	// entry point its strategy looks for.
	ErrMissingEntryPoint = errors.New("missing entry point")
	// ErrNilManifest means the entry point ran but produced no manifest.
	ErrNilManifest = errors.New("entry point returned no manifest")
	// ErrUnsupported means no strategy handles the module.
	ErrUnsupported = errors.New("unsupported plugin module")
)

// LoadError reports a module that could not be opened or whose entry point
// could not be resolved. Cause carries the platform diagnostic.
type LoadError struct {
	Path  string
	Cause error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load plugin %s: %v", e.Path, e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
