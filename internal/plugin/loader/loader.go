// Package loader opens plugin modules and hands back their manifests.
//
// The mechanism that turns a path into a manifest is a Strategy, so ordering
// and lifecycle code can be exercised with in-memory strategies while the host
// uses NativeStrategy, a Lua or a WebAssembly strategy, or a Dispatch over
// several of them.
package loader

import (
	"errors"
	"fmt"
	"os"

	"github.com/cask-engine/cask/abi"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// Module is one opened plugin module.
type Module struct {
	Path     string
	Manifest *abi.Manifest
	// Digest is the BLAKE2b-256 of the module file, empty when the path is
	// not a readable file.
	Digest string

	release func() error
}

// NewModule wraps a manifest opened from path. release may be nil when the
// module holds nothing to free.
func NewModule(path string, manifest *abi.Manifest, release func() error) *Module {
	return &Module{Path: path, Manifest: manifest, release: release}
}

// Strategy opens the module at path.
type Strategy func(path string) (*Module, error)

// Loader applies a Strategy and keeps the error contract uniform.
type Loader struct {
	strategy Strategy
	log      *zap.Logger
}

func New(strategy Strategy, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{strategy: strategy, log: log}
}

// Load opens path. Every failure is a *LoadError naming path.
func (l *Loader) Load(path string) (*Module, error) {
	m, err := l.strategy(path)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			return nil, err
		}
		return nil, &LoadError{Path: path, Cause: err}
	}
	if m == nil || m.Manifest == nil {
		if m != nil && m.release != nil {
			_ = m.release()
		}
		return nil, &LoadError{Path: path, Cause: ErrNilManifest}
	}
	if m.Path == "" {
		m.Path = path
	}
	if m.Digest == "" {
		m.Digest = fileDigest(path)
	}
	l.log.Info("plugin loaded",
		zap.String("path", path),
		zap.String("plugin", m.Manifest.Name),
		zap.String("digest", m.Digest),
	)
	return m, nil
}

// LoadAll loads paths in order and stops at the first failure. The modules
// loaded before the failure are returned alongside the error; the caller
// releases them.
func (l *Loader) LoadAll(paths []string) ([]*Module, error) {
	modules := make([]*Module, 0, len(paths))
	for _, p := range paths {
		m, err := l.Load(p)
		if err != nil {
			return modules, err
		}
		modules = append(modules, m)
	}
	return modules, nil
}

// Unload releases m. No hook of m's plugin may run afterwards.
func (l *Loader) Unload(m *Module) error {
	if m.release == nil {
		return nil
	}
	release := m.release
	m.release = nil
	if err := release(); err != nil {
		return fmt.Errorf("unload %s: %w", m.Path, err)
	}
	l.log.Debug("plugin unloaded", zap.String("path", m.Path))
	return nil
}

func fileDigest(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	sum := blake2b.Sum256(data)
	return fmt.Sprintf("%x", sum)
}
