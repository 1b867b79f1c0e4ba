// Package plugin manages the lifecycle of loaded plugin manifests: ordering,
// initialization and teardown against a World.
package plugin

import (
	"fmt"

	"github.com/cask-engine/cask/abi"
	"github.com/cask-engine/cask/internal/core/deps"
	"github.com/cask-engine/cask/internal/core/world"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Registry holds the plugin set. Plugins may be added after Initialize; the
// next Initialize call only runs the new ones.
type Registry struct {
	plugins     []*abi.Manifest
	order       []*abi.Manifest
	initialized map[string]bool
	log         *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		plugins:     make([]*abi.Manifest, 0, 8),
		initialized: make(map[string]bool),
		log:         log,
	}
}

// Add registers m. A manifest whose name is already present is ignored.
func (r *Registry) Add(m *abi.Manifest) {
	for _, existing := range r.plugins {
		if existing.Name == m.Name {
			r.log.Debug("duplicate plugin ignored", zap.String("plugin", m.Name))
			return
		}
	}
	r.plugins = append(r.plugins, m)
}

// Order resolves the current plugin set without initializing anything.
func (r *Registry) Order() ([]*abi.Manifest, error) {
	return deps.Resolve(r.plugins)
}

// Initialize resolves the full plugin set and runs Init for every plugin not
// yet initialized, in dependency order. It returns only the plugins
// initialized by this call.
func (r *Registry) Initialize(w *world.World) ([]*abi.Manifest, error) {
	order, err := deps.Resolve(r.plugins)
	if err != nil {
		return nil, fmt.Errorf("resolve plugins: %w", err)
	}
	r.order = order

	h := abi.NewHandle(w)
	fresh := make([]*abi.Manifest, 0, len(order))
	for _, m := range order {
		if r.initialized[m.Name] {
			continue
		}
		if m.Init != nil {
			if err := m.Init(h); err != nil {
				return fresh, fmt.Errorf("init plugin %s: %w", m.Name, err)
			}
		}
		r.initialized[m.Name] = true
		fresh = append(fresh, m)
		r.log.Info("plugin initialized",
			zap.String("plugin", m.Name),
			zap.Strings("defines", m.Defines),
			zap.Strings("requires", m.Requires),
		)
	}
	return fresh, nil
}

// Shutdown tears plugins down in reverse of the last resolved order. Each
// initialized plugin's Shutdown hook runs while every component is still
// bound; its defined components are destroyed after the hook returns. Plugins
// whose Init failed or never ran get no hook, but their defined components are
// still destroyed. Hook errors do not stop teardown and are returned together.
func (r *Registry) Shutdown(w *world.World) error {
	h := abi.NewHandle(w)
	var errs error
	for i := len(r.order) - 1; i >= 0; i-- {
		m := r.order[i]
		if !r.initialized[m.Name] {
			// Init never completed: no hook, but anything it bound goes.
			for _, name := range m.Defines {
				w.Destroy(name)
			}
			continue
		}
		if m.Shutdown != nil {
			if err := m.Shutdown(h); err != nil {
				r.log.Error("plugin shutdown failed", zap.String("plugin", m.Name), zap.Error(err))
				errs = multierr.Append(errs, fmt.Errorf("shutdown plugin %s: %w", m.Name, err))
			}
		}
		for _, name := range m.Defines {
			w.Destroy(name)
		}
		delete(r.initialized, m.Name)
		r.log.Info("plugin shut down", zap.String("plugin", m.Name))
	}
	return errs
}

// Plugins returns the most recently resolved order.
func (r *Registry) Plugins() []*abi.Manifest {
	return r.order
}

// Len returns the number of distinct plugins added.
func (r *Registry) Len() int {
	return len(r.plugins)
}
