// Package host wires the loader, the plugin registry and the engine into one
// process lifecycle: load modules, initialize them in dependency order, drive
// the loop, then tear everything down in reverse.
package host

import (
	"context"
	"fmt"

	"github.com/cask-engine/cask/abi"
	"github.com/cask-engine/cask/internal/config"
	"github.com/cask-engine/cask/internal/core/engine"
	"github.com/cask-engine/cask/internal/core/world"
	"github.com/cask-engine/cask/internal/plugin"
	"github.com/cask-engine/cask/internal/plugin/loader"
	"github.com/cask-engine/cask/internal/plugin/luaplugin"
	"github.com/cask-engine/cask/internal/plugin/wasmplugin"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Host owns one World and every module loaded into it.
type Host struct {
	cfg      *config.Config
	log      *zap.Logger
	clock    engine.Clock
	loader   *loader.Loader
	registry *plugin.Registry
	engine   *engine.Engine
	modules  []*loader.Module
}

// Option customizes a Host.
type Option func(*Host)

// WithStrategy replaces the default file-extension dispatch.
func WithStrategy(s loader.Strategy) Option {
	return func(h *Host) { h.loader = loader.New(s, h.log) }
}

// WithClock replaces the monotonic wall clock.
func WithClock(c engine.Clock) Option {
	return func(h *Host) { h.clock = c }
}

func New(cfg *config.Config, log *zap.Logger, opts ...Option) *Host {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	h := &Host{
		cfg:      cfg,
		log:      log,
		registry: plugin.NewRegistry(log),
		engine:   engine.New(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.loader == nil {
		h.loader = loader.New(DefaultStrategy(context.Background(), cfg, log), log)
	}
	if h.clock == nil {
		h.clock = engine.NewRealClock()
	}
	return h
}

// DefaultStrategy dispatches on extension: .so native Go plugins, .lua
// scripts and .wasm modules.
func DefaultStrategy(ctx context.Context, cfg *config.Config, log *zap.Logger) loader.Strategy {
	return loader.Dispatch(map[string]loader.Strategy{
		".so":   loader.NativeStrategy,
		".lua":  luaplugin.NewStrategy(luaplugin.Options{LibDir: cfg.Plugins.LuaLibDir}, log.Named("lua")),
		".wasm": wasmplugin.NewStrategy(ctx, log.Named("wasm")),
	}, nil)
}

func (h *Host) World() *world.World        { return h.engine.World() }
func (h *Host) Engine() *engine.Engine     { return h.engine }
func (h *Host) Registry() *plugin.Registry { return h.registry }
func (h *Host) Modules() []*loader.Module  { return h.modules }
func (h *Host) Config() *config.Config     { return h.cfg }

// Load opens paths in order and registers their manifests without
// initializing them. If any path fails, the modules opened by this call are
// released and nothing is registered.
func (h *Host) Load(paths ...string) error {
	modules, err := h.loader.LoadAll(paths)
	if err != nil {
		for i := len(modules) - 1; i >= 0; i-- {
			if uerr := h.loader.Unload(modules[i]); uerr != nil {
				h.log.Warn("release after failed load", zap.Error(uerr))
			}
		}
		return err
	}
	for _, m := range modules {
		h.registry.Add(m.Manifest)
	}
	h.modules = append(h.modules, modules...)
	return nil
}

// Order resolves the registered plugins without initializing them.
func (h *Host) Order() ([]*abi.Manifest, error) {
	return h.registry.Order()
}

// Start initializes every registered plugin not yet initialized and appends
// their systems to the engine in initialization order. Plugins may be loaded
// and started again later; only the new ones are initialized.
func (h *Host) Start() ([]*abi.Manifest, error) {
	fresh, err := h.registry.Initialize(h.engine.World())
	for _, m := range fresh {
		h.engine.AddSystem(engine.SystemOf(m))
	}
	if err != nil {
		return fresh, err
	}
	h.log.Info("plugins started",
		zap.Int("new", len(fresh)),
		zap.Int("total", h.registry.Len()),
		zap.Strings("order", abi.Names(h.registry.Plugins())),
	)
	return fresh, nil
}

// LoadAndStart is Load followed by Start.
func (h *Host) LoadAndStart(paths ...string) ([]*abi.Manifest, error) {
	if err := h.Load(paths...); err != nil {
		return nil, err
	}
	return h.Start()
}

// Run drives the engine until ctx is done.
func (h *Host) Run(ctx context.Context) error {
	h.log.Info("engine running",
		zap.Float64("tick_rate", h.cfg.Engine.TickRate),
		zap.Duration("frame_pace", h.cfg.Engine.FramePace),
	)
	if err := h.engine.Run(ctx, h.clock, h.cfg.Engine.TickRate, h.cfg.Engine.FramePace); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	h.log.Info("engine stopped", zap.Int64("ticks", h.engine.TickCount()))
	return nil
}

// Stop shuts plugins down in reverse dependency order and then releases every
// module in reverse load order. All errors are returned together.
func (h *Host) Stop() error {
	err := h.registry.Shutdown(h.engine.World())
	for i := len(h.modules) - 1; i >= 0; i-- {
		err = multierr.Append(err, h.loader.Unload(h.modules[i]))
	}
	h.modules = nil
	return err
}
