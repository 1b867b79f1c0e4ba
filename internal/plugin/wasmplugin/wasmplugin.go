// Package wasmplugin loads plugins compiled to WebAssembly.
//
// A guest module exports get_plugin_info() -> i64, returning (offset<<32)|length
// of a YAML manifest document in its exported memory:
//
//	name: physics
//	defines: [Bodies]
//	requires: [Input]
//
// Optional hook exports are plugin_init() [-> i32 status], plugin_tick(),
// plugin_frame(alpha f32|f64) and plugin_shutdown() [-> i32 status]. The guest
// reaches the World through the host module "cask"; see host.go. Components a
// guest binds are addresses in its own memory, stored in the World as Pointer
// values.
package wasmplugin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cask-engine/cask/abi"
	"github.com/cask-engine/cask/internal/plugin/loader"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	// EntryPoint is the export every guest module provides.
	EntryPoint = "get_plugin_info"

	exportInit     = "plugin_init"
	exportTick     = "plugin_tick"
	exportFrame    = "plugin_frame"
	exportShutdown = "plugin_shutdown"
)

// Pointer is a guest memory address bound into the World by a wasm plugin.
type Pointer struct {
	Plugin string
	Offset uint32
}

// manifestDoc is the YAML document a guest returns from its entry point.
type manifestDoc struct {
	Name     string   `yaml:"name"`
	Defines  []string `yaml:"defines"`
	Requires []string `yaml:"requires"`
}

// NewStrategy returns a loader.Strategy for .wasm plugin files. Each module
// gets its own runtime, closed when the module is unloaded.
func NewStrategy(ctx context.Context, log *zap.Logger) loader.Strategy {
	if log == nil {
		log = zap.NewNop()
	}
	return func(path string) (*loader.Module, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		p, err := instantiate(ctx, filepath.Base(path), data, log.With(zap.String("module", path)))
		if err != nil {
			return nil, err
		}
		m, err := p.manifest()
		if err != nil {
			_ = p.close()
			return nil, err
		}
		return loader.NewModule(path, m, p.close), nil
	}
}

// plugin is one instantiated guest module.
type plugin struct {
	ctx     context.Context
	runtime wazero.Runtime
	mod     api.Module
	name    string
	log     *zap.Logger
}

func instantiate(ctx context.Context, moduleName string, wasm []byte, log *zap.Logger) (*plugin, error) {
	p := &plugin{
		ctx:     ctx,
		runtime: wazero.NewRuntime(ctx),
		log:     log,
	}
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, p.runtime); err != nil {
		_ = p.runtime.Close(ctx)
		return nil, fmt.Errorf("instantiate wasi: %w", err)
	}
	if err := p.buildHostModule(ctx); err != nil {
		_ = p.runtime.Close(ctx)
		return nil, fmt.Errorf("instantiate host module: %w", err)
	}

	cfg := wazero.NewModuleConfig().
		WithName(moduleName).
		WithStartFunctions("_initialize")
	mod, err := p.runtime.InstantiateWithConfig(ctx, wasm, cfg)
	if err != nil {
		_ = p.runtime.Close(ctx)
		return nil, err
	}
	p.mod = mod
	return p, nil
}

func (p *plugin) close() error {
	return p.runtime.Close(p.ctx)
}

// manifest calls the entry point and decodes the manifest document.
func (p *plugin) manifest() (*abi.Manifest, error) {
	fn := p.mod.ExportedFunction(EntryPoint)
	if fn == nil {
		return nil, fmt.Errorf("%w: export %s not found", loader.ErrMissingEntryPoint, EntryPoint)
	}
	results, err := fn.Call(p.ctx)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", EntryPoint, err)
	}
	if len(results) != 1 {
		return nil, fmt.Errorf("%w: %s returned %d values, want 1", loader.ErrNilManifest, EntryPoint, len(results))
	}
	offset, length := uint32(results[0]>>32), uint32(results[0])

	mem := p.mod.Memory()
	if mem == nil {
		return nil, fmt.Errorf("%s: module exports no memory", EntryPoint)
	}
	raw, ok := mem.Read(offset, length)
	if !ok {
		return nil, fmt.Errorf("%s: manifest at %d+%d is out of memory bounds", EntryPoint, offset, length)
	}

	var doc manifestDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if doc.Name == "" {
		return nil, fmt.Errorf("%s: manifest name is empty", EntryPoint)
	}
	p.name = doc.Name
	p.log = p.log.With(zap.String("plugin", p.name))

	m := &abi.Manifest{Name: doc.Name, Defines: doc.Defines, Requires: doc.Requires}
	if fn := p.mod.ExportedFunction(exportInit); fn != nil {
		m.Init = func(h *abi.Handle) error { return p.callStatus(fn, h, exportInit) }
	}
	if fn := p.mod.ExportedFunction(exportTick); fn != nil {
		m.Tick = func(h *abi.Handle) {
			if _, err := fn.Call(withHandle(p.ctx, h)); err != nil {
				p.log.Error("wasm tick error", zap.Error(err))
			}
		}
	}
	if fn := p.mod.ExportedFunction(exportFrame); fn != nil {
		encode := alphaEncoder(fn.Definition())
		m.Frame = func(h *abi.Handle, alpha float64) {
			if _, err := fn.Call(withHandle(p.ctx, h), encode(alpha)...); err != nil {
				p.log.Error("wasm frame error", zap.Error(err))
			}
		}
	}
	if fn := p.mod.ExportedFunction(exportShutdown); fn != nil {
		m.Shutdown = func(h *abi.Handle) error { return p.callStatus(fn, h, exportShutdown) }
	}
	return m, nil
}

// callStatus runs a hook whose optional i32 result is a status code; non-zero
// is a failure.
func (p *plugin) callStatus(fn api.Function, h *abi.Handle, name string) error {
	results, err := fn.Call(withHandle(p.ctx, h))
	if err != nil {
		return fmt.Errorf("wasm %s: %w", name, err)
	}
	if len(results) > 0 {
		if status := api.DecodeI32(results[0]); status != 0 {
			return fmt.Errorf("wasm %s: returned status %d", name, status)
		}
	}
	return nil
}

// alphaEncoder adapts the frame alpha to the export's parameter type.
func alphaEncoder(def api.FunctionDefinition) func(float64) []uint64 {
	params := def.ParamTypes()
	if len(params) == 0 {
		return func(float64) []uint64 { return nil }
	}
	if params[0] == api.ValueTypeF64 {
		return func(a float64) []uint64 { return []uint64{api.EncodeF64(a)} }
	}
	return func(a float64) []uint64 { return []uint64{api.EncodeF32(float32(a))} }
}
