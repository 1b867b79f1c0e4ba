// Package luaplugin loads plugins written in Lua.
//
// A Lua plugin is a script defining a global function plugin_info that returns
// the manifest table:
//
//	function plugin_info()
//		return {
//			name = "counter",
//			defines = { "Counter" },
//			requires = {},
//			init = function(world)
//				world:register_and_bind("Counter", { value = 0 })
//			end,
//			tick = function(world)
//				local c = world:resolve("Counter")
//				c.value = c.value + 1
//			end,
//			frame = function(world, alpha) end,
//			shutdown = function(world) end,
//		}
//	end
//
// Every plugin runs in its own Lua state, closed when the module is unloaded.
package luaplugin

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cask-engine/cask/abi"
	"github.com/cask-engine/cask/internal/core/world"
	"github.com/cask-engine/cask/internal/plugin/loader"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// EntryPoint is the global function every Lua plugin defines.
const EntryPoint = "plugin_info"

// APIVersion is exposed to scripts as the global API_VERSION.
const APIVersion = 1

// Options configures NewStrategy.
type Options struct {
	// LibDir holds shared .lua files run in every plugin state before the
	// plugin script. Missing directories are skipped.
	LibDir string
}

// NewStrategy returns a loader.Strategy for .lua plugin files.
func NewStrategy(opts Options, log *zap.Logger) loader.Strategy {
	if log == nil {
		log = zap.NewNop()
	}
	return func(path string) (*loader.Module, error) {
		p, err := open(path, opts, log)
		if err != nil {
			return nil, err
		}
		m, err := p.manifest()
		if err != nil {
			p.vm.Close()
			return nil, err
		}
		return loader.NewModule(path, m, p.close), nil
	}
}

// plugin wraps the Lua state of one plugin script.
// Single-goroutine access only (engine loop).
type plugin struct {
	vm     *lua.LState
	path   string
	name   string
	log    *zap.Logger
	worlds map[*world.World]*lua.LUserData
}

func open(path string, opts Options, log *zap.Logger) (*plugin, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(APIVersion))
	registerWorldType(vm)

	p := &plugin{
		vm:     vm,
		path:   path,
		log:    log.With(zap.String("script", path)),
		worlds: make(map[*world.World]*lua.LUserData, 1),
	}

	if opts.LibDir != "" {
		if err := p.loadDir(opts.LibDir); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load lua libs: %w", err)
		}
	}
	if err := vm.DoFile(path); err != nil {
		vm.Close()
		return nil, err
	}
	return p, nil
}

// loadDir runs all .lua files in a directory.
func (p *plugin) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := p.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		p.log.Debug("loaded lua library", zap.String("file", path))
	}
	return nil
}

func (p *plugin) close() error {
	p.vm.Close()
	return nil
}

// manifest calls the entry point and converts the returned table.
func (p *plugin) manifest() (*abi.Manifest, error) {
	fn := p.vm.GetGlobal(EntryPoint)
	if fn.Type() != lua.LTFunction {
		return nil, fmt.Errorf("%w: global function %s not defined", loader.ErrMissingEntryPoint, EntryPoint)
	}
	if err := p.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}); err != nil {
		return nil, fmt.Errorf("call %s: %w", EntryPoint, err)
	}
	result := p.vm.Get(-1)
	p.vm.Pop(1)

	info, ok := result.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%w: %s returned %s, want table", loader.ErrNilManifest, EntryPoint, result.Type())
	}

	name, ok := info.RawGetString("name").(lua.LString)
	if !ok || name == "" {
		return nil, fmt.Errorf("%s: manifest name must be a non-empty string", EntryPoint)
	}
	p.name = string(name)
	p.log = p.log.With(zap.String("plugin", p.name))

	defines, err := stringList(info, "defines")
	if err != nil {
		return nil, err
	}
	requires, err := stringList(info, "requires")
	if err != nil {
		return nil, err
	}

	m := &abi.Manifest{Name: p.name, Defines: defines, Requires: requires}
	if fn, err := hook(info, "init"); err != nil {
		return nil, err
	} else if fn != nil {
		m.Init = func(h *abi.Handle) error {
			if err := p.call(fn, h); err != nil {
				return fmt.Errorf("lua init: %w", err)
			}
			return nil
		}
	}
	if fn, err := hook(info, "tick"); err != nil {
		return nil, err
	} else if fn != nil {
		m.Tick = func(h *abi.Handle) {
			if err := p.call(fn, h); err != nil {
				p.log.Error("lua tick error", zap.Error(err))
			}
		}
	}
	if fn, err := hook(info, "frame"); err != nil {
		return nil, err
	} else if fn != nil {
		m.Frame = func(h *abi.Handle, alpha float64) {
			if err := p.call(fn, h, lua.LNumber(alpha)); err != nil {
				p.log.Error("lua frame error", zap.Error(err))
			}
		}
	}
	if fn, err := hook(info, "shutdown"); err != nil {
		return nil, err
	} else if fn != nil {
		m.Shutdown = func(h *abi.Handle) error {
			if err := p.call(fn, h); err != nil {
				return fmt.Errorf("lua shutdown: %w", err)
			}
			return nil
		}
	}
	return m, nil
}

// call runs a hook with the world userdata for h as first argument.
func (p *plugin) call(fn *lua.LFunction, h *abi.Handle, args ...lua.LValue) error {
	params := make([]lua.LValue, 0, len(args)+1)
	params = append(params, p.worldValue(h))
	params = append(params, args...)
	return p.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, params...)
}

func (p *plugin) worldValue(h *abi.Handle) *lua.LUserData {
	if ud, ok := p.worlds[h.World()]; ok {
		return ud
	}
	ud := newWorldValue(p, h)
	p.worlds[h.World()] = ud
	return ud
}

func stringList(info *lua.LTable, field string) ([]string, error) {
	v := info.RawGetString(field)
	if v == lua.LNil {
		return nil, nil
	}
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%s: manifest %s must be a list of strings", EntryPoint, field)
	}
	out := make([]string, 0, tbl.Len())
	for i := 1; i <= tbl.Len(); i++ {
		s, ok := tbl.RawGetInt(i).(lua.LString)
		if !ok {
			return nil, fmt.Errorf("%s: manifest %s[%d] is not a string", EntryPoint, field, i)
		}
		out = append(out, string(s))
	}
	return out, nil
}

func hook(info *lua.LTable, field string) (*lua.LFunction, error) {
	v := info.RawGetString(field)
	if v == lua.LNil {
		return nil, nil
	}
	fn, ok := v.(*lua.LFunction)
	if !ok {
		return nil, fmt.Errorf("%s: manifest %s must be a function, got %s", EntryPoint, field, v.Type())
	}
	return fn, nil
}
