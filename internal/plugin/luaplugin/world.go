package luaplugin

import (
	"github.com/cask-engine/cask/abi"
	"github.com/cask-engine/cask/internal/core/world"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

const worldTypeName = "cask.world"

// worldRef is the Go value behind the world userdata handed to hooks.
type worldRef struct {
	plugin *plugin
	handle *abi.Handle
}

var worldMethods = map[string]lua.LGFunction{
	"register_component": worldRegisterComponent,
	"bind":               worldBind,
	"get":                worldGet,
	"resolve":            worldResolve,
	"register_and_bind":  worldRegisterAndBind,
}

func registerWorldType(vm *lua.LState) {
	mt := vm.NewTypeMetatable(worldTypeName)
	vm.SetField(mt, "__index", vm.SetFuncs(vm.NewTable(), worldMethods))
}

func newWorldValue(p *plugin, h *abi.Handle) *lua.LUserData {
	ud := p.vm.NewUserData()
	ud.Value = &worldRef{plugin: p, handle: h}
	p.vm.SetMetatable(ud, p.vm.GetTypeMetatable(worldTypeName))
	return ud
}

func checkWorld(L *lua.LState) *worldRef {
	ud := L.CheckUserData(1)
	if ref, ok := ud.Value.(*worldRef); ok {
		return ref
	}
	L.ArgError(1, "world expected")
	return nil
}

func checkID(L *lua.LState, n int) world.ComponentID {
	id := L.CheckInt(n)
	if id < 0 {
		L.ArgError(n, "component id must not be negative")
	}
	return world.ComponentID(id)
}

// world:register_component(name) -> id
func worldRegisterComponent(L *lua.LState) int {
	ref := checkWorld(L)
	id := ref.handle.RegisterComponent(L.CheckString(2))
	L.Push(lua.LNumber(id))
	return 1
}

// world:bind(id, value)
func worldBind(L *lua.LState) int {
	ref := checkWorld(L)
	id := checkID(L, 2)
	if err := ref.handle.Bind(id, toHost(L.Get(3))); err != nil {
		L.RaiseError("%s", err.Error())
	}
	return 0
}

// world:get(id) -> value or nil
func worldGet(L *lua.LState) int {
	ref := checkWorld(L)
	L.Push(fromHost(L, ref.handle.Get(checkID(L, 2))))
	return 1
}

// world:resolve(name) -> value or nil
func worldResolve(L *lua.LState) int {
	ref := checkWorld(L)
	L.Push(fromHost(L, ref.handle.Resolve(L.CheckString(2))))
	return 1
}

// world:register_and_bind(name, value [, destructor]) -> id
func worldRegisterAndBind(L *lua.LState) int {
	ref := checkWorld(L)
	name := L.CheckString(2)
	value := toHost(L.Get(3))
	var destructor world.Destructor
	if fn := L.OptFunction(4, nil); fn != nil {
		destructor = ref.plugin.destructor(name, fn)
	}
	id, err := ref.handle.RegisterAndBind(name, value, destructor)
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
	L.Push(lua.LNumber(id))
	return 1
}

// destructor wraps a Lua function so the World can call it at destroy time.
func (p *plugin) destructor(component string, fn *lua.LFunction) world.Destructor {
	return func(value any) {
		if err := p.vm.CallByParam(lua.P{
			Fn:      fn,
			NRet:    0,
			Protect: true,
		}, fromHost(p.vm, value)); err != nil {
			p.log.Error("lua destructor error", zap.String("component", component), zap.Error(err))
		}
	}
}

// toHost converts a Lua value for storage in the World. Userdata carrying Go
// values is unwrapped; every other Lua value is stored as is.
func toHost(v lua.LValue) any {
	switch v := v.(type) {
	case *lua.LNilType:
		return nil
	case *lua.LUserData:
		if _, isWorld := v.Value.(*worldRef); !isWorld && v.Value != nil {
			return v.Value
		}
		return v
	default:
		return v
	}
}

// fromHost converts a World value for a Lua state. Values bound by Go plugins
// arrive as plain userdata.
func fromHost(L *lua.LState, v any) lua.LValue {
	switch v := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return v
	default:
		ud := L.NewUserData()
		ud.Value = v
		return ud
	}
}
