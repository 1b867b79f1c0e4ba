package wasmplugin

import (
	"context"

	"github.com/cask-engine/cask/abi"
	"github.com/cask-engine/cask/internal/core/world"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
)

// HostModule is the import namespace guests use to reach the World.
//
//	register_component(name_ptr, name_len i32) -> id i32
//	bind(id, offset i32) -> status i32
//	get_component(id i32) -> offset i32
//	resolve(name_ptr, name_len i32) -> offset i32
//	register_and_bind(name_ptr, name_len, offset i32) -> id i32
//
// Offsets are 0 when absent, so guests must not bind offset 0. Failed calls
// return status 1 or id 0xFFFFFFFF.
const HostModule = "cask"

const invalidID = ^uint32(0)

type handleKey struct{}

func withHandle(ctx context.Context, h *abi.Handle) context.Context {
	return context.WithValue(ctx, handleKey{}, h)
}

func handleFrom(ctx context.Context) *abi.Handle {
	h, _ := ctx.Value(handleKey{}).(*abi.Handle)
	return h
}

const i32 = api.ValueTypeI32

func (p *plugin) buildHostModule(ctx context.Context) error {
	_, err := p.runtime.NewHostModuleBuilder(HostModule).
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(p.registerComponent), []api.ValueType{i32, i32}, []api.ValueType{i32}).
		Export("register_component").
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(p.bind), []api.ValueType{i32, i32}, []api.ValueType{i32}).
		Export("bind").
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(p.getComponent), []api.ValueType{i32}, []api.ValueType{i32}).
		Export("get_component").
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(p.resolve), []api.ValueType{i32, i32}, []api.ValueType{i32}).
		Export("resolve").
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(p.registerAndBind), []api.ValueType{i32, i32, i32}, []api.ValueType{i32}).
		Export("register_and_bind").
		Instantiate(ctx)
	return err
}

func (p *plugin) readName(mod api.Module, ptr, length uint64) (string, bool) {
	mem := mod.Memory()
	if mem == nil {
		p.log.Warn("guest exports no memory")
		return "", false
	}
	raw, ok := mem.Read(api.DecodeU32(ptr), api.DecodeU32(length))
	if !ok {
		p.log.Warn("component name out of memory bounds")
		return "", false
	}
	return string(raw), true
}

func (p *plugin) offsetOf(v any) uint32 {
	if ptr, ok := v.(Pointer); ok && ptr.Plugin == p.name {
		return ptr.Offset
	}
	return 0
}

func (p *plugin) registerComponent(ctx context.Context, mod api.Module, stack []uint64) {
	h := handleFrom(ctx)
	name, ok := p.readName(mod, stack[0], stack[1])
	if h == nil || !ok {
		stack[0] = api.EncodeU32(invalidID)
		return
	}
	stack[0] = api.EncodeU32(uint32(h.RegisterComponent(name)))
}

func (p *plugin) bind(ctx context.Context, _ api.Module, stack []uint64) {
	h := handleFrom(ctx)
	if h == nil {
		stack[0] = api.EncodeU32(1)
		return
	}
	id := world.ComponentID(api.DecodeU32(stack[0]))
	ptr := Pointer{Plugin: p.name, Offset: api.DecodeU32(stack[1])}
	if err := h.Bind(id, ptr); err != nil {
		p.log.Warn("wasm bind failed", zap.Error(err))
		stack[0] = api.EncodeU32(1)
		return
	}
	stack[0] = api.EncodeU32(0)
}

func (p *plugin) getComponent(ctx context.Context, _ api.Module, stack []uint64) {
	h := handleFrom(ctx)
	if h == nil {
		stack[0] = 0
		return
	}
	stack[0] = api.EncodeU32(p.offsetOf(h.Get(world.ComponentID(api.DecodeU32(stack[0])))))
}

func (p *plugin) resolve(ctx context.Context, mod api.Module, stack []uint64) {
	h := handleFrom(ctx)
	name, ok := p.readName(mod, stack[0], stack[1])
	if h == nil || !ok {
		stack[0] = 0
		return
	}
	stack[0] = api.EncodeU32(p.offsetOf(h.Resolve(name)))
}

func (p *plugin) registerAndBind(ctx context.Context, mod api.Module, stack []uint64) {
	h := handleFrom(ctx)
	name, ok := p.readName(mod, stack[0], stack[1])
	if h == nil || !ok {
		stack[0] = api.EncodeU32(invalidID)
		return
	}
	ptr := Pointer{Plugin: p.name, Offset: api.DecodeU32(stack[2])}
	id, err := h.RegisterAndBind(name, ptr, nil)
	if err != nil {
		p.log.Warn("wasm register_and_bind failed", zap.String("component", name), zap.Error(err))
		stack[0] = api.EncodeU32(invalidID)
		return
	}
	stack[0] = api.EncodeU32(uint32(id))
}
