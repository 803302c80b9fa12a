package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// registerModules installs the engine global into the VM of s. Every engine.*
// function reads the callbacks bound to s for the current call; an unset
// callback makes the function a no-op returning zero values.
//
// Precondition: s.L must be from NewSandboxedState.
// Postcondition: engine global is defined in s.L.
func (m *Manager) registerModules(s *script) {
	L := s.L
	engine := L.NewTable()

	L.SetField(engine, "read_stacks", L.NewFunction(func(L *lua.LState) int {
		uid, typ := L.CheckString(1), L.CheckString(2)
		n := 0
		if s.cb.ReadStacks != nil {
			n = s.cb.ReadStacks(uid, typ)
		}
		L.Push(lua.LNumber(n))
		return 1
	}))

	L.SetField(engine, "consume_stacks", L.NewFunction(func(L *lua.LState) int {
		uid, typ, amount := L.CheckString(1), L.CheckString(2), L.CheckInt(3)
		n := 0
		if s.cb.ConsumeStacks != nil {
			var err error
			if n, err = s.cb.ConsumeStacks(uid, typ, amount); err != nil {
				L.RaiseError("consume_stacks: %s", err.Error())
				return 0
			}
		}
		L.Push(lua.LNumber(n))
		return 1
	}))

	L.SetField(engine, "apply_status", L.NewFunction(func(L *lua.LState) int {
		req := StatusRequest{
			Target:    L.CheckString(1),
			Type:      L.CheckString(2),
			Stacks:    L.CheckInt(3),
			Magnitude: float64(L.CheckNumber(4)),
			Ticks:     L.CheckInt(5),
		}
		result := ""
		if s.cb.ApplyStatus != nil {
			var err error
			if result, err = s.cb.ApplyStatus(req); err != nil {
				L.RaiseError("apply_status: %s", err.Error())
				return 0
			}
		}
		L.Push(lua.LString(result))
		return 1
	}))

	L.SetField(engine, "emit_damage", L.NewFunction(func(L *lua.LState) int {
		uid, amount := L.CheckString(1), float64(L.CheckNumber(2))
		if amount < 0 {
			L.ArgError(2, "damage must be >= 0")
			return 0
		}
		if s.cb.EmitDamage != nil {
			s.cb.EmitDamage(uid, amount)
		}
		return 0
	}))

	L.SetField(engine, "random", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(m.src.Float64()))
		return 1
	}))

	log := L.NewTable()
	for name, fn := range map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	} {
		L.SetField(log, name, L.NewFunction(func(L *lua.LState) int {
			fn(L.CheckString(1), zap.String("script", s.name))
			return 0
		}))
	}
	L.SetField(engine, "log", log)

	L.SetGlobal("engine", engine)
}
