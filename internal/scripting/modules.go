package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/d7/internal/game/dice"
)

// RegisterModules registers the engine.log and engine.dice tables into L.
//
// engine.dice.roll(expr [, max_reroll]) returns
//
//	{ id, expression, total, dice = { {size, result, keep, exploded, history}, ... } }
//
// and raises a Lua error for an invalid expression. engine.dice.valid(expr)
// returns a boolean.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetField(engine, "log", m.logModule(L))
	L.SetField(engine, "dice", m.diceModule(L))
	L.SetGlobal("engine", engine)
}

func (m *Manager) logModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	levels := map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	}
	for name, logFn := range levels {
		L.SetField(mod, name, L.NewFunction(func(L *lua.LState) int {
			logFn(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}))
	}
	return mod
}

func (m *Manager) diceModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "roll", L.NewFunction(m.luaRoll))
	L.SetField(mod, "valid", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(dice.Valid(L.CheckString(1))))
		return 1
	}))
	return mod
}

func (m *Manager) luaRoll(L *lua.LState) int {
	expr := L.CheckString(1)
	maxReroll := L.OptInt(2, m.roller.Limits().MaxReroll)

	result, err := m.roller.RollExprWithMaxReroll(expr, maxReroll)
	if err != nil {
		L.RaiseError("engine.dice.roll: %s", err.Error())
		return 0
	}
	L.Push(resultTable(L, result))
	return 1
}

func resultTable(L *lua.LState, r dice.RollResult) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("id", lua.LString(r.ID))
	t.RawSetString("expression", lua.LString(r.Expression))
	t.RawSetString("total", lua.LNumber(r.Total))

	list := L.NewTable()
	for i, d := range r.Dice {
		dt := L.NewTable()
		dt.RawSetString("size", lua.LNumber(d.Size))
		dt.RawSetString("keep", lua.LBool(d.Keep))
		dt.RawSetString("exploded", lua.LBool(d.Exploded))
		if v, ok := d.Result(); ok {
			dt.RawSetString("result", lua.LNumber(v))
		}
		history := L.NewTable()
		for j, v := range d.History {
			history.RawSetInt(j+1, lua.LNumber(v))
		}
		dt.RawSetString("history", history)
		list.RawSetInt(i+1, dt)
	}
	t.RawSetString("dice", list)
	return t
}
