package script

import lua "github.com/yuin/gopher-lua"

// registerEnv installs env.get(name) reading from the Loader's merged Env.
func (h *Host) registerEnv() {
	tbl := h.L.NewTable()
	h.L.SetField(tbl, "get", h.L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		v, ok := h.Env[name]
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LString(v))
		return 1
	}))
	h.L.SetGlobal("env", tbl)
}
