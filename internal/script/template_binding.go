package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/myfavshrimp/arc/internal/tmpl"
)

// registerTemplate installs template.render(text, ctx).
func (h *Host) registerTemplate() {
	tbl := h.L.NewTable()
	h.L.SetField(tbl, "render", h.L.NewFunction(func(L *lua.LState) int {
		text := L.CheckString(1)
		ctxTbl := L.OptTable(2, L.NewTable())

		ctxValue := toGo(ctxTbl)
		ctxMap, _ := ctxValue.(map[string]any)
		if ctxMap == nil {
			ctxMap = map[string]any{}
		}

		out, err := tmpl.Render(text, ctxMap)
		if err != nil {
			L.RaiseError("%v", err)
			return 0
		}
		L.Push(lua.LString(out))
		return 1
	}))
	h.L.SetGlobal("template", tbl)
}
