package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/myfavshrimp/arc/internal/arclog"
)

// registerLog installs log.trace/debug/info/warn/error(msg, ...) and a
// `print` alias to log.info.
func (h *Host) registerLog() {
	tbl := h.L.NewTable()
	h.L.SetField(tbl, "trace", h.L.NewFunction(h.logFn(h.Log.Trace)))
	h.L.SetField(tbl, "debug", h.L.NewFunction(h.logFn(h.Log.Debug)))
	h.L.SetField(tbl, "info", h.L.NewFunction(h.logFn(h.Log.Info)))
	h.L.SetField(tbl, "warn", h.L.NewFunction(h.logFn(h.Log.Warn)))
	h.L.SetField(tbl, "error", h.L.NewFunction(h.logFn(h.Log.Error)))
	h.L.SetGlobal("log", tbl)

	h.L.SetGlobal("print", h.L.NewFunction(h.logFn(h.Log.Info)))
}

func (h *Host) logFn(sink func(string, ...arclog.Field)) lua.LGFunction {
	return func(L *lua.LState) int {
		n := L.GetTop()
		msg := ""
		if n >= 1 {
			msg = L.CheckString(1)
		}
		sink(msg)
		return 0
	}
}
