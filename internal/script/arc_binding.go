package script

import lua "github.com/yuin/gopher-lua"

// registerArc installs the arc.project_root_path/home_path/version
// constants scripts may read.
func (h *Host) registerArc() {
	tbl := h.L.NewTable()
	h.L.SetField(tbl, "project_root_path", lua.LString(h.ProjectRoot))
	h.L.SetField(tbl, "home_path", lua.LString(h.HomePath))
	h.L.SetField(tbl, "version", lua.LString(h.Version))
	h.L.SetGlobal("arc", tbl)
}
