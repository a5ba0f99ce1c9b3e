package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/myfavshrimp/arc/internal/transport"
)

const systemTypeName = "arc.system"

// registerSystemType installs the metatable for the System value passed
// into every task handler: system:exec(cmd), system:file(path),
// system:directory(path), system:id().
func (h *Host) registerSystemType() {
	mt := h.L.NewTypeMetatable(systemTypeName)
	h.L.SetField(mt, "__index", h.L.NewFunction(h.systemIndex))
}

// newSystemValue wraps session as userdata of type arc.system.
func (h *Host) newSystemValue(session transport.Session) *lua.LUserData {
	ud := h.L.NewUserData()
	ud.Value = session
	h.L.SetMetatable(ud, h.L.GetTypeMetatable(systemTypeName))
	return ud
}

// registerHost installs the `host` global: the machine arc itself runs on,
// presented as the same System value every remote target is.
func (h *Host) registerHost() {
	h.L.SetGlobal("host", h.newSystemValue(transport.NewLocalSession("")))
}

func checkSystem(L *lua.LState, idx int) transport.Session {
	ud := L.CheckUserData(idx)
	session, ok := ud.Value.(transport.Session)
	if !ok {
		L.RaiseError("expected a system value")
		return nil
	}
	return session
}

func (h *Host) systemIndex(L *lua.LState) int {
	_ = checkSystem(L, 1)
	method := L.CheckString(2)
	switch method {
	case "exec":
		L.Push(L.NewFunction(h.systemExec))
	case "file":
		L.Push(L.NewFunction(h.systemFile))
	case "directory":
		L.Push(L.NewFunction(h.systemDirectory))
	case "id":
		L.Push(L.NewFunction(h.systemID))
	default:
		L.Push(lua.LNil)
	}
	return 1
}

func (h *Host) systemExec(L *lua.LState) int {
	session := checkSystem(L, 1)
	cmd := L.CheckString(2)

	res, err := session.Exec(ctx(), cmd)
	if err != nil {
		L.RaiseError("exec %q: %v", cmd, err)
		return 0
	}

	tbl := L.NewTable()
	L.SetField(tbl, "stdout", lua.LString(res.Stdout))
	L.SetField(tbl, "stderr", lua.LString(res.Stderr))
	L.SetField(tbl, "exit_code", lua.LNumber(res.ExitCode))
	L.Push(tbl)
	return 1
}

func (h *Host) systemID(L *lua.LState) int {
	session := checkSystem(L, 1)
	L.Push(lua.LString(session.ID()))
	return 1
}
