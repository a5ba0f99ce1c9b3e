package script

import (
	"path"

	lua "github.com/yuin/gopher-lua"

	"github.com/myfavshrimp/arc/internal/transport"
)

const directoryHandleTypeName = "arc.directory"

// directoryHandle is a lazy reference to a directory path on a session;
// .entries() performs a fresh listing each call.
type directoryHandle struct {
	session transport.Session
	path    string
}

func (h *Host) registerDirectoryHandleType() {
	mt := h.L.NewTypeMetatable(directoryHandleTypeName)
	h.L.SetField(mt, "__index", h.L.NewFunction(h.directoryIndex))
	h.L.SetField(mt, "__newindex", h.L.NewFunction(h.directoryNewIndex))
}

// systemDirectory implements system:directory(path).
func (h *Host) systemDirectory(L *lua.LState) int {
	session := checkSystem(L, 1)
	path := L.CheckString(2)

	ud := L.NewUserData()
	ud.Value = &directoryHandle{session: session, path: path}
	L.SetMetatable(ud, L.GetTypeMetatable(directoryHandleTypeName))
	L.Push(ud)
	return 1
}

func (h *Host) directoryIndex(L *lua.LState) int {
	ud := L.CheckUserData(1)
	dh, ok := ud.Value.(*directoryHandle)
	if !ok {
		L.RaiseError("expected a directory handle")
		return 0
	}
	field := L.CheckString(2)

	switch field {
	case "path":
		L.Push(lua.LString(dh.path))
	case "permissions":
		L.Push(readPermissions(L, dh.session, dh.path))
	case "entries":
		L.Push(L.NewFunction(func(L *lua.LState) int {
			return h.directoryEntries(L, dh)
		}))
	default:
		L.Push(lua.LNil)
	}
	return 1
}

func (h *Host) directoryNewIndex(L *lua.LState) int {
	ud := L.CheckUserData(1)
	dh, ok := ud.Value.(*directoryHandle)
	if !ok {
		L.RaiseError("expected a directory handle")
		return 0
	}
	field := L.CheckString(2)
	value := L.Get(3)

	switch field {
	case "path":
		newPath := lua.LVAsString(value)
		if err := dh.session.Rename(ctx(), dh.path, newPath); err != nil {
			L.RaiseError("renaming %s to %s: %v", dh.path, newPath, err)
			return 0
		}
		dh.path = newPath
	case "permissions":
		writePermissions(L, dh.session, dh.path, value)
	default:
		L.RaiseError("unknown directory field %q", field)
	}
	return 0
}

func (h *Host) directoryEntries(L *lua.LState, dh *directoryHandle) int {
	names, err := dh.session.List(ctx(), dh.path)
	if err != nil {
		L.RaiseError("listing %s: %v", dh.path, err)
		return 0
	}

	tbl := L.NewTable()
	for i, name := range names {
		childPath := path.Join(dh.path, name)
		meta, err := dh.session.Stat(ctx(), childPath)
		if err != nil {
			L.RaiseError("stat %s: %v", childPath, err)
			return 0
		}

		entryTbl := L.NewTable()
		L.SetField(entryTbl, "path", lua.LString(childPath))
		isDir := false
		if meta != nil {
			L.SetField(entryTbl, "size", lua.LNumber(meta.Size))
			isDir = meta.Type == transport.EntryDirectory
		}
		L.SetField(entryTbl, "is_directory", lua.LBool(isDir))
		tbl.RawSetInt(i+1, entryTbl)
	}
	L.Push(tbl)
	return 1
}
