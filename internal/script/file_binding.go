package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/myfavshrimp/arc/internal/content"
	"github.com/myfavshrimp/arc/internal/transport"
)

const fileHandleTypeName = "arc.file"

// registerFileHandleType installs the metatable for FileContent handles:
// .content (get reads the whole file into a string; set writes a string, or
// streams from another file handle when one is assigned), plus __tostring
// forcing a full-buffer read.
func (h *Host) registerFileHandleType() {
	mt := h.L.NewTypeMetatable(fileHandleTypeName)
	h.L.SetField(mt, "__index", h.L.NewFunction(h.fileIndex))
	h.L.SetField(mt, "__newindex", h.L.NewFunction(h.fileNewIndex))
	h.L.SetField(mt, "__tostring", h.L.NewFunction(h.fileToString))
}

func checkFileHandle(L *lua.LState, idx int) *content.FileHandle {
	ud := L.CheckUserData(idx)
	fh, ok := ud.Value.(*content.FileHandle)
	if !ok {
		L.RaiseError("expected a file handle")
		return nil
	}
	return fh
}

func (h *Host) newFileHandleValue(fh *content.FileHandle) *lua.LUserData {
	ud := h.L.NewUserData()
	ud.Value = fh
	h.L.SetMetatable(ud, h.L.GetTypeMetatable(fileHandleTypeName))
	return ud
}

// systemFile implements system:file(path).
func (h *Host) systemFile(L *lua.LState) int {
	session := checkSystem(L, 1)
	path := L.CheckString(2)
	L.Push(h.newFileHandleValue(content.New(session, path)))
	return 1
}

func (h *Host) fileIndex(L *lua.LState) int {
	fh := checkFileHandle(L, 1)
	field := L.CheckString(2)

	switch field {
	case "path":
		L.Push(lua.LString(fh.Path))
	case "content":
		s, err := fh.String(ctx())
		if err != nil {
			L.RaiseError("reading %s: %v", fh.Path, err)
			return 0
		}
		L.Push(lua.LString(s))
	case "permissions":
		L.Push(readPermissions(L, fh.System, fh.Path))
	default:
		L.Push(lua.LNil)
	}
	return 1
}

func (h *Host) fileNewIndex(L *lua.LState) int {
	fh := checkFileHandle(L, 1)
	field := L.CheckString(2)
	value := L.Get(3)

	switch field {
	case "content":
		if otherUD, ok := value.(*lua.LUserData); ok {
			if src, ok := otherUD.Value.(*content.FileHandle); ok {
				if err := fh.SetContentFrom(ctx(), src); err != nil {
					L.RaiseError("streaming into %s: %v", fh.Path, err)
				}
				return 0
			}
		}
		if err := fh.SetContent(ctx(), lua.LVAsString(value)); err != nil {
			L.RaiseError("writing %s: %v", fh.Path, err)
		}
	case "path":
		newPath := lua.LVAsString(value)
		if err := fh.System.Rename(ctx(), fh.Path, newPath); err != nil {
			L.RaiseError("renaming %s to %s: %v", fh.Path, newPath, err)
			return 0
		}
		fh.Path = newPath
	case "permissions":
		writePermissions(L, fh.System, fh.Path, value)
	default:
		L.RaiseError("unknown file field %q", field)
	}
	return 0
}

// readPermissions stats path and pushes its mode, or nil if it does not
// exist. Shared by the file and directory handle .permissions accessors.
func readPermissions(L *lua.LState, session transport.Session, path string) lua.LValue {
	meta, err := session.Stat(ctx(), path)
	if err != nil {
		L.RaiseError("stat %s: %v", path, err)
		return lua.LNil
	}
	if meta == nil {
		return lua.LNil
	}
	return lua.LNumber(meta.Permission)
}

// writePermissions chmods path to value, the mode a script assigned to
// .permissions.
func writePermissions(L *lua.LState, session transport.Session, path string, value lua.LValue) {
	mode, ok := value.(lua.LNumber)
	if !ok {
		L.RaiseError("permissions must be a number, got %s", value.Type().String())
		return
	}
	if err := session.Chmod(ctx(), path, uint32(mode)); err != nil {
		L.RaiseError("chmod %s: %v", path, err)
	}
}

func (h *Host) fileToString(L *lua.LState) int {
	fh := checkFileHandle(L, 1)
	s, err := fh.String(ctx())
	if err != nil {
		L.RaiseError("reading %s: %v", fh.Path, err)
		return 0
	}
	L.Push(lua.LString(s))
	return 1
}
