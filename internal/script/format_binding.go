package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/myfavshrimp/arc/internal/codec"
)

// registerFormat installs format.json/toml/yaml/url/env, each exposing
// .encode/.decode (json additionally exposes .encode_pretty).
func (h *Host) registerFormat() {
	format := h.L.NewTable()

	format.RawSetString("json", h.jsonModule())
	format.RawSetString("toml", h.codecModule(codec.TOMLEncode, codec.TOMLDecode))
	format.RawSetString("yaml", h.codecModule(codec.YAMLEncode, codec.YAMLDecode))
	format.RawSetString("url", h.urlModule())
	format.RawSetString("env", h.envModule())

	h.L.SetGlobal("format", format)
}

func (h *Host) jsonModule() *lua.LTable {
	tbl := h.codecModule(codec.JSONEncode, codec.JSONDecode)
	h.L.SetField(tbl, "encode_pretty", h.L.NewFunction(func(L *lua.LState) int {
		v := toGo(L.Get(1))
		s, err := codec.JSONEncodePretty(v)
		if err != nil {
			L.RaiseError("%v", err)
			return 0
		}
		L.Push(lua.LString(s))
		return 1
	}))
	return tbl
}

func (h *Host) codecModule(encode func(any) (string, error), decode func(string) (any, error)) *lua.LTable {
	tbl := h.L.NewTable()
	h.L.SetField(tbl, "encode", h.L.NewFunction(func(L *lua.LState) int {
		v := toGo(L.Get(1))
		s, err := encode(v)
		if err != nil {
			L.RaiseError("%v", err)
			return 0
		}
		L.Push(lua.LString(s))
		return 1
	}))
	h.L.SetField(tbl, "decode", h.L.NewFunction(func(L *lua.LState) int {
		text := L.CheckString(1)
		v, err := decode(text)
		if err != nil {
			L.RaiseError("%v", err)
			return 0
		}
		L.Push(fromGo(L, v))
		return 1
	}))
	return tbl
}

func (h *Host) urlModule() *lua.LTable {
	tbl := h.L.NewTable()
	h.L.SetField(tbl, "encode", h.L.NewFunction(func(L *lua.LState) int {
		m := stringMap(L.CheckTable(1))
		L.Push(lua.LString(codec.URLEncode(m)))
		return 1
	}))
	h.L.SetField(tbl, "decode", h.L.NewFunction(func(L *lua.LState) int {
		text := L.CheckString(1)
		m, err := codec.URLDecode(text)
		if err != nil {
			L.RaiseError("%v", err)
			return 0
		}
		L.Push(fromGo(L, stringMapToAny(m)))
		return 1
	}))
	return tbl
}

func (h *Host) envModule() *lua.LTable {
	tbl := h.L.NewTable()
	h.L.SetField(tbl, "encode", h.L.NewFunction(func(L *lua.LState) int {
		m := stringMap(L.CheckTable(1))
		L.Push(lua.LString(codec.EnvEncode(m)))
		return 1
	}))
	h.L.SetField(tbl, "decode", h.L.NewFunction(func(L *lua.LState) int {
		text := L.CheckString(1)
		m, err := codec.EnvDecode(text)
		if err != nil {
			L.RaiseError("%v", err)
			return 0
		}
		L.Push(fromGo(L, stringMapToAny(m)))
		return 1
	}))
	return tbl
}

func stringMap(tbl *lua.LTable) map[string]string {
	out := make(map[string]string)
	tbl.ForEach(func(k, v lua.LValue) {
		out[lua.LVAsString(k)] = lua.LVAsString(v)
	})
	return out
}

func stringMapToAny(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
