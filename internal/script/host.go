// Package script embeds gopher-lua as Arc's scripting host: it installs a
// restricted standard library, intercepts the targets/tasks globals into a
// Registry, and exposes the system/file/directory/env/format/template/log/
// arc surfaces handlers call against.
package script

import (
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/myfavshrimp/arc/internal/arclog"
	"github.com/myfavshrimp/arc/internal/registry"
)

// Env is the merged environment a script's env.get() reads from (built by
// the Loader from os.Environ() plus project .env files).
type Env map[string]string

// Host owns the Lua state for one loaded project: the Registry it
// populates, the merged Env, and path/version metadata exposed to scripts.
type Host struct {
	L   *lua.LState
	Reg *registry.Registry
	Env Env
	Log *arclog.Logger

	ProjectRoot string
	HomePath    string
	Version     string

	// fileStack tracks the auto-tag components of nested `require`d files,
	// pushed/popped by the Loader as it resolves each require call, so
	// tasksNewIndex can union the current file's tags into a task defined
	// inside it.
	fileStack [][]string
}

// PushFile records path (already split into project-root-relative, ext-
// dropped components) as the currently-loading file, for the duration of
// its require body.
func (h *Host) PushFile(components []string) { h.fileStack = append(h.fileStack, components) }

// PopFile pops the file pushed by the matching PushFile.
func (h *Host) PopFile() { h.fileStack = h.fileStack[:len(h.fileStack)-1] }

// New constructs a Host with the restricted stdlib installed and every
// binding registered, but does not evaluate any script yet.
func New(reg *registry.Registry, env Env, projectRoot, homePath, version string, log *arclog.Logger) *Host {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	// Only the base, string, table, math and module surfaces are opened;
	// io/os/debug/coroutine are deliberately never installed.
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.LoadLibName, lua.OpenPackage},
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}

	h := &Host{
		L:           L,
		Reg:         reg,
		Env:         env,
		Log:         log,
		ProjectRoot: projectRoot,
		HomePath:    homePath,
		Version:     version,
	}

	h.registerTargetsAndTasks()
	h.registerTaskRefType()
	h.registerSystemType()
	h.registerHost()
	h.registerFileHandleType()
	h.registerDirectoryHandleType()
	h.registerEnv()
	h.registerFormat()
	h.registerTemplate()
	h.registerLog()
	h.registerArc()

	return h
}

// Close releases the underlying Lua state.
func (h *Host) Close() { h.L.Close() }

// DoFile evaluates path (absolute, or relative to the process working
// directory) as the project's entrypoint, populating the Registry as a side
// effect.
func (h *Host) DoFile(path string) error {
	if err := h.L.DoFile(path); err != nil {
		return fmt.Errorf("evaluating %s: %w", path, err)
	}
	return nil
}

// toGo converts a lua.LValue into a plain Go value (nil/bool/float64/
// string/[]any/map[string]any), the shape internal/codec and internal/tmpl
// both expect.
func toGo(v lua.LValue) any {
	switch t := v.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(t)
	case lua.LNumber:
		return float64(t)
	case lua.LString:
		return string(t)
	case *lua.LTable:
		return tableToGo(t)
	case *lua.LUserData:
		return t.Value
	default:
		return nil
	}
}

// tableToGo converts an LTable into either []any (if it looks like a dense
// array) or map[string]any.
func tableToGo(t *lua.LTable) any {
	n := t.Len()
	if n > 0 {
		arr := make([]any, 0, n)
		for i := 1; i <= n; i++ {
			arr = append(arr, toGo(t.RawGetInt(i)))
		}
		return arr
	}

	isEmpty := true
	out := make(map[string]any)
	t.ForEach(func(k, v lua.LValue) {
		isEmpty = false
		out[lua.LVAsString(k)] = toGo(v)
	})
	if isEmpty {
		return []any{}
	}
	return out
}

// fromGo converts a plain Go value back into an lua.LValue.
func fromGo(L *lua.LState, v any) lua.LValue {
	switch t := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(t)
	case string:
		return lua.LString(t)
	case int:
		return lua.LNumber(t)
	case int64:
		return lua.LNumber(t)
	case float64:
		return lua.LNumber(t)
	case []any:
		tbl := L.NewTable()
		for i, item := range t {
			tbl.RawSetInt(i+1, fromGo(L, item))
		}
		return tbl
	case map[string]any:
		tbl := L.NewTable()
		for k, item := range t {
			tbl.RawSetString(k, fromGo(L, item))
		}
		return tbl
	default:
		return lua.LNil
	}
}

// ctx returns the context a binding should use for transport calls. Script
// bindings do not currently thread a per-call context from Lua (the
// language has no native context value); callers get context.Background()
// and rely on the Executor's outer context for cancellation via the
// transport layer's own signal handling.
func ctx() context.Context { return context.Background() }
