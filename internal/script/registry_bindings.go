package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/myfavshrimp/arc/internal/registry"
)

// registerTargetsAndTasks installs the `targets` and `tasks` globals whose
// assignments are intercepted via __newindex and forwarded into the
// Registry.
func (h *Host) registerTargetsAndTasks() {
	targets := h.L.NewTable()
	targetsMeta := h.L.NewTable()
	h.L.SetField(targetsMeta, "__newindex", h.L.NewFunction(h.targetsNewIndex))
	h.L.SetMetatable(targets, targetsMeta)
	h.L.SetGlobal("targets", targets)

	tasks := h.L.NewTable()
	tasksMeta := h.L.NewTable()
	h.L.SetField(tasksMeta, "__newindex", h.L.NewFunction(h.tasksNewIndex))
	h.L.SetField(tasksMeta, "__index", h.L.NewFunction(h.tasksIndex))
	h.L.SetMetatable(tasks, tasksMeta)
	h.L.SetGlobal("tasks", tasks)
}

// targetsNewIndex handles `targets.systems = {...}` and `targets.groups = {...}`.
func (h *Host) targetsNewIndex(L *lua.LState) int {
	_ = L.CheckTable(1)
	key := L.CheckString(2)
	value := L.CheckTable(3)

	switch key {
	case "systems":
		value.ForEach(func(k, v lua.LValue) {
			name := lua.LVAsString(k)
			def, ok := v.(*lua.LTable)
			if !ok {
				L.RaiseError("targets.systems[%q] must be a table", name)
				return
			}
			target := decodeTarget(name, def)
			if err := h.Reg.AddSystem(target); err != nil {
				L.RaiseError("%v", err)
			}
		})
	case "groups":
		value.ForEach(func(k, v lua.LValue) {
			name := lua.LVAsString(k)
			members := decodeStringList(v)
			if err := h.Reg.AddGroup(registry.Group{Name: name, Members: members}); err != nil {
				L.RaiseError("%v", err)
			}
		})
	default:
		L.RaiseError("unknown targets field %q", key)
	}
	return 0
}

func decodeTarget(name string, def *lua.LTable) registry.Target {
	address := def.RawGetString("address")
	if address == lua.LNil {
		return registry.Target{Name: name}
	}
	user := lua.LVAsString(def.RawGetString("user"))
	port := 0
	if p, ok := def.RawGetString("port").(lua.LNumber); ok {
		port = int(p)
	}
	return registry.Target{
		Name: name,
		Remote: &registry.RemoteTarget{
			Address: lua.LVAsString(address),
			Port:    port,
			User:    user,
		},
	}
}

func decodeStringList(v lua.LValue) []string {
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return nil
	}
	n := tbl.Len()
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, lua.LVAsString(tbl.RawGetInt(i)))
	}
	return out
}

// tasksNewIndex handles `tasks["name"] = {handler=..., tags=..., ...}`.
func (h *Host) tasksNewIndex(L *lua.LState) int {
	_ = L.CheckTable(1)
	name := L.CheckString(2)
	def := L.CheckTable(3)

	task := &registry.Task{
		Handler:   def.RawGetString("handler"),
		Targets:   decodeStringList(def.RawGetString("targets")),
		Requires:  decodeStringList(def.RawGetString("requires")),
		OnFail:    decodeOnFail(def.RawGetString("on_fail")),
		Important: lua.LVAsBool(def.RawGetString("important")),
	}
	if when := def.RawGetString("when"); when != lua.LNil {
		task.When = when
	}

	userTags := decodeStringList(def.RawGetString("tags"))
	autoTags := h.currentFileTags()
	tags := append(append([]string{}, userTags...), autoTags...)

	if err := h.Reg.AddTask(name, task, tags); err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

func decodeOnFail(v lua.LValue) registry.OnFail {
	switch lua.LVAsString(v) {
	case "continue":
		return registry.OnFailContinue
	case "skip_system":
		return registry.OnFailSkipSystem
	default:
		return registry.OnFailAbort
	}
}

// tasksIndex handles `tasks["name"]` reads, returning a userdata wrapping
// the registry.Task so handlers can do `tasks["probe"].result`.
func (h *Host) tasksIndex(L *lua.LState) int {
	_ = L.CheckTable(1)
	name := L.CheckString(2)

	task, ok := h.Reg.Task(name)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}

	ud := L.NewUserData()
	ud.Value = task
	L.SetMetatable(ud, L.GetTypeMetatable(taskRefTypeName))
	L.Push(ud)
	return 1
}

const taskRefTypeName = "arc.taskref"

// registerTaskRefType installs the metatable for the userdata tasks["x"]
// resolves to, exposing .state/.result/.error as read-only fields.
func (h *Host) registerTaskRefType() {
	mt := h.L.NewTypeMetatable(taskRefTypeName)
	h.L.SetField(mt, "__index", h.L.NewFunction(func(L *lua.LState) int {
		ud := L.CheckUserData(1)
		task, ok := ud.Value.(*registry.Task)
		if !ok {
			L.RaiseError("not a task reference")
			return 0
		}
		field := L.CheckString(2)
		switch field {
		case "state":
			L.Push(lua.LString(task.State().String()))
		case "result":
			L.Push(fromGo(L, task.Result()))
		case "error":
			if err := task.Err(); err != nil {
				L.Push(lua.LString(err.Error()))
			} else {
				L.Push(lua.LNil)
			}
		default:
			L.RaiseError("unknown task field %q", field)
		}
		return 1
	}))
}

// currentFileTags returns the auto-tags for whatever file is currently
// being loaded: the project-root-relative path components of that file,
// extension dropped. Maintained by the Loader via PushFile/PopFile as it
// resolves `require` calls (see internal/loader).
func (h *Host) currentFileTags() []string {
	if len(h.fileStack) == 0 {
		return nil
	}
	return h.fileStack[len(h.fileStack)-1]
}
