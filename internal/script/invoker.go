package script

import (
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/myfavshrimp/arc/internal/transport"
)

// Invoker adapts a Host to the executor.Invoker interface: it calls a
// task's Handler/When Lua function values through a protected PCall so a
// Lua runtime error becomes a Go error rather than a panic.
type Invoker struct {
	Host *Host
}

// Invoke calls handler(system) where handler is the *lua.LFunction stored
// on a registry.Task. A nil handler (a task with no handler field, which
// should not occur for a validated task) returns (nil, nil).
func (inv *Invoker) Invoke(_ context.Context, handler any, session transport.Session) (any, error) {
	fn, ok := handler.(*lua.LFunction)
	if !ok || fn == nil {
		return nil, nil
	}

	L := inv.Host.L
	sysValue := lua.LValue(lua.LNil)
	if session != nil {
		sysValue = inv.Host.newSystemValue(session)
	}

	L.Push(fn)
	L.Push(sysValue)
	if err := L.PCall(1, 1, nil); err != nil {
		return nil, fmt.Errorf("handler: %w", err)
	}

	ret := L.Get(-1)
	L.Pop(1)
	return toGo(ret), nil
}

// EvalWhen calls when() with no arguments. A nil when always evaluates
// true, so a task without a when predicate always runs.
func (inv *Invoker) EvalWhen(_ context.Context, when any) (bool, error) {
	fn, ok := when.(*lua.LFunction)
	if !ok || fn == nil {
		return true, nil
	}

	L := inv.Host.L
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		return false, fmt.Errorf("when: %w", err)
	}

	ret := L.Get(-1)
	L.Pop(1)
	return lua.LVAsBool(ret), nil
}
