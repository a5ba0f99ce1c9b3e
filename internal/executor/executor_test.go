package executor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myfavshrimp/arc/internal/executor"
	"github.com/myfavshrimp/arc/internal/registry"
	"github.com/myfavshrimp/arc/internal/selector"
	"github.com/myfavshrimp/arc/internal/transport"
)

type fakePool struct{}

func (fakePool) SessionFor(system string) (transport.Session, error) {
	return transport.NewLocalSession(""), nil
}

// fakeInvoker treats handler/when values as Go closures directly, which is
// enough to drive the Executor's control flow without a real script host.
type fakeInvoker struct {
	log []string
}

func (f *fakeInvoker) Invoke(ctx context.Context, handler any, system transport.Session) (any, error) {
	if handler == nil {
		return nil, nil
	}
	fn := handler.(func() (any, error))
	f.log = append(f.log, "invoke")
	return fn()
}

func (f *fakeInvoker) EvalWhen(ctx context.Context, when any) (bool, error) {
	if when == nil {
		return true, nil
	}
	fn := when.(func() (bool, error))
	return fn()
}

func handlerOK(result any) any {
	return func() (any, error) { return result, nil }
}

func handlerFail(msg string) any {
	return func() (any, error) { return nil, errors.New(msg) }
}

// S1: definition order.
func TestRunExecutesTasksInDefinitionOrderAndLogsIt(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.AddSystem(registry.Target{Name: "web-1"}))

	var order []string
	mkHandler := func(name string) any {
		return func() (any, error) { order = append(order, name); return nil, nil }
	}
	require.NoError(t, reg.AddTask("a", &registry.Task{Handler: mkHandler("a")}, nil))
	require.NoError(t, reg.AddTask("b", &registry.Task{Handler: mkHandler("b")}, nil))

	result, err := selector.Select(reg, selector.Filter{AllTags: true, AllSystems: true})
	require.NoError(t, err)

	inv := &fakeInvoker{}
	rep, err := executor.Run(context.Background(), reg, result, fakePool{}, inv, executor.Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, order)
	a, _ := reg.Task("a")
	b, _ := reg.Task("b")
	assert.Equal(t, registry.StateSuccess, a.State())
	assert.Equal(t, registry.StateSuccess, b.State())
	assert.False(t, rep.Failed())
}

// S3: when reading a prior result.
func TestRunWhenCanObservePriorTaskResult(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.AddSystem(registry.Target{Name: "web-1"}))

	probe := &registry.Task{Handler: handlerOK(false)}
	require.NoError(t, reg.AddTask("probe", probe, nil))

	probeTask, _ := reg.Task("probe")
	install := &registry.Task{
		Handler:  handlerOK("installed"),
		Requires: []string{"probe"},
		When:     func() (bool, error) { return probeTask.Result() == false, nil },
	}
	require.NoError(t, reg.AddTask("install", install, nil))

	result, err := selector.Select(reg, selector.Filter{Tags: []string{"install"}, AllSystems: true})
	require.NoError(t, err)

	inv := &fakeInvoker{}
	_, err = executor.Run(context.Background(), reg, result, fakePool{}, inv, executor.Options{})
	require.NoError(t, err)

	assert.Equal(t, registry.StateSuccess, probeTask.State())
	installTask, _ := reg.Task("install")
	assert.Equal(t, registry.StateSuccess, installTask.State())
}

// S4: on_fail = skip_system, continue, important.
func TestRunOnFailSkipSystemIsStickyExceptForImportant(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.AddSystem(registry.Target{Name: "web-1"}))

	require.NoError(t, reg.AddTask("A", &registry.Task{Handler: handlerFail("boom"), OnFail: registry.OnFailSkipSystem}, nil))
	require.NoError(t, reg.AddTask("B", &registry.Task{Handler: handlerOK(nil), OnFail: registry.OnFailContinue}, nil))
	require.NoError(t, reg.AddTask("C", &registry.Task{Handler: handlerOK(nil), Important: true}, nil))

	result, err := selector.Select(reg, selector.Filter{AllTags: true, AllSystems: true})
	require.NoError(t, err)

	inv := &fakeInvoker{}
	_, err = executor.Run(context.Background(), reg, result, fakePool{}, inv, executor.Options{})
	require.NoError(t, err)

	a, _ := reg.Task("A")
	b, _ := reg.Task("B")
	c, _ := reg.Task("C")
	assert.Equal(t, registry.StateFailed, a.State())
	assert.Equal(t, registry.StateSkipped, b.State())
	assert.Equal(t, registry.StateSuccess, c.State())
}

func TestRunOnFailAbortHaltsRemainingSystems(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.AddSystem(registry.Target{Name: "web-1"}))
	require.NoError(t, reg.AddSystem(registry.Target{Name: "web-2"}))

	require.NoError(t, reg.AddTask("fails", &registry.Task{Handler: handlerFail("boom"), OnFail: registry.OnFailAbort}, nil))

	result, err := selector.Select(reg, selector.Filter{AllTags: true, AllSystems: true})
	require.NoError(t, err)

	inv := &fakeInvoker{}
	_, err = executor.Run(context.Background(), reg, result, fakePool{}, inv, executor.Options{})
	assert.Error(t, err)
}

// S5: --dry-run never invokes the handler, when guards still evaluated.
func TestRunDryRunSkipsHandlerButEvaluatesWhen(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.AddSystem(registry.Target{Name: "web-1"}))

	whenCalled := false
	handlerCalled := false
	task := &registry.Task{
		Handler: func() (any, error) { handlerCalled = true; return nil, nil },
		When:    func() (bool, error) { whenCalled = true; return true, nil },
	}
	require.NoError(t, reg.AddTask("risky", task, nil))

	result, err := selector.Select(reg, selector.Filter{AllTags: true, AllSystems: true})
	require.NoError(t, err)

	inv := &fakeInvoker{}
	_, err = executor.Run(context.Background(), reg, result, fakePool{}, inv, executor.Options{DryRun: true})
	require.NoError(t, err)

	assert.True(t, whenCalled)
	assert.False(t, handlerCalled)
	assert.Equal(t, registry.StateSuccess, task.State())
}
