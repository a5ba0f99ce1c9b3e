// Package registry holds the frozen picture of targets, groups, and tasks a
// script assembles during evaluation: the single source of truth the
// selector and executor both read from.
package registry

import (
	"fmt"
	"sync"

	"github.com/myfavshrimp/arc/internal/invariant"
)

// TaskState is a task's position in its per-run state machine.
type TaskState int

const (
	StatePending TaskState = iota
	StateSuccess
	StateFailed
	StateSkipped
)

func (s TaskState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	case StateSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// OnFail selects what the Executor does after a task's handler fails.
type OnFail int

const (
	OnFailAbort OnFail = iota // default
	OnFailContinue
	OnFailSkipSystem
)

// Target is either a Local or Remote system.
type Target struct {
	Name string
	// Remote is nil for the local machine.
	Remote *RemoteTarget
}

// RemoteTarget describes an SSH-reachable system.
type RemoteTarget struct {
	Address string
	Port    int // 0 means "use default (22)"
	User    string
}

func (t Target) IsLocal() bool { return t.Remote == nil }

// Group is a named, possibly-nested collection of system and group names.
type Group struct {
	Name    string
	Members []string
}

// Task is a script-defined procedure with selection metadata and a handler.
// Handler is intentionally typed as `any` here: the concrete callable type
// (a Lua function reference) lives in the script package, which this
// package must not import to avoid a cycle back through the host bindings.
type Task struct {
	Name      string
	Handler   any
	Tags      map[string]struct{}
	Targets   []string // system or group names; empty means "eligible everywhere"
	Requires  []string
	When      any // optional zero-arg predicate callable
	OnFail    OnFail
	Important bool

	DefIndex int // monotonic definition order, assigned by the Registry

	mu     sync.Mutex
	state  TaskState
	result any
	err    error
}

// State returns the task's current terminal-or-pending state.
func (t *Task) State() TaskState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Result returns the task's stored result. Only meaningful when State() ==
// StateSuccess.
func (t *Task) Result() any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}

// Err returns the task's stored error. Only meaningful when State() ==
// StateFailed.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Reset returns the task to StatePending, clearing result/error. Called for
// every task at the start of a run (via ResetAll), and by the Executor
// before a task that already finished on an earlier system runs again.
func (t *Task) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = StatePending
	t.result = nil
	t.err = nil
}

// MarkSuccess transitions pending -> success, publishing result.
func (t *Task) MarkSuccess(result any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	invariant.Invariant(t.state == StatePending, "task %q must be pending to succeed, was %s", t.Name, t.state)
	t.state = StateSuccess
	t.result = result
}

// MarkFailed transitions pending -> failed, publishing err.
func (t *Task) MarkFailed(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	invariant.Invariant(t.state == StatePending, "task %q must be pending to fail, was %s", t.Name, t.state)
	t.state = StateFailed
	t.err = err
}

// MarkSkipped transitions pending -> skipped.
func (t *Task) MarkSkipped() {
	t.mu.Lock()
	defer t.mu.Unlock()
	invariant.Invariant(t.state == StatePending, "task %q must be pending to skip, was %s", t.Name, t.state)
	t.state = StateSkipped
}

// HasTag reports whether tag is in the task's tag set.
func (t *Task) HasTag(tag string) bool {
	_, ok := t.Tags[tag]
	return ok
}

// Registry captures targets, groups, and tasks in definition order as a
// script assigns targets.systems, targets.groups, and tasks[name].
type Registry struct {
	mu sync.Mutex

	systems map[string]Target
	groups  map[string]Group
	tasks   []*Task
	byName  map[string]*Task
	nextDef int
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		systems: make(map[string]Target),
		groups:  make(map[string]Group),
		byName:  make(map[string]*Task),
	}
}

// AddSystem registers a target. Returns an error if the name is already
// taken by another system.
func (r *Registry) AddSystem(t Target) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.systems[t.Name]; exists {
		return fmt.Errorf("duplicate system name %q", t.Name)
	}
	r.systems[t.Name] = t
	return nil
}

// AddGroup registers a group. Returns an error if the name is already taken.
func (r *Registry) AddGroup(g Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.groups[g.Name]; exists {
		return fmt.Errorf("duplicate group name %q", g.Name)
	}
	r.groups[g.Name] = g
	return nil
}

// AddTask registers a task, assigning it the next definition-order index and
// unioning autoTags into its Tags (plus the task's own name, always).
// Returns an error if name is already registered.
func (r *Registry) AddTask(name string, t *Task, autoTags []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("duplicate task name %q", name)
	}

	t.Name = name
	if t.Tags == nil {
		t.Tags = make(map[string]struct{})
	}
	t.Tags[name] = struct{}{}
	for _, tag := range autoTags {
		t.Tags[tag] = struct{}{}
	}
	t.DefIndex = r.nextDef
	r.nextDef++

	r.tasks = append(r.tasks, t)
	r.byName[name] = t
	return nil
}

// Systems returns the registered systems map (not a copy - callers must not
// mutate it after the Registry is frozen).
func (r *Registry) Systems() map[string]Target { return r.systems }

// Groups returns the registered groups map.
func (r *Registry) Groups() map[string]Group { return r.groups }

// Tasks returns all tasks in definition order.
func (r *Registry) Tasks() []*Task { return r.tasks }

// Task looks up a task by name.
func (r *Registry) Task(name string) (*Task, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// ResetAll returns every task to StatePending. Called once at the start of
// an `arc run` invocation.
func (r *Registry) ResetAll() {
	for _, t := range r.tasks {
		t.Reset()
	}
}

// ExpandGroup resolves group or system name g into the set of concrete
// system names it denotes, following nested group membership. Returns an
// error on an unknown name or a membership cycle.
func (r *Registry) ExpandGroup(name string) (map[string]struct{}, error) {
	result := make(map[string]struct{})
	visiting := make(map[string]struct{})
	if err := r.expandInto(name, result, visiting); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Registry) expandInto(name string, result, visiting map[string]struct{}) error {
	if _, ok := r.systems[name]; ok {
		result[name] = struct{}{}
		return nil
	}

	group, ok := r.groups[name]
	if !ok {
		return fmt.Errorf("unknown system or group %q", name)
	}
	if _, ok := visiting[name]; ok {
		return fmt.Errorf("cyclic group membership involving %q", name)
	}
	visiting[name] = struct{}{}
	defer delete(visiting, name)

	for _, member := range group.Members {
		if err := r.expandInto(member, result, visiting); err != nil {
			return err
		}
	}
	return nil
}
