// Package selector computes, from a frozen Registry and a set of CLI
// filters, the effective per-system task lists an Executor will run.
package selector

import (
	"fmt"
	"sort"

	"github.com/myfavshrimp/arc/internal/registry"
)

// Filter captures the CLI-supplied selection criteria: the
// --tag/--all-tags/--system/--group/--all-systems/--no-reqs flags.
type Filter struct {
	Tags       []string
	AllTags    bool
	Systems    []string
	Groups     []string
	AllSystems bool
	NoReqs     bool
}

// Result is the Selector's pure output: the system set and, for each system
// in it, the definition-ordered effective task list.
type Result struct {
	Systems       []string
	BySystemTasks map[string][]*registry.Task
}

// EffectiveTasks returns the effective task list for system s, or nil if s
// is not in the result's system set.
func (r Result) EffectiveTasks(system string) []*registry.Task {
	return r.BySystemTasks[system]
}

// Select computes the Result for reg under filter. It is pure: calling it
// twice with the same reg and filter yields an equal Result.
func Select(reg *registry.Registry, filter Filter) (Result, error) {
	systemSet, err := resolveSystemSet(reg, filter)
	if err != nil {
		return Result{}, err
	}

	selected, err := selectTasks(reg, filter)
	if err != nil {
		return Result{}, err
	}

	byName := make(map[string][]*registry.Task, len(systemSet))
	for system := range systemSet {
		list, err := effectiveListForSystem(reg, selected, system)
		if err != nil {
			return Result{}, err
		}
		byName[system] = list
	}

	systems := make([]string, 0, len(systemSet))
	for s := range systemSet {
		systems = append(systems, s)
	}
	sort.Strings(systems)

	return Result{Systems: systems, BySystemTasks: byName}, nil
}

// resolveSystemSet expands --system/--group (transitively, cycle-safe) and
// --all-systems into the concrete system-name set S.
func resolveSystemSet(reg *registry.Registry, filter Filter) (map[string]struct{}, error) {
	if filter.AllSystems {
		all := make(map[string]struct{}, len(reg.Systems()))
		for name := range reg.Systems() {
			all[name] = struct{}{}
		}
		return all, nil
	}

	result := make(map[string]struct{})
	for _, name := range filter.Systems {
		if _, ok := reg.Systems()[name]; !ok {
			return nil, fmt.Errorf("unknown system %q", name)
		}
		result[name] = struct{}{}
	}
	for _, name := range filter.Groups {
		expanded, err := reg.ExpandGroup(name)
		if err != nil {
			return nil, err
		}
		for s := range expanded {
			result[s] = struct{}{}
		}
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("no systems selected: supply --system, --group, or --all-systems")
	}
	return result, nil
}

// selectTasks applies explicit tag selection, extends it through the
// requires closure, and unconditionally includes important tasks.
func selectTasks(reg *registry.Registry, filter Filter) (map[string]*registry.Task, error) {
	filterTags := make(map[string]struct{}, len(filter.Tags))
	for _, t := range filter.Tags {
		filterTags[t] = struct{}{}
	}

	selected := make(map[string]*registry.Task)

	for _, task := range reg.Tasks() {
		if filter.AllTags || tagsIntersect(task.Tags, filterTags) {
			selected[task.Name] = task
		}
	}

	if !filter.NoReqs {
		extendWithRequiresClosure(reg, selected)
	}

	for _, task := range reg.Tasks() {
		if task.Important {
			selected[task.Name] = task
		}
	}

	if len(selected) == 0 {
		return nil, fmt.Errorf("no tasks selected: supply --tag or --all-tags")
	}

	return selected, nil
}

func tagsIntersect(tags map[string]struct{}, filterTags map[string]struct{}) bool {
	for t := range filterTags {
		if _, ok := tags[t]; ok {
			return true
		}
	}
	return false
}

// extendWithRequiresClosure repeatedly adds, for every selected task T and
// every tag r in T.Requires, every task whose Tags contain r - iterating to
// a fixpoint. The closure is monotone: it only ever adds tasks.
func extendWithRequiresClosure(reg *registry.Registry, selected map[string]*registry.Task) {
	for {
		added := false
		requiredTags := make(map[string]struct{})
		for _, task := range selected {
			for _, r := range task.Requires {
				requiredTags[r] = struct{}{}
			}
		}
		for _, task := range reg.Tasks() {
			if _, already := selected[task.Name]; already {
				continue
			}
			if tagsIntersect(task.Tags, requiredTags) {
				selected[task.Name] = task
				added = true
			}
		}
		if !added {
			return
		}
	}
}

// effectiveListForSystem produces the definition-ordered subset of selected
// applicable to system: empty Targets means eligible everywhere; otherwise
// Targets (after group expansion) must contain system.
func effectiveListForSystem(reg *registry.Registry, selected map[string]*registry.Task, system string) ([]*registry.Task, error) {
	var list []*registry.Task
	for _, task := range reg.Tasks() {
		if _, ok := selected[task.Name]; !ok {
			continue
		}
		eligible, err := taskEligibleForSystem(reg, task, system)
		if err != nil {
			return nil, err
		}
		if eligible {
			list = append(list, task)
		}
	}
	return list, nil
}

func taskEligibleForSystem(reg *registry.Registry, task *registry.Task, system string) (bool, error) {
	if len(task.Targets) == 0 {
		return true, nil
	}
	for _, target := range task.Targets {
		expanded, err := reg.ExpandGroup(target)
		if err != nil {
			return false, fmt.Errorf("task %q: %w", task.Name, err)
		}
		if _, ok := expanded[system]; ok {
			return true, nil
		}
	}
	return false, nil
}
