// Package loader discovers an Arc project root, merges its environment
// files, constructs the scripting Host, and evaluates the project's
// entrypoint script.
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	lua "github.com/yuin/gopher-lua"

	"github.com/myfavshrimp/arc/internal/arclog"
	"github.com/myfavshrimp/arc/internal/arcerr"
	"github.com/myfavshrimp/arc/internal/registry"
	"github.com/myfavshrimp/arc/internal/script"
)

// EntryFile is the project's required top-level script.
const EntryFile = "arc.lua"

// ErrProjectNotFound is returned when no arc.lua is found walking upward
// from the starting directory.
var ErrProjectNotFound = errors.New("no arc.lua found in this or any parent directory")

// LoadedProject is the result of a successful Load: the populated Registry
// and the Host that produced it, kept alive for the duration of the run so
// handlers can re-enter the Lua state.
type LoadedProject struct {
	Root     string
	Registry *registry.Registry
	Host     *script.Host
}

// Close releases the underlying Lua state.
func (p *LoadedProject) Close() { p.Host.Close() }

// Load walks upward from startDir to find the project root, merges its
// .env files over the process environment, builds a Host, and evaluates
// arc.lua.
func Load(startDir, homePath, version string, log *arclog.Logger) (*LoadedProject, error) {
	root, err := findProjectRoot(startDir)
	if err != nil {
		return nil, arcerr.New(arcerr.Config, "locating project root", err, map[string]any{"start": startDir})
	}

	env, err := mergeEnv(root)
	if err != nil {
		return nil, arcerr.New(arcerr.Config, "merging .env files", err, map[string]any{"root": root})
	}

	reg := registry.New()
	host := script.New(reg, env, root, homePath, version, log)
	installRequireResolver(host, root)

	entry := filepath.Join(root, EntryFile)
	if err := host.DoFile(entry); err != nil {
		host.Close()
		return nil, arcerr.New(arcerr.Script, "evaluating "+EntryFile, err, nil)
	}

	return &LoadedProject{Root: root, Registry: reg, Host: host}, nil
}

// findProjectRoot walks dir and its ancestors looking for arc.lua.
func findProjectRoot(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	current := abs
	for {
		if _, err := os.Stat(filepath.Join(current, EntryFile)); err == nil {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", ErrProjectNotFound
		}
		current = parent
	}
}

// mergeEnv reads every *.env file directly under root in sorted filename
// order, merging over os.Environ() with later files winning.
func mergeEnv(root string) (script.Env, error) {
	env := make(script.Env)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading project root: %w", err)
	}

	var envFiles []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".env") {
			envFiles = append(envFiles, e.Name())
		}
	}
	sort.Strings(envFiles)

	for _, name := range envFiles {
		values, err := godotenv.Read(filepath.Join(root, name))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		for k, v := range values {
			env[k] = v
		}
	}

	return env, nil
}

// installRequireResolver installs a package.loaders entry that maps
// `require "a/b"` to <root>/a/b.lua, pushing/popping the file's auto-tag
// components around evaluation so the Registry can union them into any
// task defined inside.
func installRequireResolver(host *script.Host, root string) {
	L := host.L
	packageTbl, ok := L.GetGlobal("package").(*lua.LTable)
	if !ok {
		return
	}
	loaders, ok := L.GetField(packageTbl, "loaders").(*lua.LTable)
	if !ok {
		loaders = L.NewTable()
		L.SetField(packageTbl, "loaders", loaders)
	}

	searcher := L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		relPath := strings.ReplaceAll(name, ".", string(filepath.Separator)) + ".lua"
		fullPath := filepath.Join(root, relPath)

		if _, err := os.Stat(fullPath); err != nil {
			L.Push(lua.LString(fmt.Sprintf("\n\tno file %s", fullPath)))
			return 1
		}

		components := pathComponents(relPath)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			host.PushFile(components)
			defer host.PopFile()

			fn, err := L.LoadFile(fullPath)
			if err != nil {
				L.RaiseError("loading %s: %v", fullPath, err)
				return 0
			}
			L.Push(fn)
			L.Call(0, lua.MultRet)
			return L.GetTop()
		}))
		return 1
	})

	loaders.Append(searcher)
}

// pathComponents splits a project-root-relative path into its non-
// extension components, used as a defined task's auto-tags.
func pathComponents(relPath string) []string {
	withoutExt := strings.TrimSuffix(relPath, filepath.Ext(relPath))
	parts := strings.Split(withoutExt, string(filepath.Separator))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
