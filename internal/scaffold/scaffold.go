// Package scaffold implements `arc init`: writing a starter project so a
// new user has a working arc.lua, editor type hints, and an LSP config to
// edit it against.
package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
)

const starterArcLua = `-- Starter Arc project.

targets.systems = {
  local1 = {},
}

tasks["hello"] = {
  handler = function(system)
    local result = system:exec("echo hello from arc")
    log.info(result.stdout)
    return result.exit_code == 0
  end,
}
`

const luarcJSON = `{
  "runtime.version": "Lua 5.1",
  "workspace.library": ["types"],
  "diagnostics.globals": ["targets", "tasks", "env", "format", "template", "log", "arc"]
}
`

const typeStub = `---@meta

---@class Target
---@field address string?
---@field port integer?
---@field user string?

---@class TaskDef
---@field handler fun(system: System): any
---@field tags string[]?
---@field targets string[]?
---@field requires string[]?
---@field when fun(): boolean
---@field on_fail "continue"|"skip_system"|"abort"?
---@field important boolean?

---@class System
---@field exec fun(self: System, cmd: string): {stdout: string, stderr: string, exit_code: integer}
---@field file fun(self: System, path: string): FileHandle
---@field directory fun(self: System, path: string): DirectoryHandle
---@field id fun(self: System): string

---@class FileHandle
---@field path string
---@field content string

---@class DirectoryHandle
---@field path string
---@field entries fun(self: DirectoryHandle): {path: string, size: integer, is_directory: boolean}[]

---@type table<string, Target>
targets = { systems = {}, groups = {} }

---@type table<string, TaskDef>
tasks = {}

env = {}
format = { json = {}, toml = {}, yaml = {}, url = {}, env = {} }
template = {}
log = {}
arc = {}
`

// Init creates path (if absent) and writes a starter arc.lua, .luarc.json,
// and types/arc.lua into it.
func Init(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("creating project directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(path, "types"), 0o755); err != nil {
		return fmt.Errorf("creating types directory: %w", err)
	}

	files := map[string]string{
		"arc.lua":       starterArcLua,
		".luarc.json":   luarcJSON,
		"types/arc.lua": typeStub,
	}
	for rel, content := range files {
		full := filepath.Join(path, rel)
		if _, err := os.Stat(full); err == nil {
			continue // never overwrite an existing file
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", rel, err)
		}
	}
	return nil
}
