package script_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myfavshrimp/arc/internal/arclog"
	"github.com/myfavshrimp/arc/internal/registry"
	"github.com/myfavshrimp/arc/internal/script"
)

func newHost(t *testing.T) (*script.Host, *registry.Registry) {
	t.Helper()
	log, err := arclog.New("error", false)
	require.NoError(t, err)
	reg := registry.New()
	h := script.New(reg, script.Env{"GREETING": "hi"}, "/project", "/home/tester", "0.0.0-test", log)
	t.Cleanup(h.Close)
	return h, reg
}

func doString(t *testing.T, h *script.Host, src string) error {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inline.lua")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return h.DoFile(path)
}

func TestRegisterTargetsSystemsPopulatesRegistry(t *testing.T) {
	h, reg := newHost(t)
	err := doString(t, h, `targets.systems = { web1 = {}, db1 = { address = "10.0.0.5", user = "deploy" } }`)
	require.NoError(t, err)

	web1, ok := reg.Systems()["web1"]
	require.True(t, ok)
	assert.True(t, web1.IsLocal())

	db1, ok := reg.Systems()["db1"]
	require.True(t, ok)
	assert.False(t, db1.IsLocal())
	assert.Equal(t, "10.0.0.5", db1.Remote.Address)
	assert.Equal(t, "deploy", db1.Remote.User)
}

func TestRegisterTasksPopulatesRegistryWithAutoTag(t *testing.T) {
	h, reg := newHost(t)
	err := doString(t, h, `tasks["install"] = { handler = function(system) return 1 end, tags = {"extra"} }`)
	require.NoError(t, err)

	task, ok := reg.Task("install")
	require.True(t, ok)
	assert.True(t, task.HasTag("install"))
	assert.True(t, task.HasTag("extra"))
}

func TestFormatJSONEncodeDecodeRoundTrips(t *testing.T) {
	h, _ := newHost(t)
	err := doString(t, h, `
local encoded = format.json.encode({ name = "x" })
local decoded = format.json.decode(encoded)
assert(decoded.name == "x")
`)
	assert.NoError(t, err)
}

func TestTemplateRenderSubstitutesContext(t *testing.T) {
	h, _ := newHost(t)
	err := doString(t, h, `
local out = template.render("hi {{ name }}", { name = "world" })
assert(out == "hi world")
`)
	assert.NoError(t, err)
}

func TestEnvGetReadsMergedEnvironment(t *testing.T) {
	h, _ := newHost(t)
	err := doString(t, h, `assert(env.get("GREETING") == "hi")`)
	assert.NoError(t, err)
}
