package scaffold_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myfavshrimp/arc/internal/scaffold"
)

func TestInitWritesStarterFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, scaffold.Init(dir))

	for _, rel := range []string{"arc.lua", ".luarc.json", "types/arc.lua"} {
		_, err := os.Stat(filepath.Join(dir, rel))
		assert.NoError(t, err, "expected %s to exist", rel)
	}
}

func TestInitDoesNotOverwriteExistingArcLua(t *testing.T) {
	dir := t.TempDir()
	custom := "-- my custom project\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "arc.lua"), []byte(custom), 0o644))

	require.NoError(t, scaffold.Init(dir))

	data, err := os.ReadFile(filepath.Join(dir, "arc.lua"))
	require.NoError(t, err)
	assert.Equal(t, custom, string(data))
}
