package content_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myfavshrimp/arc/internal/content"
	"github.com/myfavshrimp/arc/internal/transport"
)

func TestSetContentWritesStringBytes(t *testing.T) {
	session := transport.NewLocalSession("")
	path := filepath.Join(t.TempDir(), "out.txt")
	h := content.New(session, path)

	require.NoError(t, h.SetContent(context.Background(), "hello world"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestSetContentFromStreamsBetweenHandlesByteForByte(t *testing.T) {
	session := transport.NewLocalSession("")
	srcPath := filepath.Join(t.TempDir(), "src.bin")
	dstPath := filepath.Join(t.TempDir(), "dst.bin")

	payload := bytes.Repeat([]byte("arc-streaming-test-payload-"), 4096) // ~110KB, several buffer-fulls
	require.NoError(t, os.WriteFile(srcPath, payload, 0o644))

	src := content.New(session, srcPath)
	dst := content.New(session, dstPath)

	require.NoError(t, dst.SetContentFrom(context.Background(), src))

	got, err := os.ReadFile(dstPath)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(payload, got), "destination must be byte-for-byte equal to source")
}

func TestStringBuffersContentForTostring(t *testing.T) {
	session := transport.NewLocalSession("")
	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("note contents"), 0o644))

	h := content.New(session, path)
	s, err := h.String(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "note contents", s)
}
