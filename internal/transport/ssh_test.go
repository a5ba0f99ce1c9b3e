package transport

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSFTPClient is an in-memory stand-in for *sftp.Client, letting
// SSHSession's file-op plumbing be tested without a real SFTP subsystem.
type fakeSFTPClient struct {
	files map[string][]byte
	dirs  map[string][]string
	modes map[string]fs.FileMode
}

func newFakeSFTPClient() *fakeSFTPClient {
	return &fakeSFTPClient{files: map[string][]byte{}, dirs: map[string][]string{}, modes: map[string]fs.FileMode{}}
}

type fakeFileInfo struct {
	name string
	size int64
	mode fs.FileMode
	dir  bool
}

func (f fakeFileInfo) Name() string       { return f.name }
func (f fakeFileInfo) Size() int64        { return f.size }
func (f fakeFileInfo) Mode() fs.FileMode  { return f.mode }
func (f fakeFileInfo) ModTime() time.Time { return time.Unix(0, 0) }
func (f fakeFileInfo) IsDir() bool        { return f.dir }
func (f fakeFileInfo) Sys() any           { return nil }

type nopWriteCloser struct {
	*bytes.Buffer
	commit func([]byte)
}

func (w *nopWriteCloser) Close() error {
	w.commit(w.Buffer.Bytes())
	return nil
}

func (f *fakeSFTPClient) Open(path string) (io.ReadCloser, error) {
	data, ok := f.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeSFTPClient) Create(path string) (io.WriteCloser, error) {
	buf := &bytes.Buffer{}
	return &nopWriteCloser{Buffer: buf, commit: func(b []byte) { f.files[path] = b }}, nil
}

func (f *fakeSFTPClient) Stat(path string) (fs.FileInfo, error) {
	if names, ok := f.dirs[path]; ok {
		_ = names
		return fakeFileInfo{name: path, dir: true, mode: fs.ModeDir | 0o755}, nil
	}
	data, ok := f.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	mode := f.modes[path]
	if mode == 0 {
		mode = 0o644
	}
	return fakeFileInfo{name: path, size: int64(len(data)), mode: mode}, nil
}

func (f *fakeSFTPClient) Chmod(path string, mode fs.FileMode) error {
	f.modes[path] = mode
	return nil
}

func (f *fakeSFTPClient) MkdirAll(path string) error {
	if _, ok := f.dirs[path]; !ok {
		f.dirs[path] = nil
	}
	return nil
}

func (f *fakeSFTPClient) Remove(path string) error {
	delete(f.files, path)
	return nil
}

func (f *fakeSFTPClient) RemoveAll(path string) error {
	delete(f.dirs, path)
	for p := range f.files {
		if len(p) > len(path) && p[:len(path)] == path {
			delete(f.files, p)
		}
	}
	return nil
}

func (f *fakeSFTPClient) Rename(oldname, newname string) error {
	data, ok := f.files[oldname]
	if !ok {
		return fs.ErrNotExist
	}
	delete(f.files, oldname)
	f.files[newname] = data
	return nil
}

func (f *fakeSFTPClient) ReadDir(path string) ([]fs.FileInfo, error) {
	names, ok := f.dirs[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	infos := make([]fs.FileInfo, len(names))
	for i, n := range names {
		infos[i] = fakeFileInfo{name: n}
	}
	return infos, nil
}

func (f *fakeSFTPClient) Close() error { return nil }

func TestSSHSessionExecRunsOverRealConnection(t *testing.T) {
	srv := startSSHTestServer(t)
	client, err := srv.dial()
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	s := newSSHSession(client, newFakeSFTPClient(), "test-host")

	res, err := s.Exec(context.Background(), "echo from-remote")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "from-remote\n", string(res.Stdout))
}

func TestSSHSessionExecReportsNonZeroExit(t *testing.T) {
	srv := startSSHTestServer(t)
	client, err := srv.dial()
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	s := newSSHSession(client, newFakeSFTPClient(), "test-host")

	res, err := s.Exec(context.Background(), "exit 3")
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
}

func TestSSHSessionWriteStreamThenStatAndReadStream(t *testing.T) {
	fake := newFakeSFTPClient()
	s := newSSHSession(nil, fake, "test-host")

	w, err := s.WriteStream(context.Background(), "/remote/out.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("hello-remote"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	meta, err := s.Stat(context.Background(), "/remote/out.txt")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, int64(len("hello-remote")), meta.Size)
	assert.Equal(t, EntryFile, meta.Type)

	r, err := s.ReadStream(context.Background(), "/remote/out.txt")
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello-remote", string(data))
}

func TestSSHSessionStatMissingPathReturnsNilNotError(t *testing.T) {
	s := newSSHSession(nil, newFakeSFTPClient(), "test-host")

	meta, err := s.Stat(context.Background(), "/remote/missing")
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestSSHSessionIDIncludesHost(t *testing.T) {
	s := newSSHSession(nil, newFakeSFTPClient(), "db-1.internal")
	assert.Equal(t, "ssh:db-1.internal", s.ID())
}
