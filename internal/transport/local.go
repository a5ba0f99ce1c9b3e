package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/myfavshrimp/arc/internal/invariant"
)

// LocalSession implements Session against the machine Arc itself runs on.
type LocalSession struct {
	shell string
}

// NewLocalSession creates a Session backed by os/exec and the local
// filesystem. shell is the interpreter used for Exec on Unix; an empty shell
// selects $SHELL, falling back to "/bin/sh". On Windows Exec always runs
// through "cmd /C".
func NewLocalSession(shell string) *LocalSession {
	if shell == "" {
		shell = defaultShell()
	}
	return &LocalSession{shell: shell}
}

func (s *LocalSession) Exec(ctx context.Context, cmd string) (ExecResult, error) {
	invariant.NotNil(ctx, "ctx")
	invariant.Precondition(cmd != "", "cmd must not be empty")

	shell, flag := shellInvocation(s.shell)
	c := exec.CommandContext(ctx, shell, flag, cmd)
	configureCommandForCancellation(c)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	done := make(chan error, 1)
	if err := c.Start(); err != nil {
		return ExecResult{}, err
	}
	go func() { done <- c.Wait() }()

	select {
	case <-ctx.Done():
		terminateCommandOnCancel(c)
		<-done
		return ExecResult{ExitCode: -1}, ctx.Err()
	case err := <-done:
		exitCode := 0
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				exitCode = exitErr.ExitCode()
			} else {
				return ExecResult{}, err
			}
		}
		return ExecResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), ExitCode: exitCode}, nil
	}
}

func (s *LocalSession) Stat(_ context.Context, path string) (*Metadata, error) {
	info, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return localMetadata(path, info), nil
}

func (s *LocalSession) ReadStream(_ context.Context, path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func (s *LocalSession) WriteStream(_ context.Context, path string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.Create(path)
}

func (s *LocalSession) Chmod(_ context.Context, path string, mode uint32) error {
	return os.Chmod(path, os.FileMode(mode))
}

func (s *LocalSession) MkdirAll(_ context.Context, path string) error {
	return os.MkdirAll(path, 0o755)
}

func (s *LocalSession) Remove(_ context.Context, path string) error {
	return os.Remove(path)
}

func (s *LocalSession) RemoveAll(_ context.Context, path string) error {
	return os.RemoveAll(path)
}

func (s *LocalSession) Rename(_ context.Context, from, to string) error {
	return os.Rename(from, to)
}

func (s *LocalSession) List(_ context.Context, path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, nil
}

func (s *LocalSession) ID() string { return "local" }

func (s *LocalSession) Close() error { return nil }

func localMetadata(path string, info os.FileInfo) *Metadata {
	entryType := EntryUnknown
	switch {
	case info.Mode().IsRegular():
		entryType = EntryFile
	case info.IsDir():
		entryType = EntryDirectory
	}
	return &Metadata{
		Path:       path,
		Size:       info.Size(),
		Permission: uint32(info.Mode().Perm()),
		Type:       entryType,
		Modified:   info.ModTime(),
		HasOwner:   false,
	}
}

func defaultShell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/sh"
}
