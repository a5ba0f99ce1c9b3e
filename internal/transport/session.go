// Package transport implements the uniform execution surface Arc scripts see
// through the system binding: local process execution or SSH+SFTP against a
// remote target, behind one Session interface.
package transport

import (
	"context"
	"io"
	"time"
)

// Session represents a place commands run and files live: the local
// machine, or a single SSH-reachable remote host. Every operation exposed to
// scripts through the "system" binding is implemented in terms of Session.
type Session interface {
	// Exec runs cmd through the session's shell and returns its outcome.
	// A non-zero ExitCode is not itself an error - callers decide.
	Exec(ctx context.Context, cmd string) (ExecResult, error)

	// Stat returns metadata for path, or (nil, nil) if path does not exist.
	Stat(ctx context.Context, path string) (*Metadata, error)

	// ReadStream opens path for streaming reads. Callers must Close it.
	ReadStream(ctx context.Context, path string) (io.ReadCloser, error)

	// WriteStream opens path for streaming writes, truncating any existing
	// content. Callers must Close it to flush and finalize the write.
	WriteStream(ctx context.Context, path string) (io.WriteCloser, error)

	Chmod(ctx context.Context, path string, mode uint32) error
	MkdirAll(ctx context.Context, path string) error
	Remove(ctx context.Context, path string) error
	RemoveAll(ctx context.Context, path string) error
	Rename(ctx context.Context, from, to string) error

	// List returns the ordered names of path's direct children.
	List(ctx context.Context, path string) ([]string, error)

	// ID uniquely identifies the session: "local" or "ssh:<host>".
	ID() string

	Close() error
}

// EntryType classifies a path's filesystem entry.
type EntryType int

const (
	EntryUnknown EntryType = iota
	EntryFile
	EntryDirectory
)

// Metadata describes a single filesystem entry. Uid/Gid are unset (zero
// value) on the local session, which has no remote-ownership concept to
// report distinct from the invoking process.
type Metadata struct {
	Path       string
	Size       int64
	Permission uint32
	Type       EntryType
	UID        int
	GID        int
	Accessed   time.Time
	Modified   time.Time
	HasOwner   bool // true only for sessions that can report UID/GID
}

// ExecResult is the outcome of Session.Exec.
type ExecResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}
