// Package content implements Arc's lazy FileContent handle. SetContentFrom
// streams one handle's bytes into another, possibly on a different system,
// without buffering the whole payload in memory. The script binding uses it
// when a file handle itself is assigned to another handle's .content
// ("dst.content = src"); reading src.content buffers the whole file into a
// string, so "dst.content = src.content" is a buffered copy.
package content

import (
	"context"
	"io"

	"github.com/myfavshrimp/arc/internal/invariant"
	"github.com/myfavshrimp/arc/internal/transport"
)

// copyBufferSize bounds the transfer buffer used for cross-handle streaming
// copies; it is what keeps peak memory flat regardless of file size.
const copyBufferSize = 32 * 1024

// FileHandle is a lazy reference to a path on a particular session. Creating
// one performs no I/O; I/O happens only when Content, SetContent, or
// SetContentFrom is called.
type FileHandle struct {
	System transport.Session
	Path   string
}

// New creates a handle for path on the given session.
func New(session transport.Session, path string) *FileHandle {
	invariant.NotNil(session, "session")
	return &FileHandle{System: session, Path: path}
}

// Content opens a stream over the handle's current bytes. The caller must
// close the returned reader.
func (h *FileHandle) Content(ctx context.Context) (io.ReadCloser, error) {
	return h.System.ReadStream(ctx, h.Path)
}

// String fully buffers the handle's content into memory and returns it as a
// string. The script binding uses it when a script reads handle.content or
// calls tostring(handle).
func (h *FileHandle) String(ctx context.Context) (string, error) {
	r, err := h.Content(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SetContent writes s as the handle's new content, replacing whatever was
// there.
func (h *FileHandle) SetContent(ctx context.Context, s string) error {
	w, err := h.System.WriteStream(ctx, h.Path)
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(s)); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// SetContentFrom streams src's bytes into h without ever holding the full
// payload in memory: a fixed-size buffer shuttles bytes from src's read
// stream into h's write stream. The script binding calls it for
// "dst.content = src", where src is a file handle.
func (h *FileHandle) SetContentFrom(ctx context.Context, src *FileHandle) error {
	invariant.NotNil(src, "src")

	r, err := src.Content(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	w, err := h.System.WriteStream(ctx, h.Path)
	if err != nil {
		return err
	}

	buf := make([]byte, copyBufferSize)
	if _, err := io.CopyBuffer(w, r, buf); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
