package transport

import (
	"io"
	"io/fs"

	"github.com/pkg/sftp"
)

// sftpClient is the subset of *sftp.Client's surface SSHSession needs,
// narrowed to interfaces so tests can substitute an in-memory fake instead
// of dialing a real SFTP subsystem.
type sftpClient interface {
	Open(path string) (io.ReadCloser, error)
	Create(path string) (io.WriteCloser, error)
	Stat(path string) (fs.FileInfo, error)
	Chmod(path string, mode fs.FileMode) error
	MkdirAll(path string) error
	Remove(path string) error
	RemoveAll(path string) error
	Rename(oldname, newname string) error
	ReadDir(path string) ([]fs.FileInfo, error)
	Close() error
}

// realSFTPClient adapts *sftp.Client to the sftpClient interface.
type realSFTPClient struct {
	*sftp.Client
}

func (c *realSFTPClient) Open(path string) (io.ReadCloser, error) {
	return c.Client.Open(path)
}

func (c *realSFTPClient) Create(path string) (io.WriteCloser, error) {
	return c.Client.Create(path)
}
