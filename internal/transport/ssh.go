package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"

	"github.com/myfavshrimp/arc/internal/invariant"
)

// SSHTarget carries the dial parameters for a single remote target.
type SSHTarget struct {
	Host string
	Port int
	User string

	// KnownHostsPath overrides the default "~/.ssh/known_hosts" lookup.
	KnownHostsPath string
	// InsecureIgnoreHostKey disables host key verification (testing only).
	InsecureIgnoreHostKey bool
}

// SSHSession implements Session over an SSH connection: Exec runs through
// the remote shell, file operations go through SFTP.
type SSHSession struct {
	client *ssh.Client
	sftp   sftpClient
	host   string
}

// DialSSH opens an SSH connection and its companion SFTP subsystem,
// authenticating via the caller's SSH agent (no interactive prompting, per
// the scripted, unattended nature of an Arc run).
func DialSSH(target SSHTarget) (*SSHSession, error) {
	invariant.Precondition(target.Host != "", "target.Host must not be empty")

	port := target.Port
	if port == 0 {
		port = 22
	}
	user := target.User
	if user == "" {
		user = os.Getenv("USER")
	}

	auth, err := sshAgentAuth()
	if err != nil {
		return nil, fmt.Errorf("ssh auth: %w", err)
	}

	config := &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{auth},
		HostKeyCallback: hostKeyCallback(target),
	}

	addr := fmt.Sprintf("%s:%d", target.Host, port)
	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, fmt.Errorf("ssh dial %s: %w", addr, err)
	}

	sc, err := sftp.NewClient(client)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("sftp subsystem: %w", err)
	}

	return newSSHSession(client, &realSFTPClient{sc}, target.Host), nil
}

func newSSHSession(client *ssh.Client, sc sftpClient, host string) *SSHSession {
	return &SSHSession{client: client, sftp: sc, host: host}
}

func (s *SSHSession) Exec(ctx context.Context, cmd string) (ExecResult, error) {
	invariant.NotNil(ctx, "ctx")
	invariant.Precondition(cmd != "", "cmd must not be empty")

	if ctx.Err() != nil {
		return ExecResult{ExitCode: -1}, ctx.Err()
	}

	session, err := s.client.NewSession()
	if err != nil {
		return ExecResult{}, fmt.Errorf("new ssh session: %w", err)
	}
	defer func() { _ = session.Close() }()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- session.Run(cmd) }()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		return ExecResult{ExitCode: -1}, ctx.Err()
	case err := <-done:
		exitCode := 0
		if err != nil {
			var exitErr *ssh.ExitError
			if ok := asExitError(err, &exitErr); ok {
				exitCode = exitErr.ExitStatus()
			} else {
				return ExecResult{}, err
			}
		}
		return ExecResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), ExitCode: exitCode}, nil
	}
}

func asExitError(err error, target **ssh.ExitError) bool {
	if e, ok := err.(*ssh.ExitError); ok {
		*target = e
		return true
	}
	return false
}

func (s *SSHSession) Stat(_ context.Context, path string) (*Metadata, error) {
	info, err := s.sftp.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	entryType := EntryUnknown
	switch {
	case info.Mode().IsRegular():
		entryType = EntryFile
	case info.IsDir():
		entryType = EntryDirectory
	}
	meta := &Metadata{
		Path:       path,
		Size:       info.Size(),
		Permission: uint32(info.Mode().Perm()),
		Type:       entryType,
		Modified:   info.ModTime(),
	}
	// SFTP attributes carry the remote uid/gid and access time.
	if st, ok := info.Sys().(*sftp.FileStat); ok && st != nil {
		meta.UID = int(st.UID)
		meta.GID = int(st.GID)
		meta.Accessed = time.Unix(int64(st.Atime), 0)
		meta.HasOwner = true
	}
	return meta, nil
}

func (s *SSHSession) ReadStream(_ context.Context, path string) (io.ReadCloser, error) {
	return s.sftp.Open(path)
}

func (s *SSHSession) WriteStream(_ context.Context, path string) (io.WriteCloser, error) {
	return s.sftp.Create(path)
}

func (s *SSHSession) Chmod(_ context.Context, path string, mode uint32) error {
	return s.sftp.Chmod(path, os.FileMode(mode))
}

func (s *SSHSession) MkdirAll(_ context.Context, path string) error {
	return s.sftp.MkdirAll(path)
}

func (s *SSHSession) Remove(_ context.Context, path string) error {
	return s.sftp.Remove(path)
}

func (s *SSHSession) RemoveAll(_ context.Context, path string) error {
	return s.sftp.RemoveAll(path)
}

func (s *SSHSession) Rename(_ context.Context, from, to string) error {
	return s.sftp.Rename(from, to)
}

func (s *SSHSession) List(_ context.Context, path string) ([]string, error) {
	entries, err := s.sftp.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, nil
}

func (s *SSHSession) ID() string { return "ssh:" + s.host }

func (s *SSHSession) Close() error {
	sftpErr := s.sftp.Close()
	clientErr := s.client.Close()
	if sftpErr != nil {
		return sftpErr
	}
	return clientErr
}

func hostKeyCallback(target SSHTarget) ssh.HostKeyCallback {
	if target.InsecureIgnoreHostKey {
		return ssh.InsecureIgnoreHostKey()
	}

	path := target.KnownHostsPath
	if path == "" {
		path = os.ExpandEnv("$HOME/.ssh/known_hosts")
	}

	callback, err := loadKnownHosts(path)
	if err != nil {
		// No known_hosts to verify against: accept any host key rather than
		// fail a run that would otherwise never have a chance to connect.
		return ssh.InsecureIgnoreHostKey()
	}
	return callback
}

func loadKnownHosts(path string) (ssh.HostKeyCallback, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	known := make(map[string]ssh.PublicKey)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		pubKey, _, _, _, err := ssh.ParseAuthorizedKey([]byte(fields[1] + " " + fields[2]))
		if err != nil {
			continue
		}
		known[fields[0]+":"+pubKey.Type()] = pubKey
	}

	return func(hostname string, _ net.Addr, key ssh.PublicKey) error {
		// The dial address is "host:port"; known_hosts writes port 22 as a
		// bare host and any other port as "[host]:port".
		if h, p, err := net.SplitHostPort(hostname); err == nil {
			if p == "22" {
				hostname = h
			} else {
				hostname = "[" + h + "]:" + p
			}
		}
		known, ok := known[hostname+":"+key.Type()]
		if !ok {
			return fmt.Errorf("host key not found in known_hosts for %s", hostname)
		}
		if !bytes.Equal(key.Marshal(), known.Marshal()) {
			return fmt.Errorf("host key mismatch for %s", hostname)
		}
		return nil
	}, nil
}

func sshAgentAuth() (ssh.AuthMethod, error) {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil, fmt.Errorf("SSH_AUTH_SOCK not set; no ssh-agent to authenticate with")
	}
	conn, err := net.Dial("unix", socket)
	if err != nil {
		return nil, fmt.Errorf("dial ssh-agent: %w", err)
	}
	agentClient := agent.NewClient(conn)
	return ssh.PublicKeysCallback(agentClient.Signers), nil
}
