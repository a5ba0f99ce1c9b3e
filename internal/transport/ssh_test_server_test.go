package transport

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"net"
	"os/exec"
	"sync"
	"testing"

	"golang.org/x/crypto/ssh"
)

// sshTestServer is a minimal pure-Go SSH server exposing only "exec"
// channels, enough to exercise SSHSession.Exec without a real sshd.
type sshTestServer struct {
	addr      string
	clientKey ssh.Signer
	listener  net.Listener
	wg        sync.WaitGroup
}

func startSSHTestServer(t *testing.T) *sshTestServer {
	t.Helper()

	_, hostPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Skipf("generate host key: %v", err)
	}
	hostKey, err := ssh.NewSignerFromKey(hostPriv)
	if err != nil {
		t.Skipf("host signer: %v", err)
	}

	clientPub, clientPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Skipf("generate client key: %v", err)
	}
	clientKey, err := ssh.NewSignerFromKey(clientPriv)
	if err != nil {
		t.Skipf("client signer: %v", err)
	}
	clientPubKey, err := ssh.NewPublicKey(clientPub)
	if err != nil {
		t.Skipf("client public key: %v", err)
	}

	config := &ssh.ServerConfig{
		PublicKeyCallback: func(_ ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if bytes.Equal(key.Marshal(), clientPubKey.Marshal()) {
				return &ssh.Permissions{}, nil
			}
			return nil, fmt.Errorf("unknown public key")
		},
	}
	config.AddHostKey(hostKey)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("listen: %v", err)
	}

	srv := &sshTestServer{addr: listener.Addr().String(), clientKey: clientKey, listener: listener}
	srv.wg.Add(1)
	go srv.acceptLoop(config)
	t.Cleanup(srv.stop)
	return srv
}

func (s *sshTestServer) acceptLoop(config *ssh.ServerConfig) {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go s.handleConn(conn, config)
	}
}

func (s *sshTestServer) handleConn(netConn net.Conn, config *ssh.ServerConfig) {
	defer s.wg.Done()
	defer func() { _ = netConn.Close() }()

	sshConn, chans, reqs, err := ssh.NewServerConn(netConn, config)
	if err != nil {
		return
	}
	defer func() { _ = sshConn.Close() }()
	go ssh.DiscardRequests(reqs)

	for newChannel := range chans {
		s.wg.Add(1)
		go s.handleChannel(newChannel)
	}
}

func (s *sshTestServer) handleChannel(newChannel ssh.NewChannel) {
	defer s.wg.Done()
	if newChannel.ChannelType() != "session" {
		_ = newChannel.Reject(ssh.UnknownChannelType, "unknown channel type")
		return
	}
	channel, requests, err := newChannel.Accept()
	if err != nil {
		return
	}
	defer func() { _ = channel.Close() }()

	for req := range requests {
		if req.Type != "exec" {
			if req.WantReply {
				_ = req.Reply(false, nil)
			}
			continue
		}
		s.handleExec(channel, req)
	}
}

func (s *sshTestServer) handleExec(channel ssh.Channel, req *ssh.Request) {
	var execReq struct{ Command string }
	if err := ssh.Unmarshal(req.Payload, &execReq); err != nil {
		if req.WantReply {
			_ = req.Reply(false, nil)
		}
		return
	}
	if req.WantReply {
		_ = req.Reply(true, nil)
	}

	cmd := exec.Command("sh", "-c", execReq.Command)
	cmd.Stdout = channel
	cmd.Stderr = channel.Stderr()

	exitCode := 0
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = 1
		}
	}

	status := struct{ Status uint32 }{uint32(exitCode)}
	_, _ = channel.SendRequest("exit-status", false, ssh.Marshal(&status))
	_ = channel.Close()
}

func (s *sshTestServer) stop() {
	_ = s.listener.Close()
	s.wg.Wait()
}

func (s *sshTestServer) dial() (*ssh.Client, error) {
	config := &ssh.ClientConfig{
		User:            "tester",
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(s.clientKey)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}
	return ssh.Dial("tcp", s.addr, config)
}
