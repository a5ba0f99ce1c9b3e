package transport

import (
	"fmt"
	"sync"
)

// Pool lazily dials one Session per remote target (user, host and port) and
// reuses it for the lifetime of a run.
type Pool struct {
	mu       sync.Mutex
	sessions map[string]Session
	dial     func(target SSHTarget) (*SSHSession, error)
}

// NewPool creates an empty pool. dial is injectable so tests can substitute
// a fake SSH dialer without a real network connection.
func NewPool(dial func(target SSHTarget) (*SSHSession, error)) *Pool {
	if dial == nil {
		dial = DialSSH
	}
	return &Pool{sessions: make(map[string]Session), dial: dial}
}

// Local returns the (singleton) local session, creating it on first use.
func (p *Pool) Local() Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.sessions["local"]; ok {
		return s
	}
	s := NewLocalSession("")
	p.sessions["local"] = s
	return s
}

// Remote returns the pooled SSH session for target, dialing it on first use.
func (p *Pool) Remote(target SSHTarget) (Session, error) {
	key := fmt.Sprintf("ssh:%s@%s:%d", target.User, target.Host, target.Port)
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.sessions[key]; ok {
		return s, nil
	}
	s, err := p.dial(target)
	if err != nil {
		return nil, err
	}
	p.sessions[key] = s
	return s, nil
}

// CloseAll closes every pooled session, best-effort, and empties the pool.
func (p *Pool) CloseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.sessions {
		_ = s.Close()
	}
	p.sessions = make(map[string]Session)
}
