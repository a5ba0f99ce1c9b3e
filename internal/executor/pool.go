package executor

import (
	"fmt"

	"github.com/myfavshrimp/arc/internal/registry"
	"github.com/myfavshrimp/arc/internal/transport"
)

// TransportPool adapts a *transport.Pool and a Registry's Target map into
// the Executor's narrow Pool interface.
type TransportPool struct {
	Registry  *registry.Registry
	Transport *transport.Pool
}

// SessionFor resolves system to a local or SSH session depending on how it
// was declared in the Registry.
func (p *TransportPool) SessionFor(system string) (transport.Session, error) {
	target, ok := p.Registry.Systems()[system]
	if !ok {
		return nil, fmt.Errorf("unknown system %q", system)
	}
	if target.IsLocal() {
		return p.Transport.Local(), nil
	}
	port := target.Remote.Port
	if port == 0 {
		port = 22
	}
	return p.Transport.Remote(transport.SSHTarget{
		Host: target.Remote.Address,
		Port: port,
		User: target.Remote.User,
	})
}
