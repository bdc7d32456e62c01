// Package netwatch answers whether the cloud transcription service is
// reachable from here.
package netwatch

import (
	"context"
	"net"
	"time"
)

// DefaultAddr is dialed when no probe address is configured.
const DefaultAddr = "1.1.1.1:443"

// Prober reports connectivity by opening a TCP connection.
type Prober struct {
	addr    string
	timeout time.Duration
}

// NewProber returns a prober for addr. A zero timeout means two seconds.
func NewProber(addr string, timeout time.Duration) *Prober {
	if addr == "" {
		addr = DefaultAddr
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Prober{addr: addr, timeout: timeout}
}

// Addr returns the dialed address.
func (p *Prober) Addr() string { return p.addr }

// Online dials the probe address and reports whether it answered in time.
func (p *Prober) Online(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", p.addr)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
