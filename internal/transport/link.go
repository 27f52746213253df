// Package transport delivers compiled command sequences to the drone over its SDK text
// protocol: one command per datagram, each answered with "ok" or an error string.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// DefaultAddress is the SDK endpoint of the drone access point.
const DefaultAddress = "192.168.10.1:8889"

const maxReply = 1518

// ErrClosed is returned by a link used after Close.
var ErrClosed = errors.New("link closed")

// Link exchanges a single command for a single reply.
type Link interface {
	Exchange(ctx context.Context, cmd string) (string, error)
	Close() error
}

// UDPLink talks to the drone over UDP. Exchanges are serialized.
type UDPLink struct {
	mu     sync.Mutex
	conn   *net.UDPConn
	closed bool
}

// DialUDP opens a link to address. local may be empty to let the OS pick the port.
func DialUDP(address, local string) (*UDPLink, error) {
	if address == "" {
		address = DefaultAddress
	}
	raddr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, fmt.Errorf("resolve drone address %s: %w", address, err)
	}
	var laddr *net.UDPAddr
	if local != "" {
		laddr, err = net.ResolveUDPAddr("udp", local)
		if err != nil {
			return nil, fmt.Errorf("resolve local address %s: %w", local, err)
		}
	}
	conn, err := net.DialUDP("udp", laddr, raddr)
	if err != nil {
		return nil, fmt.Errorf("dial drone %s: %w", address, err)
	}
	return &UDPLink{conn: conn}, nil
}

// Exchange writes cmd and waits for one reply datagram. The context deadline, if any,
// bounds the wait.
func (l *UDPLink) Exchange(ctx context.Context, cmd string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return "", ErrClosed
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	if err := l.conn.SetDeadline(deadline); err != nil {
		return "", err
	}

	// unblock the read when the context is cancelled without a deadline
	stop := context.AfterFunc(ctx, func() {
		l.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	if _, err := l.conn.Write([]byte(cmd)); err != nil {
		return "", fmt.Errorf("write %q: %w", cmd, err)
	}
	buf := make([]byte, maxReply)
	n, err := l.conn.Read(buf)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("read reply to %q: %w", cmd, err)
	}
	return strings.TrimSpace(string(buf[:n])), nil
}

// Close releases the socket.
func (l *UDPLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.conn.Close()
}
