// Package channel provides generic channel interfaces for decoupled communication
// between the playback cursor and its consumers.
package channel

import "sync"

// Receiver provides read access to a channel.
type Receiver[T any] interface {
	Receive() <-chan T
	Len() int
}

// Sender provides write access to a channel. Both methods report false once the
// channel is closed.
type Sender[T any] interface {
	// Send blocks until the value is accepted or the channel closes.
	Send(T) bool
	// TrySend never blocks.
	TrySend(T) bool
}

// Channel combines read and write access. Close is idempotent and safe to call while
// senders are blocked.
type Channel[T any] interface {
	Receiver[T]
	Sender[T]
	Close()
}

// pipe holds the state shared by both channel flavours.
type pipe[T any] struct {
	ch     chan T
	done   chan struct{}
	once   sync.Once
	mu     sync.RWMutex
	closed bool
}

func newPipe[T any](size int) pipe[T] {
	return pipe[T]{ch: make(chan T, size), done: make(chan struct{})}
}

func (p *pipe[T]) send(v T) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.ch <- v:
		return true
	case <-p.done:
		return false
	}
}

func (p *pipe[T]) trySend(v T) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.ch <- v:
		return true
	default:
		return false
	}
}

func (p *pipe[T]) close() {
	p.once.Do(func() {
		close(p.done)
		p.mu.Lock()
		p.closed = true
		close(p.ch)
		p.mu.Unlock()
	})
}
