// Package dispatcher routes textual operator events such as ":INTENT: forward" to
// their handlers.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/dronepath/autopilot/internal/dispatcher"

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrQueueFull      = errors.New("queue full")
	ErrMalformedEvent = errors.New("malformed event")
	ErrClosed         = errors.New("dispatcher closed")
)

// Event is one operator command, e.g. ":INTENT:" with args ["cw", "180"].
type Event struct {
	Command   string
	Args      []string
	Timestamp time.Time
	Seq       uint64
}

// ParseEvent splits a line of the form ":NAME: arg1 arg2".
func ParseEvent(line string) (Event, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Event{}, fmt.Errorf("%w: empty line", ErrMalformedEvent)
	}
	cmd := strings.ToUpper(fields[0])
	if len(cmd) < 3 || !strings.HasPrefix(cmd, ":") || !strings.HasSuffix(cmd, ":") {
		return Event{}, fmt.Errorf("%w: %q is not a :COMMAND:", ErrMalformedEvent, fields[0])
	}
	return Event{Command: cmd, Args: fields[1:], Timestamp: time.Now()}, nil
}

// Arg returns the i-th argument or "".
func (e Event) Arg(i int) string {
	if i < len(e.Args) {
		return e.Args[i]
	}
	return ""
}

// HandlerFunc processes an event and returns a result.
type HandlerFunc func(context.Context, Event) (any, error)

// Logger interface for pluggable logging. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*options)

type options struct {
	bufferSize int
	blocking   bool
	logged     bool
	serialized bool
	timeout    time.Duration
}

// Buffered makes the handler async with a queue of the given size.
func Buffered(size int) Option {
	return func(o *options) { o.bufferSize = size }
}

// Blocking makes a buffered handler block when the queue is full instead of dropping.
func Blocking() Option {
	return func(o *options) { o.blocking = true }
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(o *options) { o.logged = true }
}

// Serialized runs the handler under the dispatcher-wide edit lock, so session
// mutations from different callers never interleave.
func Serialized() Option {
	return func(o *options) { o.serialized = true }
}

// Timeout bounds the context passed to the handler.
func Timeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// Dispatcher routes events to registered handlers.
type Dispatcher struct {
	handlers map[string]HandlerFunc
	logger   Logger
	seq      atomic.Uint64
	editMu   sync.Mutex

	queueSize metric.Int64ObservableGauge
	processed metric.Int64Counter
	dropped   metric.Int64Counter

	mu      sync.RWMutex
	buffers map[string]chan queued
	closed  bool
	workers sync.WaitGroup
}

type queued struct {
	ctx context.Context
	e   Event
}

// New creates a Dispatcher using the global OTel meter (no-op if not configured).
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		handlers: make(map[string]HandlerFunc),
		buffers:  make(map[string]chan queued),
		logger:   logger,
	}

	m := otel.Meter(instrumentationName)

	var err error
	d.queueSize, err = m.Int64ObservableGauge(
		"dispatcher.queue.size",
		metric.WithDescription("Current number of events in queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			d.mu.RLock()
			defer d.mu.RUnlock()
			for cmd, buf := range d.buffers {
				o.ObserveInt64(d.queueSize, int64(len(buf)),
					metric.WithAttributes(attribute.String("command", cmd)))
			}
			return nil
		},
		d.queueSize,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	d.processed, err = m.Int64Counter(
		"dispatcher.events.processed",
		metric.WithDescription("Total events processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	d.dropped, err = m.Int64Counter(
		"dispatcher.events.dropped",
		metric.WithDescription("Total events dropped due to full queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	return d, nil
}

// Register adds a handler for the given command. Wrappers apply inside out:
// timeout, serialization, logging, then buffering.
func (d *Dispatcher) Register(command string, h HandlerFunc, opts ...Option) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	handler := h
	if o.timeout > 0 {
		handler = withTimeout(o.timeout, handler)
	}
	if o.serialized {
		handler = d.withEditLock(handler)
	}
	if o.logged {
		handler = d.withLogging(command, handler)
	}
	if o.bufferSize > 0 {
		handler = d.withBuffer(command, o.bufferSize, o.blocking, handler)
	}

	d.mu.Lock()
	d.handlers[command] = handler
	d.mu.Unlock()
}

// Dispatch routes an event to its registered handler.
func (d *Dispatcher) Dispatch(ctx context.Context, e Event) (any, error) {
	d.mu.RLock()
	h, ok := d.handlers[e.Command]
	closed := d.closed
	d.mu.RUnlock()

	if closed {
		return nil, ErrClosed
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, e.Command)
	}
	if e.Seq == 0 {
		e.Seq = d.seq.Add(1)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	return h(ctx, e)
}

// DispatchLine parses and dispatches one textual event.
func (d *Dispatcher) DispatchLine(ctx context.Context, line string) (any, error) {
	e, err := ParseEvent(line)
	if err != nil {
		return nil, err
	}
	return d.Dispatch(ctx, e)
}

// HasHandler returns true if a handler is registered for the command.
func (d *Dispatcher) HasHandler(command string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.handlers[command]
	return ok
}

// Commands lists registered commands in sorted order.
func (d *Dispatcher) Commands() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.handlers))
	for c := range d.handlers {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Close stops accepting events and waits for buffered handlers to drain.
// Callers must not Dispatch concurrently with Close.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, buf := range d.buffers {
		close(buf)
	}
	d.mu.Unlock()

	d.workers.Wait()
}

func (d *Dispatcher) withBuffer(command string, size int, blocking bool, h HandlerFunc) HandlerFunc {
	buffer := make(chan queued, size)

	d.mu.Lock()
	d.buffers[command] = buffer
	d.mu.Unlock()

	cmdAttr := attribute.String("command", command)

	d.workers.Add(1)
	go func() {
		defer d.workers.Done()
		for q := range buffer {
			if _, err := h(q.ctx, q.e); err != nil {
				d.logger.Error("buffered event failed", "command", command, "seq", q.e.Seq, "error", err)
			}
			d.processed.Add(context.Background(), 1, metric.WithAttributes(cmdAttr))
		}
	}()

	if blocking {
		return func(ctx context.Context, e Event) (any, error) {
			select {
			case buffer <- queued{context.WithoutCancel(ctx), e}:
				return "queued", nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return func(ctx context.Context, e Event) (any, error) {
		select {
		case buffer <- queued{context.WithoutCancel(ctx), e}:
			return "queued", nil
		default:
			d.dropped.Add(context.Background(), 1, metric.WithAttributes(cmdAttr))
			return nil, fmt.Errorf("%w: %s", ErrQueueFull, command)
		}
	}
}

func (d *Dispatcher) withEditLock(h HandlerFunc) HandlerFunc {
	return func(ctx context.Context, e Event) (any, error) {
		d.editMu.Lock()
		defer d.editMu.Unlock()
		return h(ctx, e)
	}
}

func withTimeout(timeout time.Duration, h HandlerFunc) HandlerFunc {
	return func(ctx context.Context, e Event) (any, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return h(ctx, e)
	}
}

func (d *Dispatcher) withLogging(command string, h HandlerFunc) HandlerFunc {
	return func(ctx context.Context, e Event) (any, error) {
		start := time.Now()
		d.logger.Debug("handling event", "command", command, "seq", e.Seq, "args", len(e.Args))

		result, err := h(ctx, e)

		if err != nil {
			d.logger.Error("event failed", "command", command, "seq", e.Seq, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("event complete", "command", command, "seq", e.Seq, "duration", time.Since(start))
		}
		return result, err
	}
}
