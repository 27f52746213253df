package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dronepath/autopilot/internal/command"
	"github.com/dronepath/autopilot/internal/config"
)

// ErrNotAcknowledged is returned when the drone answers anything but "ok" or never
// answers within the retry budget.
var ErrNotAcknowledged = errors.New("command not acknowledged")

// Ack is the drone's positive reply.
const Ack = "ok"

// Options tune a Sender.
type Options struct {
	Timeout   time.Duration // per attempt
	Retries   int           // extra attempts after the first
	HoldDelay time.Duration // local pause for "hold"
}

// OptionsFrom builds sender options from the transport config and the playback hold delay.
func OptionsFrom(cfg config.TransportConfig, hold time.Duration) Options {
	return Options{Timeout: cfg.Timeout, Retries: cfg.Retries, HoldDelay: hold}
}

// Report summarizes a completed or aborted send.
type Report struct {
	Sent     int
	Held     int
	Attempts int
	Failed   string
}

// Sender pushes a command sequence through a Link.
type Sender struct {
	link  Link
	opts  Options
	log   *slog.Logger
	sleep func(context.Context, time.Duration) error
}

// NewSender wraps link. Zero timeout defaults to 10s.
func NewSender(link Link, opts Options, log *slog.Logger) *Sender {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if log == nil {
		log = slog.Default()
	}
	return &Sender{link: link, opts: opts, log: log, sleep: sleepCtx}
}

// Send enters SDK mode and then delivers commands one at a time, each waiting for "ok".
// A leading preamble in commands is skipped since Send always issues its own.
func (s *Sender) Send(ctx context.Context, commands []string) (Report, error) {
	var rep Report
	if err := s.exchange(ctx, command.Preamble, &rep); err != nil {
		return rep, err
	}

	for i, cmd := range commands {
		cmd = strings.TrimSpace(cmd)
		if cmd == "" || (i == 0 && cmd == command.Preamble) {
			continue
		}
		if cmd == command.Hold {
			if err := s.sleep(ctx, s.opts.HoldDelay); err != nil {
				return rep, err
			}
			rep.Held++
			continue
		}
		if err := s.exchange(ctx, cmd, &rep); err != nil {
			return rep, err
		}
		rep.Sent++
	}

	s.log.Info("Flight sent", "commands", rep.Sent, "holds", rep.Held, "attempts", rep.Attempts)
	return rep, nil
}

func (s *Sender) exchange(ctx context.Context, cmd string, rep *Report) error {
	var last error
	for attempt := 0; attempt <= s.opts.Retries; attempt++ {
		rep.Attempts++
		actx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
		reply, err := s.link.Exchange(actx, cmd)
		cancel()

		if ctx.Err() != nil {
			rep.Failed = cmd
			return ctx.Err()
		}
		switch {
		case err != nil:
			last = err
			s.log.Warn("Drone exchange failed", "command", cmd, "attempt", attempt+1, "error", err)
		case strings.EqualFold(reply, Ack):
			return nil
		default:
			// an explicit refusal is not retried
			rep.Failed = cmd
			return fmt.Errorf("%w: %q replied %q", ErrNotAcknowledged, cmd, reply)
		}
	}
	rep.Failed = cmd
	return fmt.Errorf("%w: %q after %d attempts: %v", ErrNotAcknowledged, cmd, s.opts.Retries+1, last)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
