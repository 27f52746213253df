package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/dronepath/autopilot/internal/api"
	"github.com/dronepath/autopilot/internal/dispatcher"
	"github.com/dronepath/autopilot/internal/handlers"
	"github.com/dronepath/autopilot/internal/playback"
	"github.com/dronepath/autopilot/internal/storage"
	"github.com/dronepath/autopilot/internal/transport"
	"github.com/dronepath/autopilot/internal/worker"
	"github.com/dronepath/autopilot/pkg/core"
)

// registerLifecycleHandlers registers process-level queries with the dispatcher
func (a *app) registerLifecycleHandlers(d *dispatcher.Dispatcher, client *api.Client) {
	d.Register(":VERSION:", func(_ context.Context, _ dispatcher.Event) (any, error) {
		return []string{CurrentVersion, BuildDate}, nil
	})

	d.Register(":HEALTH:", func(ctx context.Context, _ dispatcher.Event) (any, error) {
		if err := client.Healthcheck(ctx); err != nil {
			return nil, err
		}
		return "online", nil
	})

	d.Register(":PLANS:", func(_ context.Context, _ dispatcher.Event) (any, error) {
		store, ok := a.backend.(storage.PlanStore)
		if !ok {
			return nil, handlers.ErrNoPlanStore
		}
		return store.ListPlans()
	})

	d.Register(":HELP:", func(_ context.Context, _ dispatcher.Event) (any, error) {
		return d.Commands(), nil
	})
}

// normalizeLine strips comments and turns bare intent lists into an :INTENTS: event.
// It reports false for lines with nothing to dispatch.
func normalizeLine(line string) (string, bool) {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false
	}
	if !strings.HasPrefix(line, ":") {
		line = ":INTENTS: " + line
	}
	return line, true
}

// runScripts dispatches every line of the given files in order, or of in when no file
// is given. Failed lines are reported and skipped.
func (a *app) runScripts(ctx context.Context, paths []string, in io.Reader, out io.Writer) error {
	if len(paths) == 0 {
		return a.runScript(ctx, "stdin", in, out)
	}
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return fmt.Errorf("open script: %w", err)
		}
		err = a.runScript(ctx, p, f, out)
		_ = f.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// syncWriter serializes script output with the cursor echo goroutines.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (a *app) runScript(ctx context.Context, name string, in io.Reader, w io.Writer) error {
	out := &syncWriter{w: w}
	stop := a.echoCursor(ctx, out)
	defer stop()

	sc := bufio.NewScanner(in)
	lineNo := 0
	failed := 0
	for sc.Scan() {
		lineNo++
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line, ok := normalizeLine(sc.Text())
		if !ok {
			continue
		}

		res, err := a.dispatcher.DispatchLine(ctx, line)
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s:%d: %v\n", name, lineNo, err)
			a.log.Warn("Script line failed", "script", name, "line", lineNo, "event", line, "error", err)
		}
		if res != nil {
			printResult(out, res)
		}
		if play, ok := res.(worker.PlayResult); ok {
			if err := a.wait(ctx, play); err != nil {
				return err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	a.log.Info("Script finished", "script", name, "lines", lineNo, "failed", failed)
	return nil
}

// wait blocks until a preview run releases. An interrupt stops the run first.
func (a *app) wait(ctx context.Context, play worker.PlayResult) error {
	select {
	case <-play.Done:
		return nil
	case <-ctx.Done():
		a.service.Stop()
		<-play.Done
		return ctx.Err()
	}
}

// echoCursor prints cursor writes and animation frames as configured. The returned
// func stops the echo and waits until everything received has been printed.
func (a *app) echoCursor(ctx context.Context, out io.Writer) func() {
	echoCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup

	if a.opts.Follow {
		stream := a.engine.Cursor().Stream(echoCtx, 64)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range stream.Receive() {
				fmt.Fprintf(out, "  cursor %s\n", formatVec(p))
			}
			if n := stream.Dropped(); n > 0 {
				a.log.Debug("Cursor positions dropped", "count", n)
			}
		}()
	}
	if a.opts.Frame > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cursor := a.engine.Cursor()
			playback.Follow(echoCtx, cursor, a.opts.Frame, cursor.Position(), func(p core.Vec3) {
				fmt.Fprintf(out, "  frame %s\n", formatVec(p))
			})
		}()
	}

	return func() {
		cancel()
		wg.Wait()
	}
}

func formatVec(v core.Vec3) string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v.X, v.Y, v.Z)
}

func printResult(w io.Writer, res any) {
	switch v := res.(type) {
	case handlers.Status:
		fmt.Fprintf(w, "plan=%q heading=%s instructions=%d tip=%s path=%.2f playing=%t",
			v.Plan, v.Orientation, v.Instructions, formatVec(v.Tip), v.PathLength, v.Playing)
		if len(v.Blocked) > 0 {
			blocked := make([]string, len(v.Blocked))
			for i, t := range v.Blocked {
				blocked[i] = string(t)
			}
			fmt.Fprintf(w, " blocked=%s", strings.Join(blocked, ","))
		}
		if v.LastSend != nil {
			fmt.Fprintf(w, " lastSend=%d", v.LastSend.Commands)
			if v.LastSend.Err != nil {
				fmt.Fprintf(w, " (%v)", v.LastSend.Err)
			}
		}
		fmt.Fprintln(w)
	case worker.UndoResult:
		fmt.Fprintf(w, "removed %q\n", v.Removed.Label)
		printResult(w, v.Status)
	case worker.PlayResult:
		fmt.Fprintf(w, "playing %q (flight %d, %d steps)\n", v.Flight.PlanName, v.Flight.ID, v.Flight.Steps)
	case core.Plan:
		fmt.Fprintf(w, "saved plan %q (%d commands)\n", v.Name, len(v.Commands))
	case transport.Report:
		fmt.Fprintf(w, "sent %d commands, %d holds\n", v.Sent, v.Held)
	case []string:
		for _, s := range v {
			fmt.Fprintf(w, "  %s\n", s)
		}
	default:
		fmt.Fprintf(w, "%v\n", v)
	}
}
