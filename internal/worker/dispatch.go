package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dronepath/autopilot/internal/dispatcher"
	"github.com/dronepath/autopilot/internal/handlers"
	"github.com/dronepath/autopilot/pkg/core"
)

// UndoResult is returned for ":UNDO:".
type UndoResult struct {
	Removed core.Instruction
	Status  handlers.Status
}

// PlayResult is returned for ":PLAY:".
type PlayResult struct {
	Flight core.Flight
	Done   <-chan struct{}
}

// RegisterHandlers registers all operator event handlers with the dispatcher.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	// Session edits - sync and serialized so taps from several clients never interleave
	d.Register(":INTENT:", m.handleIntent, dispatcher.Serialized(), dispatcher.Logged())
	d.Register(":INTENTS:", m.handleIntents, dispatcher.Serialized(), dispatcher.Logged())
	d.Register(":UNDO:", m.handleUndo, dispatcher.Serialized(), dispatcher.Logged())
	d.Register(":CLEAR:", m.handleClear, dispatcher.Serialized(), dispatcher.Logged())
	d.Register(":IMPORT:", m.handleImport, dispatcher.Serialized(), dispatcher.Logged())

	// Preview playback - the run continues after the handler returns
	d.Register(":PLAY:", m.handlePlay, dispatcher.Serialized(), dispatcher.Logged())
	d.Register(":STOP:", m.handleStop, dispatcher.Logged())

	d.Register(":EXPORT:", m.handleExport, dispatcher.Logged())

	// Drone delivery waits for an ack per command - buffered so status stays responsive
	sendOpts := []dispatcher.Option{dispatcher.Buffered(4), dispatcher.Logged()}
	if m.deps.SendTimeout > 0 {
		sendOpts = append(sendOpts, dispatcher.Timeout(m.deps.SendTimeout))
	}
	d.Register(":SEND:", m.handleSend, sendOpts...)

	// Read-only queries
	d.Register(":COMMANDS:", m.handleCommands)
	d.Register(":STATUS:", m.handleStatus)
}

func (m *Manager) logger() *slog.Logger {
	if m.deps.LogManager != nil {
		if l := m.deps.LogManager.Logger(); l != nil {
			return l
		}
	}
	return slog.Default()
}

func (m *Manager) handleIntent(_ context.Context, e dispatcher.Event) (any, error) {
	in, err := m.deps.ParserService.ParseIntent(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse intent: %w", err)
	}
	if _, err := m.deps.Service.Intent(in); err != nil {
		return nil, err
	}
	return m.deps.Service.Status(), nil
}

func (m *Manager) handleIntents(_ context.Context, e dispatcher.Event) (any, error) {
	intents, err := m.deps.ParserService.ParseIntents(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse intents: %w", err)
	}
	for i, in := range intents {
		if _, err := m.deps.Service.Intent(in); err != nil {
			return m.deps.Service.Status(), fmt.Errorf("intent %d of %d: %w", i+1, len(intents), err)
		}
	}
	return m.deps.Service.Status(), nil
}

func (m *Manager) handleUndo(_ context.Context, _ dispatcher.Event) (any, error) {
	_, removed, err := m.deps.Service.Undo()
	if err != nil {
		return nil, err
	}
	return UndoResult{Removed: removed, Status: m.deps.Service.Status()}, nil
}

func (m *Manager) handleClear(_ context.Context, _ dispatcher.Event) (any, error) {
	if _, err := m.deps.Service.Clear(); err != nil {
		return nil, err
	}
	return m.deps.Service.Status(), nil
}

func (m *Manager) handleImport(_ context.Context, e dispatcher.Event) (any, error) {
	req, err := m.deps.ParserService.ParseImport(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse import: %w", err)
	}
	if _, err := m.deps.Service.Import(req); err != nil {
		return nil, fmt.Errorf("failed to import %s %q: %w", req.Source, req.Name, err)
	}
	return m.deps.Service.Status(), nil
}

func (m *Manager) handlePlay(ctx context.Context, e dispatcher.Event) (any, error) {
	req := m.deps.ParserService.ParsePlay(e.Args)
	if len(e.Args) == 0 {
		req.Name = ""
	}
	run, err := m.deps.Service.Play(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	return PlayResult{Flight: run.Flight(), Done: run.Done()}, nil
}

func (m *Manager) handleStop(_ context.Context, _ dispatcher.Event) (any, error) {
	return m.deps.Service.Stop(), nil
}

func (m *Manager) handleExport(ctx context.Context, e dispatcher.Event) (any, error) {
	req, err := m.deps.ParserService.ParseExport(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse export: %w", err)
	}
	if len(e.Args) == 0 {
		req.Name = m.deps.Service.GetMissionContext().Plan()
	}
	plan, err := m.deps.Service.Export(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to export %q: %w", req.Name, err)
	}
	return plan, nil
}

func (m *Manager) handleSend(ctx context.Context, e dispatcher.Event) (any, error) {
	req := m.deps.ParserService.ParseSend(e.Args)
	commands, rep, err := m.deps.Service.Send(ctx, req.DryRun)
	if err != nil {
		return nil, fmt.Errorf("failed to send flight: %w", err)
	}
	if req.DryRun {
		return commands, nil
	}
	m.logger().Info("Flight delivered", "commands", rep.Sent, "holds", rep.Held, "seq", e.Seq)
	return rep, nil
}

func (m *Manager) handleCommands(_ context.Context, _ dispatcher.Event) (any, error) {
	return m.deps.Service.Commands(), nil
}

func (m *Manager) handleStatus(_ context.Context, _ dispatcher.Event) (any, error) {
	return m.deps.Service.Status(), nil
}
