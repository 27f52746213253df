// Package handlers binds operator requests to the flight session, the playback engine,
// plan storage and the drone transport.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dronepath/autopilot/internal/api"
	"github.com/dronepath/autopilot/internal/flight"
	"github.com/dronepath/autopilot/internal/geo"
	"github.com/dronepath/autopilot/internal/mission"
	"github.com/dronepath/autopilot/internal/parser"
	"github.com/dronepath/autopilot/internal/playback"
	"github.com/dronepath/autopilot/internal/storage"
	"github.com/dronepath/autopilot/internal/storage/memory"
	"github.com/dronepath/autopilot/internal/transport"
	"github.com/dronepath/autopilot/internal/util"
	"github.com/dronepath/autopilot/pkg/core"
)

var (
	ErrNoTransport  = errors.New("no drone transport configured")
	ErrNoPlanStore  = errors.New("storage backend does not persist plans")
	ErrEmptyCommand = errors.New("plan has no commands")
)

// Sender delivers a command sequence to the drone. *transport.Sender satisfies it.
type Sender interface {
	Send(ctx context.Context, commands []string) (transport.Report, error)
}

// Uploader pushes a saved plan to the web frontend. *api.Client satisfies it.
type Uploader interface {
	Upload(ctx context.Context, u api.PlanUpload) error
}

// PlanPublisher pushes a plan to a live visualizer. The websocket backend satisfies it.
type PlanPublisher interface {
	PublishPlan(p *core.Plan) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Session  *flight.Session
	Engine   *playback.Engine
	Backend  storage.Backend
	Sender   Sender
	Uploader Uploader
	Logger   *slog.Logger
	Tag      string
}

// Service provides handler methods for operator requests
type Service struct {
	deps Dependencies
	ctx  *mission.Context
	log  *slog.Logger
}

// NewService creates a new handler service
func NewService(deps Dependencies, ctx *mission.Context) *Service {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	if ctx == nil {
		ctx = mission.NewContext("")
	}
	return &Service{deps: deps, ctx: ctx, log: log.With("component", "handlers")}
}

// GetMissionContext returns the mission context
func (s *Service) GetMissionContext() *mission.Context {
	return s.ctx
}

// SetSender sets the drone transport after construction.
func (s *Service) SetSender(sender Sender) {
	s.deps.Sender = sender
}

// Intent compiles one operator intent into the session.
func (s *Service) Intent(in core.Intent) (flight.State, error) {
	st, err := s.deps.Session.Apply(in)
	if err != nil {
		return st, fmt.Errorf("apply %s: %w", in.Token, err)
	}
	return st, nil
}

// Undo removes the last logical instruction.
func (s *Service) Undo() (flight.State, core.Instruction, error) {
	return s.deps.Session.Undo()
}

// Clear resets the session to takeoff/land facing north.
func (s *Service) Clear() (flight.State, error) {
	return s.deps.Session.Clear()
}

// Commands returns the native command sequence.
func (s *Service) Commands() []string {
	return s.deps.Session.Commands()
}

// Play starts a preview run. The playback latch is held until the engine releases it,
// and the run outlives the request context.
func (s *Service) Play(ctx context.Context, name string) (*playback.Run, error) {
	list, err := s.deps.Session.BeginPlayback()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = s.ctx.Plan()
	}

	run := s.deps.Engine.Play(context.WithoutCancel(ctx), name, list, s.deps.Session.EndPlayback)
	s.ctx.SetRun(run)
	s.log.Info("Preview started", "plan", name, "flight", run.Flight().ID, "steps", len(list))
	return run, nil
}

// Stop cancels the active preview run.
func (s *Service) Stop() bool {
	return s.ctx.CancelRun()
}

// Export saves the session as a named plan. The plan goes to the backend plan store
// when it has one, to req.Path when set, to the visualizer when the backend streams,
// and to the web frontend when an uploader is configured. A failed upload is logged
// and does not fail the export.
func (s *Service) Export(ctx context.Context, req parser.ExportRequest) (core.Plan, error) {
	st := s.deps.Session.Snapshot()
	cfg := s.deps.Session.Config()
	plan := core.Plan{
		Name:         req.Name,
		CreatedAt:    time.Now(),
		DistanceUnit: cfg.DistanceUnit,
		Speed:        cfg.Speed,
		Commands:     s.deps.Session.Commands(),
		Instructions: st.Instructions(),
	}

	saved := false
	if store, ok := s.deps.Backend.(storage.PlanStore); ok {
		if err := store.SavePlan(&plan); err != nil {
			return plan, fmt.Errorf("save plan %q: %w", plan.Name, err)
		}
		saved = true
	}

	var file string
	switch {
	case req.Path != "":
		if err := writeCommandFile(req.Path, plan); err != nil {
			return plan, err
		}
		file = req.Path
	case !saved:
		return plan, ErrNoPlanStore
	}

	if pub, ok := s.deps.Backend.(PlanPublisher); ok {
		if err := pub.PublishPlan(&plan); err != nil {
			s.log.Warn("Failed to publish plan", "plan", plan.Name, "error", err)
		}
	}

	if s.deps.Uploader != nil {
		if err := s.deps.Uploader.Upload(ctx, api.NewPlanUpload(plan, s.deps.Tag)); err != nil {
			s.log.Warn("Failed to upload plan", "plan", plan.Name, "error", err)
		}
	}

	s.ctx.SetPlan(plan.Name)
	s.log.Info("Plan exported", "plan", plan.Name, "commands", len(plan.Commands), "file", file)
	return plan, nil
}

// Import replaces the session list with a plan from the store, a file or inline text.
func (s *Service) Import(req parser.ImportRequest) (flight.State, error) {
	var commands []string

	switch req.Source {
	case parser.SourceStore:
		store, ok := s.deps.Backend.(storage.PlanStore)
		if !ok {
			return flight.State{}, ErrNoPlanStore
		}
		plan, err := store.LoadPlan(req.Name)
		if err != nil {
			return flight.State{}, err
		}
		commands = plan.Commands
	case parser.SourceFile:
		var err error
		commands, err = readCommandFile(req.Path)
		if err != nil {
			return flight.State{}, err
		}
	case parser.SourceInline:
		commands = req.Commands
	default:
		return flight.State{}, fmt.Errorf("unknown import source %q", req.Source)
	}

	if len(commands) == 0 {
		return flight.State{}, ErrEmptyCommand
	}
	st, err := s.deps.Session.Import(commands)
	if err != nil {
		return st, err
	}
	s.ctx.SetPlan(req.Name)
	return st, nil
}

// readCommandFile reads a plan file in any storage format, or a plain text file with
// one command per line.
func readCommandFile(path string) ([]string, error) {
	if _, ok := memory.FormatOf(path); ok {
		plan, err := memory.ReadPlanFile(path)
		if err != nil {
			return nil, fmt.Errorf("read plan file: %w", err)
		}
		return plan.Commands, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read command file: %w", err)
	}
	return util.ParseCommandLines(string(data)), nil
}

// writeCommandFile mirrors readCommandFile: storage formats by extension, plain text
// otherwise.
func writeCommandFile(path string, plan core.Plan) error {
	if _, ok := memory.FormatOf(path); ok {
		if err := memory.WritePlanFile(path, plan); err != nil {
			return fmt.Errorf("write plan file: %w", err)
		}
		return nil
	}
	text := strings.Join(plan.Commands, "\n") + "\n"
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write command file: %w", err)
	}
	return nil
}

// Send delivers the compiled sequence to the drone. A dry run only returns it.
func (s *Service) Send(ctx context.Context, dryRun bool) ([]string, transport.Report, error) {
	commands := s.deps.Session.Commands()
	if dryRun {
		return commands, transport.Report{}, nil
	}
	if s.deps.Sender == nil {
		return commands, transport.Report{}, ErrNoTransport
	}

	rep, err := s.deps.Sender.Send(ctx, commands)
	s.ctx.RecordSend(rep.Sent, err)
	if err != nil {
		s.log.Error("Send failed", "plan", s.ctx.Plan(), "failed", rep.Failed, "error", err)
		return commands, rep, err
	}
	return commands, rep, nil
}

// Status is a point-in-time summary of the session.
type Status struct {
	Plan         string
	Orientation  string
	Instructions int
	Playing      bool
	Blocked      []core.Token
	Tip          core.Vec3
	Cursor       core.Vec3
	PathLength   float64
	LandLine     []core.Vec3
	LastSend     *mission.SendResult
}

// Status reports the session state.
func (s *Service) Status() Status {
	st := s.deps.Session.Snapshot()
	list := st.Instructions()
	r := geo.Render(list)
	status := Status{
		Plan:         s.ctx.Plan(),
		Orientation:  st.Orientation.String(),
		Instructions: len(list),
		Playing:      st.Playing,
		Blocked:      s.deps.Session.Blocked(),
		Tip:          st.Tip,
		PathLength:   r.Length,
		LandLine:     r.LandLine,
	}
	if s.deps.Engine != nil {
		status.Cursor = s.deps.Engine.Cursor().Position()
	}
	if res, ok := s.ctx.LastSend(); ok {
		status.LastSend = &res
	}
	return status
}
