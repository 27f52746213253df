package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dronepath/autopilot/internal/util"
)

// Source says where an imported plan comes from.
type Source string

const (
	SourceStore  Source = "plan"
	SourceFile   Source = "file"
	SourceInline Source = "inline"
)

// ImportRequest is a parsed ":IMPORT:" event.
type ImportRequest struct {
	Source   Source
	Name     string
	Path     string
	Commands []string
}

// ExportRequest is a parsed ":EXPORT:" event. Path is empty when the plan is only
// saved to the plan store.
type ExportRequest struct {
	Name string
	Path string
}

// PlayRequest is a parsed ":PLAY:" event.
type PlayRequest struct {
	Name string
}

// SendRequest is a parsed ":SEND:" event. A dry run only returns the commands.
type SendRequest struct {
	DryRun bool
}

// ParseImport accepts:
//
//	plan <name>
//	file <path>
//	inline <cmd>;<cmd>;...
//	<path>   (anything that looks like a file)
//	<name>
func (p *Parser) ParseImport(data []string) (ImportRequest, error) {
	var req ImportRequest

	data = clean(data)
	if len(data) == 0 {
		return req, fmt.Errorf("import source: %w", ErrMissingArgument)
	}

	switch Source(strings.ToLower(data[0])) {
	case SourceStore:
		req.Source = SourceStore
		req.Name = joinName(data[1:])
	case SourceFile:
		req.Source = SourceFile
		req.Path = joinName(data[1:])
	case SourceInline:
		req.Source = SourceInline
		req.Commands = util.ParseCommandLines(strings.Join(data[1:], " "))
		if len(req.Commands) == 0 {
			return req, fmt.Errorf("inline commands: %w", ErrMissingArgument)
		}
		req.Name = p.defaultPlan
	default:
		arg := joinName(data)
		if looksLikePath(arg) {
			req.Source = SourceFile
			req.Path = arg
		} else {
			req.Source = SourceStore
			req.Name = arg
		}
	}

	if req.Source == SourceStore && req.Name == "" {
		return req, fmt.Errorf("plan name: %w", ErrMissingArgument)
	}
	if req.Source == SourceFile {
		if req.Path == "" {
			return req, fmt.Errorf("plan file: %w", ErrMissingArgument)
		}
		req.Name = strings.TrimSuffix(filepath.Base(req.Path), filepath.Ext(req.Path))
	}

	p.logger.Debug("Parsed import", "source", req.Source, "name", req.Name, "path", req.Path)
	return req, nil
}

// ParseExport accepts "<name>" or "file <path>". With no arguments the default plan
// name is used.
func (p *Parser) ParseExport(data []string) (ExportRequest, error) {
	var req ExportRequest

	data = clean(data)
	if len(data) > 0 && Source(strings.ToLower(data[0])) == SourceFile {
		req.Path = joinName(data[1:])
		if req.Path == "" {
			return req, fmt.Errorf("export file: %w", ErrMissingArgument)
		}
		req.Name = strings.TrimSuffix(filepath.Base(req.Path), filepath.Ext(req.Path))
		return req, nil
	}

	req.Name = joinName(data)
	if req.Name == "" {
		req.Name = p.defaultPlan
	}
	return req, nil
}

// ParsePlay takes an optional run name.
func (p *Parser) ParsePlay(data []string) PlayRequest {
	name := joinName(clean(data))
	if name == "" {
		name = p.defaultPlan
	}
	return PlayRequest{Name: name}
}

// ParseSend recognises a "dry" flag.
func (p *Parser) ParseSend(data []string) SendRequest {
	for _, v := range clean(data) {
		switch strings.ToLower(v) {
		case "dry", "dry-run", "--dry-run":
			return SendRequest{DryRun: true}
		}
	}
	return SendRequest{}
}

func looksLikePath(s string) bool {
	return strings.ContainsAny(s, `/\`) || filepath.Ext(s) != ""
}
