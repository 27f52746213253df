package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dronepath/autopilot/internal/util"
)

// ErrMissingArgument is returned when an event lacks a required argument.
var ErrMissingArgument = errors.New("missing argument")

// parseIntFromFloat parses a string that may be an integer ("90") or float ("90.00") into
// int64. Numeric inputs from UI widgets often arrive formatted as floats.
func parseIntFromFloat(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("parseIntFromFloat: %q is not a valid int64", s)
	}
	return int64(f), nil
}

// Parser provides pure []string -> request struct conversion for operator events.
// It has zero external dependencies beyond a logger.
type Parser struct {
	logger      *slog.Logger
	defaultPlan string
}

// NewParser creates a parser. defaultPlan names plans when an event gives none.
func NewParser(logger *slog.Logger, defaultPlan string) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultPlan == "" {
		defaultPlan = "untitled"
	}
	return &Parser{logger: logger, defaultPlan: defaultPlan}
}

// DefaultPlan returns the name used when an event omits one.
func (p *Parser) DefaultPlan() string {
	return p.defaultPlan
}

// clean fixes received data in place.
func clean(data []string) []string {
	out := make([]string, 0, len(data))
	for _, v := range data {
		if v = util.Clean(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// joinName rebuilds a name that was split on whitespace, e.g. `"morning" "loop"`.
func joinName(parts []string) string {
	return util.Clean(strings.Join(parts, " "))
}
