package parser

import (
	"fmt"
	"strings"

	"github.com/dronepath/autopilot/pkg/core"
)

// MaxRotation is the largest single rotation the drone SDK accepts.
const MaxRotation = 360

// ParseIntent parses ":INTENT: token [degrees]" arguments.
// Degrees are only accepted for rotation tokens.
func (p *Parser) ParseIntent(data []string) (core.Intent, error) {
	var intent core.Intent

	data = clean(data)
	if len(data) == 0 {
		return intent, fmt.Errorf("intent token: %w", ErrMissingArgument)
	}

	token, err := core.ParseToken(data[0])
	if err != nil {
		return intent, err
	}
	intent.Token = token

	if len(data) > 1 {
		if !token.Rotational() {
			return intent, fmt.Errorf("token %q takes no argument, got %q", token, data[1])
		}
		deg, err := parseIntFromFloat(data[1])
		if err != nil {
			return intent, fmt.Errorf("error converting rotation degrees: %w", err)
		}
		if deg <= 0 || deg > MaxRotation {
			return intent, fmt.Errorf("rotation degrees %d out of range 1..%d", deg, MaxRotation)
		}
		intent.Degrees = int(deg)
	}

	p.logger.Debug("Parsed intent", "token", intent.Token, "degrees", intent.Degrees)
	return intent, nil
}

// ParseIntents parses a batch like "forward forward cw:180 up" used by scripts.
// A rotation override is attached with a colon.
func (p *Parser) ParseIntents(data []string) ([]core.Intent, error) {
	out := make([]core.Intent, 0, len(data))
	for i, raw := range clean(data) {
		args := []string{raw}
		if tok, deg, ok := strings.Cut(raw, ":"); ok {
			args = []string{tok, deg}
		}
		in, err := p.ParseIntent(args)
		if err != nil {
			return nil, fmt.Errorf("intent %d: %w", i, err)
		}
		out = append(out, in)
	}
	return out, nil
}
