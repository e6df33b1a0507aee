// Package output renders command results for terminals, pipes and machines.
//
// A Renderer picks between styled text and JSON. In auto mode it styles
// output only when stdout is a terminal, and colour is further limited by
// the environment (NO_COLOR, CLICOLOR_FORCE, TERM).
package output

import (
	"fmt"
	"strings"
)

// OutputMode selects how results are written.
type OutputMode string //nolint:revive // output.OutputMode reads better at call sites than output.Kind

// Output modes.
const (
	ModeAuto OutputMode = "auto"
	ModeText OutputMode = "text"
	ModeJSON OutputMode = "json"
)

// Modes lists the accepted mode names, for flag completion.
func Modes() []string {
	return []string{string(ModeAuto), string(ModeText), string(ModeJSON)}
}

// Mode converts a configuration string into an OutputMode. Empty and
// unknown values fall back to ModeAuto.
func Mode(s string) OutputMode {
	m, err := ParseMode(s)
	if err != nil {
		return ModeAuto
	}
	return m
}

// ParseMode parses a mode name case-insensitively. The empty string is auto.
func ParseMode(s string) (OutputMode, error) {
	switch OutputMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeText:
		return ModeText, nil
	case ModeJSON:
		return ModeJSON, nil
	default:
		return "", fmt.Errorf("unknown output mode %q (want one of %s)", s, strings.Join(Modes(), ", "))
	}
}
