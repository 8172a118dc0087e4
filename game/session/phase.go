package session

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("invalid phase transition")
	ErrUnknownPhase      = errors.New("unknown phase")
	ErrClosed            = errors.New("session closed")
)

// Phase is the coarse lifecycle stage of a session
type Phase int

const (
	PhaseLobby Phase = iota
	PhaseStarting
	PhaseLive
	PhaseEnded
)

var phaseNames = map[Phase]string{
	PhaseLobby:    "lobby",
	PhaseStarting: "starting",
	PhaseLive:     "live",
	PhaseEnded:    "ended",
}

// String implements fmt.Stringer
func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Valid reports whether p is a known phase
func (p Phase) Valid() bool {
	_, ok := phaseNames[p]
	return ok
}

// Terminal reports whether no transition leaves p
func (p Phase) Terminal() bool {
	return p == PhaseEnded
}

// CanAdvance reports whether from -> to is a legal move: one step forward,
// or straight to ended from any phase that is not already ended.
func CanAdvance(from, to Phase) bool {
	if !from.Valid() || !to.Valid() || from.Terminal() {
		return false
	}
	return to == from+1 || to == PhaseEnded
}

// ParsePhase converts a phase name back to a Phase
func ParsePhase(name string) (Phase, error) {
	for p, n := range phaseNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPhase, name)
}

// MarshalText implements encoding.TextMarshaler
func (p Phase) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPhase, int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *Phase) UnmarshalText(text []byte) error {
	parsed, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
