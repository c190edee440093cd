// internal/player/state.go
package player

import "fmt"

// State represents the playback state machine.
//
// The state machine has three states with the following valid transitions:
//
//	┌──────────┐      load       ┌──────────┐
//	│  Stopped │ ───────────────▶│  Playing │◀──┐
//	└──────────┘                 └──────────┘   │ load
//	     ▲                            │ │       │
//	     │ stop                 pause │ │ stop  │
//	     │                            ▼ │       │
//	     │                       ┌──────────┐   │
//	     └───────────────────────│  Paused  │───┘
//	                  stop       └──────────┘
//	                                  │
//	                             play │
//	                                  ▼
//	                               Playing
//
// Valid transitions:
//   - any     → Playing (via Load)
//   - Playing → Paused  (via Pause)
//   - Playing → Stopped (via Stop)
//   - Paused  → Playing (via Play, requires a current track)
//   - Paused  → Stopped (via Stop)
//   - Stopped → Paused  (via Pause, with nothing loaded to resume)
//
// No-op transitions (handled gracefully):
//   - Stopped → Playing (Play ignored, stop clears the current track)
//   - Paused  → Paused  (Pause ignored)
//   - Playing → Playing (Play re-stamps the clock without losing elapsed time)
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

// String returns the state name. It is also the wire representation.
func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// ParseState converts a state name back into a State.
func ParseState(s string) (State, bool) {
	switch s {
	case "Stopped":
		return Stopped, true
	case "Playing":
		return Playing, true
	case "Paused":
		return Paused, true
	default:
		return Stopped, false
	}
}

// IsActive returns true if playback is active (Playing or Paused).
func (s State) IsActive() bool {
	return s == Playing || s == Paused
}

// CanPause returns true if Pause changes the state. Only an already
// paused player ignores it.
func (s State) CanPause() bool {
	return s != Paused
}

// CanResume returns true if the state allows resuming.
func (s State) CanResume() bool {
	return s == Paused
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	if _, ok := ParseState(s.String()); !ok {
		return nil, fmt.Errorf("invalid playback state %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	st, ok := ParseState(string(text))
	if !ok {
		return fmt.Errorf("unknown playback state %q", text)
	}
	*s = st
	return nil
}
