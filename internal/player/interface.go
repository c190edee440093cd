// internal/player/interface.go
package player

// Interface defines the player contract for dependency injection and testing.
type Interface interface {
	Load(path string) error
	Play()
	Pause()
	Stop()
	SetVolume(level int)
	State() State
	CurrentTrack() (string, bool)
	Volume() int
	Duration() float64
	Position() float64
	IsIdle() bool
}

// Verify Player implements Interface at compile time.
var _ Interface = (*Player)(nil)
