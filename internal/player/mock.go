// internal/player/mock.go
package player

import (
	"errors"
	"sync"
)

// Mock is a test double for Player.
type Mock struct {
	mu        sync.Mutex
	state     State
	current   string
	hasTrack  bool
	volume    int
	position  float64
	duration  float64
	idle      bool
	loadErrs  map[string]error
	loadCalls []string
	playCalls int
}

// NewMock creates a new mock player for testing.
func NewMock() *Mock {
	return &Mock{
		state:    Stopped,
		volume:   DefaultVolume,
		idle:     true,
		loadErrs: make(map[string]error),
	}
}

func (m *Mock) Load(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadCalls = append(m.loadCalls, path)
	if err, ok := m.loadErrs[path]; ok {
		return &LoadError{Path: path, Err: err}
	}
	m.current = path
	m.hasTrack = true
	m.state = Playing
	m.position = 0
	m.idle = false
	return nil
}

func (m *Mock) Play() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playCalls++
	if m.hasTrack {
		m.state = Playing
	}
}

func (m *Mock) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Paused {
		m.state = Paused
	}
}

func (m *Mock) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Stopped
	m.current = ""
	m.hasTrack = false
	m.idle = true
}

func (m *Mock) SetVolume(level int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = clampVolume(level)
}

func (m *Mock) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Mock) CurrentTrack() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current, m.hasTrack
}

func (m *Mock) Volume() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *Mock) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *Mock) Position() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Mock) IsIdle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.idle
}

// Test helpers

// ErrMockLoad is the default error injected by FailLoad.
var ErrMockLoad = errors.New("mock: cannot decode")

// FailLoad makes every Load of path fail.
func (m *Mock) FailLoad(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErrs[path] = ErrMockLoad
}

func (m *Mock) SetState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

func (m *Mock) SetIdle(idle bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.idle = idle
}

func (m *Mock) SetDuration(d float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
}

func (m *Mock) SetPosition(p float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = p
}

func (m *Mock) LoadCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.loadCalls...)
}

func (m *Mock) PlayCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

// SimulateFinished marks the current track as fully rendered.
func (m *Mock) SimulateFinished() {
	m.SetIdle(true)
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
