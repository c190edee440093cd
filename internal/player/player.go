package player

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// DefaultVolume is the volume a new Player starts with.
const DefaultVolume = 70

// ErrUnsupportedFormat is returned by Load when no decoder handles the extension.
var ErrUnsupportedFormat = errors.New("unsupported format")

// LoadError describes a track that could not be read or decoded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Player drives a Sink and tracks playback state and position.
//
// Sink mutations are serialized by mu. State, track, volume and duration are
// stored individually so readers never wait on a load in progress; callers
// must not expect a multi-field snapshot to be consistent.
type Player struct {
	mu       sync.Mutex
	sink     Sink
	decoders map[string]Decoder
	now      func() time.Time
	log      *zap.Logger

	state    atomic.Int32
	current  atomic.Pointer[string]
	volume   atomic.Int32
	duration atomic.Uint64 // float64 bits, seconds

	clockMu      sync.Mutex
	startInstant time.Time // zero unless actively playing
	pausedAccum  time.Duration
}

// Option configures a Player.
type Option func(*Player)

// WithClock replaces time.Now as the player's monotonic clock.
func WithClock(now func() time.Time) Option {
	return func(p *Player) { p.now = now }
}

// WithLogger sets the logger used for load diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(p *Player) { p.log = log }
}

// WithDecoders replaces the extension → decoder table.
func WithDecoders(decoders map[string]Decoder) Option {
	return func(p *Player) { p.decoders = decoders }
}

// WithVolume sets the initial volume (clamped to 0..100).
func WithVolume(level int) Option {
	return func(p *Player) { p.volume.Store(int32(clampVolume(level))) } //nolint:gosec // clamped
}

// New creates a stopped player bound to sink.
func New(sink Sink, opts ...Option) *Player {
	p := &Player{
		sink:     sink,
		decoders: DefaultDecoders(),
		now:      time.Now,
		log:      zap.NewNop(),
	}
	p.volume.Store(DefaultVolume)
	for _, opt := range opts {
		opt(p)
	}
	p.state.Store(int32(Stopped))
	p.sink.SetVolume(float64(p.volume.Load()) / 100)
	return p
}

// Load reads and decodes path, replaces whatever the sink was playing and
// starts playback. On failure the current track and state are left untouched.
func (p *Player) Load(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ext := strings.ToLower(filepath.Ext(path))
	decode, ok := p.decoders[ext]
	if !ok {
		return &LoadError{Path: path, Err: fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return &LoadError{Path: path, Err: err}
	}

	streamer, format, err := decode(memFile{bytes.NewReader(data)})
	if err != nil {
		return &LoadError{Path: path, Err: err}
	}

	var duration float64
	if n := streamer.Len(); n > 0 {
		duration = format.SampleRate.D(n).Seconds()
	}

	p.sink.Clear()
	if err := p.sink.Play(streamer, format); err != nil {
		_ = streamer.Close()
		return &LoadError{Path: path, Err: err}
	}

	p.clockMu.Lock()
	p.pausedAccum = 0
	p.startInstant = p.now()
	p.clockMu.Unlock()

	p.duration.Store(math.Float64bits(duration))
	p.current.Store(&path)
	p.state.Store(int32(Playing))

	p.log.Debug("track loaded",
		zap.String("path", path),
		zap.String("size", humanize.Bytes(uint64(len(data)))),
		zap.Float64("duration", duration),
		zap.Int("sample_rate", int(format.SampleRate)),
	)
	return nil
}

// Play resumes the current track. It is a no-op when no track is loaded.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current.Load() == nil {
		return
	}
	p.sink.Resume()

	p.clockMu.Lock()
	now := p.now()
	if !p.startInstant.IsZero() {
		// Already running: fold the running segment so re-stamping loses nothing.
		p.pausedAccum += now.Sub(p.startInstant)
	}
	p.startInstant = now
	p.clockMu.Unlock()

	p.state.Store(int32(Playing))
}

// Pause freezes playback and the position clock. It is a no-op only when
// already paused; from Stopped it just records the Paused state.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.State().CanPause() {
		return
	}
	p.sink.Pause()

	p.clockMu.Lock()
	if !p.startInstant.IsZero() {
		p.pausedAccum += p.now().Sub(p.startInstant)
		p.startInstant = time.Time{}
	}
	p.clockMu.Unlock()

	p.state.Store(int32(Paused))
}

// Stop halts and empties the sink and forgets the current track.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sink.Clear()

	p.clockMu.Lock()
	p.startInstant = time.Time{}
	p.pausedAccum = 0
	p.clockMu.Unlock()

	p.current.Store(nil)
	p.state.Store(int32(Stopped))
}

// SetVolume clamps level to 0..100 and applies it to the sink.
func (p *Player) SetVolume(level int) {
	level = clampVolume(level)

	p.mu.Lock()
	p.sink.SetVolume(float64(level) / 100)
	p.mu.Unlock()

	p.volume.Store(int32(level)) //nolint:gosec // clamped
}

// State returns the current playback state.
func (p *Player) State() State {
	return State(p.state.Load())
}

// CurrentTrack returns the loaded track, if any.
func (p *Player) CurrentTrack() (string, bool) {
	if t := p.current.Load(); t != nil {
		return *t, true
	}
	return "", false
}

// Volume returns the stored volume level (0..100).
func (p *Player) Volume() int {
	return int(p.volume.Load())
}

// Duration returns the track length in seconds, 0 when unknown.
func (p *Player) Duration() float64 {
	return math.Float64frombits(p.duration.Load())
}

// Position returns elapsed playback time in seconds.
func (p *Player) Position() float64 {
	p.clockMu.Lock()
	defer p.clockMu.Unlock()

	pos := p.pausedAccum
	if !p.startInstant.IsZero() {
		pos += p.now().Sub(p.startInstant)
	}
	return pos.Seconds()
}

// IsIdle reports whether the sink has run out of buffered audio.
func (p *Player) IsIdle() bool {
	return p.sink.Empty()
}

func clampVolume(level int) int {
	return max(0, min(level, 100))
}
