package player

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeSink struct {
	playing beep.Streamer
	paused  bool
	cleared int
	level   float64
	empty   bool
	playErr error
}

func (s *fakeSink) Play(st beep.StreamSeekCloser, _ beep.Format) error {
	if s.playErr != nil {
		return s.playErr
	}
	s.playing = st
	s.paused = false
	s.empty = false
	return nil
}

func (s *fakeSink) Pause()                { s.paused = true }
func (s *fakeSink) Resume()               { s.paused = false }
func (s *fakeSink) SetVolume(lvl float64) { s.level = lvl }
func (s *fakeSink) Empty() bool           { return s.empty }

func (s *fakeSink) Clear() {
	s.cleared++
	s.playing = nil
	s.empty = true
}

// silence is a fixed-length stream of zero samples.
type silence struct {
	length, pos int
	closed      bool
}

func (s *silence) Stream(samples [][2]float64) (int, bool) {
	n := min(len(samples), s.length-s.pos)
	if n <= 0 {
		return 0, false
	}
	clear(samples[:n])
	s.pos += n
	return n, true
}

func (s *silence) Err() error       { return nil }
func (s *silence) Len() int         { return s.length }
func (s *silence) Position() int    { return s.pos }
func (s *silence) Seek(p int) error { s.pos = p; return nil }
func (s *silence) Close() error     { s.closed = true; return nil }

var errCorrupt = errors.New("corrupt stream")

// testDecoders decodes ".ok" files as 3s of silence at 1kHz and rejects ".bad".
func testDecoders() map[string]Decoder {
	return map[string]Decoder{
		".ok": func(rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
			return &silence{length: 3000}, beep.Format{SampleRate: 1000, NumChannels: 2, Precision: 2}, nil
		},
		".bad": func(io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
			return nil, beep.Format{}, errCorrupt
		},
	}
}

func writeTrack(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("audio"), 0o600))
	return path
}

func newTestPlayer(t *testing.T) (*Player, *fakeSink, *fakeClock) {
	t.Helper()
	sink := &fakeSink{empty: true}
	clock := newFakeClock()
	p := New(sink, WithClock(clock.Now), WithDecoders(testDecoders()))
	return p, sink, clock
}

func TestNew_Defaults(t *testing.T) {
	p, sink, _ := newTestPlayer(t)

	assert.Equal(t, Stopped, p.State())
	assert.Equal(t, DefaultVolume, p.Volume())
	assert.InDelta(t, 0.7, sink.level, 1e-9)
	assert.Zero(t, p.Position())
	assert.True(t, p.IsIdle())
	_, ok := p.CurrentTrack()
	assert.False(t, ok)
}

func TestPlayer_Load(t *testing.T) {
	p, sink, _ := newTestPlayer(t)
	path := writeTrack(t, "song.ok")

	require.NoError(t, p.Load(path))

	assert.Equal(t, Playing, p.State())
	cur, ok := p.CurrentTrack()
	assert.True(t, ok)
	assert.Equal(t, path, cur)
	assert.InDelta(t, 3.0, p.Duration(), 1e-9)
	assert.NotNil(t, sink.playing)
	assert.Equal(t, 1, sink.cleared, "in-flight audio should be discarded before loading")
	assert.False(t, p.IsIdle())
}

func TestPlayer_Load_Failures(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantErr error
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "gone.ok") }, os.ErrNotExist},
		{"decode error", func(t *testing.T) string { return writeTrack(t, "broken.bad") }, errCorrupt},
		{"unsupported extension", func(t *testing.T) string { return writeTrack(t, "notes.txt") }, ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _, _ := newTestPlayer(t)
			good := writeTrack(t, "good.ok")
			require.NoError(t, p.Load(good))

			err := p.Load(tt.path(t))

			var le *LoadError
			require.ErrorAs(t, err, &le)
			assert.ErrorIs(t, err, tt.wantErr)
			cur, _ := p.CurrentTrack()
			assert.Equal(t, good, cur, "failed load must not replace the current track")
			assert.Equal(t, Playing, p.State())
		})
	}
}

func TestPlayer_Load_SinkError(t *testing.T) {
	p, sink, _ := newTestPlayer(t)
	sink.playErr = errors.New("no audio device")

	err := p.Load(writeTrack(t, "song.ok"))

	require.Error(t, err)
	assert.Equal(t, Stopped, p.State())
}

func TestPlayer_Position(t *testing.T) {
	p, _, clock := newTestPlayer(t)
	require.NoError(t, p.Load(writeTrack(t, "song.ok")))

	clock.Advance(1500 * time.Millisecond)
	assert.InDelta(t, 1.5, p.Position(), 1e-9)

	// Monotonic while playing.
	prev := p.Position()
	for range 5 {
		clock.Advance(100 * time.Millisecond)
		cur := p.Position()
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}

	p.Pause()
	frozen := p.Position()
	clock.Advance(10 * time.Second)
	for range 3 {
		assert.Equal(t, frozen, p.Position(), "position must be frozen while paused")
	}

	p.Play()
	clock.Advance(500 * time.Millisecond)
	assert.InDelta(t, frozen+0.5, p.Position(), 1e-9)
}

func TestPlayer_PlayWhilePlaying_KeepsElapsed(t *testing.T) {
	p, _, clock := newTestPlayer(t)
	require.NoError(t, p.Load(writeTrack(t, "song.ok")))

	clock.Advance(2 * time.Second)
	p.Play()
	clock.Advance(time.Second)

	assert.InDelta(t, 3.0, p.Position(), 1e-9)
}

func TestPlayer_LoadResetsClock(t *testing.T) {
	p, _, clock := newTestPlayer(t)
	require.NoError(t, p.Load(writeTrack(t, "a.ok")))
	clock.Advance(5 * time.Second)
	p.Pause()

	require.NoError(t, p.Load(writeTrack(t, "b.ok")))

	assert.Zero(t, p.Position())
	assert.Equal(t, Playing, p.State())
}

func TestPlayer_PlayWithoutTrack_IsNoop(t *testing.T) {
	p, sink, _ := newTestPlayer(t)

	p.Play()

	assert.Equal(t, Stopped, p.State())
	assert.False(t, sink.paused)
}

func TestPlayer_Pause(t *testing.T) {
	t.Run("when stopped records paused", func(t *testing.T) {
		p, sink, clock := newTestPlayer(t)
		p.Pause()
		clock.Advance(time.Second)

		assert.Equal(t, Paused, p.State())
		assert.True(t, sink.paused)
		assert.Zero(t, p.Position())
		_, ok := p.CurrentTrack()
		assert.False(t, ok)

		p.Play()
		assert.Equal(t, Paused, p.State(), "nothing loaded to resume")
	})

	t.Run("twice keeps accumulated time", func(t *testing.T) {
		p, sink, clock := newTestPlayer(t)
		require.NoError(t, p.Load(writeTrack(t, "song.ok")))
		clock.Advance(time.Second)

		p.Pause()
		clock.Advance(time.Second)
		p.Pause()

		assert.True(t, sink.paused)
		assert.Equal(t, Paused, p.State())
		assert.InDelta(t, 1.0, p.Position(), 1e-9)
	})
}

func TestPlayer_Stop(t *testing.T) {
	p, sink, clock := newTestPlayer(t)
	require.NoError(t, p.Load(writeTrack(t, "song.ok")))
	clock.Advance(time.Second)

	p.Stop()

	assert.Equal(t, Stopped, p.State())
	_, ok := p.CurrentTrack()
	assert.False(t, ok)
	assert.Zero(t, p.Position())
	assert.Nil(t, sink.playing)
	assert.True(t, p.IsIdle())
}

func TestPlayer_SetVolume_Clamps(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{55, 55},
		{0, 0},
		{100, 100},
		{150, 100},
		{-20, 0},
	}

	for _, tt := range tests {
		p, sink, _ := newTestPlayer(t)
		p.SetVolume(tt.in)
		assert.Equal(t, tt.want, p.Volume(), "SetVolume(%d)", tt.in)
		assert.InDelta(t, float64(tt.want)/100, sink.level, 1e-9, "sink level for %d", tt.in)
	}
}

func TestPlayer_IsIdle_FollowsSink(t *testing.T) {
	p, sink, _ := newTestPlayer(t)
	require.NoError(t, p.Load(writeTrack(t, "song.ok")))
	assert.False(t, p.IsIdle())

	sink.empty = true

	assert.True(t, p.IsIdle())
	assert.Equal(t, Playing, p.State(), "idle is a polling signal and does not change state")
}

func TestLevelToVolume(t *testing.T) {
	assert.InDelta(t, 0.0, levelToVolume(1), 1e-9)
	assert.InDelta(t, -1.0, levelToVolume(0.5), 1e-9)
	assert.InDelta(t, -2.0, levelToVolume(0.25), 1e-9)
	assert.InDelta(t, -10.0, levelToVolume(0), 1e-9)
}
