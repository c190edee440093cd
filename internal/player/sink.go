package player

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

// Sink buffers and renders decoded audio.
type Sink interface {
	// Play discards anything queued and starts rendering s. The sink owns s
	// from then on and closes it when cleared.
	Play(s beep.StreamSeekCloser, format beep.Format) error
	Pause()
	Resume()
	// Clear halts output and drops the queued streamer.
	Clear()
	// SetVolume applies a linear level in 0..1.
	SetVolume(level float64)
	// Empty reports whether no buffered audio is left to play.
	Empty() bool
}

// speakerSink renders through the process-wide beep speaker.
type speakerSink struct {
	mu          sync.Mutex
	initialized bool
	sampleRate  beep.SampleRate

	streamer beep.StreamSeekCloser
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	level    float64
	drained  *atomic.Bool
}

// NewSpeakerSink returns a Sink backed by the system audio device.
// The device is opened lazily, at the sample rate of the first track.
func NewSpeakerSink() Sink {
	return &speakerSink{level: 1}
}

func (s *speakerSink) Play(streamer beep.StreamSeekCloser, format beep.Format) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
			return err
		}
		s.sampleRate = format.SampleRate
		s.initialized = true
	}
	s.clearLocked()

	var src beep.Streamer = streamer
	if format.SampleRate != s.sampleRate {
		src = beep.Resample(4, format.SampleRate, s.sampleRate, streamer)
	}

	drained := &atomic.Bool{}
	s.streamer = streamer
	s.ctrl = &beep.Ctrl{Streamer: src}
	s.volume = &effects.Volume{
		Streamer: s.ctrl,
		Base:     2,
		Volume:   levelToVolume(s.level),
		Silent:   s.level <= 0,
	}
	s.drained = drained

	speaker.Play(beep.Seq(s.volume, beep.Callback(func() {
		drained.Store(true)
	})))
	return nil
}

func (s *speakerSink) Pause() {
	s.setPaused(true)
}

func (s *speakerSink) Resume() {
	s.setPaused(false)
}

func (s *speakerSink) setPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl == nil {
		return
	}
	speaker.Lock()
	s.ctrl.Paused = paused
	speaker.Unlock()
}

func (s *speakerSink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

func (s *speakerSink) clearLocked() {
	if s.initialized {
		speaker.Clear()
	}
	if s.streamer != nil {
		_ = s.streamer.Close()
	}
	s.streamer = nil
	s.ctrl = nil
	s.volume = nil
	s.drained = nil
}

func (s *speakerSink) SetVolume(level float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.level = max(0, min(level, 1))
	if s.volume == nil {
		return
	}
	speaker.Lock()
	s.volume.Volume = levelToVolume(s.level)
	s.volume.Silent = s.level <= 0
	speaker.Unlock()
}

func (s *speakerSink) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drained == nil || s.drained.Load()
}
