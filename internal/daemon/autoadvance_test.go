package daemon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/musicplayer/internal/ipc"
	"github.com/llehouerou/musicplayer/internal/player"
)

// startPlaying adds tracks, plays the first one and lets it drain.
func startPlaying(t *testing.T, d *Daemon, m *player.Mock, names ...string) []string {
	t.Helper()
	tracks := makeTracks(t, names...)
	mustOK(t, d.Handle(ipc.AddTracks(tracks...)))
	mustOK(t, d.Handle(ipc.Play("")))
	m.SimulateFinished()
	return tracks
}

func TestAutoAdvance_QuietWindow(t *testing.T) {
	d, m, clock := newTestDaemon(t)
	tracks := startPlaying(t, d, m, "a.mp3", "b.mp3")

	clock.Advance(time.Second)
	d.autoAdvance()
	assert.Equal(t, tracks[:1], m.LoadCalls(), "suppressed inside the quiet window")

	clock.Advance(time.Second)
	d.autoAdvance()
	assert.Equal(t, tracks[:1], m.LoadCalls(), "the window boundary is still quiet")

	clock.Advance(500 * time.Millisecond)
	d.autoAdvance()
	assert.Equal(t, tracks, m.LoadCalls())
	idx, _ := d.Status().Index()
	assert.Equal(t, 1, idx)
}

func TestAutoAdvance_Conditions(t *testing.T) {
	tests := []struct {
		name  string
		setup func(m *player.Mock)
	}{
		{"not idle", func(m *player.Mock) { m.SetIdle(false) }},
		{"paused", func(m *player.Mock) { m.SetState(player.Paused) }},
		{"stopped", func(m *player.Mock) { m.SetState(player.Stopped) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, m, clock := newTestDaemon(t)
			startPlaying(t, d, m, "a.mp3", "b.mp3")
			tt.setup(m)
			clock.Advance(time.Minute)

			d.autoAdvance()

			assert.Len(t, m.LoadCalls(), 1)
		})
	}
}

func TestAutoAdvance_LoadFailureIsSilent(t *testing.T) {
	d, m, clock := newTestDaemon(t)
	tracks := startPlaying(t, d, m, "a.mp3", "b.mp3")
	m.FailLoad(tracks[1])
	clock.Advance(time.Minute)

	d.autoAdvance()

	assert.Equal(t, []string{tracks[0], tracks[1]}, m.LoadCalls(), "no retry within the tick")
	cur, _ := m.CurrentTrack()
	assert.Equal(t, tracks[0], cur)

	// The cursor sits on the bad track: the next tick runs off the end.
	d.autoAdvance()
	assert.Len(t, m.LoadCalls(), 2)
	_, ok := d.Status().Index()
	assert.False(t, ok)

	// And the one after that starts over.
	d.autoAdvance()
	assert.Equal(t, []string{tracks[0], tracks[1], tracks[0]}, m.LoadCalls())
}

func TestAutoAdvance_EmptyPlaylist(t *testing.T) {
	d, m, clock := newTestDaemon(t)
	mustOK(t, d.Handle(ipc.Play("/music/solo.mp3")))
	m.SimulateFinished()
	clock.Advance(time.Minute)

	d.autoAdvance()

	assert.Len(t, m.LoadCalls(), 1)
}

func TestEvents_ManualAndAuto(t *testing.T) {
	d, m, clock := newTestDaemon(t)
	sub := d.Subscribe()
	tracks := makeTracks(t, "a.mp3", "b.mp3")

	mustOK(t, d.Handle(ipc.AddTracks(tracks...)))
	pl := <-sub.PlaylistChanged
	assert.Equal(t, PlaylistChange{Length: 2, Index: 0}, pl)

	mustOK(t, d.Handle(ipc.Play("")))
	st := <-sub.StateChanged
	assert.Equal(t, StateChange{Previous: player.Stopped, Current: player.Playing}, st)
	tr := <-sub.TrackChanged
	assert.Equal(t, TrackChange{Current: tracks[0], Index: 0}, tr)

	mustOK(t, d.Handle(ipc.SetVolume(40)))
	assert.Equal(t, VolumeChange{Volume: 40}, <-sub.VolumeChanged)

	m.SimulateFinished()
	clock.Advance(time.Minute)
	d.autoAdvance()
	tr = <-sub.TrackChanged
	assert.Equal(t, TrackChange{Previous: tracks[0], Current: tracks[1], Index: 1, Auto: true}, tr)

	// Queries publish nothing.
	d.Handle(ipc.Simple(ipc.CmdGetStatus))
	select {
	case e := <-sub.StateChanged:
		t.Fatalf("unexpected state event %+v", e)
	case e := <-sub.TrackChanged:
		t.Fatalf("unexpected track event %+v", e)
	default:
	}
}

func TestSubscribe_AfterStop(t *testing.T) {
	d, _, _ := newTestDaemon(t)
	d.stop()

	sub := d.Subscribe()

	select {
	case <-sub.Done:
	default:
		t.Fatal("subscription on a stopped daemon should be done")
	}
	require.NotPanics(t, d.stop)
}
