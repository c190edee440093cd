package mpris

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/musicplayer/internal/ipc"
	"github.com/llehouerou/musicplayer/internal/player"
)

// fakeController answers GetStatus with status and records everything else.
type fakeController struct {
	status ipc.Status
	sent   []ipc.Command
	reply  ipc.Response
	err    error
}

func (f *fakeController) Submit(_ context.Context, cmd ipc.Command) (ipc.Response, error) {
	if f.err != nil {
		return ipc.Response{}, f.err
	}
	if cmd.Kind == ipc.CmdGetStatus {
		return ipc.StatusResponse(f.status), nil
	}
	f.sent = append(f.sent, cmd)
	if f.reply.Kind != "" {
		return f.reply, nil
	}
	return ipc.OK(), nil
}

func kinds(cmds []ipc.Command) []ipc.CommandKind {
	out := make([]ipc.CommandKind, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, c.Kind)
	}
	return out
}

func TestRemote_Toggle(t *testing.T) {
	tests := []struct {
		state player.State
		want  ipc.CommandKind
	}{
		{player.Playing, ipc.CmdPause},
		{player.Paused, ipc.CmdPlay},
		{player.Stopped, ipc.CmdPlay},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			ctl := &fakeController{status: ipc.Status{State: tt.state}}

			require.NoError(t, remote{ctl: ctl}.toggle())

			require.Len(t, ctl.sent, 1)
			assert.Equal(t, tt.want, ctl.sent[0].Kind)
			assert.Nil(t, ctl.sent[0].Path)
		})
	}
}

func TestRemote_Pause_OnlyWhilePlaying(t *testing.T) {
	ctl := &fakeController{status: ipc.Status{State: player.Paused}}
	require.NoError(t, remote{ctl: ctl}.pause())
	assert.Empty(t, ctl.sent)

	ctl.status.State = player.Playing
	require.NoError(t, remote{ctl: ctl}.pause())
	assert.Equal(t, []ipc.CommandKind{ipc.CmdPause}, kinds(ctl.sent))
}

func TestRemote_Run_Errors(t *testing.T) {
	t.Run("error response", func(t *testing.T) {
		ctl := &fakeController{reply: ipc.Error("No playable next track found")}

		err := remote{ctl: ctl}.run(ipc.Simple(ipc.CmdNext))

		var ce *ipc.CommandError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "No playable next track found", ce.Message)
	})

	t.Run("submit failure", func(t *testing.T) {
		stopped := errors.New("daemon not running")
		ctl := &fakeController{err: stopped}

		err := remote{ctl: ctl}.run(ipc.Simple(ipc.CmdStop))

		require.ErrorIs(t, err, stopped)
		assert.Contains(t, err.Error(), "Stop")
	})
}

func TestVolumeConversion(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{0.556, 56},
		{1, 100},
		{1.5, 100},
		{-0.2, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, volumeToLevel(tt.in), "volumeToLevel(%v)", tt.in)
	}
	assert.InDelta(t, 0.7, levelToVolume(70), 1e-9)
}

func TestSecondsToMicros(t *testing.T) {
	assert.Equal(t, int64(1_500_000), secondsToMicros(1.5))
	assert.Zero(t, secondsToMicros(0))
}

func TestTrackID(t *testing.T) {
	a := trackID("/music/a.mp3")

	assert.Equal(t, a, trackID("/music/a.mp3"))
	assert.NotEqual(t, a, trackID("/music/b.mp3"))
	assert.Regexp(t, `^/org/mpris/MediaPlayer2/Track/[0-9a-f]+$`, a)
}

func TestFileURIPath(t *testing.T) {
	tests := []struct {
		uri    string
		want   string
		wantOK bool
	}{
		{"file:///music/a%20b.mp3", "/music/a b.mp3", true},
		{"http://example.com/a.mp3", "", false},
		{"file://", "", false},
		{"::bad", "", false},
	}
	for _, tt := range tests {
		got, ok := fileURIPath(tt.uri)
		assert.Equal(t, tt.wantOK, ok, tt.uri)
		assert.Equal(t, tt.want, got, tt.uri)
	}
}
