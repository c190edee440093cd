package daemon

import (
	"go.uber.org/zap"

	"github.com/llehouerou/musicplayer/internal/errmsg"
	"github.com/llehouerou/musicplayer/internal/ipc"
	"github.com/llehouerou/musicplayer/internal/playlist"
)

// Handle dispatches one command and returns its response. Failures are
// reported as Error responses, never as a panic or a closed loop.
//
// Handle is safe to call concurrently with the loop, but Run only gives
// the serialization guarantee to commands that go through it.
func (d *Daemon) Handle(cmd ipc.Command) ipc.Response {
	// Re-stamped before dispatch, whatever the outcome.
	if cmd.Kind.ChangesTrack() {
		d.markManual()
	}

	before := d.snapshot()
	resp := d.dispatch(cmd)
	if cmd.Kind != ipc.CmdGetStatus && cmd.Kind != ipc.CmdGetPlaylist {
		d.publish(before, d.snapshot(), false)
	}
	return resp
}

func (d *Daemon) dispatch(cmd ipc.Command) ipc.Response {
	switch cmd.Kind {
	case ipc.CmdPlay:
		return d.play(cmd.Path)

	case ipc.CmdPause:
		d.player.Pause()
		return ipc.OK()

	case ipc.CmdStop:
		d.player.Stop()
		return ipc.OK()

	case ipc.CmdNext:
		return d.step((*playlist.Playlist).Next, errmsg.NoPlayableNext)

	case ipc.CmdPrevious:
		return d.step((*playlist.Playlist).Previous, errmsg.NoPlayablePrevious)

	case ipc.CmdSetVolume:
		d.player.SetVolume(cmd.Level)
		return ipc.OK()

	case ipc.CmdAddTracks:
		d.mu.Lock()
		before := d.playlist.Len()
		d.playlist.Add(cmd.Paths...)
		added := d.playlist.Len() - before
		d.mu.Unlock()
		d.log.Info("tracks added",
			zap.Int("requested", len(cmd.Paths)),
			zap.Int("added", added))
		return ipc.OK()

	case ipc.CmdGetStatus:
		return ipc.StatusResponse(d.Status())

	case ipc.CmdGetPlaylist:
		d.mu.Lock()
		tracks := d.playlist.Tracks()
		d.mu.Unlock()
		return ipc.PlaylistResponse(tracks)

	case ipc.CmdClearPlaylist:
		d.mu.Lock()
		d.playlist.Clear()
		d.mu.Unlock()
		return ipc.OK()

	case ipc.CmdShutdown:
		return ipc.OK()

	default:
		return ipc.Error("Unknown command: " + string(cmd.Kind))
	}
}

// play loads path when given. Otherwise it resumes the loaded track, or
// starts the playlist at its cursor (or at its first track).
func (d *Daemon) play(path *string) ipc.Response {
	if path != nil {
		if err := d.player.Load(*path); err != nil {
			d.log.Warn("play failed", zap.String("path", *path), zap.Error(err))
			return ipc.Error(errmsg.Format(errmsg.OpPlay, err))
		}
		return ipc.OK()
	}

	if _, ok := d.player.CurrentTrack(); ok {
		d.player.Play()
		return ipc.OK()
	}

	d.mu.Lock()
	if d.playlist.IsEmpty() {
		d.mu.Unlock()
		return ipc.Error(errmsg.PlaylistEmpty)
	}
	track, ok := d.playlist.Current()
	if !ok {
		track, ok = d.playlist.Next()
	}
	d.mu.Unlock()
	if !ok {
		return ipc.Error(errmsg.NoTrackInPlaylist)
	}

	if err := d.player.Load(track); err != nil {
		d.log.Warn("play failed", zap.String("path", track), zap.Error(err))
		return ipc.Error(errmsg.Format(errmsg.OpPlayFirst, err))
	}
	return ipc.OK()
}

// step moves the cursor with move and loads the result, skipping tracks
// that fail to load, up to the retry budget.
func (d *Daemon) step(move func(*playlist.Playlist) (string, bool), exhausted string) ipc.Response {
	for range d.retryBudget {
		d.mu.Lock()
		track, ok := move(d.playlist)
		d.mu.Unlock()
		if !ok {
			break
		}

		err := d.player.Load(track)
		if err == nil {
			return ipc.OK()
		}
		d.log.Warn("skipping unplayable track", zap.String("path", track), zap.Error(err))
	}
	return ipc.Error(exhausted)
}

// Status composes a snapshot of the player and playlist. Player fields are
// read individually and are not atomic as a group.
func (d *Daemon) Status() ipc.Status {
	st := ipc.Status{
		State:    d.player.State(),
		Position: d.player.Position(),
		Duration: d.player.Duration(),
		Volume:   d.player.Volume(),
	}
	if track, ok := d.player.CurrentTrack(); ok {
		st.CurrentTrack = &track
	}

	d.mu.Lock()
	st.PlaylistLength = d.playlist.Len()
	if idx, ok := d.playlist.CurrentIndex(); ok {
		st.CurrentIndex = &idx
	}
	d.mu.Unlock()
	return st
}
