//go:build linux

package mpris

import (
	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"
	"go.uber.org/zap"

	"github.com/llehouerou/musicplayer/internal/ipc"
	"github.com/llehouerou/musicplayer/internal/player"
	"github.com/llehouerou/musicplayer/internal/trackinfo"
)

// Adapter serves the daemon on the session bus.
type Adapter struct {
	server *server.Server
}

// New registers the MPRIS service and starts serving it in the background.
func New(ctl Controller, log *zap.Logger) (*Adapter, error) {
	a := &Adapter{
		server: server.NewServer(BusName, &rootAdapter{}, &playerAdapter{r: remote{ctl: ctl}}),
	}

	go func() {
		if err := a.server.Listen(); err != nil {
			log.Warn("mpris server stopped", zap.Error(err))
		}
	}()

	return a, nil
}

// Close releases the bus name.
func (a *Adapter) Close() error {
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error { return nil }

// Quit is refused; the daemon is stopped through its own CLI.
func (r *rootAdapter) Quit() error { return nil }

func (r *rootAdapter) CanQuit() (bool, error)      { return false, nil }
func (r *rootAdapter) CanRaise() (bool, error)     { return false, nil }
func (r *rootAdapter) HasTrackList() (bool, error) { return false, nil }
func (r *rootAdapter) Identity() (string, error)   { return BusName, nil }

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"file"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/flac", "audio/x-wav", "audio/ogg"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter.
type playerAdapter struct {
	r remote
}

func (p *playerAdapter) Next() error      { return p.r.run(ipc.Simple(ipc.CmdNext)) }
func (p *playerAdapter) Previous() error  { return p.r.run(ipc.Simple(ipc.CmdPrevious)) }
func (p *playerAdapter) Pause() error     { return p.r.pause() }
func (p *playerAdapter) PlayPause() error { return p.r.toggle() }
func (p *playerAdapter) Stop() error      { return p.r.run(ipc.Simple(ipc.CmdStop)) }
func (p *playerAdapter) Play() error      { return p.r.run(ipc.Play("")) }

// Seek is not supported by the daemon.
func (p *playerAdapter) Seek(_ types.Microseconds) error { return nil }

func (p *playerAdapter) SetPosition(_ string, _ types.Microseconds) error { return nil }

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(uri string) error {
	path, ok := fileURIPath(uri)
	if !ok {
		return nil
	}
	return p.r.run(ipc.Play(path))
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	st, err := p.r.status()
	if err != nil {
		return types.PlaybackStatusStopped, err
	}
	switch st.State {
	case player.Playing:
		return types.PlaybackStatusPlaying, nil
	case player.Paused:
		return types.PlaybackStatusPaused, nil
	case player.Stopped:
		return types.PlaybackStatusStopped, nil
	}
	return types.PlaybackStatusStopped, nil
}

func (p *playerAdapter) Rate() (float64, error)        { return 1.0, nil }
func (p *playerAdapter) SetRate(_ float64) error       { return nil }
func (p *playerAdapter) MinimumRate() (float64, error) { return 1.0, nil }
func (p *playerAdapter) MaximumRate() (float64, error) { return 1.0, nil }

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	st, err := p.r.status()
	if err != nil {
		return types.Metadata{}, err
	}
	path, ok := st.Track()
	if !ok {
		return types.Metadata{}, nil
	}

	meta := types.Metadata{
		TrackId: dbus.ObjectPath(trackID(path)),
		Length:  types.Microseconds(secondsToMicros(st.Duration)),
		Title:   trackinfo.Label(path),
	}
	if info, err := trackinfo.Read(path); err == nil {
		meta.Title = info.Title
		meta.Album = info.Album
		meta.TrackNumber = info.Track
		if info.Artist != "" {
			meta.Artist = []string{info.Artist}
		}
	}
	if artPath := trackinfo.FindAlbumArt(path); artPath != "" {
		meta.ArtUrl = "file://" + artPath
	}
	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	st, err := p.r.status()
	if err != nil {
		return 0, err
	}
	return levelToVolume(st.Volume), nil
}

func (p *playerAdapter) SetVolume(v float64) error {
	return p.r.run(ipc.SetVolume(volumeToLevel(v)))
}

func (p *playerAdapter) Position() (int64, error) {
	st, err := p.r.status()
	if err != nil {
		return 0, err
	}
	return secondsToMicros(st.Position), nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	st, err := p.r.status()
	if err != nil {
		return false, err
	}
	return st.PlaylistLength > 0, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	st, err := p.r.status()
	if err != nil {
		return false, err
	}
	idx, ok := st.Index()
	return ok && idx > 0, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	st, err := p.r.status()
	if err != nil {
		return false, err
	}
	_, loaded := st.Track()
	return loaded || st.PlaylistLength > 0, nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	st, err := p.r.status()
	if err != nil {
		return false, err
	}
	return st.State == player.Playing || st.State == player.Paused, nil
}

func (p *playerAdapter) CanSeek() (bool, error)    { return false, nil }
func (p *playerAdapter) CanControl() (bool, error) { return true, nil }
