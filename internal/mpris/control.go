// Package mpris exposes the daemon over the MPRIS D-Bus interface so
// desktop media keys and applets can drive it.
package mpris

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"net/url"
	"time"

	"github.com/llehouerou/musicplayer/internal/ipc"
	"github.com/llehouerou/musicplayer/internal/player"
)

// BusName is the suffix registered under org.mpris.MediaPlayer2.
const BusName = "musicplayer"

// callTimeout bounds a single D-Bus method call into the daemon.
const callTimeout = 2 * time.Second

// Controller is the part of the daemon the adapter drives.
type Controller interface {
	Submit(ctx context.Context, cmd ipc.Command) (ipc.Response, error)
}

// remote issues commands on behalf of D-Bus callers.
type remote struct {
	ctl Controller
}

func (r remote) do(cmd ipc.Command) (ipc.Response, error) {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	resp, err := r.ctl.Submit(ctx, cmd)
	if err != nil {
		return resp, fmt.Errorf("%s: %w", cmd.Kind, err)
	}
	return resp, nil
}

// run issues cmd and folds an Error response into the returned error.
func (r remote) run(cmd ipc.Command) error {
	resp, err := r.do(cmd)
	if err != nil {
		return err
	}
	return resp.Err()
}

func (r remote) status() (ipc.Status, error) {
	resp, err := r.do(ipc.Simple(ipc.CmdGetStatus))
	if err != nil {
		return ipc.Status{}, err
	}
	if err := resp.Err(); err != nil {
		return ipc.Status{}, err
	}
	if resp.Status == nil {
		return ipc.Status{}, errors.New("empty status response")
	}
	return *resp.Status, nil
}

// toggle pauses a playing track and resumes anything else.
func (r remote) toggle() error {
	st, err := r.status()
	if err != nil {
		return err
	}
	if st.State == player.Playing {
		return r.run(ipc.Simple(ipc.CmdPause))
	}
	return r.run(ipc.Play(""))
}

// pause only acts while playing, so a second Pause never resumes.
func (r remote) pause() error {
	st, err := r.status()
	if err != nil {
		return err
	}
	if st.State != player.Playing {
		return nil
	}
	return r.run(ipc.Simple(ipc.CmdPause))
}

// volumeToLevel converts an MPRIS volume (1.0 = 100%) to a daemon level.
func volumeToLevel(v float64) int {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return min(int(math.Round(v*100)), 100)
}

func levelToVolume(level int) float64 {
	return float64(level) / 100
}

func secondsToMicros(s float64) int64 {
	return int64(s * float64(time.Second/time.Microsecond))
}

func trackID(path string) string {
	h := fnv.New64a()
	h.Write([]byte(path))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}

// fileURIPath extracts a local path from a file:// URI.
func fileURIPath(uri string) (string, bool) {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" || u.Path == "" {
		return "", false
	}
	return u.Path, true
}
