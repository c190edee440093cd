package daemon

import (
	"testing"
	"testing/synctest"

	"github.com/llehouerou/musicplayer/internal/player"
)

func TestNewSubscription_ChannelsReadable(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sub := newSubscription()

		sub.sendState(StateChange{Previous: player.Stopped, Current: player.Playing})
		sub.sendTrack(TrackChange{Current: "/a.mp3", Index: 1})
		sub.sendPlaylist(PlaylistChange{Length: 3, Index: 2})
		sub.sendVolume(VolumeChange{Volume: 42})

		e := <-sub.StateChanged
		if e.Current != player.Playing {
			t.Errorf("StateChanged.Current = %v, want Playing", e.Current)
		}

		tr := <-sub.TrackChanged
		if tr.Index != 1 || tr.Current != "/a.mp3" {
			t.Errorf("TrackChanged = %+v", tr)
		}

		pl := <-sub.PlaylistChanged
		if pl.Length != 3 || pl.Index != 2 {
			t.Errorf("PlaylistChanged = %+v", pl)
		}

		v := <-sub.VolumeChanged
		if v.Volume != 42 {
			t.Errorf("VolumeChanged.Volume = %d, want 42", v.Volume)
		}
	})
}

func TestSubscription_Close_SignalsDone(t *testing.T) {
	synctest.Test(t, func(_ *testing.T) {
		sub := newSubscription()
		sub.close()
		<-sub.Done
	})
}

func TestSubscription_NonBlocking_DropsWhenFull(t *testing.T) {
	sub := newSubscription()

	for range eventBufferSize + 5 {
		sub.sendTrack(TrackChange{})
	}

	count := 0
	for {
		select {
		case <-sub.TrackChanged:
			count++
		default:
			if count != eventBufferSize {
				t.Errorf("received %d events, want %d (buffer size)", count, eventBufferSize)
			}
			return
		}
	}
}
