package daemon

import "github.com/llehouerou/musicplayer/internal/player"

// StateChange is emitted when the player's state differs after a command
// or an auto-advance.
type StateChange struct {
	Previous player.State
	Current  player.State
}

// TrackChange is emitted when a different track has been loaded.
//
// Emitted by:
//   - Play, Next, Previous: when the loaded track differs from before
//   - auto-advance: when the playlist moves on by itself (Auto is set)
//
// NOT emitted by:
//   - Pause: the track stays loaded
//   - AddTracks/ClearPlaylist: the cursor may move but nothing is loaded
//
// Stop emits a TrackChange with an empty Current.
type TrackChange struct {
	Previous string
	Current  string
	Index    int // playlist cursor after the change, -1 if none
	Auto     bool
}

// PlaylistChange is emitted when the playlist contents or cursor change.
type PlaylistChange struct {
	Length int
	Index  int // -1 if none
}

// VolumeChange is emitted when the volume changes.
type VolumeChange struct {
	Volume int
}
