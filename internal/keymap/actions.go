// Package keymap defines the terminal interface's key bindings.
package keymap

// Action represents a user-triggerable action.
type Action string

const (
	ActionQuit Action = "quit"

	// Transport
	ActionPlayPause Action = "play_pause"
	ActionStop      Action = "stop"
	ActionNextTrack Action = "next_track"
	ActionPrevTrack Action = "prev_track"

	// Volume
	ActionVolumeUp   Action = "volume_up"
	ActionVolumeDown Action = "volume_down"

	// Playlist
	ActionClearPlaylist Action = "clear_playlist"
)
