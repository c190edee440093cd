// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Playback operations
	OpPlay      Op = "play"
	OpPlayFirst Op = "play first track"
	OpPause     Op = "pause"
	OpStop      Op = "stop"
	OpNext      Op = "skip to next track"
	OpPrevious  Op = "go to previous track"
	OpSetVolume Op = "set volume"

	// Playlist operations
	OpAddTracks     Op = "add tracks"
	OpClearPlaylist Op = "clear playlist"
	OpGetPlaylist   Op = "get playlist"

	// Daemon lifecycle
	OpDaemonStart Op = "start daemon"
	OpDaemonStop  Op = "stop daemon"
	OpReadPIDFile Op = "read PID file"
	OpConnect     Op = "communicate with daemon"
	OpGetStatus   Op = "get status"
	OpLoadConfig  Op = "load config"
)

// Fixed command failures that carry no underlying error.
const (
	PlaylistEmpty      = "Playlist is empty"
	NoTrackInPlaylist  = "Failed to get track from playlist"
	NoPlayableNext     = "No playable next track found"
	NoPlayablePrevious = "No playable previous track found"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
