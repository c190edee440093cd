// Package ipc defines the daemon's control protocol and its TCP transport.
//
// Every exchange is one JSON document per line in each direction. Messages
// are externally tagged: variants without fields travel as a bare string
// ("Pause"), variants with fields as a single-key object
// ({"SetVolume":{"level":55}}).
package ipc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/llehouerou/musicplayer/internal/player"
)

// DefaultAddr is the loopback address the daemon listens on.
const DefaultAddr = "127.0.0.1:12345"

// ErrProtocol marks a message that could not be decoded.
var ErrProtocol = errors.New("protocol error")

// CommandKind identifies a Command variant. The value is the wire tag.
type CommandKind string

const (
	CmdPlay          CommandKind = "Play"
	CmdPause         CommandKind = "Pause"
	CmdStop          CommandKind = "Stop"
	CmdNext          CommandKind = "Next"
	CmdPrevious      CommandKind = "Previous"
	CmdSetVolume     CommandKind = "SetVolume"
	CmdAddTracks     CommandKind = "AddTracks"
	CmdGetStatus     CommandKind = "GetStatus"
	CmdGetPlaylist   CommandKind = "GetPlaylist"
	CmdClearPlaylist CommandKind = "ClearPlaylist"
	CmdShutdown      CommandKind = "Shutdown"
)

// hasFields reports whether the variant carries a payload object.
func (k CommandKind) hasFields() bool {
	return k == CmdPlay || k == CmdSetVolume || k == CmdAddTracks
}

func (k CommandKind) valid() bool {
	switch k {
	case CmdPlay, CmdPause, CmdStop, CmdNext, CmdPrevious, CmdSetVolume,
		CmdAddTracks, CmdGetStatus, CmdGetPlaylist, CmdClearPlaylist, CmdShutdown:
		return true
	}
	return false
}

// ChangesTrack reports whether the command may replace the playing track.
func (k CommandKind) ChangesTrack() bool {
	return k == CmdPlay || k == CmdNext || k == CmdPrevious || k == CmdStop
}

// Command is a request from a front-end. Only the fields of its Kind are used.
type Command struct {
	Kind  CommandKind
	Path  *string  // Play: nil resumes or starts the playlist
	Level int      // SetVolume
	Paths []string // AddTracks
}

// Play builds a Play command. An empty path means "no specific track".
func Play(path string) Command {
	if path == "" {
		return Command{Kind: CmdPlay}
	}
	return Command{Kind: CmdPlay, Path: &path}
}

// SetVolume builds a SetVolume command.
func SetVolume(level int) Command {
	return Command{Kind: CmdSetVolume, Level: level}
}

// AddTracks builds an AddTracks command.
func AddTracks(paths ...string) Command {
	return Command{Kind: CmdAddTracks, Paths: paths}
}

// Simple builds a command without fields, such as Pause or GetStatus.
func Simple(kind CommandKind) Command {
	return Command{Kind: kind}
}

type playFields struct {
	Path *string `json:"path"`
}

type volumeFields struct {
	Level *int `json:"level"`
}

type addFields struct {
	Paths []string `json:"paths"`
}

// MarshalJSON encodes the command with an external tag.
func (c Command) MarshalJSON() ([]byte, error) {
	var payload any
	switch c.Kind {
	case CmdPlay:
		payload = playFields{Path: c.Path}
	case CmdSetVolume:
		level := c.Level
		payload = volumeFields{Level: &level}
	case CmdAddTracks:
		paths := c.Paths
		if paths == nil {
			paths = []string{}
		}
		payload = addFields{Paths: paths}
	default:
		if !c.Kind.valid() {
			return nil, fmt.Errorf("unknown command %q", c.Kind)
		}
		return json.Marshal(string(c.Kind))
	}
	return json.Marshal(map[CommandKind]any{c.Kind: payload})
}

// UnmarshalJSON decodes an externally tagged command.
func (c *Command) UnmarshalJSON(data []byte) error {
	tag, payload, err := splitTag(data)
	if err != nil {
		return err
	}

	kind := CommandKind(tag)
	if !kind.valid() {
		return fmt.Errorf("unknown command %q", tag)
	}
	if !kind.hasFields() {
		if payload != nil && !isNull(payload) {
			return fmt.Errorf("command %s takes no fields", kind)
		}
		*c = Command{Kind: kind}
		return nil
	}
	if payload == nil {
		return fmt.Errorf("command %s requires fields", kind)
	}

	switch kind {
	case CmdPlay:
		var f playFields
		if err := json.Unmarshal(payload, &f); err != nil {
			return fmt.Errorf("decode %s: %w", kind, err)
		}
		*c = Command{Kind: kind, Path: f.Path}
	case CmdSetVolume:
		var f volumeFields
		if err := json.Unmarshal(payload, &f); err != nil {
			return fmt.Errorf("decode %s: %w", kind, err)
		}
		if f.Level == nil {
			return fmt.Errorf("decode %s: missing field level", kind)
		}
		if *f.Level < 0 || *f.Level > 255 {
			return fmt.Errorf("decode %s: level %d out of range", kind, *f.Level)
		}
		*c = Command{Kind: kind, Level: *f.Level}
	case CmdAddTracks:
		var f addFields
		if err := json.Unmarshal(payload, &f); err != nil {
			return fmt.Errorf("decode %s: %w", kind, err)
		}
		if f.Paths == nil {
			return fmt.Errorf("decode %s: missing field paths", kind)
		}
		*c = Command{Kind: kind, Paths: f.Paths}
	}
	return nil
}

// ResponseKind identifies a Response variant. The value is the wire tag.
type ResponseKind string

const (
	RespOk       ResponseKind = "Ok"
	RespStatus   ResponseKind = "Status"
	RespPlaylist ResponseKind = "Playlist"
	RespError    ResponseKind = "Error"
)

// Status is a snapshot of the player and playlist.
type Status struct {
	State          player.State `json:"state"`
	CurrentTrack   *string      `json:"current_track"`
	Position       float64      `json:"position"`
	Duration       float64      `json:"duration"`
	Volume         int          `json:"volume"`
	PlaylistLength int          `json:"playlist_length"`
	CurrentIndex   *int         `json:"current_index"`
}

// Track returns the current track, if any.
func (s Status) Track() (string, bool) {
	if s.CurrentTrack == nil {
		return "", false
	}
	return *s.CurrentTrack, true
}

// Index returns the playlist cursor, if any.
func (s Status) Index() (int, bool) {
	if s.CurrentIndex == nil {
		return 0, false
	}
	return *s.CurrentIndex, true
}

// Response is the daemon's answer to one Command.
type Response struct {
	Kind    ResponseKind
	Status  *Status  // Status
	Tracks  []string // Playlist
	Message string   // Error
}

// OK is the plain success response.
func OK() Response { return Response{Kind: RespOk} }

// StatusResponse wraps a status snapshot.
func StatusResponse(s Status) Response { return Response{Kind: RespStatus, Status: &s} }

// PlaylistResponse wraps the playlist contents.
func PlaylistResponse(tracks []string) Response {
	return Response{Kind: RespPlaylist, Tracks: tracks}
}

// Error builds a failure response carrying a human-readable message.
func Error(msg string) Response { return Response{Kind: RespError, Message: msg} }

// CommandError is a failure reported by the daemon in an Error response.
type CommandError struct {
	Message string
}

func (e *CommandError) Error() string { return e.Message }

// Err returns a *CommandError for Error responses and nil otherwise.
func (r Response) Err() error {
	if r.Kind == RespError {
		return &CommandError{Message: r.Message}
	}
	return nil
}

// MarshalJSON encodes the response with an external tag.
func (r Response) MarshalJSON() ([]byte, error) {
	var payload any
	switch r.Kind {
	case RespOk:
		return json.Marshal(string(RespOk))
	case RespStatus:
		if r.Status == nil {
			return nil, errors.New("status response without status")
		}
		payload = r.Status
	case RespPlaylist:
		tracks := r.Tracks
		if tracks == nil {
			tracks = []string{}
		}
		payload = tracks
	case RespError:
		payload = r.Message
	default:
		return nil, fmt.Errorf("unknown response %q", r.Kind)
	}
	return json.Marshal(map[ResponseKind]any{r.Kind: payload})
}

// UnmarshalJSON decodes an externally tagged response.
func (r *Response) UnmarshalJSON(data []byte) error {
	tag, payload, err := splitTag(data)
	if err != nil {
		return err
	}

	kind := ResponseKind(tag)
	if kind == RespOk {
		if payload != nil && !isNull(payload) {
			return errors.New("response Ok takes no fields")
		}
		*r = OK()
		return nil
	}
	if payload == nil {
		return fmt.Errorf("response %q requires a value", tag)
	}

	switch kind {
	case RespStatus:
		var s Status
		if err := json.Unmarshal(payload, &s); err != nil {
			return fmt.Errorf("decode %s: %w", kind, err)
		}
		*r = StatusResponse(s)
	case RespPlaylist:
		var tracks []string
		if err := json.Unmarshal(payload, &tracks); err != nil {
			return fmt.Errorf("decode %s: %w", kind, err)
		}
		*r = PlaylistResponse(tracks)
	case RespError:
		var msg string
		if err := json.Unmarshal(payload, &msg); err != nil {
			return fmt.Errorf("decode %s: %w", kind, err)
		}
		*r = Error(msg)
	default:
		return fmt.Errorf("unknown response %q", tag)
	}
	return nil
}

// splitTag separates an externally tagged value into its tag and payload.
// A bare string yields a nil payload.
func splitTag(data []byte) (string, json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return "", nil, errors.New("empty message")
	}

	switch data[0] {
	case '"':
		var tag string
		if err := json.Unmarshal(data, &tag); err != nil {
			return "", nil, err
		}
		return tag, nil, nil
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return "", nil, err
		}
		if len(obj) != 1 {
			return "", nil, fmt.Errorf("expected a single variant, got %d keys", len(obj))
		}
		for tag, payload := range obj {
			return tag, payload, nil
		}
	}
	return "", nil, errors.New("expected a string or an object")
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
