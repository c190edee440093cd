package keymap

// Binding ties keys to an action. The first key is the one shown in help.
type Binding struct {
	Action      Action
	Keys        []string
	Description string
}

// Bindings is the default key map.
var Bindings = []Binding{
	{ActionPlayPause, []string{" "}, "play/pause"},
	{ActionStop, []string{"s"}, "stop"},
	{ActionNextTrack, []string{"n", "right"}, "next"},
	{ActionPrevTrack, []string{"p", "b", "left"}, "prev"},
	{ActionVolumeUp, []string{"+", "=", "up"}, "volume up"},
	{ActionVolumeDown, []string{"-", "_", "down"}, "volume down"},
	{ActionClearPlaylist, []string{"c"}, "clear"},
	{ActionQuit, []string{"q", "esc", "ctrl+c", "ctrl+d"}, "quit"},
}
