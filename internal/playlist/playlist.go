package playlist

// Playlist holds an ordered collection of track paths with one movable
// cursor. It does no locking; the owner guards it.
type Playlist struct {
	tracks []string
	cursor int // -1 if no track has been made current
}

// New creates a new empty playlist.
func New() *Playlist {
	return &Playlist{
		tracks: make([]string, 0),
		cursor: -1,
	}
}

// Add appends tracks. Directories are expanded recursively and files
// outside the audio allow-list are skipped. The first track added to an
// empty playlist becomes current.
func (p *Playlist) Add(paths ...string) {
	for _, path := range paths {
		p.append(CollectPaths(path)...)
	}
}

// AddTracks appends already-resolved track paths without filtering.
func (p *Playlist) AddTracks(tracks ...string) {
	p.append(tracks...)
}

func (p *Playlist) append(tracks ...string) {
	if len(tracks) == 0 {
		return
	}
	wasEmpty := len(p.tracks) == 0
	p.tracks = append(p.tracks, tracks...)
	if wasEmpty {
		p.cursor = 0
	}
}

// Clear removes all tracks and resets the cursor.
func (p *Playlist) Clear() {
	p.tracks = p.tracks[:0]
	p.cursor = -1
}

// Next advances the cursor and returns the new current track.
// From no cursor it jumps to the first track. Past the last track the
// cursor is reset and false is returned.
func (p *Playlist) Next() (string, bool) {
	if len(p.tracks) == 0 {
		return "", false
	}
	switch {
	case p.cursor < 0:
		p.cursor = 0
	case p.cursor+1 < len(p.tracks):
		p.cursor++
	default:
		p.cursor = -1
		return "", false
	}
	return p.tracks[p.cursor], true
}

// Previous moves the cursor back and returns the new current track.
// Unlike Next it clamps at the first track instead of running off.
func (p *Playlist) Previous() (string, bool) {
	if len(p.tracks) == 0 {
		return "", false
	}
	if p.cursor > 0 {
		p.cursor--
	} else {
		p.cursor = 0
	}
	return p.tracks[p.cursor], true
}

// Current returns the track under the cursor.
func (p *Playlist) Current() (string, bool) {
	if p.cursor < 0 || p.cursor >= len(p.tracks) {
		return "", false
	}
	return p.tracks[p.cursor], true
}

// CurrentIndex returns the cursor position.
func (p *Playlist) CurrentIndex() (int, bool) {
	if p.cursor < 0 {
		return 0, false
	}
	return p.cursor, true
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	return len(p.tracks)
}

// IsEmpty reports whether the playlist has no tracks.
func (p *Playlist) IsEmpty() bool {
	return len(p.tracks) == 0
}

// Tracks returns a copy of all tracks.
func (p *Playlist) Tracks() []string {
	result := make([]string, len(p.tracks))
	copy(result, p.tracks)
	return result
}
