package player

import (
	"bytes"
	"io"
	"maps"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

const (
	extMP3  = ".mp3"
	extFLAC = ".flac"
	extWAV  = ".wav"
	extOGG  = ".ogg"
	extOPUS = ".opus"
	extM4A  = ".m4a"
	extAAC  = ".aac"
	extWMA  = ".wma"
	extAPE  = ".ape"
	extAIFF = ".aiff"
)

// audioExtensions is the allow-list shared by playlist scanning and
// front-end file pickers. Not every entry has a decoder; tracks without one
// fail at load time and are skipped like any other unplayable file.
var audioExtensions = []string{
	extMP3, extFLAC, extWAV, extOGG, extOPUS, extM4A, extAAC, extWMA, extAPE, extAIFF,
}

// Decoder turns an encoded byte stream into a seekable sample stream.
type Decoder func(rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error)

var defaultDecoders = map[string]Decoder{
	extMP3:  decodeMP3,
	extFLAC: decodeFLAC,
	extWAV:  decodeWAV,
	extOGG:  decodeVorbis,
}

// DefaultDecoders returns a copy of the built-in extension → decoder table.
func DefaultDecoders() map[string]Decoder {
	return maps.Clone(defaultDecoders)
}

// AudioExtensions returns the case-insensitive extension allow-list.
func AudioExtensions() []string {
	return append([]string(nil), audioExtensions...)
}

// IsMusicFile reports whether path has an allow-listed audio extension.
func IsMusicFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range audioExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Decodable reports whether a built-in decoder exists for path.
func Decodable(path string) bool {
	_, ok := defaultDecoders[strings.ToLower(filepath.Ext(path))]
	return ok
}

func decodeFLAC(rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	// Some taggers prepend ID3v2 to FLAC files, which the decoder rejects.
	if err := skipID3v2(rc); err != nil {
		return nil, beep.Format{}, err
	}
	return flac.Decode(rc)
}

func decodeWAV(rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	return wav.Decode(rc)
}

func decodeVorbis(rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	return vorbis.Decode(rc)
}

// skipID3v2 positions r after an ID3v2 tag, or back at the start if none.
func skipID3v2(r io.ReadSeeker) error {
	header := make([]byte, 10)
	n, err := io.ReadFull(r, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return err
	}
	if n < 10 || string(header[:3]) != "ID3" {
		_, err = r.Seek(0, io.SeekStart)
		return err
	}

	// Tag size is a syncsafe integer: 7 significant bits per byte.
	size := int64(header[6])<<21 | int64(header[7])<<14 | int64(header[8])<<7 | int64(header[9])
	_, err = r.Seek(10+size, io.SeekStart)
	return err
}

// memFile exposes an in-memory track as an io.ReadSeekCloser.
type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }
