package trackinfo

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLabel_FallsBackToFileName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "01 - Intro.mp3")
	if err := os.WriteFile(path, []byte("not really an mp3"), 0o600); err != nil {
		t.Fatal(err)
	}

	if got := Label(path); got != "01 - Intro.mp3" {
		t.Errorf("Label() = %q, want file name", got)
	}
}

func TestLabel_MissingFile(t *testing.T) {
	if got := Label("/does/not/exist/song.flac"); got != "song.flac" {
		t.Errorf("Label() = %q, want song.flac", got)
	}
}

func TestRead_Error(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "missing.mp3")); err == nil {
		t.Error("Read() of a missing file should fail")
	}
}

func TestBaseName(t *testing.T) {
	if got := baseName("/music/Artist/Song Title.flac"); got != "Song Title" {
		t.Errorf("baseName() = %q, want %q", got, "Song Title")
	}
}

func TestFindAlbumArt(t *testing.T) {
	dir := t.TempDir()
	trackPath := filepath.Join(dir, "track.mp3")

	if got := FindAlbumArt(trackPath); got != "" {
		t.Errorf("FindAlbumArt() = %q, want empty", got)
	}

	// Lower priority name first, then a higher priority one.
	folderPath := filepath.Join(dir, "folder.png")
	coverPath := filepath.Join(dir, "cover.jpg")
	for _, p := range []string{folderPath, coverPath} {
		if err := os.WriteFile(p, []byte{0xFF, 0xD8}, 0o600); err != nil {
			t.Fatal(err)
		}
	}

	if got := FindAlbumArt(trackPath); got != coverPath {
		t.Errorf("FindAlbumArt() = %q, want %q", got, coverPath)
	}
}
