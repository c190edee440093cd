package playlist

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/llehouerou/musicplayer/internal/player"
)

// CollectPaths resolves a path to the playable tracks it names.
// A music file yields itself, a directory yields every music file below it
// in lexical order. Symbolic links are followed; a directory reached twice
// through links is walked once. Unreadable entries are skipped.
func CollectPaths(path string) []string {
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	if !info.IsDir() {
		if player.IsMusicFile(path) {
			return []string{path}
		}
		return nil
	}

	var tracks []string
	collectDir(path, make(map[string]struct{}), &tracks)
	return tracks
}

func collectDir(dir string, seen map[string]struct{}, tracks *[]string) {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return
	}
	if _, ok := seen[resolved]; ok {
		return
	}
	seen[resolved] = struct{}{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	slices.Sort(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		// Stat rather than the dir entry so links resolve to their target.
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.IsDir() {
			collectDir(path, seen, tracks)
			continue
		}
		if player.IsMusicFile(path) {
			*tracks = append(*tracks, path)
		}
	}
}
