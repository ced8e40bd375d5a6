package pipeline

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/karrick/godirwalk"

	"github.com/adriarlol/MiniMarker/internal/config"
)

// Supported extensions (lowercase, with leading dot) and the kind of
// processing each one gets.
var mediaExtensions = map[string]config.MediaKind{
	".png":  config.KindImage,
	".jpg":  config.KindImage,
	".jpeg": config.KindImage,
	".mp4":  config.KindVideo,
	".avi":  config.KindVideo,
	".mkv":  config.KindVideo,
}

// Media is one discovered input file.
type Media struct {
	Path string
	Kind config.MediaKind // KindImage or KindVideo.
}

// Classify returns the media kind for path's extension, case-insensitively.
func Classify(path string) (config.MediaKind, bool) {
	k, ok := mediaExtensions[strings.ToLower(filepath.Ext(path))]
	return k, ok
}

// Discover lists the immediate entries of dir (no recursion), keeps regular
// files with a supported extension whose kind is selected by want, and
// returns them sorted by path for deterministic processing order. Symlinks
// are followed one level so a link to a regular file counts as a file.
func Discover(dir string, want config.MediaKind) ([]Media, error) {
	dirents, err := godirwalk.ReadDirents(dir, nil)
	if err != nil {
		return nil, err
	}

	var files []Media
	for _, de := range dirents {
		path := filepath.Join(dir, de.Name())
		if !isRegular(path, de) {
			continue
		}
		kind, ok := Classify(path)
		if !ok || !wants(want, kind) {
			continue
		}
		files = append(files, Media{Path: path, Kind: kind})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func isRegular(path string, de *godirwalk.Dirent) bool {
	if de.IsRegular() {
		return true
	}
	if !de.IsSymlink() {
		return false
	}
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

func wants(want, k config.MediaKind) bool {
	return want == "" || want == config.KindAll || want == k
}
