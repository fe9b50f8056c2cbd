package downloader

import (
	"errors"
	"path/filepath"
	"sort"
	"strings"
)

// SelectDownloadedFile finds the media file yt-dlp left in workdir under
// base.*, preferring merged containers. Partial and sidecar files are ignored.
func SelectDownloadedFile(workdir, base string) (string, error) {
	candidates, err := filepath.Glob(filepath.Join(workdir, base+".*"))
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		all, _ := filepath.Glob(filepath.Join(workdir, "*"))
		candidates = all
	}
	candidates = filterMedia(candidates)
	if len(candidates) == 0 {
		return "", errors.New("no output file found")
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		pri := extPriority(filepath.Ext(candidates[i]))
		prj := extPriority(filepath.Ext(candidates[j]))
		if pri == prj {
			return candidates[i] < candidates[j]
		}
		return pri < prj
	})
	return candidates[0], nil
}

func filterMedia(paths []string) []string {
	out := paths[:0:0]
	for _, p := range paths {
		switch strings.ToLower(filepath.Ext(p)) {
		case ".part", ".ytdl", ".temp", ".json", ".jpg", ".webp", ".png", ".vtt", ".srt":
			continue
		}
		if strings.Contains(filepath.Base(p), ".part-Frag") {
			continue
		}
		out = append(out, p)
	}
	return out
}

// extPriority ranks extensions, lower is better. The merge target comes first.
func extPriority(ext string) int {
	switch strings.ToLower(ext) {
	case ".mkv":
		return 0
	case ".mp4":
		return 1
	case ".webm":
		return 2
	case ".mov":
		return 3
	case ".m4a", ".opus", ".ogg", ".mp3", ".aac", ".flac", ".wav":
		return 4
	case ".avi", ".flv":
		return 5
	default:
		return 100
	}
}
