// Package deps locates the external binaries prodl shells out to.
package deps

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// ErrNotFound is wrapped by every lookup failure.
var ErrNotFound = errors.New("executable not found")

// FindDownloader returns the path to yt-dlp, or youtube-dl as a fallback.
// A non-empty custom value is tried as a path and then looked up in PATH.
func FindDownloader(custom string) (string, error) {
	if custom != "" {
		return lookup(custom)
	}
	for _, name := range []string{"yt-dlp", "youtube-dl"} {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: could not find yt-dlp or youtube-dl in PATH; install yt-dlp or pass --dl-binary", ErrNotFound)
}

// FindFFmpeg returns the path to ffmpeg, honouring a custom value the same way
// FindDownloader does.
func FindFFmpeg(custom string) (string, error) {
	if custom != "" {
		return lookup(custom)
	}
	if p, err := exec.LookPath("ffmpeg"); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("%w: could not find ffmpeg in PATH; install ffmpeg or pass --ffmpeg-binary", ErrNotFound)
}

func lookup(custom string) (string, error) {
	if fi, err := os.Stat(custom); err == nil && !fi.IsDir() {
		return custom, nil
	}
	if p, err := exec.LookPath(custom); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrNotFound, custom)
}
