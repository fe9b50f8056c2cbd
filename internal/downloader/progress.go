package downloader

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"prodl/internal/progress"
)

// ParseProgress parses a yt-dlp --newline output line such as
//
//	[download]  45.2% of ~10.00MiB at  1.50MiB/s ETA 00:04
//
// and reports ok=false for lines that carry no progress.
func ParseProgress(line, jobID string) (u progress.Update, ok bool) {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "[Merger]") {
		return progress.Update{
			JobID:   jobID,
			Stage:   progress.StageMerging,
			Percent: -1,
			Message: progress.StageMerging.Label(),
		}, true
	}
	if !strings.HasPrefix(line, "[download]") {
		return progress.Update{}, false
	}

	rest := strings.TrimSpace(strings.TrimPrefix(line, "[download]"))

	var percent float64 = -1
	if idx := strings.Index(rest, "%"); idx != -1 {
		pctStr := strings.TrimSpace(rest[:idx])
		if p, err := strconv.ParseFloat(pctStr, 64); err == nil {
			percent = p
		}
	}
	if percent < 0 {
		return progress.Update{}, false
	}

	// Downloaded bytes, estimated from the total ("of 10.00MiB")
	var done *int64
	if idx := strings.Index(rest, " of "); idx != -1 {
		size := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest[idx+4:]), "~"))
		if idx2 := strings.Index(size, " "); idx2 != -1 {
			size = size[:idx2]
		}
		if total, err := humanize.ParseBytes(size); err == nil {
			n := int64(float64(total) * percent / 100)
			done = &n
		}
	}

	// Speed ("at 1.50MiB/s")
	var speed *string
	if idx := strings.Index(rest, " at "); idx != -1 {
		speedPart := rest[idx+4:]
		if idx2 := strings.Index(speedPart, " "); idx2 != -1 {
			s := strings.TrimSpace(speedPart[:idx2])
			speed = &s
		}
	}

	// ETA ("ETA 00:04")
	var eta *time.Duration
	if idx := strings.Index(rest, "ETA "); idx != -1 {
		etaStr := strings.TrimSpace(rest[idx+4:])
		if idx2 := strings.Index(etaStr, " "); idx2 != -1 {
			etaStr = etaStr[:idx2]
		}
		if d, err := parseETA(etaStr); err == nil {
			eta = &d
		}
	}

	return progress.Update{
		JobID:   jobID,
		Stage:   progress.StageDownloading,
		Percent: percent,
		Bytes:   done,
		Speed:   speed,
		ETA:     eta,
		Message: progress.StageDownloading.Label(),
	}, true
}

// parseETA parses "SS", "MM:SS" or "HH:MM:SS".
func parseETA(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid ETA %q", s)
	}
	var total time.Duration
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("invalid ETA %q: %w", s, err)
		}
		total = total*60 + time.Duration(n)*time.Second
	}
	return total, nil
}
