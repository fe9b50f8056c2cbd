package model

import "strings"

// Mode selects what a download produces.
type Mode string

const (
	ModeVideo Mode = "video" // video with audio
	ModeAudio Mode = "audio" // audio only
)

// ParseMode maps user input to a Mode. Unknown values are returned as-is so
// validation can report them.
func ParseMode(s string) Mode {
	switch s {
	case "video", "video+audio", "av", "":
		return ModeVideo
	case "audio", "audio-only", "a":
		return ModeAudio
	default:
		return Mode(s)
	}
}

// DownloadRequest is one user action's selections. It is built fresh per
// action and discarded once the response has been delivered.
type DownloadRequest struct {
	URL               string `json:"url"`
	Mode              Mode   `json:"mode"`
	TargetExtension   string `json:"ext"`
	ResolutionCap     int    `json:"resolution,omitempty"` // pixel height, video only
	FrameRate         int    `json:"fps,omitempty"`        // video only
	AudioQualityLabel string `json:"quality,omitempty"`
}

// IsLosslessAudio reports whether the target stores audio without lossy
// compression. Quality selection is ignored for these targets.
// The extension is compared the way the resolver normalizes it.
func (r DownloadRequest) IsLosslessAudio() bool {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(r.TargetExtension), ".")) {
	case "flac", "wav":
		return true
	}
	return false
}

// CLIOptions holds runtime options shared by every command.
type CLIOptions struct {
	OutDir       string
	KeepTemp     bool
	DLBinary     string // Optional explicit path to yt-dlp/youtube-dl
	FFmpegBinary string // Optional explicit path to ffmpeg
	Extractor    string // yt-dlp | youtube
	DryRun       bool
	Verbose      bool
	NoUI         bool
}

// OutputFile describes a finished transcode.
type OutputFile struct {
	Path  string
	Name  string
	Bytes int64
}
