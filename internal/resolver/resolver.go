// Package resolver turns a download request and a metadata snapshot into the
// options handed to the extractor and the transcoder. It performs no I/O.
package resolver

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"prodl/internal/model"
)

const untitled = "untitled"

// Resolved is the outcome of Resolve.
type Resolved struct {
	Mode          model.Mode
	Format        string   // format-selection expression for the extractor
	TranscodeArgs []string // codec and filter arguments for ffmpeg
	OutputName    string   // <safe title>.<ext>
	Extension     string
	VideoCodec    string // empty for audio-only
	AudioCodec    string
	ResolutionCap int
	FrameRate     int
	Quality       Quality
	Lossless      bool
}

// Validate performs the checks that need no metadata. Callers run it before
// any external call.
func Validate(req model.DownloadRequest) error {
	ext := normalizeExt(req.TargetExtension)
	switch req.Mode {
	case model.ModeVideo:
		if ext == "" {
			return &model.ConfigurationError{Field: "ext", Reason: "required"}
		}
		if _, ok := LookupContainer(ext); !ok {
			return &model.ConfigurationError{Field: "ext", Reason: fmt.Sprintf("%q is not a video container (valid: %s)", ext, strings.Join(videoExts(), "|"))}
		}
		if req.ResolutionCap <= 0 {
			return &model.ConfigurationError{Field: "resolution", Reason: "required for video downloads"}
		}
		if req.FrameRate <= 0 {
			return &model.ConfigurationError{Field: "fps", Reason: "required for video downloads"}
		}
		if !validFrameRate(req.FrameRate) {
			return &model.ConfigurationError{Field: "fps", Reason: fmt.Sprintf("%d is not supported (valid: %s)", req.FrameRate, joinInts(FrameRates, "|"))}
		}
	case model.ModeAudio:
		if ext == "" {
			return &model.ConfigurationError{Field: "ext", Reason: "required"}
		}
		if _, ok := LookupAudioFormat(ext); !ok {
			return &model.ConfigurationError{Field: "ext", Reason: fmt.Sprintf("%q is not an audio format (valid: %s)", ext, strings.Join(audioExts(), "|"))}
		}
		if req.ResolutionCap != 0 {
			return &model.ConfigurationError{Field: "resolution", Reason: "not allowed for audio-only downloads"}
		}
		if req.FrameRate != 0 {
			return &model.ConfigurationError{Field: "fps", Reason: "not allowed for audio-only downloads"}
		}
	default:
		return &model.ConfigurationError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q (valid: video|audio)", req.Mode)}
	}
	return nil
}

// Resolve maps a request and the metadata snapshot to extractor and
// transcoder options. Identical inputs always produce identical output.
func Resolve(req model.DownloadRequest, meta model.Metadata) (Resolved, error) {
	if err := Validate(req); err != nil {
		return Resolved{}, err
	}
	if req.Mode == model.ModeAudio {
		return resolveAudio(req, meta), nil
	}
	return resolveVideo(req, meta)
}

func resolveVideo(req model.DownloadRequest, meta model.Metadata) (Resolved, error) {
	available := AvailableResolutions(meta.Formats)
	if len(available) == 0 {
		return Resolved{}, &model.ConfigurationError{Field: "resolution", Reason: "no video resolutions are available for this URL"}
	}
	if !containsInt(available, req.ResolutionCap) {
		return Resolved{}, &model.ConfigurationError{Field: "resolution", Reason: fmt.Sprintf("%dp is not available (available: %s)", req.ResolutionCap, resolutionList(available))}
	}

	c, _ := LookupContainer(req.TargetExtension)
	q := LookupQuality(req.AudioQualityLabel)
	h, fps := req.ResolutionCap, req.FrameRate

	// exact height+fps, then height-capped, then unconstrained
	format := fmt.Sprintf(
		"bestvideo[height=%d][fps=%d]+bestaudio/bestvideo[height<=%d]+bestaudio/bestvideo+bestaudio/best",
		h, fps, h,
	)

	args := []string{"-c:v", c.VideoCodec}
	args = append(args, c.VideoArgs...)
	args = append(args,
		"-vf", "fps="+strconv.Itoa(fps),
		"-pix_fmt", "yuv420p",
		"-c:a", c.AudioCodec,
		"-b:a", q.Bitrate,
	)
	args = append(args, c.MuxArgs...)

	return Resolved{
		Mode:          model.ModeVideo,
		Format:        format,
		TranscodeArgs: args,
		OutputName:    outputName(meta, c.Ext),
		Extension:     c.Ext,
		VideoCodec:    c.VideoCodec,
		AudioCodec:    c.AudioCodec,
		ResolutionCap: h,
		FrameRate:     fps,
		Quality:       q,
	}, nil
}

func resolveAudio(req model.DownloadRequest, meta model.Metadata) Resolved {
	a, _ := LookupAudioFormat(req.TargetExtension)
	q := LookupQuality(req.AudioQualityLabel)
	if a.Lossless {
		q = QualityBest
	}

	args := []string{"-vn", "-c:a", a.Codec}
	switch {
	case a.Ext == "flac":
		args = append(args, "-compression_level", "12")
	case a.Lossless:
	case a.Ext == "mp3":
		args = append(args, "-q:a", q.VBR)
	default:
		args = append(args, "-b:a", q.Bitrate)
	}
	if a.Ext == "m4a" {
		args = append(args, "-movflags", "+faststart")
	}

	return Resolved{
		Mode:          model.ModeAudio,
		Format:        "bestaudio/best",
		TranscodeArgs: args,
		OutputName:    outputName(meta, a.Ext),
		Extension:     a.Ext,
		AudioCodec:    a.Codec,
		Quality:       q,
		Lossless:      a.Lossless,
	}
}

// AvailableResolutions returns the distinct heights of video-bearing formats,
// highest first.
func AvailableResolutions(formats []model.Format) []int {
	seen := make(map[int]struct{})
	var out []int
	for _, f := range formats {
		if !f.HasVideo() {
			continue
		}
		if _, ok := seen[f.Height]; ok {
			continue
		}
		seen[f.Height] = struct{}{}
		out = append(out, f.Height)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// DefaultResolution picks the highest advertised resolution.
func DefaultResolution(meta model.Metadata) (int, error) {
	available := AvailableResolutions(meta.Formats)
	if len(available) == 0 {
		return 0, &model.ConfigurationError{Field: "resolution", Reason: "no video resolutions are available for this URL"}
	}
	return available[0], nil
}

func outputName(meta model.Metadata, ext string) string {
	base := strings.TrimSpace(meta.SafeTitle)
	if base == "" {
		base = untitled
	}
	return base + "." + ext
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func resolutionList(hs []int) string {
	parts := make([]string, len(hs))
	for i, h := range hs {
		parts[i] = strconv.Itoa(h) + "p"
	}
	return strings.Join(parts, ", ")
}

func joinInts(xs []int, sep string) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, sep)
}

func videoExts() []string {
	out := make([]string, len(videoContainers))
	for i, c := range videoContainers {
		out[i] = c.Ext
	}
	return out
}

func audioExts() []string {
	out := make([]string, len(audioFormats))
	for i, a := range audioFormats {
		out[i] = a.Ext
	}
	return out
}
