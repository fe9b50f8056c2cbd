package resolver

import "strings"

// Container describes a video output target and the encoders used for it.
type Container struct {
	Ext        string
	Label      string
	VideoCodec string
	VideoArgs  []string // encoder tuning placed after -c:v
	AudioCodec string
	MuxArgs    []string // container flags placed last
}

// AudioFormat describes an audio-only target. Ext is the container extension,
// Codec the encoder name ffmpeg expects; they differ for m4a and wav.
type AudioFormat struct {
	Ext      string
	Label    string
	Codec    string
	Lossless bool
}

// Quality is one row of the audio quality table.
type Quality struct {
	Label   string
	Bitrate string // used with -b:a
	VBR     string // libmp3lame -q:a scale, 0 is best
}

var videoContainers = []Container{
	{Ext: "mp4", Label: "MP4 (recommended, widest compatibility)", VideoCodec: "libx264", VideoArgs: []string{"-preset", "medium", "-crf", "22"}, AudioCodec: "aac", MuxArgs: []string{"-movflags", "+faststart"}},
	{Ext: "mkv", Label: "MKV (high quality, multi-track)", VideoCodec: "libx264", VideoArgs: []string{"-preset", "medium", "-crf", "22"}, AudioCodec: "aac"},
	{Ext: "webm", Label: "WebM (web optimized)", VideoCodec: "libvpx-vp9", VideoArgs: []string{"-crf", "32", "-b:v", "0"}, AudioCodec: "libopus"},
	{Ext: "mov", Label: "MOV (Apple, editing)", VideoCodec: "libx264", VideoArgs: []string{"-preset", "medium", "-crf", "22"}, AudioCodec: "aac", MuxArgs: []string{"-movflags", "+faststart"}},
	{Ext: "avi", Label: "AVI (legacy players)", VideoCodec: "mpeg4", VideoArgs: []string{"-q:v", "3"}, AudioCodec: "libmp3lame"},
	{Ext: "flv", Label: "FLV (Flash video)", VideoCodec: "libx264", VideoArgs: []string{"-preset", "medium", "-crf", "22"}, AudioCodec: "aac"},
}

var audioFormats = []AudioFormat{
	{Ext: "mp3", Label: "MP3 (most common)", Codec: "libmp3lame"},
	{Ext: "m4a", Label: "M4A (AAC, good quality)", Codec: "aac"},
	{Ext: "flac", Label: "FLAC (lossless)", Codec: "flac", Lossless: true},
	{Ext: "wav", Label: "WAV (uncompressed)", Codec: "pcm_s16le", Lossless: true},
	{Ext: "opus", Label: "Opus (efficient)", Codec: "libopus"},
	{Ext: "aac", Label: "AAC (raw ADTS)", Codec: "aac"},
}

// Quality table, best first.
var (
	QualityBest     = Quality{Label: "Best (≈320k)", Bitrate: "320k", VBR: "0"}
	QualityHigh     = Quality{Label: "High (≈256k)", Bitrate: "256k", VBR: "2"}
	QualityStandard = Quality{Label: "Standard (≈192k)", Bitrate: "192k", VBR: "5"}
	QualityLow      = Quality{Label: "Low (≈128k)", Bitrate: "128k", VBR: "7"}

	qualities = []Quality{QualityBest, QualityHigh, QualityStandard, QualityLow}
)

// DefaultQuality is used whenever a label is missing or unrecognized.
var DefaultQuality = QualityStandard

// FrameRates lists the output frame rates a video request may force.
var FrameRates = []int{60, 45, 30, 24, 15}

// VideoContainers returns the video targets in display order.
func VideoContainers() []Container {
	return append([]Container(nil), videoContainers...)
}

// AudioFormats returns the audio-only targets in display order.
func AudioFormats() []AudioFormat {
	return append([]AudioFormat(nil), audioFormats...)
}

// Qualities returns the quality table, best first.
func Qualities() []Quality {
	return append([]Quality(nil), qualities...)
}

// LookupContainer finds a video target by extension.
func LookupContainer(ext string) (Container, bool) {
	ext = normalizeExt(ext)
	for _, c := range videoContainers {
		if c.Ext == ext {
			return c, true
		}
	}
	return Container{}, false
}

// LookupAudioFormat finds an audio target by extension.
func LookupAudioFormat(ext string) (AudioFormat, bool) {
	ext = normalizeExt(ext)
	for _, a := range audioFormats {
		if a.Ext == ext {
			return a, true
		}
	}
	return AudioFormat{}, false
}

// LookupQuality matches a full label or its leading word ("best", "Low")
// case-insensitively. Unknown or empty labels yield DefaultQuality.
func LookupQuality(label string) Quality {
	label = strings.TrimSpace(label)
	if label == "" {
		return DefaultQuality
	}
	for _, q := range qualities {
		if strings.EqualFold(q.Label, label) || strings.EqualFold(qualityKey(q), label) {
			return q
		}
	}
	return DefaultQuality
}

// QualityKey returns the short name of a quality row ("standard").
func QualityKey(q Quality) string {
	return qualityKey(q)
}

func qualityKey(q Quality) string {
	key, _, _ := strings.Cut(q.Label, " ")
	return strings.ToLower(key)
}

func validFrameRate(fps int) bool {
	for _, f := range FrameRates {
		if f == fps {
			return true
		}
	}
	return false
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
