package model

import "fmt"

// Format is one stream variant advertised by the extractor.
// Height and FPS are zero when the extractor does not report them.
type Format struct {
	FormatID string  `json:"format_id"`
	Ext      string  `json:"ext"`
	Height   int     `json:"height,omitempty"`
	FPS      float64 `json:"fps,omitempty"`
	VCodec   string  `json:"vcodec,omitempty"`
	ACodec   string  `json:"acodec,omitempty"`
}

// HasVideo reports whether the format carries a video stream.
func (f Format) HasVideo() bool {
	return f.VCodec != "none" && f.Height > 0
}

// Thumbnail is a preview image reference.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Metadata is the snapshot returned by one metadata fetch.
type Metadata struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	SafeTitle   string      `json:"safe_title"` // filesystem-safe title from the extractor
	Channel     string      `json:"channel"`
	DurationSec float64     `json:"duration"`
	Thumbnails  []Thumbnail `json:"thumbnails,omitempty"` // ordered, last = highest resolution
	Formats     []Format    `json:"formats,omitempty"`
	WebpageURL  string      `json:"webpage_url,omitempty"`
}

// ThumbnailURL returns the highest-resolution thumbnail, or "".
func (m Metadata) ThumbnailURL() string {
	for i := len(m.Thumbnails) - 1; i >= 0; i-- {
		if m.Thumbnails[i].URL != "" {
			return m.Thumbnails[i].URL
		}
	}
	return ""
}

// DurationLabel renders the duration as m:ss.
func (m Metadata) DurationLabel() string {
	total := int(m.DurationSec)
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
