package downloader

import (
	"path/filepath"
	"strings"

	"prodl/internal/model"
	"prodl/internal/util"
)

// YTDLPInfo mirrors the fields of yt-dlp --dump-json output that we use.
type YTDLPInfo struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Channel    string        `json:"channel"`
	Uploader   string        `json:"uploader"`
	Duration   float64       `json:"duration"`
	WebpageURL string        `json:"webpage_url"`
	Filename   string        `json:"_filename"`
	Thumbnail  string        `json:"thumbnail"`
	Thumbnails []ytdlpThumb  `json:"thumbnails"`
	Formats    []ytdlpFormat `json:"formats"`
}

type ytdlpThumb struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Height and FPS are null for audio-only entries; null leaves them zero.
type ytdlpFormat struct {
	FormatID string  `json:"format_id"`
	Ext      string  `json:"ext"`
	Height   int     `json:"height"`
	FPS      float64 `json:"fps"`
	VCodec   string  `json:"vcodec"`
	ACodec   string  `json:"acodec"`
}

// Metadata converts the yt-dlp view into the shared snapshot.
func (i YTDLPInfo) Metadata() model.Metadata {
	m := model.Metadata{
		ID:          i.ID,
		Title:       i.Title,
		SafeTitle:   safeTitle(i.Filename, i.Title),
		Channel:     i.Channel,
		DurationSec: i.Duration,
		WebpageURL:  i.WebpageURL,
	}
	if m.Channel == "" {
		m.Channel = i.Uploader
	}
	for _, t := range i.Thumbnails {
		m.Thumbnails = append(m.Thumbnails, model.Thumbnail{URL: t.URL, Width: t.Width, Height: t.Height})
	}
	if len(m.Thumbnails) == 0 && i.Thumbnail != "" {
		m.Thumbnails = []model.Thumbnail{{URL: i.Thumbnail}}
	}
	for _, f := range i.Formats {
		m.Formats = append(m.Formats, model.Format{
			FormatID: f.FormatID,
			Ext:      f.Ext,
			Height:   f.Height,
			FPS:      f.FPS,
			VCodec:   f.VCodec,
			ACodec:   f.ACodec,
		})
	}
	return m
}

// safeTitle strips the extension from the restrict-filenames name yt-dlp
// computed, falling back to our own sanitizer.
func safeTitle(filename, title string) string {
	if filename != "" {
		base := filepath.Base(filename)
		base = strings.TrimSuffix(base, filepath.Ext(base))
		if base != "" && base != "." {
			return base
		}
	}
	return util.SanitizeFilename(title)
}
