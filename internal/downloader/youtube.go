package downloader

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/kkdai/youtube/v2"

	"prodl/internal/model"
	"prodl/internal/util"
)

// YouTubeSource reads YouTube metadata through the innertube API without
// spawning the extractor binary.
type YouTubeSource struct {
	client *youtube.Client
}

// NewYouTubeSource returns a source using hc, or http.DefaultClient when nil.
func NewYouTubeSource(hc *http.Client) *YouTubeSource {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &YouTubeSource{client: &youtube.Client{HTTPClient: hc}}
}

func (s *YouTubeSource) FetchMetadata(ctx context.Context, url string) (model.Metadata, error) {
	v, err := s.client.GetVideoContext(ctx, url)
	if err != nil {
		return model.Metadata{}, fmt.Errorf("youtube metadata: %w", err)
	}
	return videoMetadata(v), nil
}

func videoMetadata(v *youtube.Video) model.Metadata {
	m := model.Metadata{
		ID:          v.ID,
		Title:       v.Title,
		SafeTitle:   util.SanitizeFilename(v.Title),
		Channel:     v.Author,
		DurationSec: v.Duration.Seconds(),
		WebpageURL:  "https://www.youtube.com/watch?v=" + v.ID,
	}
	for _, t := range v.Thumbnails {
		m.Thumbnails = append(m.Thumbnails, model.Thumbnail{URL: t.URL, Width: int(t.Width), Height: int(t.Height)})
	}
	for _, f := range v.Formats {
		ext, vcodec, acodec := splitMimeType(f.MimeType)
		m.Formats = append(m.Formats, model.Format{
			FormatID: strconv.Itoa(f.ItagNo),
			Ext:      ext,
			Height:   f.Height,
			FPS:      float64(f.FPS),
			VCodec:   vcodec,
			ACodec:   acodec,
		})
	}
	return m
}

// splitMimeType maps `video/mp4; codecs="avc1.4d401f, mp4a.40.2"` to the
// yt-dlp style ext/vcodec/acodec triple, using "none" for a missing stream.
func splitMimeType(mime string) (ext, vcodec, acodec string) {
	kind, params, _ := strings.Cut(mime, ";")
	major, sub, _ := strings.Cut(strings.TrimSpace(kind), "/")
	ext = sub
	if major == "audio" && sub == "mp4" {
		ext = "m4a"
	}

	var codecs []string
	if _, list, ok := strings.Cut(params, "codecs="); ok {
		for _, c := range strings.Split(strings.Trim(strings.TrimSpace(list), `"`), ",") {
			if c = strings.TrimSpace(c); c != "" {
				codecs = append(codecs, c)
			}
		}
	}

	vcodec, acodec = "none", "none"
	switch major {
	case "video":
		if len(codecs) > 0 {
			vcodec = codecs[0]
		}
		if len(codecs) > 1 {
			acodec = codecs[1]
		}
	case "audio":
		if len(codecs) > 0 {
			acodec = codecs[0]
		}
	}
	return ext, vcodec, acodec
}
