// Package downloader drives the video-extraction tool: it fetches metadata
// snapshots and downloads the selected streams into a work directory.
package downloader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"prodl/internal/model"
	"prodl/internal/progress"
	"prodl/internal/util"
)

// Extractor names accepted by NewSource.
const (
	ExtractorYTDLP   = "yt-dlp"
	ExtractorYouTube = "youtube"
)

// sourceBase is the basename media is downloaded to inside the workdir.
const sourceBase = "source"

// Options controls downloader behavior.
type Options struct {
	DownloaderPath string // Path to yt-dlp or youtube-dl
	Verbose        bool
	Runner         util.CmdRunner
	Reporter       progress.Reporter
	JobID          string
}

func (o Options) runner() util.CmdRunner {
	if o.Runner == nil {
		return util.NewDefaultRunner()
	}
	return o.Runner
}

func (o Options) reporter() progress.Reporter {
	if o.Reporter == nil {
		return progress.Nop{}
	}
	return o.Reporter
}

// MetadataSource produces one metadata snapshot for a URL.
type MetadataSource interface {
	FetchMetadata(ctx context.Context, url string) (model.Metadata, error)
}

// YTDLPSource fetches metadata by running the extractor binary.
type YTDLPSource struct {
	Opts Options
}

func (s YTDLPSource) FetchMetadata(ctx context.Context, url string) (model.Metadata, error) {
	return FetchMetadata(ctx, url, s.Opts)
}

// NewSource picks the metadata source for an extractor name. The youtube
// extractor answers YouTube URLs natively and hands everything else to yt-dlp.
func NewSource(extractor string, opts Options) (MetadataSource, error) {
	switch strings.ToLower(strings.TrimSpace(extractor)) {
	case "", ExtractorYTDLP, "ytdlp":
		return YTDLPSource{Opts: opts}, nil
	case ExtractorYouTube, "native":
		return routedSource{native: NewYouTubeSource(nil), fallback: YTDLPSource{Opts: opts}}, nil
	default:
		return nil, &model.ConfigurationError{Field: "extractor", Reason: fmt.Sprintf("unknown extractor %q (valid: %s|%s)", extractor, ExtractorYTDLP, ExtractorYouTube)}
	}
}

type routedSource struct {
	native   MetadataSource
	fallback MetadataSource
}

func (r routedSource) FetchMetadata(ctx context.Context, url string) (model.Metadata, error) {
	if p, _, err := util.DetectPlatform(url); err == nil && p == util.PlatformYouTube {
		return r.native.FetchMetadata(ctx, url)
	}
	return r.fallback.FetchMetadata(ctx, url)
}

// FetchMetadata runs yt-dlp --dump-json for a single video and converts the
// result. The output template makes yt-dlp report the restrict-filenames
// title in _filename.
func FetchMetadata(ctx context.Context, url string, opts Options) (model.Metadata, error) {
	if opts.DownloaderPath == "" {
		return model.Metadata{}, errors.New("downloader path is required")
	}
	args := []string{
		"--dump-json",
		"--no-playlist",
		"--restrict-filenames",
		"-o", "%(title)s.%(ext)s",
		url,
	}
	res, runErr := opts.runner().Run(ctx, util.CmdSpec{
		Path:          opts.DownloaderPath,
		Args:          args,
		Verbose:       opts.Verbose,
		CaptureStdout: true,
	})
	if runErr != nil && len(res.Stdout) == 0 {
		return model.Metadata{}, withDetail("metadata fetch failed", res, runErr)
	}

	info, err := parseInfo(res.Stdout)
	if err != nil {
		return model.Metadata{}, err
	}
	m := info.Metadata()
	if m.WebpageURL == "" {
		m.WebpageURL = url
	}
	return m, nil
}

// parseInfo decodes the first JSON document, or failing that the last line
// that decodes to an object with an id.
func parseInfo(stdout []byte) (YTDLPInfo, error) {
	data := strings.TrimSpace(string(stdout))
	var info YTDLPInfo
	err := json.NewDecoder(strings.NewReader(data)).Decode(&info)
	if err == nil && info.ID != "" {
		return info, nil
	}
	lines := strings.Split(data, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" || line[0] != '{' {
			continue
		}
		var tmp YTDLPInfo
		if json.Unmarshal([]byte(line), &tmp) == nil && tmp.ID != "" {
			return tmp, nil
		}
	}
	if err == nil {
		err = errors.New("no video id in output")
	}
	return YTDLPInfo{}, fmt.Errorf("parse metadata JSON: %w", err)
}

// Fetch downloads the streams selected by format into workdir, merging
// separate video and audio into mkv, and returns the downloaded file.
func Fetch(ctx context.Context, url, format, workdir string, opts Options) (string, error) {
	if opts.DownloaderPath == "" {
		return "", errors.New("downloader path is required")
	}
	if format == "" {
		format = "best"
	}
	rep := opts.reporter()
	args := []string{
		"-f", format,
		"--merge-output-format", "mkv",
		"--newline",
		"--no-playlist",
		"-o", filepath.Join(workdir, sourceBase+".%(ext)s"),
		url,
	}
	res, runErr := opts.runner().Run(ctx, util.CmdSpec{
		Path:    opts.DownloaderPath,
		Args:    args,
		Dir:     workdir,
		Verbose: opts.Verbose,
		StdoutLine: func(line string) {
			rep.Log(progress.Log{JobID: opts.JobID, Stream: progress.StreamStdout, Line: line})
			if u, ok := ParseProgress(line, opts.JobID); ok {
				rep.Update(u)
			}
		},
		StderrLine: func(line string) {
			rep.Log(progress.Log{JobID: opts.JobID, Stream: progress.StreamStderr, Line: line})
		},
	})
	if runErr != nil {
		return "", withDetail("downloader failed", res, runErr)
	}

	input, err := SelectDownloadedFile(workdir, sourceBase)
	if err != nil {
		return "", fmt.Errorf("resolve download: %w", err)
	}
	return input, nil
}

func withDetail(msg string, res util.CmdResult, err error) error {
	if tail := res.StderrTail(); tail != "" {
		return fmt.Errorf("%s: %s: %w", msg, tail, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
