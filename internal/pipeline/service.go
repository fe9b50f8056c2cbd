// Package pipeline orchestrates one download: validate, fetch metadata once,
// resolve options, fetch media, transcode, clean up.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"prodl/internal/downloader"
	"prodl/internal/encoder"
	"prodl/internal/model"
	"prodl/internal/progress"
	"prodl/internal/util"
)

// Service runs download jobs against the extractor and transcoder.
type Service struct {
	dlPath     string
	ffmpegPath string
	opts       model.CLIOptions
	runner     util.CmdRunner
	reporter   progress.Reporter
	jobID      string

	source    downloader.MetadataSource
	sourceErr error
}

// Option configures a Service.
type Option func(*Service)

// WithDownloaderPath sets the downloader (yt-dlp/youtube-dl) binary path.
func WithDownloaderPath(p string) Option {
	return func(s *Service) {
		s.dlPath = p
	}
}

// WithFFmpegPath sets the ffmpeg binary path.
func WithFFmpegPath(p string) Option {
	return func(s *Service) {
		s.ffmpegPath = p
	}
}

// WithCLIOptions sets the runtime options (out dir, keep-temp, dry-run...).
func WithCLIOptions(o model.CLIOptions) Option {
	return func(s *Service) {
		s.opts = o
	}
}

// WithRunner injects a custom command runner (useful for testing).
func WithRunner(r util.CmdRunner) Option {
	return func(s *Service) {
		s.runner = r
	}
}

// WithReporter attaches a progress reporter.
func WithReporter(rp progress.Reporter) Option {
	return func(s *Service) {
		s.reporter = rp
	}
}

// WithJobID sets the job ID associated with reporter events.
func WithJobID(id string) Option {
	return func(s *Service) {
		s.jobID = id
	}
}

// WithMetadataSource replaces the source chosen from CLIOptions.Extractor.
func WithMetadataSource(src downloader.MetadataSource) Option {
	return func(s *Service) {
		s.source = src
	}
}

// NewService constructs a Service. Missing runner, reporter and job ID get
// defaults; the metadata source follows CLIOptions.Extractor.
func NewService(opts ...Option) *Service {
	s := &Service{}
	for _, o := range opts {
		o(s)
	}
	if s.runner == nil {
		s.runner = util.NewDefaultRunner()
	}
	if s.reporter == nil {
		s.reporter = progress.Nop{}
	}
	if s.jobID == "" {
		s.jobID = uuid.NewString()
	}
	if s.source == nil {
		s.source, s.sourceErr = downloader.NewSource(s.opts.Extractor, s.downloaderOptions())
	}
	return s
}

// JobID returns the ID attached to every event of this service.
func (s *Service) JobID() string { return s.jobID }

// Result is the outcome of Download.
type Result struct {
	JobID   string
	URL     string
	Planned bool
	Plan    Plan
	Output  *model.OutputFile
	TempDir string // set only when keep-temp left the work directory on disk
}

func (s *Service) downloaderOptions() downloader.Options {
	return downloader.Options{
		DownloaderPath: s.dlPath,
		Verbose:        s.opts.Verbose,
		Runner:         s.runner,
		Reporter:       s.reporter,
		JobID:          s.jobID,
	}
}

// FetchInfo takes one metadata snapshot of url.
func (s *Service) FetchInfo(ctx context.Context, url string) (model.Metadata, error) {
	u, err := util.ValidateURL(url)
	if err != nil {
		return model.Metadata{}, &model.ConfigurationError{Field: "url", Reason: err.Error()}
	}
	if s.sourceErr != nil {
		return model.Metadata{}, s.sourceErr
	}
	s.update(progress.StageMetadata, -1, "")
	meta, err := s.source.FetchMetadata(ctx, u.String())
	if err != nil {
		return model.Metadata{}, &model.CollaboratorFailure{Stage: model.StageMetadata, Err: err}
	}
	return meta, nil
}

// RunJob downloads req into the configured output directory.
func (s *Service) RunJob(ctx context.Context, req model.DownloadRequest) (Result, error) {
	return s.Download(ctx, req, s.opts.OutDir)
}

// Download runs the full pipeline for one request and writes the result
// into outDir. Requests that fail the metadata-free checks never reach the
// extractor. The work directory is removed on every path unless keep-temp is
// set. Every failure is also delivered to the reporter as a Result.
func (s *Service) Download(ctx context.Context, req model.DownloadRequest, outDir string) (res Result, err error) {
	res.JobID = s.jobID
	res.URL = req.URL
	defer func() {
		if err != nil {
			s.emitFailed(err)
		}
	}()

	u, uerr := util.ValidateURL(req.URL)
	if uerr != nil {
		return res, &model.ConfigurationError{Field: "url", Reason: uerr.Error()}
	}
	req.URL = u.String()
	if err := precheck(req); err != nil {
		return res, err
	}
	if s.dlPath == "" {
		return res, fmt.Errorf("downloader path is required")
	}
	if !s.opts.DryRun && s.ffmpegPath == "" {
		return res, fmt.Errorf("ffmpeg path is required")
	}
	if outDir == "" {
		outDir = "."
	}

	meta, err := s.FetchInfo(ctx, req.URL)
	if err != nil {
		return res, err
	}

	s.update(progress.StageResolving, -1, "")
	pl, err := s.Plan(req, meta, outDir)
	if err != nil {
		return res, err
	}
	res.Plan = pl

	if s.opts.DryRun {
		res.Planned = true
		s.emitPlanned(pl.OutputPath)
		return res, nil
	}

	workdir, err := util.MakeTempWorkdir("job")
	if err != nil {
		return res, fmt.Errorf("create temp dir: %w", err)
	}
	defer func() {
		if !s.opts.KeepTemp {
			_ = os.RemoveAll(workdir)
		}
	}()
	if s.opts.KeepTemp {
		res.TempDir = workdir
	}

	s.update(progress.StageDownloading, 0, "")
	input, err := downloader.Fetch(ctx, req.URL, pl.Resolved.Format, workdir, s.downloaderOptions())
	if err != nil {
		return res, &model.CollaboratorFailure{Stage: model.StageFetch, Err: err}
	}

	outPath := util.UniquePath(pl.OutputPath)
	s.update(progress.StageTranscoding, 0, "")
	out, err := encoder.Encode(ctx, input, pl.Resolved, encoder.Options{
		FFmpegPath:  s.ffmpegPath,
		Verbose:     s.opts.Verbose,
		OutputPath:  outPath,
		DurationSec: meta.DurationSec,
		Runner:      s.runner,
		Reporter:    s.reporter,
		JobID:       s.jobID,
	})
	if err != nil {
		return res, &model.CollaboratorFailure{Stage: model.StageTranscode, Err: err}
	}

	res.Output = &out
	s.emitSaved(out)
	return res, nil
}

func (s *Service) update(stage progress.Stage, percent float64, msg string) {
	if msg == "" {
		msg = stage.Label()
	}
	s.reporter.Update(progress.Update{JobID: s.jobID, Stage: stage, Percent: percent, Message: msg})
}

func (s *Service) emitPlanned(outPath string) {
	s.update(progress.StageCompleted, 100, fmt.Sprintf("Planned: %s (dry-run)", filepath.Base(outPath)))
	s.reporter.Result(progress.Result{JobID: s.jobID, OutputPath: outPath})
}

func (s *Service) emitSaved(out model.OutputFile) {
	size := humanize.IBytes(uint64(out.Bytes))
	s.update(progress.StageCompleted, 100, fmt.Sprintf("Saved: %s (%s)", out.Name, size))
	s.reporter.Result(progress.Result{JobID: s.jobID, OutputPath: out.Path, Bytes: out.Bytes})
}

func (s *Service) emitFailed(err error) {
	msg := "Download failed"
	var ce *model.ConfigurationError
	if errors.As(err, &ce) {
		msg = "Invalid request"
	}
	s.update(progress.StageError, -1, msg)
	s.reporter.Result(progress.Result{JobID: s.jobID, Err: err})
}
