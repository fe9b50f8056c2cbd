package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"prodl/internal/model"
	"prodl/internal/pipeline"
	"prodl/internal/progress"
	"prodl/internal/resolver"
	"prodl/internal/ui"
	"prodl/internal/util/deps"
)

func newDownloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "download <url>",
		Aliases:       []string{"dl", "get"},
		Short:         "Download and transcode one URL",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(cmd, args, false)
		},
	}
	bindDownloadFlags(cmd.Flags())
	return cmd
}

func bindDownloadFlags(fs *pflag.FlagSet) {
	fs.StringP("mode", "m", "video", "What to produce: video, audio")
	fs.StringP("ext", "e", "", "Target extension (video: mp4|mkv|webm|mov|avi|flv; audio: mp3|m4a|flac|wav|opus|aac); default mp4 or mp3")
	fs.IntP("resolution", "r", 0, "Video height cap in px (e.g. 720, 1080); 0 picks the highest available")
	fs.Int("fps", 30, "Output frame rate for video: 60, 45, 30, 24, 15")
	fs.StringP("quality", "q", "standard", "Audio quality: best, high, standard, low (ignored for flac/wav)")
	fs.Bool("keep-temp", false, "Keep intermediate downloads")
	fs.Bool("dry-run", false, "Resolve and print the plan without downloading")
	fs.Bool("no-ui", false, "Disable TUI; use plain textual output")
}

// buildRequest turns flags, settings and the URL argument into a request.
func buildRequest(cmd *cobra.Command, args []string) (model.DownloadRequest, model.CLIOptions, error) {
	fs := cmd.Flags()
	mode, _ := fs.GetString("mode")
	ext, _ := fs.GetString("ext")
	resolution, _ := fs.GetInt("resolution")
	fps, _ := fs.GetInt("fps")
	quality, _ := fs.GetString("quality")
	keepTemp, _ := fs.GetBool("keep-temp")
	dryRun, _ := fs.GetBool("dry-run")
	noUI, _ := fs.GetBool("no-ui")

	req := model.DownloadRequest{
		URL:               strings.TrimSpace(args[0]),
		Mode:              model.ParseMode(strings.ToLower(strings.TrimSpace(mode))),
		TargetExtension:   strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), ".")),
		ResolutionCap:     resolution,
		FrameRate:         fps,
		AudioQualityLabel: quality,
	}
	switch req.Mode {
	case model.ModeVideo:
		if req.TargetExtension == "" {
			req.TargetExtension = "mp4"
		}
	case model.ModeAudio:
		if req.TargetExtension == "" {
			req.TargetExtension = "mp3"
		}
		// the fps default only applies to video
		if !fs.Changed("fps") {
			req.FrameRate = 0
		}
	}

	opts := envFrom(cmd).Settings.CLIOptions()
	opts.OutDir = filepath.Clean(opts.OutDir)
	opts.KeepTemp = keepTemp
	opts.DryRun = dryRun
	opts.NoUI = noUI

	if req.URL == "" {
		return req, opts, &model.ConfigurationError{Field: "url", Reason: "required"}
	}
	return req, opts, nil
}

func runDownload(cmd *cobra.Command, args []string, forceTUI bool) error {
	req, opts, err := buildRequest(cmd, args)
	if err != nil {
		return exitFor(err)
	}
	logger := envFrom(cmd).Logger

	if err := ensureDir(opts.OutDir); err != nil {
		return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("failed to create output dir: %v", err)}
	}

	useTUI := forceTUI || (!opts.NoUI && !opts.DryRun && isTerminal())
	if useTUI {
		return exitFor(ui.Run(cmd.Context(), req, opts))
	}

	downloaderPath, derr := deps.FindDownloader(opts.DLBinary)
	if derr != nil {
		return &ExitError{Code: ExitMissingDep, Err: derr}
	}
	var ffmpegPath string
	if !opts.DryRun {
		ffmpegPath, derr = deps.FindFFmpeg(opts.FFmpegBinary)
		if derr != nil {
			return &ExitError{Code: ExitMissingDep, Err: derr}
		}
	}

	svc := pipeline.NewService(
		pipeline.WithDownloaderPath(downloaderPath),
		pipeline.WithFFmpegPath(ffmpegPath),
		pipeline.WithCLIOptions(opts),
		pipeline.WithReporter(newTextReporter(cmd.ErrOrStderr())),
	)
	logger.Debug("starting job", "job", svc.JobID(), "url", req.URL, "mode", req.Mode, "ext", req.TargetExtension)

	res, err := svc.RunJob(cmd.Context(), req)
	if res.TempDir != "" {
		logger.Warn("temporary files kept", "dir", res.TempDir)
	}
	if err != nil {
		return exitFor(err)
	}

	out := cmd.OutOrStdout()
	if res.Planned {
		printPlan(out, res.Plan, opts)
		return nil
	}
	fmt.Fprintf(out, "Saved: %s (%s)\n", res.Output.Path, humanize.IBytes(uint64(res.Output.Bytes)))
	return nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// printPlan outputs a dry-run plan of actions without executing them.
func printPlan(w io.Writer, p pipeline.Plan, opts model.CLIOptions) {
	r := p.Resolved
	fmt.Fprintln(w, "Dry-run plan:")
	fmt.Fprintf(w, "- URL:            %s\n", p.Request.URL)
	fmt.Fprintf(w, "- Title:          %s\n", p.Meta.Title)
	fmt.Fprintf(w, "- Downloader:     %s\n", p.DownloaderPath)
	fmt.Fprintf(w, "- Output dir:     %s\n", opts.OutDir)
	fmt.Fprintf(w, "- Output path:    %s\n", p.OutputPath)
	fmt.Fprintf(w, "- Mode:           %s\n", r.Mode)
	fmt.Fprintf(w, "- Format:         %s\n", r.Format)
	if r.Mode == model.ModeVideo {
		fmt.Fprintf(w, "- Resolution:     %dp @ %d fps\n", r.ResolutionCap, r.FrameRate)
		fmt.Fprintf(w, "- Codecs:         %s / %s\n", r.VideoCodec, r.AudioCodec)
	} else {
		fmt.Fprintf(w, "- Codec:          %s\n", r.AudioCodec)
	}
	if r.Lossless {
		fmt.Fprintln(w, "- Audio quality:  lossless")
	} else {
		fmt.Fprintf(w, "- Audio quality:  %s (%s)\n", r.Quality.Label, resolver.QualityKey(r.Quality))
	}
	fmt.Fprintf(w, "- ffmpeg args:    %s\n", strings.Join(r.TranscodeArgs, " "))
}

// textReporter prints stage changes and coarse percentages for the non-TUI
// path. Raw subprocess output is streamed by the runner itself in verbose
// mode.
type textReporter struct {
	mu     sync.Mutex
	w      io.Writer
	stage  progress.Stage
	decile int
}

func newTextReporter(w io.Writer) *textReporter {
	return &textReporter{w: w}
}

func (r *textReporter) Update(u progress.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.Stage == progress.StageCompleted || u.Stage == progress.StageError {
		return
	}
	if u.Stage != r.stage {
		r.stage = u.Stage
		r.decile = 0
		fmt.Fprintf(r.w, "%s...\n", u.Stage.Label())
		return
	}
	// one line per 10%
	if u.Percent < 0 {
		return
	}
	if d := int(u.Percent) / 10; d > r.decile {
		r.decile = d
		fmt.Fprintf(r.w, "  %3.0f%%\n", u.Percent)
	}
}

func (r *textReporter) Log(progress.Log) {}

func (r *textReporter) Result(progress.Result) {}
