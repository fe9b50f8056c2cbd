// Package encoder runs ffmpeg over a downloaded source using the codec and
// filter arguments chosen by the resolver.
package encoder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"prodl/internal/model"
	"prodl/internal/progress"
	"prodl/internal/resolver"
	"prodl/internal/util"
)

// Options control ffmpeg execution.
type Options struct {
	FFmpegPath  string
	Verbose     bool
	OutputPath  string  // Full path of desired output file (including extension)
	DurationSec float64 // Source duration, for percent reporting; 0 if unknown
	Runner      util.CmdRunner
	Reporter    progress.Reporter
	JobID       string
}

// Encode transcodes input to opts.OutputPath. A partial output is removed
// when ffmpeg fails.
func Encode(ctx context.Context, input string, r resolver.Resolved, opts Options) (model.OutputFile, error) {
	if opts.FFmpegPath == "" {
		return model.OutputFile{}, errors.New("ffmpeg path is required")
	}
	if input == "" {
		return model.OutputFile{}, errors.New("input path is required")
	}
	if opts.OutputPath == "" {
		return model.OutputFile{}, errors.New("output path is required")
	}
	if err := util.EnsureDir(filepath.Dir(opts.OutputPath)); err != nil {
		return model.OutputFile{}, fmt.Errorf("ensure output dir: %w", err)
	}

	runner := opts.Runner
	if runner == nil {
		runner = util.NewDefaultRunner()
	}
	var rep progress.Reporter = progress.Nop{}
	if opts.Reporter != nil {
		rep = opts.Reporter
	}

	var state ProgressState
	res, runErr := runner.Run(ctx, util.CmdSpec{
		Path:    opts.FFmpegPath,
		Args:    BuildArgs(input, r, opts.OutputPath, true),
		Verbose: opts.Verbose,
		StdoutLine: func(line string) {
			if u, ok := state.UpdateFromLine(line, opts.JobID, opts.DurationSec); ok {
				rep.Update(u)
			}
		},
		StderrLine: func(line string) {
			rep.Log(progress.Log{JobID: opts.JobID, Stream: progress.StreamStderr, Line: line})
		},
	})
	if runErr != nil {
		_ = util.RemoveIfExists(opts.OutputPath)
		if tail := res.StderrTail(); tail != "" {
			return model.OutputFile{}, fmt.Errorf("ffmpeg failed: %s: %w", tail, runErr)
		}
		return model.OutputFile{}, fmt.Errorf("ffmpeg failed: %w", runErr)
	}

	fi, err := os.Stat(opts.OutputPath)
	if err != nil {
		return model.OutputFile{}, fmt.Errorf("stat output: %w", err)
	}
	return model.OutputFile{
		Path:  opts.OutputPath,
		Name:  filepath.Base(opts.OutputPath),
		Bytes: fi.Size(),
	}, nil
}
