package downloader

import (
	"bytes"
	"context"
	"errors"

	"prodl/internal/progress"
	"prodl/internal/util"
)

// fakeRunner replays canned output instead of spawning yt-dlp.
type fakeRunner struct {
	calls  []util.CmdSpec
	stdout []string
	stderr string
	err    error
	onRun  func(spec util.CmdSpec)
}

func (f *fakeRunner) Run(ctx context.Context, spec util.CmdSpec) (util.CmdResult, error) {
	f.calls = append(f.calls, spec)
	if f.onRun != nil {
		f.onRun(spec)
	}
	var buf bytes.Buffer
	for _, l := range f.stdout {
		if spec.StdoutLine != nil {
			spec.StdoutLine(l)
		}
		if spec.CaptureStdout || spec.StdoutLine == nil {
			buf.WriteString(l)
			buf.WriteByte('\n')
		}
	}
	res := util.CmdResult{Stdout: buf.Bytes(), Stderr: []byte(f.stderr)}
	if f.err != nil {
		res.Code = 1
		return res, f.err
	}
	return res, nil
}

type recorder struct {
	updates []progress.Update
	logs    []progress.Log
}

func (r *recorder) Update(u progress.Update) { r.updates = append(r.updates, u) }
func (r *recorder) Log(l progress.Log)       { r.logs = append(r.logs, l) }
func (r *recorder) Result(progress.Result)   {}

var errExit1 = errors.New("exit status 1")
