package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prodl/internal/config"
	"prodl/internal/model"
	"prodl/internal/progress"
	"prodl/internal/util/deps"
)

const infoJSON = `{"id":"abc123","title":"Test Video","channel":"Chan","duration":187.6,` +
	`"webpage_url":"https://www.youtube.com/watch?v=abc123","_filename":"Test_Video.webm",` +
	`"thumbnails":[{"url":"https://i.ytimg.com/small.jpg"},{"url":"https://i.ytimg.com/large.jpg"}],` +
	`"formats":[{"format_id":"140","ext":"m4a","vcodec":"none","acodec":"mp4a.40.2"},` +
	`{"format_id":"137","ext":"mp4","height":1080,"fps":30,"vcodec":"avc1","acodec":"none"},` +
	`{"format_id":"136","ext":"mp4","height":720,"fps":30,"vcodec":"avc1","acodec":"none"}]}`

// fakeTools writes shell stand-ins for yt-dlp and ffmpeg and returns their paths.
func fakeTools(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	dl := filepath.Join(dir, "yt-dlp")
	script := fmt.Sprintf("#!/bin/sh\nif [ \"$1\" = \"--version\" ]; then echo 2024.08.06; exit 0; fi\ncat <<'JSON'\n%s\nJSON\n", infoJSON)
	require.NoError(t, os.WriteFile(dl, []byte(script), 0o755))
	ff := filepath.Join(dir, "ffmpeg")
	require.NoError(t, os.WriteFile(ff, []byte("#!/bin/sh\necho 'ffmpeg version 6.1'\n"), 0o755))
	return dl, ff
}

func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	prev := loader
	loader = config.Loader{EnvFile: filepath.Join(dir, "none.env"), ConfigDirs: []string{dir}}
	t.Cleanup(func() { loader = prev })
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	isolate(t)
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var ee *ExitError
	require.True(t, errors.As(err, &ee), "not an ExitError: %v", err)
	return ee.Code
}

func TestExitFor(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{&model.ConfigurationError{Field: "ext", Reason: "bad"}, ExitConfigError},
		{fmt.Errorf("wrapped: %w", deps.ErrNotFound), ExitMissingDep},
		{&model.CollaboratorFailure{Stage: model.StageMetadata, Err: errors.New("x")}, ExitDownloadError},
		{&model.CollaboratorFailure{Stage: model.StageFetch, Err: errors.New("x")}, ExitDownloadError},
		{&model.CollaboratorFailure{Stage: model.StageTranscode, Err: errors.New("x")}, ExitTranscodeError},
		{errors.New("other"), ExitCLIError},
		{&ExitError{Code: ExitMissingDep}, ExitMissingDep},
	}
	for _, c := range cases {
		assert.Equal(t, c.code, exitCode(t, exitFor(c.err)), "%v", c.err)
	}
	assert.NoError(t, exitFor(nil))
}

func TestRootWithoutArgsShowsHelp(t *testing.T) {
	out, _, err := execute(t)
	require.NoError(t, err)
	assert.Contains(t, out, "prodl")
	assert.Contains(t, out, "download")
}

func TestDownloadDryRun(t *testing.T) {
	dl, _ := fakeTools(t)
	outDir := t.TempDir()
	out, _, err := execute(t, "download", "--dry-run", "--dl-binary", dl, "-o", outDir, "youtu.be/abc123")
	require.NoError(t, err)
	assert.Contains(t, out, "Dry-run plan:")
	assert.Contains(t, out, filepath.Join(outDir, "Test_Video.mp4"))
	assert.Contains(t, out, "1080p @ 30 fps")
	assert.Contains(t, out, "bestvideo[height=1080][fps=30]+bestaudio")
}

func TestRootDefaultsToDownload(t *testing.T) {
	dl, _ := fakeTools(t)
	outDir := t.TempDir()
	out, _, err := execute(t, "--dry-run", "--dl-binary", dl, "-o", outDir, "-m", "audio", "-e", "flac", "https://youtu.be/abc123")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(outDir, "Test_Video.flac"))
	assert.Contains(t, out, "lossless")
	assert.Contains(t, out, "bestaudio/best")
}

func TestDownloadConfigurationErrors(t *testing.T) {
	dl, _ := fakeTools(t)
	cases := [][]string{
		{"download", "--dry-run", "--dl-binary", dl, "-e", "exe", "https://youtu.be/abc123"},
		{"download", "--dry-run", "--dl-binary", dl, "--fps", "50", "https://youtu.be/abc123"},
		{"download", "--dry-run", "--dl-binary", dl, "-m", "audio", "-r", "720", "https://youtu.be/abc123"},
		{"download", "--dry-run", "--dl-binary", dl, "-r", "1440", "https://youtu.be/abc123"},
		{"download", "--dry-run", "--dl-binary", dl, "ftp://example.com/x"},
	}
	for _, args := range cases {
		_, _, err := execute(t, args...)
		require.Error(t, err, strings.Join(args, " "))
		assert.Equal(t, ExitConfigError, exitCode(t, err), strings.Join(args, " "))
	}
}

func TestDownloadMissingDependency(t *testing.T) {
	_, _, err := execute(t, "download", "--no-ui", "--dl-binary", filepath.Join(t.TempDir(), "nope"), "https://youtu.be/abc123")
	assert.Equal(t, ExitMissingDep, exitCode(t, err))
}

func TestInfo(t *testing.T) {
	dl, _ := fakeTools(t)
	out, _, err := execute(t, "info", "--dl-binary", dl, "https://youtu.be/abc123")
	require.NoError(t, err)
	assert.Contains(t, out, "Title:        Test Video")
	assert.Contains(t, out, "Channel:      Chan")
	assert.Contains(t, out, "Duration:     3:07")
	assert.Contains(t, out, "https://i.ytimg.com/large.jpg")
	assert.Contains(t, out, "Resolutions:  1080p, 720p")
	assert.Contains(t, out, "Frame rates:  60, 45, 30, 24, 15")
	assert.Contains(t, out, "flac")
	assert.Contains(t, out, "standard")
}

func TestInfoJSON(t *testing.T) {
	dl, _ := fakeTools(t)
	out, _, err := execute(t, "info", "--json", "--dl-binary", dl, "https://youtu.be/abc123")
	require.NoError(t, err)
	assert.Contains(t, out, `"duration_label": "3:07"`)
	assert.Contains(t, out, `"safe_title": "Test_Video"`)
	assert.Contains(t, out, `"resolutions": [`)
}

func TestDoctor(t *testing.T) {
	dl, ff := fakeTools(t)
	out, _, err := execute(t, "doctor", "--versions", "--dl-binary", dl, "--ffmpeg-binary", ff)
	require.NoError(t, err)
	assert.Contains(t, out, "Downloader: "+dl+" (2024.08.06)")
	assert.Contains(t, out, "FFmpeg:    "+ff+" (ffmpeg version 6.1)")

	_, _, err = execute(t, "doctor", "--dl-binary", dl, "--ffmpeg-binary", filepath.Join(t.TempDir(), "none"))
	assert.Equal(t, ExitMissingDep, exitCode(t, err))
}

func TestCompletion(t *testing.T) {
	out, _, err := execute(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "prodl")

	_, _, err = execute(t, "completion", "tcsh")
	assert.Error(t, err)
}

func TestTextReporter(t *testing.T) {
	var buf bytes.Buffer
	r := newTextReporter(&buf)
	r.Update(progress.Update{Stage: progress.StageMetadata, Percent: -1})
	r.Update(progress.Update{Stage: progress.StageDownloading, Percent: 0})
	r.Update(progress.Update{Stage: progress.StageDownloading, Percent: 5})
	r.Update(progress.Update{Stage: progress.StageDownloading, Percent: 12})
	r.Update(progress.Update{Stage: progress.StageDownloading, Percent: 15})
	r.Update(progress.Update{Stage: progress.StageDownloading, Percent: 47})
	r.Update(progress.Update{Stage: progress.StageCompleted, Percent: 100})
	r.Log(progress.Log{Line: "noise"})

	assert.Equal(t, "Fetching info...\nDownloading...\n   12%\n   47%\n", buf.String())
}
