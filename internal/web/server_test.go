package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prodl/internal/model"
	"prodl/internal/pipeline"
	"prodl/internal/resolver"
)

var sampleMeta = model.Metadata{
	ID:          "abc123",
	Title:       "Test Video",
	SafeTitle:   "Test_Video",
	Channel:     "Chan",
	DurationSec: 187.6,
	Thumbnails:  []model.Thumbnail{{URL: "https://i.ytimg.com/small.jpg"}, {URL: "https://i.ytimg.com/large.jpg"}},
	Formats: []model.Format{
		{FormatID: "137", Ext: "mp4", Height: 1080, FPS: 30, VCodec: "avc1", ACodec: "none"},
		{FormatID: "136", Ext: "mp4", Height: 720, FPS: 30, VCodec: "avc1", ACodec: "none"},
		{FormatID: "140", Ext: "m4a", VCodec: "none", ACodec: "mp4a"},
	},
}

// fakeBackend resolves requests for real and writes a small output file
// instead of running yt-dlp and ffmpeg.
type fakeBackend struct {
	infoErr     error
	downloadErr error
	gotReq      model.DownloadRequest
	gotDir      string
}

func (f *fakeBackend) FetchInfo(_ context.Context, u string) (model.Metadata, error) {
	if f.infoErr != nil {
		return model.Metadata{}, f.infoErr
	}
	if u == "" {
		return model.Metadata{}, &model.ConfigurationError{Field: "url", Reason: "required"}
	}
	return sampleMeta, nil
}

func (f *fakeBackend) Download(_ context.Context, req model.DownloadRequest, outDir string) (pipeline.Result, error) {
	f.gotReq, f.gotDir = req, outDir
	if f.downloadErr != nil {
		return pipeline.Result{}, f.downloadErr
	}
	if req.Mode == model.ModeVideo && req.ResolutionCap == 0 {
		req.ResolutionCap = 1080
	}
	r, err := resolver.Resolve(req, sampleMeta)
	if err != nil {
		return pipeline.Result{}, err
	}
	path := filepath.Join(outDir, r.OutputName)
	if err := os.WriteFile(path, []byte("media-bytes"), 0o644); err != nil {
		return pipeline.Result{}, err
	}
	out := model.OutputFile{Path: path, Name: r.OutputName, Bytes: 11}
	return pipeline.Result{Plan: pipeline.Plan{Resolved: r, OutputPath: path}, Output: &out}, nil
}

func newTestServer(t *testing.T, b Backend) (*Server, http.Handler) {
	t.Helper()
	s := NewServer(b,
		WithLogger(log.New(io.Discard)),
		WithWorkdir(func() (string, error) { return os.MkdirTemp(t.TempDir(), "job-") }),
	)
	return s, s.Handler()
}

func postForm(h http.Handler, path string, v url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(v.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postJSON(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIndex(t *testing.T) {
	_, h := newTestServer(t, &fakeBackend{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<form method="post" action="/download">`)
	assert.Contains(t, body, `value="webm"`)
	assert.Contains(t, body, `value="flac"`)
	assert.Contains(t, body, "Standard (≈192k)")
	assert.Contains(t, body, `value="45"`)
}

func TestUnknownPathAndMethod(t *testing.T) {
	_, h := newTestServer(t, &fakeBackend{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestInfoRendersMetadataAndKeepsForm(t *testing.T) {
	s, h := newTestServer(t, &fakeBackend{})
	rec := postForm(h, "/info", url.Values{
		"url": {"https://youtu.be/abc123"}, "mode": {"video"}, "ext": {"webm"}, "fps": {"24"}, "quality": {"high"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Test Video")
	assert.Contains(t, body, "Chan")
	assert.Contains(t, body, "Duration 3:07")
	assert.Contains(t, body, "https://i.ytimg.com/large.jpg")
	assert.Contains(t, body, `<option value="1080" selected>1080p</option>`)
	assert.Contains(t, body, `<option value="720" >720p</option>`)
	assert.Contains(t, body, `value="https://youtu.be/abc123"`)
	assert.Contains(t, body, `<option value="webm" selected>`)
	assert.Contains(t, body, `<option value="24" selected>24 fps</option>`)
	assert.Contains(t, body, `<option value="high" selected>`)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.requests.WithLabelValues("info", "ok")))
}

func TestInfoLosslessDisablesQuality(t *testing.T) {
	_, h := newTestServer(t, &fakeBackend{})
	rec := postForm(h, "/info", url.Values{"url": {"https://youtu.be/abc123"}, "mode": {"audio"}, "ext": {"flac"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<select name="quality" id="quality" disabled>`)
}

func TestInfoFailures(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		label  string
	}{
		{"invalid", &model.ConfigurationError{Field: "url", Reason: "unsupported scheme"}, http.StatusBadRequest, "invalid"},
		{"collaborator", &model.CollaboratorFailure{Stage: model.StageMetadata, Err: errors.New("ERROR: Video unavailable")}, http.StatusBadGateway, "failed"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s, h := newTestServer(t, &fakeBackend{infoErr: c.err})
			rec := postForm(h, "/info", url.Values{"url": {"https://youtu.be/x"}})
			assert.Equal(t, c.status, rec.Code)
			assert.Contains(t, rec.Body.String(), `class="error"`)
			assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.requests.WithLabelValues("info", c.label)))
		})
	}

	_, h := newTestServer(t, &fakeBackend{infoErr: &model.CollaboratorFailure{Stage: model.StageMetadata, Err: errors.New("ERROR: Video unavailable")}})
	rec := postForm(h, "/info", url.Values{"url": {"https://youtu.be/x"}})
	assert.Contains(t, rec.Body.String(), "Download failed: metadata failed: ERROR: Video unavailable")
}

func TestAPIInfo(t *testing.T) {
	_, h := newTestServer(t, &fakeBackend{})
	rec := postJSON(h, "/api/info", `{"url":"https://youtu.be/abc123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"id":"abc123","title":"Test Video","safe_title":"Test_Video","channel":"Chan","duration":187.6,
		"thumbnails":[{"url":"https://i.ytimg.com/small.jpg"},{"url":"https://i.ytimg.com/large.jpg"}],
		"formats":[
			{"format_id":"137","ext":"mp4","height":1080,"fps":30,"vcodec":"avc1","acodec":"none"},
			{"format_id":"136","ext":"mp4","height":720,"fps":30,"vcodec":"avc1","acodec":"none"},
			{"format_id":"140","ext":"m4a","vcodec":"none","acodec":"mp4a"}],
		"duration_label":"3:07","thumbnail":"https://i.ytimg.com/large.jpg","resolutions":[1080,720]
	}`, rec.Body.String())

	rec = postJSON(h, "/api/info", `{"link":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid JSON body")
}

func TestDownloadForm(t *testing.T) {
	fb := &fakeBackend{}
	s, h := newTestServer(t, fb)
	rec := postForm(h, "/download", url.Values{
		"url": {"https://youtu.be/abc123"}, "mode": {"video"}, "ext": {"mkv"}, "resolution": {"720"}, "fps": {"60"}, "quality": {"low"},
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "media-bytes", rec.Body.String())
	assert.Equal(t, `attachment; filename=Test_Video.mkv`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, model.DownloadRequest{
		URL: "https://youtu.be/abc123", Mode: model.ModeVideo, TargetExtension: "mkv",
		ResolutionCap: 720, FrameRate: 60, AudioQualityLabel: "low",
	}, fb.gotReq)

	// the per-request directory is gone once the response is written
	_, err := os.Stat(fb.gotDir)
	assert.True(t, os.IsNotExist(err), "work dir should be removed")
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.requests.WithLabelValues("download", "ok")))
	assert.Equal(t, 1, testutil.CollectAndCount(s.metrics.outputBytes))
}

func TestDownloadFormAudioIgnoresVideoFields(t *testing.T) {
	fb := &fakeBackend{}
	_, h := newTestServer(t, fb)
	rec := postForm(h, "/download", url.Values{
		"url": {"https://youtu.be/abc123"}, "mode": {"audio"}, "ext": {"m4a"}, "resolution": {"720"}, "fps": {"30"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 0, fb.gotReq.ResolutionCap)
	assert.Equal(t, 0, fb.gotReq.FrameRate)
	assert.Equal(t, "standard", fb.gotReq.AudioQualityLabel)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Test_Video.m4a")
}

func TestDownloadJSON(t *testing.T) {
	fb := &fakeBackend{}
	_, h := newTestServer(t, fb)
	rec := postJSON(h, "/api/download", `{"url":"https://youtu.be/abc123","mode":"audio","ext":"flac"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Test_Video.flac")

	rec = postJSON(h, "/download", `{"url":"https://youtu.be/abc123","mode":"audio","ext":"flac","fps":30}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid request: fps: not allowed for audio-only downloads","field":"fps"}`, rec.Body.String())
}

func TestDownloadFailures(t *testing.T) {
	fb := &fakeBackend{downloadErr: &model.CollaboratorFailure{Stage: model.StageTranscode, Err: errors.New("exit status 1")}}
	s, h := newTestServer(t, fb)

	rec := postJSON(h, "/download", `{"url":"https://youtu.be/abc123","mode":"video","ext":"mp4","fps":30}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"Download failed: transcode failed: exit status 1"}`, rec.Body.String())

	rec = postForm(h, "/download", url.Values{"url": {"https://youtu.be/abc123"}})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Download failed: transcode failed: exit status 1")
	assert.Equal(t, 2.0, testutil.ToFloat64(s.metrics.requests.WithLabelValues("download", "failed")))

	rec = postForm(h, "/download", url.Values{"url": {"https://youtu.be/abc123"}, "resolution": {"high"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	_, h := newTestServer(t, &fakeBackend{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())

	postForm(h, "/info", url.Values{"url": {"https://youtu.be/abc123"}})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `prodl_requests_total{action="info",status="ok"} 1`)
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	s, _ := newTestServer(t, &fakeBackend{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()
	assert.NoError(t, <-done)
}
