package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"prodl/internal/model"
	"prodl/internal/resolver"
	"prodl/internal/util"
)

const maxFormBytes = 64 << 10

func defaultWorkdir() (string, error) {
	return util.MakeTempWorkdir("web")
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.metrics.request("page", "ok")
	s.render(w, http.StatusOK, newPage(defaultForm(), nil))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

// handleInfo fetches metadata and re-renders the page with the choices the
// URL offers. Every form value is echoed back.
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	f, err := parseForm(w, r)
	if err != nil {
		s.renderError(w, "info", defaultForm(), err)
		return
	}
	meta, err := s.backend.FetchInfo(r.Context(), f.URL)
	if err != nil {
		s.renderError(w, "info", f, err)
		return
	}
	p := newPage(f, &meta)
	if !containsInt(p.Resolutions, p.Form.Resolution) {
		p.Form.Resolution = 0
		if len(p.Resolutions) > 0 {
			p.Form.Resolution = p.Resolutions[0]
		}
	}
	s.metrics.request("info", "ok")
	s.render(w, http.StatusOK, p)
}

type infoResponse struct {
	model.Metadata
	Duration    string `json:"duration_label"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Resolutions []int  `json:"resolutions"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func (s *Server) handleAPIInfo(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeJSONError(w, "api_info", err)
		return
	}
	meta, err := s.backend.FetchInfo(r.Context(), strings.TrimSpace(body.URL))
	if err != nil {
		s.writeJSONError(w, "api_info", err)
		return
	}
	res := resolver.AvailableResolutions(meta.Formats)
	if res == nil {
		res = []int{}
	}
	s.metrics.request("api_info", "ok")
	writeJSON(w, http.StatusOK, infoResponse{
		Metadata:    meta,
		Duration:    meta.DurationLabel(),
		Thumbnail:   meta.ThumbnailURL(),
		Resolutions: res,
	})
}

// handleDownload runs one job into a private directory, streams the file as
// an attachment and removes the directory once the response is written.
// JSON bodies get JSON errors; form posts get the page back.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	asJSON := isJSON(r)
	fail := func(f formValues, err error) {
		if asJSON {
			s.writeJSONError(w, "download", err)
			return
		}
		s.renderError(w, "download", f, err)
	}

	var req model.DownloadRequest
	f := defaultForm()
	if asJSON {
		if err := decodeJSON(w, r, &req); err != nil {
			fail(f, err)
			return
		}
		req.Mode = model.ParseMode(string(req.Mode))
	} else {
		var err error
		if f, err = parseForm(w, r); err != nil {
			fail(defaultForm(), err)
			return
		}
		req = f.request()
	}

	dir, err := s.workdir()
	if err != nil {
		fail(f, fmt.Errorf("create work dir: %w", err))
		return
	}
	defer os.RemoveAll(dir)

	start := s.now()
	res, err := s.backend.Download(r.Context(), req, dir)
	if err != nil {
		fail(f, err)
		return
	}
	if res.Output == nil {
		fail(f, errors.New("job produced no output"))
		return
	}

	file, err := os.Open(res.Output.Path)
	if err != nil {
		fail(f, fmt.Errorf("open output: %w", err))
		return
	}
	defer file.Close()
	st, err := file.Stat()
	if err != nil {
		fail(f, fmt.Errorf("stat output: %w", err))
		return
	}

	name := filepath.Base(res.Output.Path)
	if res.Plan.Resolved.OutputName != "" {
		name = res.Plan.Resolved.OutputName
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	s.metrics.request("download", "ok")
	s.metrics.job(string(res.Plan.Resolved.Mode), s.now().Sub(start).Seconds(), st.Size())
	http.ServeContent(w, r, name, st.ModTime(), file)
}

func (s *Server) render(w http.ResponseWriter, status int, p page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, "index.html", p); err != nil {
		s.logger.Error("render page", "err", err)
	}
}

func (s *Server) renderError(w http.ResponseWriter, action string, f formValues, err error) {
	status, label := classify(err)
	s.metrics.request(action, label)
	s.logger.Warn("action failed", "action", action, "status", status, "err", err)
	p := newPage(f, nil)
	p.Error = failureNotice(err)
	s.render(w, status, p)
}

func (s *Server) writeJSONError(w http.ResponseWriter, action string, err error) {
	status, label := classify(err)
	s.metrics.request(action, label)
	s.logger.Warn("action failed", "action", action, "status", status, "err", err)
	body := errorResponse{Error: failureNotice(err)}
	var ce *model.ConfigurationError
	if errors.As(err, &ce) {
		body.Field = ce.Field
	}
	writeJSON(w, status, body)
}

// classify maps an error to its HTTP status and metrics label.
func classify(err error) (int, string) {
	var ce *model.ConfigurationError
	var cf *model.CollaboratorFailure
	var be *badRequestError
	switch {
	case errors.As(err, &ce), errors.As(err, &be):
		return http.StatusBadRequest, "invalid"
	case errors.As(err, &cf):
		return http.StatusBadGateway, "failed"
	default:
		return http.StatusInternalServerError, "error"
	}
}

// failureNotice is the single message shown for a failed action.
func failureNotice(err error) string {
	var ce *model.ConfigurationError
	if errors.As(err, &ce) {
		return ce.Error()
	}
	var be *badRequestError
	if errors.As(err, &be) {
		return be.Error()
	}
	return "Download failed: " + err.Error()
}

type badRequestError struct{ err error }

func (e *badRequestError) Error() string { return "bad request: " + e.err.Error() }
func (e *badRequestError) Unwrap() error { return e.err }

func isJSON(r *http.Request) bool {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return ct == "application/json"
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &badRequestError{err: fmt.Errorf("invalid JSON body: %w", err)}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// parseForm reads the page form. In audio mode the resolution and frame rate
// selects are ignored since the page hides them.
func parseForm(w http.ResponseWriter, r *http.Request) (formValues, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return defaultForm(), &badRequestError{err: err}
	}
	f := formValues{
		URL:     strings.TrimSpace(r.PostFormValue("url")),
		Mode:    string(model.ParseMode(r.PostFormValue("mode"))),
		Ext:     strings.ToLower(strings.TrimSpace(r.PostFormValue("ext"))),
		Quality: r.PostFormValue("quality"),
		FPS:     30,
	}
	var err error
	if v := r.PostFormValue("resolution"); v != "" {
		if f.Resolution, err = strconv.Atoi(v); err != nil {
			return f, &model.ConfigurationError{Field: "resolution", Reason: fmt.Sprintf("%q is not a number", v)}
		}
	}
	if v := r.PostFormValue("fps"); v != "" {
		if f.FPS, err = strconv.Atoi(v); err != nil {
			return f, &model.ConfigurationError{Field: "fps", Reason: fmt.Sprintf("%q is not a number", v)}
		}
	}
	if f.Mode == string(model.ModeAudio) {
		if f.Ext == "" {
			f.Ext = "mp3"
		}
	} else if f.Ext == "" {
		f.Ext = "mp4"
	}
	if f.Quality == "" {
		f.Quality = resolver.QualityKey(resolver.DefaultQuality)
	}
	return f, nil
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
