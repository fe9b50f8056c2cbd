package pipeline

import (
	"path/filepath"

	"prodl/internal/model"
	"prodl/internal/resolver"
)

// Plan is everything decided before any media is transferred.
type Plan struct {
	Request    model.DownloadRequest
	Meta       model.Metadata
	Resolved   resolver.Resolved
	OutputPath string

	DownloaderPath string
	FFmpegPath     string
}

// Plan resolves req against an already fetched snapshot. It performs no I/O.
// A zero video resolution selects the highest advertised height.
func (s *Service) Plan(req model.DownloadRequest, meta model.Metadata, outDir string) (Plan, error) {
	req, err := withDefaultResolution(req, meta)
	if err != nil {
		return Plan{}, err
	}
	r, err := resolver.Resolve(req, meta)
	if err != nil {
		return Plan{}, err
	}
	return Plan{
		Request:        req,
		Meta:           meta,
		Resolved:       r,
		OutputPath:     filepath.Join(outDir, r.OutputName),
		DownloaderPath: s.dlPath,
		FFmpegPath:     s.ffmpegPath,
	}, nil
}

// autoResolution stands in for a zero video resolution during the checks
// that run before metadata is known.
const autoResolution = 1

func precheck(req model.DownloadRequest) error {
	if req.Mode == model.ModeVideo && req.ResolutionCap == 0 {
		req.ResolutionCap = autoResolution
	}
	return resolver.Validate(req)
}

func withDefaultResolution(req model.DownloadRequest, meta model.Metadata) (model.DownloadRequest, error) {
	if req.Mode != model.ModeVideo || req.ResolutionCap != 0 {
		return req, nil
	}
	h, err := resolver.DefaultResolution(meta)
	if err != nil {
		return req, err
	}
	req.ResolutionCap = h
	return req, nil
}
