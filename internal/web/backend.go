package web

import (
	"context"

	"prodl/internal/model"
	"prodl/internal/pipeline"
)

// Backend runs the two user actions behind the page.
type Backend interface {
	FetchInfo(ctx context.Context, url string) (model.Metadata, error)
	Download(ctx context.Context, req model.DownloadRequest, outDir string) (pipeline.Result, error)
}

// PipelineBackend builds a fresh pipeline.Service for every call so that no
// state survives between requests.
type PipelineBackend struct {
	Options []pipeline.Option
}

func (b PipelineBackend) FetchInfo(ctx context.Context, url string) (model.Metadata, error) {
	return pipeline.NewService(b.Options...).FetchInfo(ctx, url)
}

func (b PipelineBackend) Download(ctx context.Context, req model.DownloadRequest, outDir string) (pipeline.Result, error) {
	return pipeline.NewService(b.Options...).Download(ctx, req, outDir)
}
