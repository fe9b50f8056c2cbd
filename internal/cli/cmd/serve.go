package cmd

import (
	"github.com/spf13/cobra"

	"prodl/internal/pipeline"
	"prodl/internal/util/deps"
	"prodl/internal/web"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "serve",
		Short:         "Serve the download page and JSON API over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := envFrom(cmd)
			opts := e.Settings.CLIOptions()
			dl, err := deps.FindDownloader(opts.DLBinary)
			if err != nil {
				return &ExitError{Code: ExitMissingDep, Err: err}
			}
			ff, err := deps.FindFFmpeg(opts.FFmpegBinary)
			if err != nil {
				return &ExitError{Code: ExitMissingDep, Err: err}
			}
			// files never outlive the response
			opts.KeepTemp = false
			opts.DryRun = false

			backend := web.PipelineBackend{Options: []pipeline.Option{
				pipeline.WithDownloaderPath(dl),
				pipeline.WithFFmpegPath(ff),
				pipeline.WithCLIOptions(opts),
			}}
			srv := web.NewServer(backend, web.WithLogger(e.Logger))
			if err := srv.ListenAndServe(cmd.Context(), e.Settings.Addr); err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			return nil
		},
	}
	cmd.Flags().String("addr", "127.0.0.1:8080", "Listen address")
	return cmd
}
