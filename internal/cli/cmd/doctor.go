package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"prodl/internal/util"
	"prodl/internal/util/deps"
)

// versionRunner is swapped by tests.
var versionRunner util.CmdRunner = util.NewDefaultRunner()

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "doctor",
		Short:         "Diagnose external dependencies (yt-dlp/youtube-dl, ffmpeg)",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := envFrom(cmd).Settings.CLIOptions()
			dl, derr := deps.FindDownloader(opts.DLBinary)
			if derr != nil {
				return &ExitError{Code: ExitMissingDep, Err: derr}
			}
			ff, ferr := deps.FindFFmpeg(opts.FFmpegBinary)
			if ferr != nil {
				return &ExitError{Code: ExitMissingDep, Err: ferr}
			}
			w := cmd.OutOrStdout()
			showVersions, _ := cmd.Flags().GetBool("versions")
			if !showVersions {
				fmt.Fprintf(w, "Downloader: %s\n", dl)
				fmt.Fprintf(w, "FFmpeg:    %s\n", ff)
				return nil
			}
			fmt.Fprintf(w, "Downloader: %s (%s)\n", dl, toolVersion(cmd.Context(), dl, "--version"))
			fmt.Fprintf(w, "FFmpeg:    %s (%s)\n", ff, toolVersion(cmd.Context(), ff, "-version"))
			return nil
		},
	}
	cmd.Flags().Bool("versions", false, "Also run each tool and print its version")
	return cmd
}

// toolVersion returns the first output line of `bin flag`, or "unknown".
func toolVersion(ctx context.Context, bin, flag string) string {
	res, err := versionRunner.Run(ctx, util.CmdSpec{Path: bin, Args: []string{flag}, CaptureStdout: true})
	if err != nil {
		return "unknown"
	}
	first, _, _ := strings.Cut(strings.TrimSpace(string(res.Stdout)), "\n")
	if first == "" {
		return "unknown"
	}
	return strings.TrimSpace(first)
}
