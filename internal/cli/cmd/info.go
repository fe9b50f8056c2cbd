package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"prodl/internal/model"
	"prodl/internal/pipeline"
	"prodl/internal/resolver"
	"prodl/internal/util/deps"
)

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "info <url>",
		Short:         "Show title, duration, resolutions and the output choices for a URL",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE:          runInfo,
	}
	cmd.Flags().Bool("json", false, "Print metadata as JSON")
	return cmd
}

// infoView is the --json shape.
type infoView struct {
	model.Metadata
	Duration    string `json:"duration_label"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Resolutions []int  `json:"resolutions"`
}

func runInfo(cmd *cobra.Command, args []string) error {
	opts := envFrom(cmd).Settings.CLIOptions()
	dl, err := deps.FindDownloader(opts.DLBinary)
	if err != nil {
		return &ExitError{Code: ExitMissingDep, Err: err}
	}
	svc := pipeline.NewService(
		pipeline.WithDownloaderPath(dl),
		pipeline.WithCLIOptions(opts),
	)
	meta, err := svc.FetchInfo(cmd.Context(), strings.TrimSpace(args[0]))
	if err != nil {
		return exitFor(err)
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(infoView{
			Metadata:    meta,
			Duration:    meta.DurationLabel(),
			Thumbnail:   meta.ThumbnailURL(),
			Resolutions: resolver.AvailableResolutions(meta.Formats),
		})
	}
	printInfo(cmd.OutOrStdout(), meta)
	return nil
}

func printInfo(w io.Writer, meta model.Metadata) {
	fmt.Fprintf(w, "Title:        %s\n", meta.Title)
	fmt.Fprintf(w, "Channel:      %s\n", meta.Channel)
	fmt.Fprintf(w, "Duration:     %s\n", meta.DurationLabel())
	if thumb := meta.ThumbnailURL(); thumb != "" {
		fmt.Fprintf(w, "Thumbnail:    %s\n", thumb)
	}
	res := resolver.AvailableResolutions(meta.Formats)
	if len(res) == 0 {
		fmt.Fprintln(w, "Resolutions:  none (audio only)")
	} else {
		parts := make([]string, len(res))
		for i, h := range res {
			parts[i] = strconv.Itoa(h) + "p"
		}
		fmt.Fprintf(w, "Resolutions:  %s\n", strings.Join(parts, ", "))
	}
	fps := make([]string, len(resolver.FrameRates))
	for i, f := range resolver.FrameRates {
		fps[i] = strconv.Itoa(f)
	}
	fmt.Fprintf(w, "Frame rates:  %s\n", strings.Join(fps, ", "))

	fmt.Fprintln(w, "\nVideo containers (--mode video --ext ...):")
	for _, c := range resolver.VideoContainers() {
		fmt.Fprintf(w, "  %-5s %s\n", c.Ext, c.Label)
	}
	fmt.Fprintln(w, "\nAudio formats (--mode audio --ext ...):")
	for _, a := range resolver.AudioFormats() {
		fmt.Fprintf(w, "  %-5s %s\n", a.Ext, a.Label)
	}
	fmt.Fprintln(w, "\nAudio quality (--quality ...):")
	for _, q := range resolver.Qualities() {
		fmt.Fprintf(w, "  %-9s %s\n", resolver.QualityKey(q), q.Label)
	}
}
