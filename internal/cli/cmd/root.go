package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"prodl/internal/config"
	"prodl/internal/logging"
	"prodl/internal/model"
	"prodl/internal/util/deps"
)

const (
	ExitOK             = 0
	ExitCLIError       = 1
	ExitMissingDep     = 2
	ExitDownloadError  = 3
	ExitTranscodeError = 4
	ExitConfigError    = 5
)

// ExitError wraps an error with a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// exitFor maps a job error to its exit code.
func exitFor(err error) error {
	if err == nil {
		return nil
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee
	}
	var ce *model.ConfigurationError
	if errors.As(err, &ce) {
		return &ExitError{Code: ExitConfigError, Err: err}
	}
	if errors.Is(err, deps.ErrNotFound) {
		return &ExitError{Code: ExitMissingDep, Err: err}
	}
	var cf *model.CollaboratorFailure
	if errors.As(err, &cf) {
		if cf.Stage == model.StageTranscode {
			return &ExitError{Code: ExitTranscodeError, Err: err}
		}
		return &ExitError{Code: ExitDownloadError, Err: err}
	}
	return &ExitError{Code: ExitCLIError, Err: err}
}

type ctxKey string

const envKey ctxKey = "env"

// env is what PersistentPreRunE resolves for every command.
type env struct {
	Settings config.Settings
	Logger   *log.Logger
}

// loader is swapped by tests to keep the user's config out of the way.
var loader = config.Loader{}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "prodl [url]",
		Short: "Download online video or audio in the format you pick",
		Long: "prodl fetches a media URL with yt-dlp, then transcodes it with ffmpeg into the container, " +
			"resolution, frame rate and audio quality you choose. Run 'prodl info <url>' to see what a URL offers.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		Args:              cobra.MaximumNArgs(1),
		PersistentPreRunE: loadEnv,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runDownload(cmd, args, false)
		},
	}

	pf := root.PersistentFlags()
	pf.StringP("out-dir", "o", "", "Output directory (default ~/Downloads when it exists, else the working directory)")
	pf.BoolP("verbose", "v", false, "Show full subprocess commands/output")
	pf.String("dl-binary", "", "Path to yt-dlp or youtube-dl")
	pf.String("ffmpeg-binary", "", "Path to ffmpeg")
	pf.String("extractor", "yt-dlp", "Metadata extractor: yt-dlp, youtube (native client for YouTube URLs)")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
	pf.String("log-format", "text", "Log format: text, json, logfmt")

	// `prodl <url>` behaves like `prodl download <url>`.
	bindDownloadFlags(root.Flags())

	root.AddCommand(newDownloadCmd())
	root.AddCommand(newInfoCmd())
	root.AddCommand(newTuiCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newCompletionCmd())

	return root
}

func loadEnv(cmd *cobra.Command, _ []string) error {
	s, _, err := loader.Load(cmd.Flags())
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	logger, err := logging.New(cmd.ErrOrStderr(), s.LogLevel, s.LogFormat)
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, envKey, env{Settings: s, Logger: logger}))
	return nil
}

func envFrom(cmd *cobra.Command) env {
	if v, ok := cmd.Context().Value(envKey).(env); ok {
		return v
	}
	return env{Settings: config.Settings{OutDir: ".", Extractor: "yt-dlp"}, Logger: log.New(cmd.ErrOrStderr())}
}

// Execute runs the CLI with the provided context.
func Execute(ctx context.Context) error {
	root := newRootCmd()
	return root.ExecuteContext(ctx)
}

func ensureDir(path string) error {
	if path == "" {
		path = "."
	}
	return os.MkdirAll(filepath.Clean(path), 0o755)
}
