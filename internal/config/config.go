// Package config layers prodl settings: flags over PRODL_* environment
// (including a local .env) over config.{yaml,toml,json} over defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"prodl/internal/dirs"
	"prodl/internal/model"
)

// Keys, with the flag each one is bound to.
const (
	KeyOutDir       = "out_dir"       // --out-dir
	KeyVerbose      = "verbose"       // --verbose
	KeyDLBinary     = "dl_binary"     // --dl-binary
	KeyFFmpegBinary = "ffmpeg_binary" // --ffmpeg-binary
	KeyExtractor    = "extractor"     // --extractor
	KeyAddr         = "addr"          // --addr (serve)
	KeyLogLevel     = "log_level"     // --log-level
	KeyLogFormat    = "log_format"    // --log-format
)

var flagNames = map[string]string{
	KeyOutDir:       "out-dir",
	KeyVerbose:      "verbose",
	KeyDLBinary:     "dl-binary",
	KeyFFmpegBinary: "ffmpeg-binary",
	KeyExtractor:    "extractor",
	KeyAddr:         "addr",
	KeyLogLevel:     "log-level",
	KeyLogFormat:    "log-format",
}

// Settings is the resolved configuration.
type Settings struct {
	OutDir       string
	Verbose      bool
	DLBinary     string
	FFmpegBinary string
	Extractor    string
	Addr         string
	LogLevel     string
	LogFormat    string
}

// CLIOptions copies the shared runtime fields into a model.CLIOptions.
func (s Settings) CLIOptions() model.CLIOptions {
	return model.CLIOptions{
		OutDir:       s.OutDir,
		Verbose:      s.Verbose,
		DLBinary:     s.DLBinary,
		FFmpegBinary: s.FFmpegBinary,
		Extractor:    s.Extractor,
	}
}

// Loader holds the inputs for Load. Zero values select the defaults.
type Loader struct {
	EnvFile    string   // default ".env"
	ConfigDirs []string // default dirs.ConfigDir()
	ConfigFile string   // explicit file, overrides the search
}

// Load builds a viper instance from the environment, the optional config
// file and the given flags, and resolves Settings. Flags not present in fs
// are skipped. A missing .env or config file is not an error.
func (l Loader) Load(fs *pflag.FlagSet) (Settings, *viper.Viper, error) {
	envFile := l.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return Settings{}, nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetDefault(KeyOutDir, dirs.DefaultOutputDir())
	v.SetDefault(KeyExtractor, "yt-dlp")
	v.SetDefault(KeyAddr, "127.0.0.1:8080")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")

	v.SetEnvPrefix("PRODL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for key, name := range flagNames {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Settings{}, nil, fmt.Errorf("bind --%s: %w", name, err)
				}
			}
		}
	}

	if l.ConfigFile != "" {
		v.SetConfigFile(l.ConfigFile)
	} else {
		v.SetConfigName("config") // config.{yaml|yml|json|toml}
		searched := l.ConfigDirs
		if len(searched) == 0 {
			if d, err := dirs.ConfigDir(); err == nil {
				searched = []string{d}
			}
		}
		for _, d := range searched {
			v.AddConfigPath(d)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, nil, fmt.Errorf("read config: %w", err)
		}
	}

	return Settings{
		OutDir:       v.GetString(KeyOutDir),
		Verbose:      v.GetBool(KeyVerbose),
		DLBinary:     v.GetString(KeyDLBinary),
		FFmpegBinary: v.GetString(KeyFFmpegBinary),
		Extractor:    v.GetString(KeyExtractor),
		Addr:         v.GetString(KeyAddr),
		LogLevel:     v.GetString(KeyLogLevel),
		LogFormat:    v.GetString(KeyLogFormat),
	}, v, nil
}
