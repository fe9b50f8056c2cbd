package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("out-dir", "", "")
	fs.Bool("verbose", false, "")
	fs.String("extractor", "yt-dlp", "")
	fs.String("addr", "127.0.0.1:8080", "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func loader(t *testing.T) Loader {
	dir := t.TempDir()
	return Loader{EnvFile: filepath.Join(dir, "missing.env"), ConfigDirs: []string{dir}}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir()) // no ~/Downloads
	s, _, err := loader(t).Load(flags(t))
	require.NoError(t, err)
	assert.Equal(t, ".", s.OutDir)
	assert.Equal(t, "yt-dlp", s.Extractor)
	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, "text", s.LogFormat)
	assert.False(t, s.Verbose)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("out_dir: /from/file\nextractor: youtube\nlog_level: debug\naddr: \":9000\"\n"), 0o644))
	t.Setenv("PRODL_EXTRACTOR", "yt-dlp")

	s, _, err := Loader{EnvFile: filepath.Join(dir, "none.env"), ConfigDirs: []string{dir}}.Load(flags(t, "--addr", ":7000"))
	require.NoError(t, err)
	assert.Equal(t, "/from/file", s.OutDir, "file beats default")
	assert.Equal(t, "yt-dlp", s.Extractor, "env beats file")
	assert.Equal(t, ":7000", s.Addr, "flag beats file")
	assert.Equal(t, "debug", s.LogLevel)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("PRODL_FFMPEG_BINARY=/opt/ffmpeg/bin/ffmpeg\n"), 0o644))
	t.Setenv("PRODL_FFMPEG_BINARY", "")
	os.Unsetenv("PRODL_FFMPEG_BINARY")

	s, _, err := Loader{EnvFile: envFile, ConfigDirs: []string{dir}}.Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", s.FFmpegBinary)
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", s.CLIOptions().FFmpegBinary)
}

func TestLoadBrokenConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("out_dir: [unterminated\n"), 0o644))
	_, _, err := Loader{ConfigFile: cfg, EnvFile: filepath.Join(dir, "x")}.Load(nil)
	assert.Error(t, err)
}
