// Package dirs resolves per-user directories for prodl following the
// platform conventions (XDG on Linux, Library on macOS).
package dirs

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "prodl"

// AppName returns the name used for every per-user directory.
func AppName() string {
	return appName
}

// ConfigDir returns the directory searched for config.yaml.
func ConfigDir() (string, error) {
	return userDir("XDG_CONFIG_HOME", ".config", "Application Support", os.UserConfigDir)
}

// CacheDir returns the cache directory. Work directories live under it.
func CacheDir() (string, error) {
	return userDir("XDG_CACHE_HOME", ".cache", "Caches", os.UserCacheDir)
}

// TempBaseDir returns the parent of per-job work directories.
func TempBaseDir() (string, error) {
	c, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(c, "work"), nil
}

// DefaultOutputDir is ~/Downloads when it exists, else the working directory.
func DefaultOutputDir() string {
	home, err := os.UserHomeDir()
	if err == nil {
		d := filepath.Join(home, "Downloads")
		if fi, err := os.Stat(d); err == nil && fi.IsDir() {
			return d
		}
	}
	return "."
}

func userDir(xdgEnv, linuxRel, darwinRel string, fallback func() (string, error)) (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv(xdgEnv); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, linuxRel, appName), nil
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", darwinRel, appName), nil
	default:
		base, err := fallback()
		if err != nil {
			return "", err
		}
		return filepath.Join(base, appName), nil
	}
}
