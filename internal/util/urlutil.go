package util

import (
	"fmt"
	"net/url"
	"strings"
)

type Platform string

const (
	PlatformYouTube Platform = "youtube"
	PlatformGeneric Platform = "generic"
)

// ValidateURL parses raw, adding https:// when the scheme is missing, and
// rejects anything that is not an absolute http(s) URL.
func ValidateURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty URL")
	}
	u, err := url.Parse(raw)
	if err == nil && (u.Scheme == "" || u.Host == "") {
		if u2, e2 := url.Parse("https://" + raw); e2 == nil {
			u, err = u2, nil
		}
	}
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid URL %q", raw)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, fmt.Errorf("unsupported URL scheme %q in %q", u.Scheme, raw)
	}
	return u, nil
}

// DetectPlatform classifies a URL. Any site yt-dlp knows is accepted; YouTube
// is singled out because it has a native metadata source.
func DetectPlatform(raw string) (Platform, *url.URL, error) {
	u, err := ValidateURL(raw)
	if err != nil {
		return "", nil, err
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtube.com", "m.youtube.com", "music.youtube.com", "youtu.be", "youtube-nocookie.com":
		return PlatformYouTube, u, nil
	default:
		return PlatformGeneric, u, nil
	}
}
