package common

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateWebsiteURL checks that raw is an absolute http(s) URL with a host.
// The returned string is the normalized form used for navigation.
func ValidateWebsiteURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("url is empty")
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("url does not parse: %w", err)
	}

	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	case "":
		return "", fmt.Errorf("url must be absolute")
	default:
		return "", fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}

	if parsed.Hostname() == "" {
		return "", fmt.Errorf("url has no host")
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Fragment = ""
	return parsed.String(), nil
}
