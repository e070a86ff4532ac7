package urlutil

import (
	neturl "net/url"
	"strings"
)

// Hosts that serve GitHub release assets. Matching is exact; suffix and prefix
// matches would admit github.com.evil.com.
var githubDownloadHosts = map[string]bool{
	"github.com":                    true,
	"objects.githubusercontent.com": true,
}

// ValidateGitHubDownloadURL reports whether rawURL is an https URL for a GitHub
// release asset, in one of two shapes:
//
//	/{owner}/{repo}/releases/download/{tag}/{asset}
//	/repos/{owner}/{repo}/releases/assets/{id}
//
// Every segment must be non-empty. Query strings, fragments, credentials and
// ports are ignored. It never returns an error: any rejection is false.
func ValidateGitHubDownloadURL(rawURL string) bool {
	parsed, err := neturl.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}

	if strings.ToLower(parsed.Scheme) != "https" {
		return false
	}

	if !githubDownloadHosts[strings.ToLower(parsed.Hostname())] {
		return false
	}

	segments := strings.Split(parsed.EscapedPath(), "/")
	// A leading "/" yields an empty first element.
	if len(segments) != 7 || segments[0] != "" {
		return false
	}
	segments = segments[1:]
	for _, s := range segments {
		if s == "" {
			return false
		}
	}

	switch {
	case segments[2] == "releases" && segments[3] == "download":
		return true
	case segments[0] == "repos" && segments[3] == "releases" && segments[4] == "assets":
		return true
	default:
		return false
	}
}
