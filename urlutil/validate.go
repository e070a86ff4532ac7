package urlutil

import (
	neturl "net/url"
	"strings"

	"github.com/jongio/demo-builder-core/security"
)

const (
	// MaxURLLength is the RFC 2616 practical limit for URL length
	MaxURLLength = 2048

	// FieldURL labels URL validation errors.
	FieldURL = "URL"
)

// DefaultAllowedProtocols is used by ValidateURL when no protocols are given.
var DefaultAllowedProtocols = []string{"https"}

// blockedProtocols are rejected even when a caller lists them as allowed.
var blockedProtocols = map[string]bool{
	"javascript": true,
	"data":       true,
	"file":       true,
	"ftp":        true,
	"vbscript":   true,
}

// ValidateURL validates a URL that did not come from a hardcoded constant before
// it is handed to the HTTP client. It rejects:
//   - empty or unparseable URLs
//   - protocols not in allowedProtocols (default: https only)
//   - localhost and loopback addresses
//   - private and link-local IPv4 ranges
//   - private IPv6 ranges
//   - known cloud metadata endpoints
//
// Host checks use only the literal hostname in the URL. No DNS lookup is made.
//
// Example:
//
//	if err := urlutil.ValidateURL(commerceURL); err != nil {
//		return fmt.Errorf("invalid commerce URL: %w", err)
//	}
//
//	// Allow plain HTTP for a sandbox endpoint
//	err := urlutil.ValidateURL(sandboxURL, "http", "https")
func ValidateURL(rawURL string, allowedProtocols ...string) error {
	rawURL = strings.TrimSpace(rawURL)

	if rawURL == "" {
		return security.Invalid(FieldURL, "must be a non-empty string")
	}

	if len(rawURL) > MaxURLLength {
		return security.Invalid(FieldURL, "exceeds maximum length of %d characters", MaxURLLength)
	}

	parsed, err := neturl.Parse(rawURL)
	if err != nil || parsed.Scheme == "" {
		return security.Invalid("", "Invalid URL: %s", describeParseError(err))
	}

	if len(allowedProtocols) == 0 {
		allowedProtocols = DefaultAllowedProtocols
	}
	if !protocolAllowed(parsed.Scheme, allowedProtocols) {
		return security.Rejected(FieldURL, "protocol must be one of: %s", strings.Join(normalizeProtocols(allowedProtocols), ", "))
	}

	if parsed.Host == "" {
		return security.Invalid("", "Invalid URL: missing host")
	}

	switch ClassifyHost(parsed.Hostname()) {
	case HostLoopback:
		return security.Rejected("", "URLs pointing to localhost are not allowed")
	case HostPrivateIPv4, HostLinkLocal:
		return security.Rejected("", "URLs pointing to local/private networks are not allowed")
	case HostPrivateIPv6:
		return security.Rejected("", "URLs pointing to private IPv6 addresses are not allowed")
	case HostCloudMetadata:
		return security.Rejected("", "URLs pointing to cloud metadata endpoints are not allowed")
	}

	return nil
}

func protocolAllowed(scheme string, allowed []string) bool {
	scheme = strings.ToLower(scheme)
	if blockedProtocols[scheme] {
		return false
	}
	for _, p := range normalizeProtocols(allowed) {
		if p == scheme {
			return true
		}
	}
	return false
}

// normalizeProtocols accepts both "https" and "https:" spellings.
func normalizeProtocols(protocols []string) []string {
	out := make([]string, 0, len(protocols))
	for _, p := range protocols {
		out = append(out, strings.TrimSuffix(strings.ToLower(strings.TrimSpace(p)), ":"))
	}
	return out
}

func describeParseError(err error) string {
	if err == nil {
		return "missing protocol"
	}
	// url.Error repeats the whole input; keep only the cause.
	if uerr, ok := err.(*neturl.Error); ok {
		return uerr.Err.Error()
	}
	return err.Error()
}
