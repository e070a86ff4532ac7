// Package urlutil provides SSRF-safe URL validation.
//
// Any URL whose origin is not a hardcoded constant (a commerce instance URL typed
// by the user, a download link returned by an API) must pass ValidateURL before
// it reaches the HTTP client.
//
// # Usage
//
//	import "github.com/jongio/demo-builder-core/urlutil"
//
//	if err := urlutil.ValidateURL(userURL); err != nil {
//		return fmt.Errorf("invalid commerce URL: %w", err)
//	}
//
// Release downloads use a stricter, boolean check:
//
//	if !urlutil.ValidateGitHubDownloadURL(asset.BrowserDownloadURL) {
//		return errors.New("refusing to download from untrusted location")
//	}
//
// # Validation Rules
//
// ValidateURL enforces the following rules, in order:
//   - URL must not be empty and must not exceed 2048 characters
//   - URL must be parseable by net/url.Parse and carry a protocol
//   - Protocol must be in the allow-list (https by default); javascript:, data:,
//     file: and ftp: are always rejected
//   - Host must not be localhost or loopback (127.0.0.0/8, ::1)
//   - Host must not be in 10.0.0.0/8, 172.16.0.0/12, 192.168.0.0/16 or 169.254.0.0/16
//   - Host must not be in fc00::/7 or fe80::/10
//   - Host must not be a known cloud metadata endpoint
//
// The order matters: 169.254.169.254 is reported as a local/private network, not
// as a metadata endpoint, because the link-local range check runs first.
//
// # Security Considerations
//
// Classification works on the literal hostname only. No DNS lookup is made, so
// validation is synchronous and deterministic. A public hostname that resolves to
// a private address is not caught here; the HTTP client refuses redirects for
// the same reason.
package urlutil
