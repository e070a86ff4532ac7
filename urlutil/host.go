package urlutil

import (
	"net/netip"
	"strconv"
	"strings"
)

// HostClass is the SSRF classification of a URL hostname.
type HostClass int

const (
	// HostPublic is any host not in a blocked range.
	HostPublic HostClass = iota
	// HostLoopback is localhost, 127.0.0.0/8, 0.0.0.0/8, ::1 or ::.
	HostLoopback
	// HostPrivateIPv4 is 10.0.0.0/8, 172.16.0.0/12 or 192.168.0.0/16.
	HostPrivateIPv4
	// HostPrivateIPv6 is fc00::/7 (including fd00::/8) or fe80::/10.
	HostPrivateIPv6
	// HostLinkLocal is 169.254.0.0/16.
	HostLinkLocal
	// HostCloudMetadata is a metadata service not covered by a broader range.
	HostCloudMetadata
)

func (c HostClass) String() string {
	switch c {
	case HostLoopback:
		return "loopback"
	case HostPrivateIPv4:
		return "private-ipv4"
	case HostPrivateIPv6:
		return "private-ipv6"
	case HostLinkLocal:
		return "link-local"
	case HostCloudMetadata:
		return "cloud-metadata"
	default:
		return "public"
	}
}

var (
	loopbackPrefixes = []netip.Prefix{
		netip.MustParsePrefix("127.0.0.0/8"),
		netip.MustParsePrefix("0.0.0.0/8"),
	}

	privateIPv4Prefixes = []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("172.16.0.0/12"),
		netip.MustParsePrefix("192.168.0.0/16"),
	}

	linkLocalIPv4 = netip.MustParsePrefix("169.254.0.0/16")

	privateIPv6Prefixes = []netip.Prefix{
		netip.MustParsePrefix("fc00::/7"),
		netip.MustParsePrefix("fd00::/8"),
		netip.MustParsePrefix("fe80::/10"),
	}

	// Checked after every range above. Entries inside 169.254.0.0/16 or fd00::/8
	// never reach this table; they are reported by the range check instead.
	metadataHosts = map[string]bool{
		"169.254.169.254":          true, // AWS, Azure, GCP, OpenStack
		"169.254.170.2":            true, // AWS ECS task metadata
		"fd00:ec2::254":            true, // AWS IMDS over IPv6
		"100.100.100.200":          true, // Alibaba Cloud
		"metadata.google.internal": true,
		"metadata.goog":            true,
		"metadata.azure.com":       true,
	}
)

// ClassifyHost classifies a URL hostname. The order of checks is observable through
// ValidateURL's messages and must stay: loopback, private IPv4 and link-local,
// private IPv6, cloud metadata. Numeric IPv4 spellings such as "2130706433" or
// "0x7f.1" are normalized the way browsers do before classification.
func ClassifyHost(hostname string) HostClass {
	host := strings.TrimSuffix(strings.ToLower(strings.Trim(hostname, "[]")), ".")

	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return HostLoopback
	}

	addr, ok := parseHostAddr(host)
	if ok {
		addr = addr.Unmap().WithZone("")

		if addr.Is4() {
			for _, p := range loopbackPrefixes {
				if p.Contains(addr) {
					return HostLoopback
				}
			}
			for _, p := range privateIPv4Prefixes {
				if p.Contains(addr) {
					return HostPrivateIPv4
				}
			}
			if linkLocalIPv4.Contains(addr) {
				return HostLinkLocal
			}
		} else {
			if addr.IsLoopback() || addr.IsUnspecified() {
				return HostLoopback
			}
			for _, p := range privateIPv6Prefixes {
				if p.Contains(addr) {
					return HostPrivateIPv6
				}
			}
		}
		host = addr.String()
	}

	if metadataHosts[host] {
		return HostCloudMetadata
	}

	return HostPublic
}

// parseHostAddr parses an IP literal, including the shorthand and non-decimal IPv4
// forms accepted by WHATWG URL parsers (which would otherwise slip past a
// dotted-quad comparison and still reach 127.0.0.1).
func parseHostAddr(host string) (netip.Addr, bool) {
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr, true
	}
	if strings.Contains(host, ":") {
		return netip.Addr{}, false
	}
	return parseLooseIPv4(host)
}

func parseLooseIPv4(host string) (netip.Addr, bool) {
	parts := strings.Split(host, ".")
	if len(parts) == 0 || len(parts) > 4 {
		return netip.Addr{}, false
	}

	nums := make([]uint64, len(parts))
	for i, part := range parts {
		n, ok := parseIPv4Number(part)
		if !ok {
			return netip.Addr{}, false
		}
		nums[i] = n
	}

	// All but the last part are single bytes; the last fills the remaining bytes.
	for _, n := range nums[:len(nums)-1] {
		if n > 255 {
			return netip.Addr{}, false
		}
	}
	last := nums[len(nums)-1]
	if last >= 1<<(8*(5-len(nums))) {
		return netip.Addr{}, false
	}

	var value uint64
	for i, n := range nums[:len(nums)-1] {
		value |= n << (8 * (3 - i))
	}
	value |= last

	return netip.AddrFrom4([4]byte{byte(value >> 24), byte(value >> 16), byte(value >> 8), byte(value)}), true
}

func parseIPv4Number(part string) (uint64, bool) {
	if part == "" {
		return 0, false
	}
	base := 10
	switch {
	case strings.HasPrefix(part, "0x") || strings.HasPrefix(part, "0X"):
		part = part[2:]
		base = 16
		if part == "" {
			return 0, true
		}
	case len(part) > 1 && part[0] == '0':
		part = part[1:]
		base = 8
	}
	n, err := strconv.ParseUint(part, base, 32)
	if err != nil {
		return 0, false
	}
	return n, true
}
