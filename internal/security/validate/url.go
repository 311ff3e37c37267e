package validate

import (
	"net/url"
	"strings"
)

var privateHostPrefixes = []string{
	"10.",
	"172.16.", "172.17.", "172.18.", "172.19.",
	"172.20.", "172.21.", "172.22.", "172.23.",
	"172.24.", "172.25.", "172.26.", "172.27.",
	"172.28.", "172.29.", "172.30.", "172.31.",
	"192.168.",
	"169.254.",
	"0.",
}

var internalHostMarkers = []string{"internal", "intranet", "corp", "private", "local"}

// IsSafeURL reports whether a URL is safe to fetch: http or https only,
// and not pointing at loopback, link-local, private ranges, or hosts that
// look internal. Malformed URLs are unsafe.
func IsSafeURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	if host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return false
	}
	for _, prefix := range privateHostPrefixes {
		if strings.HasPrefix(host, prefix) {
			return false
		}
	}
	for _, marker := range internalHostMarkers {
		if strings.Contains(host, marker) {
			return false
		}
	}
	return true
}
