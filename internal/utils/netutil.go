package utils

import (
	"net/netip"
	"strings"
	"unicode/utf8"
)

const MaxUserAgentLength = 512

// NormalizeIP returns the canonical IP of raw, which may carry a port
// ("192.0.2.4:1234", "[2001:db8::1]:443") or a zone. The second result
// reports whether raw parsed as an address.
func NormalizeIP(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if ap, err := netip.ParseAddrPort(raw); err == nil {
		return ap.Addr().WithZone("").String(), true
	}
	if addr, err := netip.ParseAddr(strings.Trim(raw, "[]")); err == nil {
		return addr.WithZone("").String(), true
	}
	if idx := strings.LastIndex(raw, ":"); idx > 0 {
		if addr, err := netip.ParseAddr(strings.Trim(raw[:idx], "[]")); err == nil {
			return addr.WithZone("").String(), true
		}
	}
	return raw, false
}

// TruncateUserAgent trims ua to MaxUserAgentLength runes.
func TruncateUserAgent(ua string) string {
	if utf8.RuneCountInString(ua) <= MaxUserAgentLength {
		return ua
	}
	runes := []rune(ua)
	return string(runes[:MaxUserAgentLength])
}
