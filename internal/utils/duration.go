package utils

import (
	"strconv"
	"strings"
	"time"
)

// DefaultTTLSeconds is used when a duration string cannot be parsed.
const DefaultTTLSeconds = 900

// DurationToSeconds converts strings such as "30s", "15m", "12h" or "7d" to
// seconds. A bare integer is taken as seconds. Anything else, including
// zero or negative values, yields DefaultTTLSeconds.
func DurationToSeconds(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultTTLSeconds
	}
	unit := 1
	num := s
	switch s[len(s)-1] {
	case 's':
		num = s[:len(s)-1]
	case 'm':
		unit, num = 60, s[:len(s)-1]
	case 'h':
		unit, num = 3600, s[:len(s)-1]
	case 'd':
		unit, num = 86400, s[:len(s)-1]
	}
	n, err := strconv.Atoi(num)
	if err != nil || n <= 0 {
		return DefaultTTLSeconds
	}
	return n * unit
}

// ParseTTL is DurationToSeconds as a time.Duration.
func ParseTTL(s string) time.Duration {
	return time.Duration(DurationToSeconds(s)) * time.Second
}
