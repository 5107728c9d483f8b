package utils

import (
	"hash/fnv"
	"strconv"
	"time"
	"unicode/utf8"
)

// HashString returns a short base36 fingerprint of s.
func HashString(s string) string {
	h := fnv.New32a()
	if _, err := h.Write([]byte(s)); err != nil {
		return "0"
	}
	return strconv.FormatUint(uint64(h.Sum32()), 36)
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// RuneLen counts characters, not bytes.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// DayKey formats t as the YYYY-MM-DD key used for daily stats.
func DayKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

// Clock returns the current time. Tests swap it for a fixed clock.
type Clock func() time.Time

// SystemClock is the wall clock.
func SystemClock() time.Time { return time.Now() }
