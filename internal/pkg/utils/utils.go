package utils

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Truncate cuts s to at most max bytes without splitting a UTF-8 rune.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// ParseInt safely converts string to int with a default value.
func ParseInt(s string, defaultVal int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return defaultVal
	}
	return v
}

// ParsePositiveInt is ParseInt that also rejects zero and negatives.
func ParsePositiveInt(s string, defaultVal int) int {
	v := ParseInt(s, defaultVal)
	if v <= 0 {
		return defaultVal
	}
	return v
}
