package helpers

import (
	"errors"
	"strings"
)

func GetSplitPart(target string, separate string, index int) (string, error) {
	parts := strings.Split(target, separate)
	if index >= len(parts) {
		return "", errors.New("index out of range")
	}
	return parts[index], nil
}

// QuotedSegment returns the first single- or double-quoted string in s,
// e.g. the target of onclick="window.location.href='/x'". Empty when s has none.
func QuotedSegment(s string) string {
	start := strings.IndexAny(s, `'"`)
	if start < 0 {
		return ""
	}
	quote := s[start : start+1]
	segment, err := GetSplitPart(s[start+1:], quote, 0)
	if err != nil || !strings.Contains(s[start+1:], quote) {
		return ""
	}
	return segment
}

// CollapseSpace trims s and replaces every run of whitespace with one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
