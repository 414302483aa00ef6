// Package util provides small helpers for cleaning command arguments.
package util

import "strings"

// TrimQuotes removes one pair of surrounding double quotes from a string.
// Quotes that belong to the value, such as an escaped trailing quote, stay.
func TrimQuotes(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}

// FixEscapeQuotes replaces escaped double quotes ("") with single double quotes (").
func FixEscapeQuotes(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}

// CleanArgs trims surrounding whitespace and quotes from every argument and
// unescapes doubled quotes, in place. Bare JSON objects and arrays are only
// trimmed of whitespace.
func CleanArgs(data []string) []string {
	for i, v := range data {
		v = strings.TrimSpace(v)
		if strings.HasPrefix(v, "{") || strings.HasPrefix(v, "[") {
			data[i] = v
			continue
		}
		data[i] = FixEscapeQuotes(TrimQuotes(v))
	}
	return data
}

// Arg returns data[i], or "" when the argument is missing.
func Arg(data []string, i int) string {
	if i < 0 || i >= len(data) {
		return ""
	}
	return data[i]
}

// Dedupe returns the non-empty values of data in first-seen order without
// repeats. data is not modified.
func Dedupe(data []string) []string {
	seen := make(map[string]struct{}, len(data))
	out := make([]string, 0, len(data))
	for _, v := range data {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
