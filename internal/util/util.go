// Package util provides small string helpers shared by the event parser and plan importers.
package util

import (
	"bufio"
	"strings"
)

// TrimQuotes removes leading and trailing double quotes from a string.
func TrimQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// FixEscapeQuotes replaces escaped double quotes ("") with single double quotes (").
func FixEscapeQuotes(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}

// Clean trims whitespace and quotes and unescapes doubled quotes.
func Clean(s string) string {
	return FixEscapeQuotes(TrimQuotes(strings.TrimSpace(s)))
}

// Contains reports whether str is in slice.
func Contains(slice []string, str string) bool {
	for _, s := range slice {
		if s == str {
			return true
		}
	}
	return false
}

// ParseCommandLines splits a plain-text plan into command strings. Commands are
// separated by newlines or semicolons; blank entries and "#" comments are skipped.
func ParseCommandLines(text string) []string {
	var out []string
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		for _, part := range strings.Split(line, ";") {
			part = strings.Join(strings.Fields(part), " ")
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
