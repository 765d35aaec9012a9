// Package path handles the slash-delimited paths of the store and the
// per-segment encoding applied to record identities and value keys.
package path

import "strings"

const Separator = "/"

// Split breaks a path into its non-empty segments.
func Split(path string) []string {
	parts := strings.Split(path, Separator)
	segments := make([]string, 0, len(parts))

	for _, part := range parts {
		if part != "" {
			segments = append(segments, part)
		}
	}

	return segments
}

func Join(segments []string) string {
	return strings.Join(segments, Separator)
}

// Clean normalises a path to its joined, non-empty segments.
func Clean(path string) string {
	return Join(Split(path))
}

// Append copies base before adding segments, so base is never aliased.
func Append(base []string, segments ...string) []string {
	joined := make([]string, 0, len(base)+len(segments))
	joined = append(joined, base...)
	joined = append(joined, segments...)
	return joined
}

// HasPrefix reports whether prefix is an ancestor of, or equal to, segments.
func HasPrefix(segments, prefix []string) bool {
	if len(prefix) > len(segments) {
		return false
	}

	for i, p := range prefix {
		if segments[i] != p {
			return false
		}
	}

	return true
}

// Key is the last segment of a path, or "" for the root.
func Key(path string) string {
	segments := Split(path)

	if len(segments) == 0 {
		return ""
	}

	return segments[len(segments)-1]
}
