package shared

import "strings"

// SanitizeFilename strips the characters that are reserved in filenames on at
// least one common platform (`\ / * ? : " < > |`). Characters are removed,
// not substituted, so the result is never longer than the input.
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch r {
		case '\\', '/', '*', '?', ':', '"', '<', '>', '|':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParsePlaylistID extracts a playlist identifier from a shared Spotify URL of
// the form https://open.spotify.com/playlist/{id}?si=...
//
// The identifier is the last path segment with any query suffix stripped.
// Returns ok=false for empty input. Input without a "/" yields the whole
// string back; callers treat that as a bare identifier.
func ParsePlaylistID(url string) (string, bool) {
	if url == "" {
		return "", false
	}
	segment := url
	if idx := strings.LastIndex(url, "/"); idx >= 0 {
		segment = url[idx+1:]
	}
	if idx := strings.Index(segment, "?"); idx >= 0 {
		segment = segment[:idx]
	}
	if segment == "" {
		return "", false
	}
	return segment, true
}
