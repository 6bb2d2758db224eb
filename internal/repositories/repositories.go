// package repositories provides persistence for the token and search caches.
//
// Repositories back the pipeline's caching layers: TokenRepository lets a
// returning user skip the authorization redirect, SearchRepository lets a
// repeat run skip the YouTube search probe.
package repositories

import "strings"

// isUniqueViolation reports whether an error came from a UNIQUE constraint.
// SQLite surfaces constraint violations as plain errors, so the match is on
// the message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint")
}
