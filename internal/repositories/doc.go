// Package repositories implements SQLite persistence for the service's caches.
//
// Two caches survive restarts: OAuth tokens keyed by Spotify user ID, so a
// returning user skips the authorization redirect, and YouTube search results
// keyed by (artist, title), so a repeat run skips the search probe.
//
// Key Implementations:
//   - [TokenRepository] : token persistence with upsert on re-authorization
//   - [SearchRepository] : search result persistence behind a UNIQUE (artist, title) constraint
//   - [SearchCacheAdapter] : adapts [SearchRepository] to the acquirer's cache interface with silent deduplication
package repositories
