// Package server provides the web application: HTTP routing, middleware, the
// OAuth callback, and the per-session progress stream.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Session Handlers
//
// Every request resolves a [session.Session] from the session cookie, so user
// actions are explicit mutations of per-browser state:
//
//	GET  /              → login page, or the playlist form once authenticated
//	GET  /login         → redirect to the Spotify authorization page
//	GET  /callback      → OAuth callback (OAuthCallbackHandler)
//	POST /playlist-url  → store the submitted playlist URL
//	POST /download-cap  → store the download cap (0 = unbounded)
//	POST /start         → launch the archive pipeline
//	GET  /progress      → WebSocket progress stream
//	GET  /archive       → download the finished zip
//	GET  /report.csv    → per-track run report, CSV
//	GET  /report.txt    → per-track run report, plain text
//
// # OAuth Callback Handler
//
// OAuthCallbackHandler completes the authorization code flow. Each login
// redirect carries a state minted for one session; the first callback
// presenting it redeems it, so replayed callbacks are rejected. The code
// exchange itself happens on the session, which burns each code on first
// sight.
//
// # Progress Streaming
//
// Run progress is delivered over a per-session WebSocket. The [Hub] buffers
// every event of the current run and replays the backlog to clients that
// connect late, so the stream may be opened after the run has started. The
// terminal archive_ready / run_failed events are published only after the
// session has stored the outcome, so a client acting on them can download
// immediately.
//
// # Templates
//
// Pages are rendered server-side from html/template files embedded with
// go:embed; a small script drives the form submissions and the stream.
package server
