// Package services implements the external providers the archive pipeline
// depends on: Spotify for playlist metadata and OAuth, YouTube (via yt-dlp)
// for audio acquisition.
//
// # Interfaces
//
// The pipeline engine and the session layer are written against small
// interfaces rather than concrete clients:
//   - [MetadataService] : read-only playlist and profile lookups
//   - [Acquirer] : per-track audio download
//   - [Authenticator] : OAuth2 authorization code flow
//   - [CredentialSource] : access token supply, implemented by sessions
//   - [SearchCache] : artist/title → video ID memoization
//
// # Spotify Implementation
//
// [SpotifyService] talks to the Spotify Web API with bearer tokens obtained
// per call from a [CredentialSource]. Playlist listings follow pagination
// until the next pointer is exhausted, and complete listings are memoized in
// a bounded LRU keyed by token identity so concurrent sessions never see each
// other's playlists.
//
// [SpotifyAuthenticator] wraps [oauth2.Config] for the accounts service. The
// only scope requested is playlist-read-private. Refresh responses from
// Spotify omit the refresh token, so the previous one is carried forward.
//
// # YouTube Implementation
//
// [YouTubeService] shells out to yt-dlp through the go-ytdlp bindings. A
// track is first located with a bounded ytsearch probe, then downloaded as
// bestaudio and re-encoded to the configured format via ffmpeg. The binary
// itself is provisioned at startup with [InstallYTDLP].
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrNotAuthenticated] : no usable access token
//   - [shared.ErrPlaylistFetch] : metadata or listing request failed
//   - [shared.ErrTrackNotFound] : search produced no result within the timeout
//   - [shared.ErrTrackAcquisition] : download or conversion failed
package services
