// package services defines the provider interfaces for the playlist archive pipeline
//
// Spotify (playlist metadata, OAuth), YouTube via yt-dlp (audio acquisition)
package services

import (
	"context"

	"github.com/antonioabatte/spotizip/internal/models"
	"golang.org/x/oauth2"
)

// CredentialSource supplies the current access token for Spotify API requests.
//
// Implementations refresh expired tokens before returning them; callers treat
// the returned token as valid for immediate use.
type CredentialSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// MetadataService defines the read-only Spotify surface the pipeline depends on.
type MetadataService interface {
	// GetPlaylist retrieves a playlist's metadata by ID.
	GetPlaylist(ctx context.Context, creds CredentialSource, playlistID string) (*models.Playlist, error)

	// PlaylistTracks retrieves every track of a playlist, following pagination.
	// Removed or unavailable playlist items come back as zero-value tracks.
	PlaylistTracks(ctx context.Context, creds CredentialSource, playlistID string) ([]models.Track, error)

	// GetPlaylists retrieves all playlists for the authenticated user.
	GetPlaylists(ctx context.Context, creds CredentialSource) ([]models.Playlist, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// Acquirer downloads the audio for a single track into a destination
// directory and returns the path of the finished file.
type Acquirer interface {
	Acquire(ctx context.Context, track models.Track, destDir string) (string, error)

	// Name returns the name of the service (e.g., "YouTube")
	Name() string
}

// Authenticator drives the OAuth2 authorization code flow against a provider.
type Authenticator interface {
	// AuthCodeURL returns the URL the user visits to authorize access.
	AuthCodeURL(state string) string

	// Exchange trades a one-time authorization code for a token.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)

	// Refresh obtains a fresh token using the refresh token carried by tok.
	Refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error)
}

// SearchCache remembers which video an artist/title pair resolved to so
// repeat runs skip the search probe.
type SearchCache interface {
	// Lookup returns the cached video ID for the pair, if any.
	Lookup(artist, title string) (string, bool)

	// Store records a resolved pair.
	Store(artist, title, videoID string) error
}
