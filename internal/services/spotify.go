// Spotify Web API implementation of [MetadataService]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/antonioabatte/spotizip/internal/models"
	"github.com/antonioabatte/spotizip/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyTrack represents a Spotify track.
//
// Playlist items for removed or region-blocked tracks carry a JSON null
// track, which decodes to the zero value.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type playlistTracks struct {
	Total int `json:"total"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Public      bool           `json:"public"`
	Tracks      playlistTracks `json:"tracks"`
}

// SpotifyPlaylistTrack represents a track within a playlist context.
type SpotifyPlaylistTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

// SpotifyPaginatedTracks represents one page of a playlist's tracks.
type SpotifyPaginatedTracks struct {
	Items    []SpotifyPlaylistTrack `json:"items"`
	Total    int                    `json:"total"`
	Limit    int                    `json:"limit"`
	Offset   int                    `json:"offset"`
	Next     *string                `json:"next"`
	Previous *string                `json:"previous"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items    []SpotifySimplePlaylist `json:"items"`
	Total    int                     `json:"total"`
	Limit    int                     `json:"limit"`
	Offset   int                     `json:"offset"`
	Next     *string                 `json:"next"`
	Previous *string                 `json:"previous"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Public      bool           `json:"public"`
	Tracks      playlistTracks `json:"tracks"`
}

// SpotifyService implements [MetadataService] against the Spotify Web API.
// Tokens come from a per-call [CredentialSource]; full playlist listings are
// memoized per token identity.
type SpotifyService struct {
	httpClient *http.Client
	listings   *listingCache
}

// NewSpotifyService creates a Spotify Web API client. A nil httpClient falls
// back to [http.DefaultClient].
func NewSpotifyService(httpClient *http.Client) *SpotifyService {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &SpotifyService{
		httpClient: httpClient,
		listings:   newListingCache(0),
	}
}

// Name returns the service name.
func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs an authenticated HTTP request against the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, token, method, endpoint string, result any) error {
	if token == "" {
		return fmt.Errorf("%w: empty access token", shared.ErrNotAuthenticated)
	}

	apiURL := spotifyBaseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, method, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %v", shared.ErrPlaylistFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify API error: status %d", shared.ErrPlaylistFetch, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrPlaylistFetch, err)
		}
	}

	return nil
}

// UserProfile retrieves the profile of the user the credentials belong to.
func (s *SpotifyService) UserProfile(ctx context.Context, creds CredentialSource) (*SpotifyUser, error) {
	token, err := creds.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	var user SpotifyUser
	if err := s.doRequest(ctx, token, "GET", "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// playlist retrieves a full playlist object by ID.
func (s *SpotifyService) playlist(ctx context.Context, token, playlistID string) (*SpotifyPlaylist, error) {
	endpoint := fmt.Sprintf("/playlists/%s", url.PathEscape(playlistID))

	var playlist SpotifyPlaylist
	if err := s.doRequest(ctx, token, "GET", endpoint, &playlist); err != nil {
		return nil, err
	}

	return &playlist, nil
}

// playlistItems retrieves one page of a playlist's tracks.
func (s *SpotifyService) playlistItems(ctx context.Context, token, playlistID string, limit, offset int) (*SpotifyPaginatedTracks, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 100 {
		limit = 100
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", url.PathEscape(playlistID), limit, offset)

	var response SpotifyPaginatedTracks
	if err := s.doRequest(ctx, token, "GET", endpoint, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// userPlaylists retrieves one page of the current user's playlists.
func (s *SpotifyService) userPlaylists(ctx context.Context, token string, limit, offset int) (*SpotifyPaginatedPlaylists, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)

	var response SpotifyPaginatedPlaylists
	if err := s.doRequest(ctx, token, "GET", endpoint, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// MetadataService interface implementation

// GetPlaylist retrieves a playlist's metadata by ID.
func (s *SpotifyService) GetPlaylist(ctx context.Context, creds CredentialSource, playlistID string) (*models.Playlist, error) {
	token, err := creds.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	sp, err := s.playlist(ctx, token, playlistID)
	if err != nil {
		return nil, err
	}

	return &models.Playlist{
		ID:          sp.ID,
		Name:        sp.Name,
		Description: sp.Description,
		TrackCount:  sp.Tracks.Total,
		Public:      sp.Public,
	}, nil
}

// PlaylistTracks retrieves every track of a playlist, following pagination.
// Listings are memoized per (token, playlist) pair, so repeat submissions of
// the same playlist within a session skip the page walk.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, creds CredentialSource, playlistID string) ([]models.Track, error) {
	token, err := creds.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	if tracks, ok := s.listings.get(token, playlistID); ok {
		return tracks, nil
	}

	var allTracks []models.Track
	limit := 100
	offset := 0

	for {
		page, err := s.playlistItems(ctx, token, playlistID, limit, offset)
		if err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			allTracks = append(allTracks, trackFromItem(item))
		}

		if page.Next == nil {
			break
		}
		offset += limit
	}

	s.listings.put(token, playlistID, allTracks)
	return allTracks, nil
}

// GetPlaylists retrieves all playlists for the authenticated user.
func (s *SpotifyService) GetPlaylists(ctx context.Context, creds CredentialSource) ([]models.Playlist, error) {
	token, err := creds.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	var allPlaylists []models.Playlist
	limit := 50
	offset := 0

	for {
		response, err := s.userPlaylists(ctx, token, limit, offset)
		if err != nil {
			return nil, err
		}

		for _, sp := range response.Items {
			allPlaylists = append(allPlaylists, models.Playlist{
				ID:          sp.ID,
				Name:        sp.Name,
				Description: sp.Description,
				TrackCount:  sp.Tracks.Total,
				Public:      sp.Public,
			})
		}

		if response.Next == nil {
			break
		}
		offset += limit
	}

	return allPlaylists, nil
}

// trackFromItem maps a playlist item to the domain track type. A null track
// in the response maps to the zero value.
func trackFromItem(item SpotifyPlaylistTrack) models.Track {
	track := models.Track{
		ID:       item.Track.ID,
		Title:    item.Track.Name,
		Album:    item.Track.Album.Name,
		Duration: item.Track.DurationMS / 1000,
	}

	if len(item.Track.Artists) > 0 {
		track.Artist = item.Track.Artists[0].Name
	}

	return track
}

// SpotifyAuthenticator implements [Authenticator] for the Spotify accounts
// service. Read-only playlist access is the only scope requested.
type SpotifyAuthenticator struct {
	config *oauth2.Config
}

// NewSpotifyAuthenticator builds an authenticator from the configured
// Spotify credentials.
func NewSpotifyAuthenticator(cfg *shared.Config) (*SpotifyAuthenticator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sp := cfg.Credentials.Spotify
	config := &oauth2.Config{
		ClientID:     sp.ClientID,
		ClientSecret: sp.ClientSecret,
		RedirectURL:  sp.RedirectURI,
		Scopes:       []string{"playlist-read-private"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyAuthenticator{config: config}, nil
}

// AuthCodeURL returns the authorization URL for user login.
func (a *SpotifyAuthenticator) AuthCodeURL(state string) string {
	return a.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for a token.
func (a *SpotifyAuthenticator) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := a.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return token, nil
}

// Refresh obtains a fresh token. Spotify omits the refresh token from
// refresh responses, so the previous one is carried forward.
func (a *SpotifyAuthenticator) Refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error) {
	fresh, err := a.config.TokenSource(ctx, tok).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	if fresh.RefreshToken == "" {
		fresh.RefreshToken = tok.RefreshToken
	}

	return fresh, nil
}
