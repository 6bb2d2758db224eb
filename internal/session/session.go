// package session holds per-browser conversation state: OAuth tokens, the
// submitted playlist URL and cap, and the result of the latest archive run
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/antonioabatte/spotizip/internal/models"
	"github.com/antonioabatte/spotizip/internal/services"
	"github.com/antonioabatte/spotizip/internal/shared"
	"golang.org/x/oauth2"
)

// State is the authentication state of a session.
type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	default:
		return ""
	}
}

// Session is the explicit conversation object for one browser. It owns the
// OAuth token, the run inputs, and the outcome of the latest run.
//
// Sessions implement [services.CredentialSource]: the token is checked for
// expiry on every use and refreshed at most once before a caller sees it.
type Session struct {
	id   string
	auth services.Authenticator

	mu        sync.Mutex
	state     State
	token     *oauth2.Token
	usedCodes map[string]struct{}
	userID    string

	playlistURL string
	downloadCap int

	running     bool
	playlist    *models.Playlist
	report      []models.TrackReport
	archiveName string
	archive     []byte
	runErr      error

	lastSeen time.Time
}

// NewSession creates an unauthenticated session with the given ID.
func NewSession(id string, auth services.Authenticator) *Session {
	return &Session{
		id:        id,
		auth:      auth,
		state:     Unauthenticated,
		usedCodes: make(map[string]struct{}),
		lastSeen:  time.Now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current authentication state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Touch records activity for idle expiry.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
}

// LastSeen returns the time of the most recent activity.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// HandleAuthCode consumes an authorization code and transitions the session
// to Authenticated. Each code is burned on first sight: replays fail with
// [shared.ErrAuthExchangeFailed] without reaching the provider, and a failed
// exchange does not un-burn the code.
func (s *Session) HandleAuthCode(ctx context.Context, code string) error {
	if code == "" {
		return fmt.Errorf("%w: empty authorization code", shared.ErrAuthExchangeFailed)
	}

	s.mu.Lock()
	if _, used := s.usedCodes[code]; used {
		s.mu.Unlock()
		return fmt.Errorf("%w: authorization code already used", shared.ErrAuthExchangeFailed)
	}
	s.usedCodes[code] = struct{}{}
	s.mu.Unlock()

	token, err := s.auth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthExchangeFailed, err)
	}

	s.mu.Lock()
	s.token = token
	s.state = Authenticated
	s.mu.Unlock()

	return nil
}

// SeedToken installs a previously persisted token, marking the session
// Authenticated without an authorization redirect.
func (s *Session) SeedToken(token *oauth2.Token) {
	if token == nil || token.AccessToken == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.state = Authenticated
}

// Token returns a copy of the current token for persistence, if any.
func (s *Session) Token() *oauth2.Token {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == nil {
		return nil
	}
	copied := *s.token
	return &copied
}

// SetUserID associates the session with a provider user, the key of the
// persisted token cache.
func (s *Session) SetUserID(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
}

// UserID returns the associated provider user, if known.
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// AccessToken returns a token valid for immediate use. An expired token is
// refreshed exactly once; a failed refresh drops the session back to
// Unauthenticated and returns [shared.ErrSessionExpired].
func (s *Session) AccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Authenticated || s.token == nil {
		return "", shared.ErrNotAuthenticated
	}

	if s.token.Valid() {
		return s.token.AccessToken, nil
	}

	fresh, err := s.auth.Refresh(ctx, s.token)
	if err != nil {
		s.state = Unauthenticated
		s.token = nil
		return "", fmt.Errorf("%w: %v", shared.ErrSessionExpired, err)
	}

	s.token = fresh
	return fresh.AccessToken, nil
}

// SetPlaylistURL stores the submitted playlist URL. Resubmitting before a
// run simply replaces the previous value.
func (s *Session) SetPlaylistURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playlistURL = url
}

// PlaylistURL returns the submitted playlist URL.
func (s *Session) PlaylistURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playlistURL
}

// SetCap stores the download cap. Zero means unbounded.
func (s *Session) SetCap(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: cap must be zero or positive", shared.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.downloadCap = n
	return nil
}

// Cap returns the download cap.
func (s *Session) Cap() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.downloadCap
}

// BeginRun marks a run in flight, clearing the previous outcome. A session
// runs at most one job at a time.
func (s *Session) BeginRun() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return shared.ErrRunActive
	}

	s.running = true
	s.playlist = nil
	s.report = nil
	s.archiveName = ""
	s.archive = nil
	s.runErr = nil
	return nil
}

// FinishRun records the outcome of the run started by BeginRun.
func (s *Session) FinishRun(playlist *models.Playlist, report []models.TrackReport, archiveName string, archive []byte, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = false
	s.playlist = playlist
	s.report = report
	s.archiveName = archiveName
	s.archive = archive
	s.runErr = err
}

// Running reports whether a run is in flight.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Archive returns the finished archive, if the latest run produced one.
func (s *Session) Archive() (string, []byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.archive) == 0 {
		return "", nil, false
	}
	return s.archiveName, s.archive, true
}

// Report returns the per-track report of the latest run, if any.
func (s *Session) Report() (*models.Playlist, []models.TrackReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.report == nil {
		return nil, nil, false
	}
	return s.playlist, s.report, true
}

// RunErr returns the terminal failure of the latest run, if any.
func (s *Session) RunErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runErr
}
