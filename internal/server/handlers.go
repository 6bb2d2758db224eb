package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/antonioabatte/spotizip/internal/formatter"
	"github.com/antonioabatte/spotizip/internal/models"
	"github.com/antonioabatte/spotizip/internal/session"
	"github.com/antonioabatte/spotizip/internal/shared"
	"github.com/antonioabatte/spotizip/internal/tasks"
	"golang.org/x/oauth2"
)

const (
	sessionCookie = "spotizip_session"
	userCookie    = "spotizip_user"

	// progressBuffer sizes the channel between the pipeline and the hub.
	progressBuffer = 128
)

// formData feeds the main page template.
type formData struct {
	User        string
	Playlists   []models.Playlist
	PlaylistURL string
	Cap         int
	Running     bool
	HasArchive  bool
	ArchiveName string
	HasReport   bool
	RunError    string
}

// sessionFor returns the browser's session, creating one (and setting the
// cookie) on first contact. New sessions inherit the configured default cap
// and, when the browser identifies a returning user, the persisted token.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) *session.Session {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if sess, ok := s.manager.Get(c.Value); ok {
			return sess
		}
	}

	sess := s.manager.Create()
	if s.cfg.Downloads.DefaultCap > 0 {
		sess.SetCap(s.cfg.Downloads.DefaultCap)
	}
	s.seedReturningUser(r, sess)

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

// seedReturningUser restores the persisted token for a browser that has
// logged in before, skipping the authorization redirect.
func (s *Server) seedReturningUser(r *http.Request, sess *session.Session) {
	if s.tokens == nil {
		return
	}

	c, err := r.Cookie(userCookie)
	if err != nil || c.Value == "" {
		return
	}

	record, err := s.tokens.Get(c.Value)
	if err != nil {
		return
	}

	sess.SeedToken(&oauth2.Token{
		AccessToken:  record.AccessToken,
		RefreshToken: record.RefreshToken,
		Expiry:       record.ExpiresAt,
	})
	sess.SetUserID(record.UserID)
}

// persistToken writes the session's current token through to the on-disk
// cache. Called wherever the token may have been acquired or refreshed.
func (s *Server) persistToken(sess *session.Session) {
	if s.tokens == nil {
		return
	}

	userID := sess.UserID()
	token := sess.Token()
	if userID == "" || token == nil {
		return
	}

	record := &models.TokenRecord{
		UserID:       userID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}
	if err := s.tokens.Save(record); err != nil {
		s.logger.Warn("failed to persist token", "user", userID, "error", err)
	}
}

// completeLogin runs after a successful code exchange: it associates the
// session with the Spotify user, persists the token, and marks the browser
// as a returning user.
func (s *Server) completeLogin(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	profile, err := s.metadata.UserProfile(r.Context(), sess)
	if err != nil {
		s.logger.Warn("failed to fetch user profile after login", "error", err)
		return
	}

	sess.SetUserID(profile.ID)
	s.persistToken(sess)

	http.SetCookie(w, &http.Cookie{
		Name:     userCookie,
		Value:    profile.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   60 * 60 * 24 * 30,
	})
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("failed to render template", "template", name, "error", err)
	}
}

// handleIndex serves the login page for new visitors and the playlist form
// for authenticated ones.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	sess := s.sessionFor(w, r)
	if sess.State() != session.Authenticated {
		s.render(w, "login.html", nil)
		return
	}

	ctx := r.Context()
	data := formData{
		PlaylistURL: sess.PlaylistURL(),
		Cap:         sess.Cap(),
		Running:     sess.Running(),
	}

	profile, err := s.metadata.UserProfile(ctx, sess)
	switch {
	case err == nil:
		data.User = profile.DisplayName
		if data.User == "" {
			data.User = profile.ID
		}
		if sess.UserID() == "" {
			sess.SetUserID(profile.ID)
		}
		s.persistToken(sess)
	case errors.Is(err, shared.ErrNotAuthenticated), errors.Is(err, shared.ErrSessionExpired):
		s.render(w, "login.html", nil)
		return
	default:
		s.logger.Warn("failed to fetch user profile", "error", err)
	}

	if playlists, err := s.metadata.GetPlaylists(ctx, sess); err == nil {
		data.Playlists = playlists
	} else {
		s.logger.Warn("failed to list playlists", "error", err)
	}

	if name, _, ok := sess.Archive(); ok {
		data.HasArchive = true
		data.ArchiveName = name
	}
	_, _, data.HasReport = sess.Report()
	if err := sess.RunErr(); err != nil {
		data.RunError = failureMessage(err)
	}

	s.render(w, "index.html", data)
}

// handleLogin issues a CSRF state bound to the session and redirects to the
// Spotify authorization page.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)

	state, err := s.states.issue(sess.ID())
	if err != nil {
		s.logger.Error("failed to issue login state", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, s.auth.AuthCodeURL(state), http.StatusFound)
}

// handleSubmitURL stores the submitted playlist URL on the session.
// Resubmitting replaces the previous value.
func (s *Server) handleSubmitURL(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	sess.SetPlaylistURL(strings.TrimSpace(r.FormValue("url")))
	w.WriteHeader(http.StatusNoContent)
}

// handleSubmitCap stores the download cap on the session. Zero means
// unbounded; negative values are rejected.
func (s *Server) handleSubmitCap(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)

	n, err := strconv.Atoi(strings.TrimSpace(r.FormValue("cap")))
	if err != nil {
		http.Error(w, "The download cap must be a number.", http.StatusBadRequest)
		return
	}
	if err := sess.SetCap(n); err != nil {
		http.Error(w, "The download cap must be zero or positive.", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStart launches the pipeline for the session's submitted inputs. The
// run proceeds in the background; progress is delivered over the stream.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)

	if sess.State() != session.Authenticated {
		http.Error(w, "Log in with Spotify first.", http.StatusUnauthorized)
		return
	}

	playlistID, ok := shared.ParsePlaylistID(sess.PlaylistURL())
	if !ok {
		http.Error(w, "Enter a valid Spotify playlist URL.", http.StatusBadRequest)
		return
	}

	if err := sess.BeginRun(); err != nil {
		http.Error(w, "A download is already in progress.", http.StatusConflict)
		return
	}

	s.hub.Reset(sess.ID())
	progress := make(chan tasks.ProgressUpdate, progressBuffer)
	forwarded := s.hub.Forward(sess.ID(), progress)

	go s.runPipeline(sess, playlistID, progress, forwarded)

	w.WriteHeader(http.StatusAccepted)
}

// runPipeline executes one archive run and publishes the terminal event once
// the outcome is stored on the session, so clients acting on it can download
// immediately.
func (s *Server) runPipeline(sess *session.Session, playlistID string, progress chan tasks.ProgressUpdate, forwarded <-chan struct{}) {
	result, err := s.engine.Run(s.runCtx, sess, playlistID, tasks.RunOpts{Cap: sess.Cap()}, progress)

	close(progress)
	<-forwarded

	if result != nil {
		sess.FinishRun(result.Playlist, result.Report, result.ArchiveName, result.Archive, err)
	} else {
		sess.FinishRun(nil, nil, "", nil, err)
	}

	// The pipeline may have refreshed the token along the way.
	s.persistToken(sess)

	if err != nil {
		s.logger.Error("run failed", "session", sess.ID(), "playlist", playlistID, "error", err)
		s.hub.Publish(sess.ID(), Event{Phase: PhaseRunFailed, Message: failureMessage(err)})
		return
	}

	s.logger.Info("run finished",
		"session", sess.ID(),
		"archive", result.ArchiveName,
		"downloaded", result.SuccessCount,
		"total", result.TotalTracks)
	s.hub.Publish(sess.ID(), Event{
		Phase:    PhaseArchiveReady,
		Fraction: 1,
		Message:  fmt.Sprintf("Archive '%s' is ready!", result.ArchiveName),
		Data:     result.ArchiveName,
	})
}

// handleProgress upgrades to a WebSocket and streams the session's run
// events, replaying the backlog of the current run first.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	s.hub.ServeWS(w, r, sess.ID())
}

// handleArchive serves the finished zip of the latest run.
func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)

	name, data, ok := sess.Archive()
	if !ok {
		http.Error(w, "No archive available.", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// handleReportCSV serves the per-track report of the latest run as CSV.
func (s *Server) handleReportCSV(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, r, "report.csv", "text/csv", formatter.ReportToCSV)
}

// handleReportText serves the per-track report of the latest run as plain text.
func (s *Server) handleReportText(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, r, "report.txt", "text/plain; charset=utf-8", formatter.ReportToText)
}

func (s *Server) serveReport(w http.ResponseWriter, r *http.Request, filename, contentType string, render func(*models.Playlist, []models.TrackReport) ([]byte, error)) {
	sess := s.sessionFor(w, r)

	playlist, report, ok := sess.Report()
	if !ok {
		http.Error(w, "No report available.", http.StatusNotFound)
		return
	}

	data, err := render(playlist, report)
	if err != nil {
		s.logger.Error("failed to render report", "file", filename, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(data)
}

// failureMessage translates a terminal run error into the line shown to the
// user.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, shared.ErrNothingToArchive):
		return "No tracks were downloaded, so there is no archive to build."
	case errors.Is(err, shared.ErrPlaylistFetch):
		return "The playlist could not be fetched. Check the URL and your permissions."
	case errors.Is(err, shared.ErrSessionExpired):
		return "Your Spotify session expired. Log in again."
	case errors.Is(err, shared.ErrNotAuthenticated):
		return "Log in with Spotify before starting a download."
	case errors.Is(err, shared.ErrArchiveWrite):
		return "The archive could not be written."
	default:
		return err.Error()
	}
}
