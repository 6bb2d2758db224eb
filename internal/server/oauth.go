package server

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/antonioabatte/spotizip/internal/session"
	"github.com/antonioabatte/spotizip/internal/shared"
)

// stateStore tracks outstanding OAuth states. A state is minted when the
// login redirect is issued and consumed by the first callback presenting it,
// so replayed callbacks are rejected.
type stateStore struct {
	mu     sync.Mutex
	states map[string]string // state -> session ID
}

func newStateStore() *stateStore {
	return &stateStore{states: make(map[string]string)}
}

// issue mints a CSRF state bound to a session.
func (s *stateStore) issue(sessionID string) (string, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return "", fmt.Errorf("failed to generate state token: %w", err)
	}

	s.mu.Lock()
	s.states[state] = sessionID
	s.mu.Unlock()

	return state, nil
}

// consume redeems a state for its session ID. Each state redeems once.
func (s *stateStore) consume(state string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessionID, ok := s.states[state]
	if ok {
		delete(s.states, state)
	}
	return sessionID, ok
}

// OAuthCallbackHandler completes the OAuth2 authorization code flow for the
// session that initiated it. Implements the Handler interface for
// registration with a Router.
type OAuthCallbackHandler struct {
	manager *session.Manager
	states  *stateStore
	onLogin func(w http.ResponseWriter, r *http.Request, sess *session.Session)
}

// NewOAuthCallbackHandler creates the callback handler. onLogin runs after a
// successful code exchange, before the user is redirected back to the form.
func NewOAuthCallbackHandler(manager *session.Manager, states *stateStore, onLogin func(w http.ResponseWriter, r *http.Request, sess *session.Session)) *OAuthCallbackHandler {
	return &OAuthCallbackHandler{
		manager: manager,
		states:  states,
		onLogin: onLogin,
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthCallbackHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP handles the OAuth callback request.
//
// Validates the state parameter, hands the authorization code to the session
// that issued the state, and redirects back to the form. Each state and each
// code is honored once; replays get a 400.
func (h *OAuthCallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	if state == "" {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	sessionID, ok := h.states.consume(state)
	if !ok {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}

	sess, ok := h.manager.Get(sessionID)
	if !ok {
		http.Error(w, "Session expired, start over", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		errParam := r.URL.Query().Get("error")
		errDesc := r.URL.Query().Get("error_description")
		http.Error(w, fmt.Sprintf("Authorization failed: %s - %s", errParam, errDesc), http.StatusBadRequest)
		return
	}

	if err := sess.HandleAuthCode(r.Context(), code); err != nil {
		http.Error(w, "Token exchange failed", http.StatusBadRequest)
		return
	}

	if h.onLogin != nil {
		h.onLogin(w, r, sess)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
