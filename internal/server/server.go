// package server contains the web application for the playlist archive service:
// routing, session handlers, the OAuth callback, and the progress stream
package server

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/antonioabatte/spotizip/internal/models"
	"github.com/antonioabatte/spotizip/internal/services"
	"github.com/antonioabatte/spotizip/internal/session"
	"github.com/antonioabatte/spotizip/internal/shared"
	"github.com/antonioabatte/spotizip/internal/tasks"
	"github.com/charmbracelet/log"
)

//go:embed templates/*.html
var templateFiles embed.FS

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, panic recovery, authentication, etc.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers in the archive service.
// Implementations handle specific endpoints (auth callback, run control, downloads).
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Metadata is the Spotify surface the handlers consume: the pipeline's
// read-only playlist operations plus the profile of the logged-in user.
type Metadata interface {
	services.MetadataService
	UserProfile(ctx context.Context, creds services.CredentialSource) (*services.SpotifyUser, error)
}

// TokenStore persists OAuth tokens so returning users skip the authorization
// redirect. Satisfied by [repositories.TokenRepository]; a nil store disables
// persistence.
type TokenStore interface {
	Save(record *models.TokenRecord) error
	Get(userID string) (*models.TokenRecord, error)
}

// Server is the web application. It owns the session manager, the pipeline
// engine, and the progress hub, and serves the form-based UI.
type Server struct {
	cfg      *shared.Config
	logger   *log.Logger
	manager  *session.Manager
	auth     services.Authenticator
	metadata Metadata
	engine   tasks.ArchiveEngine
	tokens   TokenStore

	hub    *Hub
	states *stateStore
	tmpl   *template.Template
	router *BasicRouter

	// runCtx outlives individual requests so an in-flight pipeline keeps
	// going after the start request returns. Canceled on shutdown.
	runCtx     context.Context
	cancelRuns context.CancelFunc
}

// NewServer assembles the web application around its collaborators. The
// token store may be nil, which disables returning-user persistence.
func NewServer(cfg *shared.Config, logger *log.Logger, manager *session.Manager, auth services.Authenticator, metadata Metadata, engine tasks.ArchiveEngine, tokens TokenStore) (*Server, error) {
	tmpl, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	runCtx, cancelRuns := context.WithCancel(context.Background())

	s := &Server{
		cfg:        cfg,
		logger:     logger,
		manager:    manager,
		auth:       auth,
		metadata:   metadata,
		engine:     engine,
		tokens:     tokens,
		hub:        NewHub(logger),
		states:     newStateStore(),
		tmpl:       tmpl,
		runCtx:     runCtx,
		cancelRuns: cancelRuns,
	}

	manager.OnEvict(s.hub.Remove)
	s.routes()

	return s, nil
}

func (s *Server) routes() {
	router := NewBasicRouter()
	router.Use(Recover(s.logger), RequestLogger(s.logger))

	router.Handle("GET", "/", http.HandlerFunc(s.handleIndex))
	router.Handle("GET", "/login", http.HandlerFunc(s.handleLogin))
	router.Handler(NewOAuthCallbackHandler(s.manager, s.states, s.completeLogin))
	router.Handle("POST", "/playlist-url", http.HandlerFunc(s.handleSubmitURL))
	router.Handle("POST", "/download-cap", http.HandlerFunc(s.handleSubmitCap))
	router.Handle("POST", "/start", http.HandlerFunc(s.handleStart))
	router.Handle("GET", "/progress", http.HandlerFunc(s.handleProgress))
	router.Handle("GET", "/archive", http.HandlerFunc(s.handleArchive))
	router.Handle("GET", "/report.csv", http.HandlerFunc(s.handleReportCSV))
	router.Handle("GET", "/report.txt", http.HandlerFunc(s.handleReportText))

	s.router = router
}

// Handler returns the root handler for the application.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves the application until the context is canceled, then drains
// in-flight runs and shuts the listener down.
func (s *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.cfg.Server.Addr(),
		Handler: s.router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("serving", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		s.cancelRuns()
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.cancelRuns()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
