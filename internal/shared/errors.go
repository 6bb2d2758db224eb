package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthExchangeFailed = fmt.Errorf("authorization code exchange failed")
	ErrSessionExpired     = fmt.Errorf("session expired")
	ErrNotAuthenticated   = fmt.Errorf("not authenticated")
	ErrTokenExpired       = fmt.Errorf("access token expired")
	ErrTimeout            = fmt.Errorf("operation timed out")

	// Pipeline errors
	ErrPlaylistFetch      = fmt.Errorf("playlist fetch failed")
	ErrTrackNotFound      = fmt.Errorf("track not found")
	ErrTrackAcquisition   = fmt.Errorf("track acquisition failed")
	ErrArchiveWrite       = fmt.Errorf("archive write failed")
	ErrNothingToArchive   = fmt.Errorf("nothing to archive")
	ErrRunActive          = fmt.Errorf("a run is already active")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
