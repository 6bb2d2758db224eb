// package models defines the data model for the playlist archive web service
package models

import (
	"fmt"
	"time"
)

// Model defines the base interface for all persistent models in the playlist archive service.
// Implementations include TokenRecord and SearchHit.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Playlist represents playlist metadata from the Spotify Web API.
type Playlist struct {
	ID          string
	Name        string
	Description string
	TrackCount  int
	Public      bool
}

// Track represents a single song from a playlist listing.
type Track struct {
	ID       string
	Title    string
	Artist   string
	Album    string
	Duration int // Duration in seconds
}

// Zero reports whether the track carries no usable metadata. Removed or
// region-blocked playlist items come back from the API as null entries and
// map to zero-value tracks.
func (t Track) Zero() bool {
	return t == Track{}
}

// TrackStatus describes the outcome of one track within a pipeline run.
type TrackStatus string

const (
	TrackDownloaded TrackStatus = "downloaded"
	TrackSkipped    TrackStatus = "skipped"
	TrackFailed     TrackStatus = "failed"
)

// TrackReport is one row of a run report: the position of the track in the
// (capped) listing, its metadata, and what became of it.
type TrackReport struct {
	Position int
	Artist   string
	Title    string
	Status   TrackStatus
	Detail   string // archive entry name on success, reason otherwise
}

// TokenRecord is a persisted OAuth token keyed by user, cached so a returning
// user skips the authorization redirect.
type TokenRecord struct {
	UserID       string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Created      time.Time
	Updated      time.Time
}

func (t *TokenRecord) ID() string           { return t.UserID }
func (t *TokenRecord) CreatedAt() time.Time { return t.Created }
func (t *TokenRecord) UpdatedAt() time.Time { return t.Updated }

// Validate checks that the record identifies a user and carries a usable token.
func (t *TokenRecord) Validate() error {
	if t.UserID == "" {
		return fmt.Errorf("token record missing user id")
	}
	if t.AccessToken == "" {
		return fmt.Errorf("token record missing access token")
	}
	return nil
}

// SearchHit is a persisted search result: the video a given artist/title pair
// resolved to, cached so repeat runs skip the search probe.
type SearchHit struct {
	Key     string
	Artist  string
	Title   string
	VideoID string
	Created time.Time
}

func (s *SearchHit) ID() string           { return s.Key }
func (s *SearchHit) CreatedAt() time.Time { return s.Created }

// UpdatedAt returns the creation time; search hits are immutable once written.
func (s *SearchHit) UpdatedAt() time.Time { return s.Created }

// Validate checks that the hit maps a searchable title to a concrete video.
func (s *SearchHit) Validate() error {
	if s.Title == "" {
		return fmt.Errorf("search hit missing title")
	}
	if s.VideoID == "" {
		return fmt.Errorf("search hit missing video id")
	}
	return nil
}
