package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/antonioabatte/spotizip/internal/models"
	"github.com/antonioabatte/spotizip/internal/shared"
)

// SearchRepository persists memoized YouTube search results keyed by
// (artist, title). The pair carries a UNIQUE constraint.
type SearchRepository struct {
	db *sql.DB
}

// NewSearchRepository creates a new [SearchRepository] with the given database connection
func NewSearchRepository(db *sql.DB) *SearchRepository {
	return &SearchRepository{db: db}
}

// Create inserts a search hit with a generated key
func (r *SearchRepository) Create(hit *models.SearchHit) error {
	hit.Key = shared.GenerateID()
	if hit.Created.IsZero() {
		hit.Created = time.Now()
	}

	if err := hit.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO searches (id, artist, title, video_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	if _, err := r.db.Exec(query, hit.Key, hit.Artist, hit.Title, hit.VideoID, hit.Created); err != nil {
		return fmt.Errorf("failed to insert search: %w", err)
	}

	return nil
}

// GetByTrack retrieves the hit recorded for an (artist, title) pair
func (r *SearchRepository) GetByTrack(artist, title string) (*models.SearchHit, error) {
	query := `
		SELECT id, artist, title, video_id, created_at
		FROM searches
		WHERE artist = ? AND title = ?
	`

	var hit models.SearchHit
	err := r.db.QueryRow(query, artist, title).Scan(&hit.Key, &hit.Artist, &hit.Title, &hit.VideoID, &hit.Created)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no cached search for %s - %s", artist, title)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query search: %w", err)
	}

	return &hit, nil
}

// Count returns the number of cached search results
func (r *SearchRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM searches").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count searches: %w", err)
	}
	return count, nil
}

// Clear removes all cached search results and reports how many rows were removed
func (r *SearchRepository) Clear() (int64, error) {
	result, err := r.db.Exec("DELETE FROM searches")
	if err != nil {
		return 0, fmt.Errorf("failed to clear searches: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows, nil
}

// SearchCacheAdapter implements services.SearchCache using SearchRepository.
//
// Duplicate (artist, title) pairs are silently ignored (UNIQUE constraint violations).
type SearchCacheAdapter struct {
	repo *SearchRepository
}

// NewSearchCacheAdapter creates a new SearchCacheAdapter with the given repository
func NewSearchCacheAdapter(repo *SearchRepository) *SearchCacheAdapter {
	return &SearchCacheAdapter{repo: repo}
}

// Lookup returns the video ID recorded for a track, if any
func (a *SearchCacheAdapter) Lookup(artist, title string) (string, bool) {
	hit, err := a.repo.GetByTrack(artist, title)
	if err != nil || hit == nil {
		return "", false
	}
	return hit.VideoID, true
}

// Store records a search result.
// Returns nil if the pair is already cached (deduplication).
// Only returns errors for actual failures (not constraint violations).
func (a *SearchCacheAdapter) Store(artist, title, videoID string) error {
	existing, err := a.repo.GetByTrack(artist, title)
	if err == nil && existing != nil {
		return nil
	}

	hit := &models.SearchHit{Artist: artist, Title: title, VideoID: videoID}
	if err := a.repo.Create(hit); err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("failed to cache search: %w", err)
	}

	return nil
}
