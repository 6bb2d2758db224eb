package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/antonioabatte/spotizip/internal/models"
)

// TokenRepository persists OAuth tokens keyed by Spotify user ID.
type TokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new [TokenRepository] with the given database connection
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Save upserts a token record. A returning user's row is replaced in place
// and created_at is preserved across updates.
func (r *TokenRepository) Save(record *models.TokenRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	if record.Created.IsZero() {
		record.Created = now
	}
	record.Updated = now

	query := `
		INSERT INTO tokens (user_id, access_token, refresh_token, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query,
		record.UserID,
		record.AccessToken,
		record.RefreshToken,
		record.ExpiresAt,
		record.Created,
		record.Updated,
	)
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	return nil
}

// Get retrieves the cached token for a user
func (r *TokenRepository) Get(userID string) (*models.TokenRecord, error) {
	query := `
		SELECT user_id, access_token, refresh_token, expires_at, created_at, updated_at
		FROM tokens
		WHERE user_id = ?
	`

	var record models.TokenRecord
	err := r.db.QueryRow(query, userID).Scan(
		&record.UserID,
		&record.AccessToken,
		&record.RefreshToken,
		&record.ExpiresAt,
		&record.Created,
		&record.Updated,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("token not found: %s", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query token: %w", err)
	}

	return &record, nil
}

// Delete removes a user's cached token
func (r *TokenRepository) Delete(userID string) error {
	result, err := r.db.Exec("DELETE FROM tokens WHERE user_id = ?", userID)
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("token not found: %s", userID)
	}

	return nil
}
