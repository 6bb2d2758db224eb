package models

import (
	"testing"
	"time"
)

func TestTrackZero(t *testing.T) {
	tests := []struct {
		name  string
		track Track
		want  bool
	}{
		{"empty track", Track{}, true},
		{"full track", Track{ID: "1", Title: "Song", Artist: "Artist"}, false},
		{"title only", Track{Title: "Untitled"}, false},
		{"id only", Track{ID: "abc"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.track.Zero(); got != tt.want {
				t.Errorf("Zero() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTokenRecordValidate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		record  TokenRecord
		wantErr bool
	}{
		{
			name: "valid record",
			record: TokenRecord{
				UserID:       "user-1",
				AccessToken:  "access",
				RefreshToken: "refresh",
				ExpiresAt:    now.Add(time.Hour),
			},
			wantErr: false,
		},
		{
			name:    "missing user id",
			record:  TokenRecord{AccessToken: "access"},
			wantErr: true,
		},
		{
			name:    "missing access token",
			record:  TokenRecord{UserID: "user-1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSearchHitValidate(t *testing.T) {
	tests := []struct {
		name    string
		hit     SearchHit
		wantErr bool
	}{
		{
			name:    "valid hit",
			hit:     SearchHit{Key: "k", Artist: "Artist", Title: "Song", VideoID: "vid"},
			wantErr: false,
		},
		{
			name:    "empty artist allowed",
			hit:     SearchHit{Key: "k", Title: "Song", VideoID: "vid"},
			wantErr: false,
		},
		{
			name:    "missing title",
			hit:     SearchHit{Key: "k", Artist: "Artist", VideoID: "vid"},
			wantErr: true,
		},
		{
			name:    "missing video id",
			hit:     SearchHit{Key: "k", Artist: "Artist", Title: "Song"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.hit.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestModelInterface(t *testing.T) {
	now := time.Now()

	token := &TokenRecord{UserID: "user-1", AccessToken: "a", Created: now, Updated: now.Add(time.Minute)}
	if token.ID() != "user-1" {
		t.Errorf("TokenRecord.ID() = %q, want user-1", token.ID())
	}
	if !token.UpdatedAt().After(token.CreatedAt()) {
		t.Error("TokenRecord.UpdatedAt() should be after CreatedAt()")
	}

	hit := &SearchHit{Key: "k", Title: "Song", VideoID: "vid", Created: now}
	if hit.ID() != "k" {
		t.Errorf("SearchHit.ID() = %q, want k", hit.ID())
	}
	if hit.UpdatedAt() != hit.CreatedAt() {
		t.Error("SearchHit.UpdatedAt() should equal CreatedAt()")
	}

	// Both entities satisfy the shared persistence contract.
	for _, m := range []Model{token, hit} {
		if err := m.Validate(); err != nil {
			t.Errorf("Validate() on %T failed: %v", m, err)
		}
	}
}
