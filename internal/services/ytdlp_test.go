package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/antonioabatte/spotizip/internal/shared"
)

func TestBuildSearchQuery(t *testing.T) {
	tests := []struct {
		name   string
		artist string
		title  string
		want   string
	}{
		{"artist and title", "Daft Punk", "Around the World", "Daft Punk - Around the World official audio"},
		{"empty artist", "", "Untitled", " - Untitled official audio"},
		{"unicode", "Café Tacvba", "Eres", "Café Tacvba - Eres official audio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildSearchQuery(tt.artist, tt.title); got != tt.want {
				t.Errorf("buildSearchQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOutputBase(t *testing.T) {
	tests := []struct {
		name   string
		artist string
		title  string
		want   string
	}{
		{"plain names", "Queen", "Bohemian Rhapsody", "Queen - Bohemian Rhapsody"},
		{"reserved characters removed", `AC/DC`, `Back "In" Black?`, "ACDC - Back In Black"},
		{"colon stripped", "Kendrick Lamar", "m.A.A.d city: extended", "Kendrick Lamar - m.A.A.d city extended"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := outputBase("/tmp/run", tt.artist, tt.title)
			want := filepath.Join("/tmp/run", tt.want)
			if got != want {
				t.Errorf("outputBase() = %q, want %q", got, want)
			}
		})
	}
}

func TestNewYouTubeService(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		srv := NewYouTubeService(shared.DownloadsConfig{}, nil)

		if srv.audioFormat != "mp3" {
			t.Errorf("expected default format mp3, got %s", srv.audioFormat)
		}
		if srv.audioQuality != "192K" {
			t.Errorf("expected default quality 192K, got %s", srv.audioQuality)
		}
		if srv.searchTimeout != 10*time.Second {
			t.Errorf("expected default search timeout 10s, got %s", srv.searchTimeout)
		}
		if srv.Name() != "YouTube" {
			t.Errorf("expected service name YouTube, got %s", srv.Name())
		}
	})

	t.Run("Configured", func(t *testing.T) {
		cfg := shared.DownloadsConfig{
			AudioFormat:          "opus",
			AudioQuality:         "128K",
			SearchTimeoutSeconds: 5,
		}
		srv := NewYouTubeService(cfg, nil)

		if srv.audioFormat != "opus" {
			t.Errorf("expected format opus, got %s", srv.audioFormat)
		}
		if srv.searchTimeout != 5*time.Second {
			t.Errorf("expected search timeout 5s, got %s", srv.searchTimeout)
		}
	})

	t.Run("Interface Compliance", func(t *testing.T) {
		var _ Acquirer = NewYouTubeService(shared.DownloadsConfig{}, nil)
	})
}
