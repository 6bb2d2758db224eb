package shared

import (
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tc := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "clean name unchanged",
			input: "Artist - Title",
			want:  "Artist - Title",
		},
		{
			name:  "reserved characters removed",
			input: `AC/DC: "Back?" <in*Black>|\`,
			want:  "ACDC Back inBlack",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "only reserved characters",
			input: `\/*?:"<>|`,
			want:  "",
		},
		{
			name:  "unicode preserved",
			input: "Beyoncé — Déjà Vu",
			want:  "Beyoncé — Déjà Vu",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeFilename(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if len(got) > len(tt.input) {
				t.Errorf("SanitizeFilename(%q) grew the input: %d > %d", tt.input, len(got), len(tt.input))
			}
			if strings.ContainsAny(got, `\/*?:"<>|`) {
				t.Errorf("SanitizeFilename(%q) = %q still contains reserved characters", tt.input, got)
			}
		})
	}
}

func TestParsePlaylistID(t *testing.T) {
	tc := []struct {
		name   string
		url    string
		want   string
		wantOK bool
	}{
		{
			name:   "plain playlist URL",
			url:    "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M",
			want:   "37i9dQZF1DXcBWIGoYBM5M",
			wantOK: true,
		},
		{
			name:   "URL with share query",
			url:    "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=abc123",
			want:   "37i9dQZF1DXcBWIGoYBM5M",
			wantOK: true,
		},
		{
			name:   "empty input",
			url:    "",
			want:   "",
			wantOK: false,
		},
		{
			name:   "trailing slash",
			url:    "https://open.spotify.com/playlist/abc/",
			want:   "",
			wantOK: false,
		},
		{
			name:   "bare identifier without slash",
			url:    "37i9dQZF1DXcBWIGoYBM5M",
			want:   "37i9dQZF1DXcBWIGoYBM5M",
			wantOK: true,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePlaylistID(tt.url)
			if ok != tt.wantOK {
				t.Fatalf("ParsePlaylistID(%q) ok = %v, want %v", tt.url, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParsePlaylistID(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}
