package tasks

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/antonioabatte/spotizip/internal/models"
	"github.com/antonioabatte/spotizip/internal/services"
	"github.com/antonioabatte/spotizip/internal/shared"
)

type fakeCreds struct {
	err error
}

func (f *fakeCreds) AccessToken(ctx context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "test-token", nil
}

type mockLister struct {
	tracks     map[string][]models.Track
	playlists  map[string]*models.Playlist
	listErr    error
	detailsErr error
	listCalls  int
}

func (m *mockLister) Name() string { return "Spotify" }

func (m *mockLister) GetPlaylist(ctx context.Context, creds services.CredentialSource, playlistID string) (*models.Playlist, error) {
	if m.detailsErr != nil {
		return nil, m.detailsErr
	}
	if playlist, ok := m.playlists[playlistID]; ok {
		return playlist, nil
	}
	return nil, fmt.Errorf("playlist not found")
}

func (m *mockLister) PlaylistTracks(ctx context.Context, creds services.CredentialSource, playlistID string) ([]models.Track, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	if tracks, ok := m.tracks[playlistID]; ok {
		return tracks, nil
	}
	return nil, fmt.Errorf("playlist not found")
}

func (m *mockLister) GetPlaylists(ctx context.Context, creds services.CredentialSource) ([]models.Playlist, error) {
	return nil, nil
}

// mockAcquirer writes a stub MP3 for every track unless told to fail it.
type mockAcquirer struct {
	mu       sync.Mutex
	failFor  map[string]error // keyed by "artist|title"
	attempts []string
}

func (m *mockAcquirer) Name() string { return "YouTube" }

func (m *mockAcquirer) Acquire(ctx context.Context, track models.Track, destDir string) (string, error) {
	key := track.Artist + "|" + track.Title

	m.mu.Lock()
	m.attempts = append(m.attempts, key)
	m.mu.Unlock()

	if err, ok := m.failFor[key]; ok {
		return "", err
	}

	name := shared.SanitizeFilename(track.Artist) + " - " + shared.SanitizeFilename(track.Title) + ".mp3"
	path := filepath.Join(destDir, name)
	if err := os.WriteFile(path, []byte("audio"), 0644); err != nil {
		return "", err
	}
	return path, nil
}

func (m *mockAcquirer) attemptCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.attempts)
}

func makeTracks(n int) []models.Track {
	tracks := make([]models.Track, n)
	for i := range tracks {
		tracks[i] = models.Track{
			ID:     fmt.Sprintf("track%d", i+1),
			Title:  fmt.Sprintf("Song %d", i+1),
			Artist: fmt.Sprintf("Artist %d", i+1),
		}
	}
	return tracks
}

func testEngine(lister *mockLister, acquirer *mockAcquirer, workers int) *PipelineEngine {
	return NewPipelineEngine(lister, acquirer, shared.DownloadsConfig{
		Workers:   workers,
		RateLimit: 1000,
	})
}

// progressChan returns a channel buffered far beyond what a run emits, so the
// non-blocking sender never drops an update.
func progressChan() chan ProgressUpdate {
	return make(chan ProgressUpdate, 256)
}

// collectProgress drains every update a finished run produced.
func collectProgress(progress chan ProgressUpdate) []ProgressUpdate {
	close(progress)
	var updates []ProgressUpdate
	for update := range progress {
		updates = append(updates, update)
	}
	return updates
}

func archiveEntries(t *testing.T, data []byte) []string {
	t.Helper()
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("failed to read archive: %v", err)
	}
	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names
}

func TestPipelineEngineRun(t *testing.T) {
	ctx := context.Background()
	playlist := &models.Playlist{ID: "pl1", Name: "Road Trip", TrackCount: 3}

	t.Run("Full Success", func(t *testing.T) {
		lister := &mockLister{
			tracks:    map[string][]models.Track{"pl1": makeTracks(3)},
			playlists: map[string]*models.Playlist{"pl1": playlist},
		}
		acquirer := &mockAcquirer{}
		engine := testEngine(lister, acquirer, 1)
		progress := progressChan()

		result, err := engine.Run(ctx, &fakeCreds{}, "pl1", RunOpts{}, progress)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if result.SuccessCount != 3 || result.FailedCount != 0 || result.SkippedCount != 0 {
			t.Errorf("unexpected counts: %d/%d/%d", result.SuccessCount, result.FailedCount, result.SkippedCount)
		}
		if result.ArchiveName != "Road Trip.zip" {
			t.Errorf("expected archive named after the playlist, got %q", result.ArchiveName)
		}
		if len(result.Archive) == 0 {
			t.Fatal("expected archive bytes")
		}
		if entries := archiveEntries(t, result.Archive); len(entries) != 3 {
			t.Errorf("expected 3 archive entries, got %v", entries)
		}
		if len(result.Report) != 3 {
			t.Errorf("expected 3 report rows, got %d", len(result.Report))
		}
	})

	t.Run("Cap Limits Attempts", func(t *testing.T) {
		lister := &mockLister{
			tracks:    map[string][]models.Track{"pl1": makeTracks(10)},
			playlists: map[string]*models.Playlist{"pl1": playlist},
		}
		acquirer := &mockAcquirer{}
		engine := testEngine(lister, acquirer, 1)
		progress := progressChan()

		result, err := engine.Run(ctx, &fakeCreds{}, "pl1", RunOpts{Cap: 3}, progress)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if acquirer.attemptCount() != 3 {
			t.Errorf("expected 3 attempts, got %d", acquirer.attemptCount())
		}
		if result.TotalTracks != 3 {
			t.Errorf("expected total 3 after cap, got %d", result.TotalTracks)
		}

		var counters []string
		for _, update := range collectProgress(progress) {
			if update.Phase == AcquireTracks && strings.Contains(update.Message, "✓") {
				counters = append(counters, update.Message[:strings.Index(update.Message, "]")+1])
			}
		}
		want := []string{"[1/3]", "[2/3]", "[3/3]"}
		if len(counters) != len(want) {
			t.Fatalf("expected %d outcome updates, got %v", len(want), counters)
		}
		for i, counter := range counters {
			if counter != want[i] {
				t.Errorf("progress counter %d: expected %s, got %s", i, want[i], counter)
			}
		}
	})

	t.Run("Null Items Skip With Warning", func(t *testing.T) {
		valid := makeTracks(5)
		tracks := []models.Track{valid[0], valid[1], {}, valid[2], valid[3], valid[4], {}}

		lister := &mockLister{
			tracks:    map[string][]models.Track{"pl1": tracks},
			playlists: map[string]*models.Playlist{"pl1": playlist},
		}
		acquirer := &mockAcquirer{}
		engine := testEngine(lister, acquirer, 1)
		progress := progressChan()

		result, err := engine.Run(ctx, &fakeCreds{}, "pl1", RunOpts{}, progress)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if acquirer.attemptCount() != 5 {
			t.Errorf("expected 5 attempts, got %d", acquirer.attemptCount())
		}
		if result.SkippedCount != 2 {
			t.Errorf("expected 2 skipped items, got %d", result.SkippedCount)
		}
		if len(result.Report) != 7 {
			t.Errorf("expected 7 report rows, got %d", len(result.Report))
		}

		skipped := 0
		for _, update := range collectProgress(progress) {
			if strings.Contains(update.Message, "skipped") {
				skipped++
			}
		}
		if skipped != 2 {
			t.Errorf("expected 2 skip warnings, got %d", skipped)
		}
	})

	t.Run("All Failures Yield No Archive", func(t *testing.T) {
		lister := &mockLister{
			tracks:    map[string][]models.Track{"pl1": makeTracks(3)},
			playlists: map[string]*models.Playlist{"pl1": playlist},
		}
		acquirer := &mockAcquirer{failFor: map[string]error{
			"Artist 1|Song 1": shared.ErrTrackNotFound,
			"Artist 2|Song 2": shared.ErrTrackAcquisition,
			"Artist 3|Song 3": shared.ErrTrackNotFound,
		}}
		engine := testEngine(lister, acquirer, 1)

		result, err := engine.Run(ctx, &fakeCreds{}, "pl1", RunOpts{}, nil)
		if !errors.Is(err, shared.ErrNothingToArchive) {
			t.Fatalf("expected ErrNothingToArchive, got %v", err)
		}
		if result == nil {
			t.Fatal("expected a result carrying the report")
		}
		if len(result.Archive) != 0 {
			t.Error("failed run should not produce an archive")
		}
		if result.FailedCount != 3 {
			t.Errorf("expected 3 failures, got %d", result.FailedCount)
		}
		if len(result.Report) != 3 {
			t.Errorf("expected 3 report rows, got %d", len(result.Report))
		}
	})

	t.Run("Partial Success Archives Only Downloads", func(t *testing.T) {
		lister := &mockLister{
			tracks:    map[string][]models.Track{"pl1": makeTracks(3)},
			playlists: map[string]*models.Playlist{"pl1": playlist},
		}
		acquirer := &mockAcquirer{failFor: map[string]error{
			"Artist 2|Song 2": shared.ErrTrackNotFound,
		}}
		engine := testEngine(lister, acquirer, 1)

		result, err := engine.Run(ctx, &fakeCreds{}, "pl1", RunOpts{}, nil)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		entries := archiveEntries(t, result.Archive)
		if len(entries) != 2 {
			t.Fatalf("expected exactly 2 entries, got %v", entries)
		}
		for _, name := range entries {
			if name != "Artist 1 - Song 1.mp3" && name != "Artist 3 - Song 3.mp3" {
				t.Errorf("unexpected archive entry %q", name)
			}
		}
		if result.SuccessCount != 2 || result.FailedCount != 1 {
			t.Errorf("unexpected counts: %d/%d", result.SuccessCount, result.FailedCount)
		}
	})

	t.Run("Listing Failure Halts Run", func(t *testing.T) {
		lister := &mockLister{listErr: fmt.Errorf("%w: status 404", shared.ErrPlaylistFetch)}
		acquirer := &mockAcquirer{}
		engine := testEngine(lister, acquirer, 1)

		_, err := engine.Run(ctx, &fakeCreds{}, "pl1", RunOpts{}, nil)
		if !errors.Is(err, shared.ErrPlaylistFetch) {
			t.Fatalf("expected ErrPlaylistFetch, got %v", err)
		}
		if acquirer.attemptCount() != 0 {
			t.Error("no tracks should be attempted when the listing fails")
		}
	})

	t.Run("Details Failure Falls Back To Playlist ID", func(t *testing.T) {
		lister := &mockLister{
			tracks:     map[string][]models.Track{"pl1": makeTracks(1)},
			detailsErr: fmt.Errorf("%w: status 500", shared.ErrPlaylistFetch),
		}
		acquirer := &mockAcquirer{}
		engine := testEngine(lister, acquirer, 1)

		result, err := engine.Run(ctx, &fakeCreds{}, "pl1", RunOpts{}, nil)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if result.ArchiveName != "pl1.zip" {
			t.Errorf("expected fallback archive name pl1.zip, got %q", result.ArchiveName)
		}
	})

	t.Run("Monotonic Progress", func(t *testing.T) {
		lister := &mockLister{
			tracks:    map[string][]models.Track{"pl1": makeTracks(4)},
			playlists: map[string]*models.Playlist{"pl1": playlist},
		}
		engine := testEngine(lister, &mockAcquirer{}, 1)
		progress := progressChan()

		if _, err := engine.Run(ctx, &fakeCreds{}, "pl1", RunOpts{}, progress); err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		lastStep := -1
		for _, update := range collectProgress(progress) {
			if update.Phase != AcquireTracks {
				continue
			}
			if update.Step < lastStep {
				t.Errorf("progress moved backwards: %d after %d (%s)", update.Step, lastStep, update.Message)
			}
			lastStep = update.Step
			if f := update.Fraction(); f < 0 || f > 1 {
				t.Errorf("fraction out of range: %f", f)
			}
		}
		if lastStep != 4 {
			t.Errorf("expected final step 4, got %d", lastStep)
		}
	})

	t.Run("Guards", func(t *testing.T) {
		lister := &mockLister{tracks: map[string][]models.Track{"pl1": makeTracks(1)}}
		engine := testEngine(lister, &mockAcquirer{}, 1)

		if _, err := engine.Run(ctx, nil, "pl1", RunOpts{}, nil); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated for nil credentials, got %v", err)
		}
		if _, err := engine.Run(ctx, &fakeCreds{}, "pl1", RunOpts{Cap: -1}, nil); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for negative cap, got %v", err)
		}

		bare := &PipelineEngine{}
		if _, err := bare.Run(ctx, &fakeCreds{}, "pl1", RunOpts{}, nil); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("Interface Compliance", func(t *testing.T) {
		var _ ArchiveEngine = (*PipelineEngine)(nil)
	})
}
