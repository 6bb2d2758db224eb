// YouTube implementation of [Acquirer] backed by the yt-dlp binary
//
// Tracks are located with yt-dlp's ytsearch pseudo-URLs, then the best audio
// stream is downloaded and re-encoded via ffmpeg.
package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/antonioabatte/spotizip/internal/models"
	"github.com/antonioabatte/spotizip/internal/shared"
	"github.com/lrstanley/go-ytdlp"
)

const watchURLPrefix = "https://www.youtube.com/watch?v="

// YouTubeService implements [Acquirer] using yt-dlp for search and download.
type YouTubeService struct {
	searchTimeout time.Duration
	audioFormat   string
	audioQuality  string
	cache         SearchCache
}

// NewYouTubeService creates a yt-dlp backed acquirer from download settings.
// cache may be nil to disable search memoization.
func NewYouTubeService(cfg shared.DownloadsConfig, cache SearchCache) *YouTubeService {
	format := cfg.AudioFormat
	if format == "" {
		format = "mp3"
	}

	quality := cfg.AudioQuality
	if quality == "" {
		quality = "192K"
	}

	return &YouTubeService{
		searchTimeout: cfg.SearchTimeout(),
		audioFormat:   format,
		audioQuality:  quality,
		cache:         cache,
	}
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube"
}

// InstallYTDLP downloads or updates the yt-dlp binary the acquirer shells
// out to. Safe to call when the binary is already present.
func InstallYTDLP(ctx context.Context) error {
	if _, err := ytdlp.Install(ctx, nil); err != nil {
		return fmt.Errorf("failed to install yt-dlp: %w", err)
	}
	return nil
}

// Acquire searches for the track, downloads its audio into destDir, and
// returns the path of the finished file.
//
// A miss or search timeout yields [shared.ErrTrackNotFound]; a failed
// download or conversion yields [shared.ErrTrackAcquisition].
func (y *YouTubeService) Acquire(ctx context.Context, track models.Track, destDir string) (string, error) {
	videoID, err := y.locate(ctx, track)
	if err != nil {
		return "", err
	}

	base := outputBase(destDir, track.Artist, track.Title)

	dl := ytdlp.New().
		Format("bestaudio/best").
		ExtractAudio().
		AudioFormat(y.audioFormat).
		AudioQuality(y.audioQuality).
		NoPlaylist().
		Output(base + ".%(ext)s")

	if _, err := dl.Run(ctx, watchURLPrefix+videoID); err != nil {
		return "", fmt.Errorf("%w: %s - %s: %v", shared.ErrTrackAcquisition, track.Artist, track.Title, err)
	}

	// The audio post-processor rewrites the extension, so the final path is
	// computed rather than taken from yt-dlp's download report.
	path := base + "." + y.audioFormat
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: missing output %s: %v", shared.ErrTrackAcquisition, filepath.Base(path), err)
	}

	return path, nil
}

// locate resolves a track to a video ID, consulting the search cache first.
func (y *YouTubeService) locate(ctx context.Context, track models.Track) (string, error) {
	if y.cache != nil {
		if id, ok := y.cache.Lookup(track.Artist, track.Title); ok {
			return id, nil
		}
	}

	query := buildSearchQuery(track.Artist, track.Title)

	searchCtx, cancel := context.WithTimeout(ctx, y.searchTimeout)
	defer cancel()

	probe := ytdlp.New().SkipDownload().FlatPlaylist()
	result, err := probe.Run(searchCtx, "ytsearch1:"+query)
	if err != nil {
		return "", fmt.Errorf("%w: search %q: %v", shared.ErrTrackNotFound, query, err)
	}

	info, err := result.GetExtractedInfo()
	if err != nil || len(info) == 0 || info[0].ID == "" {
		return "", fmt.Errorf("%w: no results for %q", shared.ErrTrackNotFound, query)
	}

	id := info[0].ID
	if y.cache != nil {
		_ = y.cache.Store(track.Artist, track.Title, id)
	}

	return id, nil
}

// buildSearchQuery forms the text searched on YouTube for a track.
func buildSearchQuery(artist, title string) string {
	return fmt.Sprintf("%s - %s official audio", artist, title)
}

// outputBase returns the extension-less destination path for a track.
func outputBase(dir, artist, title string) string {
	name := fmt.Sprintf("%s - %s", shared.SanitizeFilename(artist), shared.SanitizeFilename(title))
	return filepath.Join(dir, name)
}
