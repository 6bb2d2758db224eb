// package tasks implements the playlist-to-archive pipeline.
//
// The core abstraction is ArchiveEngine, which orchestrates track listing, per-track
// acquisition, and archive assembly. Operations emit progress updates via channels
// for non-blocking status reporting to the web layer.
package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/antonioabatte/spotizip/internal/archive"
	"github.com/antonioabatte/spotizip/internal/models"
	"github.com/antonioabatte/spotizip/internal/services"
	"github.com/antonioabatte/spotizip/internal/shared"
)

// maxWorkers caps the acquisition pool regardless of configuration.
const maxWorkers = 10

// RunOpts contains per-run options supplied by the user.
type RunOpts struct {
	Cap int // Maximum tracks to attempt, 0 = unbounded
}

// RunResult contains all data from a completed pipeline run.
type RunResult struct {
	Playlist     *models.Playlist     // Playlist metadata, fetched for the archive name
	Report       []models.TrackReport // Per-track outcomes in listing order
	TotalTracks  int                  // Entries attempted after the cap
	SuccessCount int                  // Tracks downloaded
	SkippedCount int                  // Non-track entries skipped with a warning
	FailedCount  int                  // Tracks that could not be acquired
	ArchiveName  string               // Suggested download filename
	Archive      []byte               // Assembled zip contents
}

// ArchiveEngine defines the playlist-to-archive run operation.
type ArchiveEngine interface {
	// Run performs a full playlist → zip run by listing tracks, acquiring each one, and assembling the archive.
	Run(ctx context.Context, creds services.CredentialSource, playlistID string, opts RunOpts, progress chan<- ProgressUpdate) (*RunResult, error)
}

// PipelineEngine implements ArchiveEngine.
// Contains dependencies on the metadata service and the track acquirer.
type PipelineEngine struct {
	lister    services.MetadataService
	acquirer  services.Acquirer
	pause     time.Duration
	workers   int
	rateLimit float64
}

// NewPipelineEngine creates a new PipelineEngine with the provided services.
// Worker count and rate limit come from configuration and are clamped here.
func NewPipelineEngine(lister services.MetadataService, acquirer services.Acquirer, cfg shared.DownloadsConfig) *PipelineEngine {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}

	rateLimit := cfg.RateLimit
	if rateLimit <= 0 {
		rateLimit = 5.0
	}

	return &PipelineEngine{
		lister:    lister,
		acquirer:  acquirer,
		pause:     cfg.Pause(),
		workers:   workers,
		rateLimit: rateLimit,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *PipelineEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// Run performs a full playlist → zip archive run.
//
// Tracks are attempted in listing order with per-track failure isolation: a
// track that cannot be acquired is reported and the run continues. The run
// fails as a whole only when the listing cannot be fetched, when nothing was
// downloaded, or when the archive cannot be written.
func (e *PipelineEngine) Run(ctx context.Context, creds services.CredentialSource, playlistID string, opts RunOpts, progress chan<- ProgressUpdate) (*RunResult, error) {
	if e.lister == nil {
		return nil, fmt.Errorf("%w: metadata service not initialized", shared.ErrServiceUnavailable)
	}
	if e.acquirer == nil {
		return nil, fmt.Errorf("%w: acquirer not initialized", shared.ErrServiceUnavailable)
	}
	if creds == nil {
		return nil, fmt.Errorf("%w: no session credentials", shared.ErrNotAuthenticated)
	}
	if opts.Cap < 0 {
		return nil, fmt.Errorf("%w: download cap must not be negative", shared.ErrInvalidArgument)
	}

	result := &RunResult{}

	e.sendProgress(progress, listTracksUpdate())
	tracks, err := e.lister.PlaylistTracks(ctx, creds, playlistID)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, foundPlaylistUpdate(len(tracks)))

	if opts.Cap > 0 && len(tracks) > opts.Cap {
		tracks = tracks[:opts.Cap]
	}
	total := len(tracks)
	result.TotalTracks = total

	runDir, err := os.MkdirTemp("", "spotizip-run-")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create run directory: %v", shared.ErrArchiveWrite, err)
	}
	defer os.RemoveAll(runDir)

	var report []models.TrackReport
	var files []string
	if e.workers > 1 {
		report, files = e.acquirePool(ctx, tracks, runDir, progress)
	} else {
		report, files = e.acquireSequential(ctx, tracks, runDir, progress)
	}

	result.Report = report
	for _, row := range report {
		switch row.Status {
		case models.TrackDownloaded:
			result.SuccessCount++
		case models.TrackSkipped:
			result.SkippedCount++
		case models.TrackFailed:
			result.FailedCount++
		}
	}

	result.Playlist = e.fetchPlaylist(ctx, creds, playlistID, progress)

	if len(files) == 0 {
		return result, fmt.Errorf("%w: no tracks could be downloaded", shared.ErrNothingToArchive)
	}

	e.sendProgress(progress, assembleUpdate())
	archivePath, err := archive.Assemble(files, result.Playlist.Name, runDir)
	if err != nil {
		return result, err
	}

	data, err := os.ReadFile(archivePath)
	if err != nil {
		return result, fmt.Errorf("%w: read %s: %v", shared.ErrArchiveWrite, filepath.Base(archivePath), err)
	}

	result.ArchiveName = filepath.Base(archivePath)
	result.Archive = data
	e.sendProgress(progress, doneUpdate(result.ArchiveName, result.SuccessCount, total))
	return result, nil
}

// fetchPlaylist retrieves the playlist's display metadata for the archive name
// and the run report. A failure here never sinks a run that already holds
// downloaded tracks; the playlist ID stands in for the name.
func (e *PipelineEngine) fetchPlaylist(ctx context.Context, creds services.CredentialSource, playlistID string, progress chan<- ProgressUpdate) *models.Playlist {
	e.sendProgress(progress, fetchPlaylistUpdate())

	playlist, err := e.lister.GetPlaylist(ctx, creds, playlistID)
	if err != nil {
		e.sendProgress(progress, playlistDetailsFailedUpdate(err))
		return &models.Playlist{ID: playlistID, Name: playlistID}
	}
	return playlist
}

// acquireSequential downloads tracks one at a time in listing order, with a
// fixed pause after each item. Skipped items pause too, keeping the original
// pacing.
func (e *PipelineEngine) acquireSequential(ctx context.Context, tracks []models.Track, dir string, progress chan<- ProgressUpdate) ([]models.TrackReport, []string) {
	total := len(tracks)
	report := make([]models.TrackReport, 0, total)
	var files []string

	for i, track := range tracks {
		if ctx.Err() != nil {
			break
		}

		if !track.Zero() {
			e.sendProgress(progress, acquireTrackUpdate(i+1, total, track.Artist, track.Title))
		}

		row, path := e.acquireOne(ctx, i+1, track, dir)
		report = append(report, row)
		if path != "" {
			files = append(files, path)
		}
		e.emitOutcome(progress, row, total)

		if e.pause > 0 && i < total-1 {
			select {
			case <-ctx.Done():
			case <-time.After(e.pause):
			}
		}
	}

	return report, files
}

// acquireOne attempts a single track and reports its outcome. Null listing
// entries are skipped, never attempted.
func (e *PipelineEngine) acquireOne(ctx context.Context, position int, track models.Track, dir string) (models.TrackReport, string) {
	if track.Zero() {
		return models.TrackReport{
			Position: position,
			Status:   models.TrackSkipped,
			Detail:   "not a valid track",
		}, ""
	}

	path, err := e.acquirer.Acquire(ctx, track, dir)
	if err != nil {
		return models.TrackReport{
			Position: position,
			Artist:   track.Artist,
			Title:    track.Title,
			Status:   models.TrackFailed,
			Detail:   err.Error(),
		}, ""
	}

	return models.TrackReport{
		Position: position,
		Artist:   track.Artist,
		Title:    track.Title,
		Status:   models.TrackDownloaded,
		Detail:   filepath.Base(path),
	}, path
}

// emitOutcome reports one finished position. Progress stays monotonic because
// callers emit positions in listing order.
func (e *PipelineEngine) emitOutcome(progress chan<- ProgressUpdate, row models.TrackReport, total int) {
	switch row.Status {
	case models.TrackDownloaded:
		e.sendProgress(progress, trackDoneUpdate(row.Position, total, row.Artist, row.Title))
	case models.TrackSkipped:
		e.sendProgress(progress, skippedItemUpdate(row.Position, total))
	case models.TrackFailed:
		e.sendProgress(progress, trackFailedUpdate(row.Position, total, row.Artist, row.Title, row.Detail))
	}
}
