package tasks

import "fmt"

// ProgressUpdate represents a progress event during a pipeline run.
//
// Used to send real-time updates to the web layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Fraction returns the phase completion as a value in [0, 1].
func (u ProgressUpdate) Fraction() float64 {
	if u.Total <= 0 {
		return 0
	}
	f := float64(u.Step) / float64(u.Total)
	if f > 1 {
		return 1
	}
	return f
}

// Operation phase enumeration
type Phase int

const (
	ListTracks Phase = iota
	AcquireTracks
	FetchPlaylist
	AssembleArchive
	Done
)

func (p Phase) String() string {
	switch p {
	case ListTracks:
		return "list_tracks"
	case AcquireTracks:
		return "acquire_tracks"
	case FetchPlaylist:
		return "fetch_playlist"
	case AssembleArchive:
		return "assemble_archive"
	case Done:
		return "done"
	default:
		return ""
	}
}

func listTracksUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   ListTracks,
		Step:    0,
		Total:   1,
		Message: "Fetching playlist tracks from Spotify...",
	}
}

func foundPlaylistUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ListTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist found with %d tracks", count),
		Data:    count,
	}
}

func acquireTrackUpdate(step, total int, artist, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AcquireTracks,
		Step:    step - 1,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, artist, title),
	}
}

func trackDoneUpdate(step, total int, artist, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AcquireTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s - %s", step, total, artist, title),
	}
}

func trackFailedUpdate(step, total int, artist, title, detail string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AcquireTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s - %s: %s", step, total, artist, title, detail),
	}
}

func skippedItemUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AcquireTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Item %d skipped (not a valid track)", step, total, step),
	}
}

func fetchPlaylistUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylist,
		Step:    0,
		Total:   1,
		Message: "Fetching playlist details...",
	}
}

func playlistDetailsFailedUpdate(err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Could not fetch playlist details: %v", err),
	}
}

func assembleUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   AssembleArchive,
		Step:    0,
		Total:   1,
		Message: "Preparing the zip archive...",
	}
}

func doneUpdate(archiveName string, downloaded, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Archive %s ready (%d of %d tracks)", archiveName, downloaded, total),
		Data:    archiveName,
	}
}
