// Package tasks orchestrates playlist-to-archive runs with real-time progress reporting.
//
// # Core Operation
//
// The [ArchiveEngine] interface defines a single operation:
//
//	[ArchiveEngine.Run] : Full playlist → zip archive run
//	  - Lists the playlist's tracks in provider order (paginated)
//	  - Applies the user's download cap (first N, 0 = unbounded)
//	  - Acquires each track as an MP3, isolating per-track failures
//	  - Assembles the downloaded files into a flat zip named after the playlist
//	  - Returns per-track outcomes, counts, and the archive bytes
//
// Null listing entries (removed or region-blocked items) are skipped with a
// warning and still advance progress. A run with zero downloaded tracks ends
// with [shared.ErrNothingToArchive] and produces no archive.
//
// # Progress Reporting
//
// All phases emit [ProgressUpdate] values on a caller-supplied channel.
// Updates use select with default to prevent blocking; a slow or absent
// consumer never stalls a run.
//
// # Concurrency
//
// Acquisition is sequential by default with a fixed inter-track pause. With
// workers > 1 a bounded, rate-limited pool acquires tracks concurrently while
// progress is still emitted in listing order.
//
// # Implementation
//
// [PipelineEngine] implements [ArchiveEngine] with dependencies on:
//   - [services.MetadataService] : Spotify playlist metadata and track listing
//   - [services.Acquirer] : yt-dlp search + audio extraction
package tasks
