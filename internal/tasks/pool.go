package tasks

import (
	"context"
	"sync"

	"github.com/antonioabatte/spotizip/internal/models"
	"golang.org/x/time/rate"
)

// acquireJob is one track handed to the pool, tagged with its listing position.
type acquireJob struct {
	position int
	track    models.Track
}

// acquireOutcome is the finished report row for one position plus the
// downloaded file path, empty when nothing was downloaded.
type acquireOutcome struct {
	position int
	row      models.TrackReport
	path     string
}

// acquirePool downloads tracks with a bounded, rate-limited worker pool.
//
// The sequential contract still holds: per-track failure isolation, ordered
// monotonic progress, and a single archive after all attempts complete.
// Outcomes arrive out of order, so progress for a position is emitted only
// once every earlier position has been reported.
func (e *PipelineEngine) acquirePool(ctx context.Context, tracks []models.Track, dir string, progress chan<- ProgressUpdate) ([]models.TrackReport, []string) {
	total := len(tracks)

	limiter := rate.NewLimiter(rate.Limit(e.rateLimit), 1)
	jobs := make(chan acquireJob, total)
	results := make(chan acquireOutcome, total)

	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go e.acquireWorker(ctx, &wg, limiter, dir, jobs, results)
	}

	for i, track := range tracks {
		jobs <- acquireJob{position: i + 1, track: track}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	outcomes := make([]acquireOutcome, total)
	finished := make([]bool, total)
	emitted := 0
	for res := range results {
		outcomes[res.position-1] = res
		finished[res.position-1] = true

		for emitted < total && finished[emitted] {
			e.emitOutcome(progress, outcomes[emitted].row, total)
			emitted++
		}
	}

	report := make([]models.TrackReport, 0, total)
	var files []string
	for i, outcome := range outcomes {
		if !finished[i] {
			// Canceled before this position was attempted.
			continue
		}
		report = append(report, outcome.row)
		if outcome.path != "" {
			files = append(files, outcome.path)
		}
	}
	return report, files
}

// acquireWorker consumes jobs until the channel closes or the context ends.
func (e *PipelineEngine) acquireWorker(ctx context.Context, wg *sync.WaitGroup, limiter *rate.Limiter, dir string, jobs <-chan acquireJob, results chan<- acquireOutcome) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if !job.track.Zero() {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
		}

		row, path := e.acquireOne(ctx, job.position, job.track, dir)
		results <- acquireOutcome{position: job.position, row: row, path: path}
	}
}
