package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"clipfeed/internal/corpus"
	"clipfeed/internal/logging"
	"clipfeed/internal/sample"
)

// Loader mirrors the pipeline's decode entry point.
type Loader interface {
	Load(ctx context.Context, clip corpus.ClipFile) sample.Sample
}

// Runner sweeps every indexed clip through the loader and records outcomes.
type Runner struct {
	store   *Store
	index   *corpus.Index
	loader  Loader
	workers int
	log     *slog.Logger
}

// NewRunner builds an audit runner with a fixed decode worker count.
func NewRunner(store *Store, index *corpus.Index, loader Loader, workers int, log *slog.Logger) (*Runner, error) {
	if store == nil {
		return nil, errors.New("audit: nil store")
	}
	if index == nil || index.Len() == 0 {
		return nil, errors.New("audit: empty corpus index")
	}
	if loader == nil {
		return nil, errors.New("audit: nil loader")
	}
	if workers <= 0 {
		return nil, errors.New("audit: worker count must be positive")
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Runner{
		store:   store,
		index:   index,
		loader:  loader,
		workers: workers,
		log:     log,
	}, nil
}

// Run audits the full corpus once and returns the finished run's summary.
// Only one audit may run against a database at a time; a held lock is an
// error, not a wait.
func (r *Runner) Run(ctx context.Context, corpusDir string) (RunSummary, error) {
	lock := flock.New(r.store.Path() + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return RunSummary{}, fmt.Errorf("acquire audit lock: %w", err)
	}
	if !locked {
		return RunSummary{}, errors.New("another audit run holds the lock")
	}
	defer func() { _ = lock.Unlock() }()

	runID, err := r.store.BeginRun(ctx, corpusDir, r.index.Len())
	if err != nil {
		return RunSummary{}, err
	}
	r.log.Info("audit started",
		logging.String("run_id", runID),
		logging.Int("clips", r.index.Len()),
		logging.Int("workers", r.workers))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		failed   atomic.Int64
		degraded atomic.Int64

		mu       sync.Mutex
		storeErr error
	)
	fail := func(err error) {
		mu.Lock()
		if storeErr == nil {
			storeErr = err
		}
		mu.Unlock()
		cancel()
	}

	jobs := make(chan corpus.ClipFile)
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for clip := range jobs {
				start := time.Now()
				smp := r.loader.Load(runCtx, clip)
				if !smp.Valid {
					failed.Add(1)
				} else if smp.Reason != "" {
					degraded.Add(1)
				}
				result := ClipResult{
					Path:         clip.Path,
					SourceID:     clip.SourceID,
					SegmentID:    clip.SegmentID,
					Valid:        smp.Valid,
					Reason:       smp.Reason,
					AudioSamples: smp.Audio.Len(),
					DecodeMS:     time.Since(start).Milliseconds(),
				}
				if err := r.store.RecordClip(runCtx, runID, result); err != nil {
					fail(err)
					return
				}
			}
		}()
	}

feed:
	for _, clip := range r.index.Clips() {
		select {
		case jobs <- clip:
		case <-runCtx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	mu.Lock()
	err = storeErr
	mu.Unlock()
	if err != nil {
		return RunSummary{}, err
	}
	if ctx.Err() != nil {
		return RunSummary{}, ctx.Err()
	}

	if err := r.store.FinishRun(ctx, runID, int(failed.Load()), int(degraded.Load())); err != nil {
		return RunSummary{}, err
	}
	summary, err := r.store.Summary(ctx, runID)
	if err != nil {
		return RunSummary{}, err
	}
	r.log.Info("audit finished",
		logging.String("run_id", summary.ID),
		logging.Int("clips", summary.TotalClips),
		logging.Int("failed", summary.FailedClips),
		logging.Int("degraded", summary.DegradedClips))
	return summary, nil
}
