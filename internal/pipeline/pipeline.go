package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"clipfeed/internal/batch"
	"clipfeed/internal/corpus"
	"clipfeed/internal/logging"
	"clipfeed/internal/sample"
	"clipfeed/internal/sampler"
)

// Loader produces one sample per clip and never fails.
type Loader interface {
	Load(ctx context.Context, clip corpus.ClipFile) sample.Sample
}

// Pipeline owns the corpus view and decode settings shared by every epoch.
type Pipeline struct {
	index    *corpus.Index
	planner  *sampler.Sampler
	loader   Loader
	workers  int
	prefetch int
	log      *slog.Logger
}

// New validates and assembles a pipeline. Workers bounds parallel decodes;
// prefetch bounds how many batches may exist between decode and consumer.
func New(index *corpus.Index, planner *sampler.Sampler, loader Loader, workers, prefetch int, log *slog.Logger) (*Pipeline, error) {
	if index == nil || index.Len() == 0 {
		return nil, errors.New("pipeline: empty corpus index")
	}
	if planner == nil {
		return nil, errors.New("pipeline: nil sampler")
	}
	if loader == nil {
		return nil, errors.New("pipeline: nil loader")
	}
	if workers <= 0 {
		return nil, errors.New("pipeline: worker count must be positive")
	}
	if prefetch <= 0 {
		return nil, errors.New("pipeline: prefetch depth must be positive")
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Pipeline{
		index:    index,
		planner:  planner,
		loader:   loader,
		workers:  workers,
		prefetch: prefetch,
		log:      log,
	}, nil
}

// job asks a worker to decode the clip at flat index into one batch slot.
type job struct {
	state *batchState
	slot  int
	flat  int
}

// batchState gathers one batch's samples as workers finish them, in slot
// order rather than completion order.
type batchState struct {
	samples []sample.Sample
	pending atomic.Int32
	done    chan struct{}
}

func newBatchState(size int) *batchState {
	st := &batchState{
		samples: make([]sample.Sample, size),
		done:    make(chan struct{}),
	}
	st.pending.Store(int32(size))
	return st
}

// Run is one epoch's live decode pool.
type Run struct {
	out     chan batch.Batch
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	planned int
	samples int

	mu  sync.Mutex
	err error
}

// Epoch plans one epoch and starts its pool. The returned Run delivers
// batches in plan order until the plan is exhausted, the context ends, or a
// collate failure aborts the epoch. Callers must drain Batches and then call
// Stop to reap the pool.
func (p *Pipeline) Epoch(ctx context.Context, epoch int) *Run {
	plan := p.planner.Epoch(epoch)
	planned := 0
	for _, indices := range plan {
		planned += len(indices)
	}

	runCtx, cancel := context.WithCancel(ctx)
	r := &Run{
		out:     make(chan batch.Batch),
		cancel:  cancel,
		planned: len(plan),
		samples: planned,
	}
	p.log.Debug("epoch planned",
		logging.Int("epoch", epoch),
		logging.Int("batches", len(plan)),
		logging.Int("samples", planned),
		logging.Int("dropped", p.index.Len()-planned))

	sem := make(chan struct{}, p.prefetch)
	jobs := make(chan job)
	states := make(chan *batchState, p.prefetch)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer close(jobs)
		defer close(states)
		p.dispatch(runCtx, plan, sem, jobs, states)
	}()

	r.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go func() {
			defer r.wg.Done()
			p.work(runCtx, jobs)
		}()
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer close(r.out)
		p.collate(runCtx, r, sem, states)
	}()

	return r
}

func (p *Pipeline) dispatch(ctx context.Context, plan [][]int, sem chan struct{}, jobs chan<- job, states chan<- *batchState) {
	for _, indices := range plan {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return
		}
		st := newBatchState(len(indices))
		select {
		case states <- st:
		case <-ctx.Done():
			return
		}
		for slot, flat := range indices {
			select {
			case jobs <- job{state: st, slot: slot, flat: flat}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (p *Pipeline) work(ctx context.Context, jobs <-chan job) {
	for j := range jobs {
		// A canceled context makes Load fail fast into a sentinel, so the
		// slot and pending count stay consistent during teardown.
		j.state.samples[j.slot] = p.loader.Load(ctx, p.index.Clip(j.flat))
		if j.state.pending.Add(-1) == 0 {
			close(j.state.done)
		}
	}
}

func (p *Pipeline) collate(ctx context.Context, r *Run, sem <-chan struct{}, states <-chan *batchState) {
	for st := range states {
		select {
		case <-st.done:
		case <-ctx.Done():
			return
		}
		assembled, err := batch.Collate(st.samples)
		if err != nil {
			r.setErr(err)
			r.cancel()
			return
		}
		select {
		case r.out <- assembled:
			<-sem
		case <-ctx.Done():
			return
		}
	}
}

// Batches streams the epoch's batches in plan order. The channel closes when
// the epoch completes, is stopped, or aborts.
func (r *Run) Batches() <-chan batch.Batch {
	return r.out
}

// PlannedBatches returns the number of batches in this epoch's plan,
// including the partial tail.
func (r *Run) PlannedBatches() int {
	return r.planned
}

// PlannedSamples returns the number of corpus indices the plan kept after
// collision drops.
func (r *Run) PlannedSamples() int {
	return r.samples
}

// Stop tears the pool down and waits for every goroutine to exit. Safe to
// call after normal completion and safe to call more than once.
func (r *Run) Stop() {
	r.cancel()
	r.wg.Wait()
}

// Err reports a collate failure, if one aborted the epoch. It is valid after
// Batches closes.
func (r *Run) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Run) setErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err == nil {
		r.err = err
	}
}
