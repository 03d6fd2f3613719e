package sampler

import (
	"fmt"
	"math/rand/v2"
)

// Sampler plans batches of corpus indices with pairwise-distinct source ids.
// It holds no state across epochs beyond its seed.
type Sampler struct {
	sourceIDs []int64
	batchSize int
	seed      int64
	seeded    bool
}

// Option configures the sampler.
type Option func(*Sampler)

// WithSeed makes epoch plans reproducible. Each epoch still draws its own
// permutation, derived from the seed and the epoch number.
func WithSeed(seed int64) Option {
	return func(s *Sampler) {
		s.seed = seed
		s.seeded = true
	}
}

// New builds a sampler over the corpus's flat source-id sequence, where
// position i holds the source id of corpus index i.
func New(sourceIDs []int64, batchSize int, opts ...Option) (*Sampler, error) {
	if len(sourceIDs) == 0 {
		return nil, fmt.Errorf("sampler: empty corpus")
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("sampler: batch size %d must be positive", batchSize)
	}
	s := &Sampler{
		sourceIDs: append([]int64(nil), sourceIDs...),
		batchSize: batchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// EstimatedBatches returns the nominal batch count for progress reporting.
// The real count can differ: collisions shrink it and a partial tail grows
// it by one.
func (s *Sampler) EstimatedBatches() int {
	return len(s.sourceIDs) / s.batchSize
}

// Epoch produces the batch plan for one epoch: a shuffled single pass over
// all indices, appending each to the current batch unless its source id is
// already present there, in which case the index is dropped for this epoch.
// A partial trailing batch is emitted once.
func (s *Sampler) Epoch(epoch int) [][]int {
	perm := s.permutation(epoch)

	batches := make([][]int, 0, s.EstimatedBatches()+1)
	current := make([]int, 0, s.batchSize)
	seen := make(map[int64]struct{}, s.batchSize)

	for _, idx := range perm {
		id := s.sourceIDs[idx]
		if _, dup := seen[id]; dup {
			continue
		}
		current = append(current, idx)
		seen[id] = struct{}{}
		if len(current) == s.batchSize {
			batches = append(batches, current)
			current = make([]int, 0, s.batchSize)
			clear(seen)
		}
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}

func (s *Sampler) permutation(epoch int) []int {
	if s.seeded {
		rng := rand.New(rand.NewPCG(uint64(s.seed), uint64(epoch)))
		return rng.Perm(len(s.sourceIDs))
	}
	return rand.Perm(len(s.sourceIDs))
}
