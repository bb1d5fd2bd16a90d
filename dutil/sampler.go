package dutil

import (
	"fmt"
	"math/rand"
)

// BatchSampler yields batches of dataset indices, optionally shuffled on
// every reset and optionally dropping a trailing partial batch.
type BatchSampler struct {
	n         int
	batchSize int
	dropLast  bool
	shuffle   bool

	indices []int
	pos     int
}

// NewBatchSampler creates a BatchSampler over n samples.
func NewBatchSampler(n, batchSize int, dropLast, shuffle bool) (*BatchSampler, error) {
	if n <= 0 {
		return nil, fmt.Errorf("Invalid dataset size (%v)", n)
	}
	if batchSize <= 0 || batchSize > n {
		return nil, fmt.Errorf("Invalid batch size (%v) for dataset of %v samples", batchSize, n)
	}

	s := &BatchSampler{
		n:         n,
		batchSize: batchSize,
		dropLast:  dropLast,
		shuffle:   shuffle,
	}
	s.Reset()

	return s, nil
}

// Reset rewinds the sampler and reshuffles when configured to.
func (s *BatchSampler) Reset() {
	if s.indices == nil {
		s.indices = make([]int, s.n)
		for i := range s.indices {
			s.indices[i] = i
		}
	}

	if s.shuffle {
		rand.Shuffle(s.n, func(i, j int) {
			s.indices[i], s.indices[j] = s.indices[j], s.indices[i]
		})
	}

	s.pos = 0
}

// HasNext reports whether another batch is available.
func (s *BatchSampler) HasNext() bool {
	if s.dropLast {
		return s.pos+s.batchSize <= s.n
	}

	return s.pos < s.n
}

// Next returns the next batch of indices.
func (s *BatchSampler) Next() []int {
	end := s.pos + s.batchSize
	if end > s.n {
		end = s.n
	}

	batch := s.indices[s.pos:end]
	s.pos = end

	return batch
}

// BatchCount returns the number of batches per pass.
func (s *BatchSampler) BatchCount() int {
	count := s.n / s.batchSize
	if !s.dropLast && s.n%s.batchSize != 0 {
		count++
	}

	return count
}
