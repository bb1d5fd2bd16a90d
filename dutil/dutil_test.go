package dutil_test

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jarrahkula/pix2pix/dutil"
)

type intDataset struct {
	n int
}

func (ds *intDataset) Len() int { return ds.n }

func (ds *intDataset) Item(idx int) (interface{}, error) {
	if idx >= ds.n {
		return nil, fmt.Errorf("index out of range: %v", idx)
	}
	return idx, nil
}

func (ds *intDataset) DType() reflect.Type { return reflect.TypeOf(0) }

func TestBatchSamplerDropLast(t *testing.T) {
	s, err := dutil.NewBatchSampler(10, 3, true, false)
	require.NoError(t, err)
	require.Equal(t, 3, s.BatchCount())

	var seen []int
	for s.HasNext() {
		batch := s.Next()
		require.Len(t, batch, 3)
		seen = append(seen, batch...)
	}
	require.Len(t, seen, 9)
}

func TestBatchSamplerKeepLast(t *testing.T) {
	s, err := dutil.NewBatchSampler(10, 3, false, false)
	require.NoError(t, err)
	require.Equal(t, 4, s.BatchCount())

	var batches [][]int
	for s.HasNext() {
		batches = append(batches, s.Next())
	}
	require.Len(t, batches, 4)
	require.Len(t, batches[3], 1)
}

func TestBatchSamplerShuffleCoversAll(t *testing.T) {
	s, err := dutil.NewBatchSampler(8, 2, true, true)
	require.NoError(t, err)

	seen := make(map[int]bool)
	for s.HasNext() {
		for _, idx := range s.Next() {
			require.False(t, seen[idx], "index %v repeated", idx)
			seen[idx] = true
		}
	}
	require.Len(t, seen, 8)
}

func TestBatchSamplerInvalid(t *testing.T) {
	_, err := dutil.NewBatchSampler(0, 1, false, false)
	require.Error(t, err)

	_, err = dutil.NewBatchSampler(4, 0, false, false)
	require.Error(t, err)

	_, err = dutil.NewBatchSampler(4, 5, false, false)
	require.Error(t, err)
}

func TestDataLoaderTypedBatches(t *testing.T) {
	ds := &intDataset{n: 7}
	s, err := dutil.NewBatchSampler(ds.Len(), 2, false, false)
	require.NoError(t, err)

	dl, err := dutil.NewDataLoader(ds, s)
	require.NoError(t, err)
	require.Equal(t, 4, dl.BatchCount())

	var total int
	for dl.HasNext() {
		batch, err := dl.Next()
		require.NoError(t, err)

		ints, ok := batch.([]int)
		require.True(t, ok, "expected []int batch, got %T", batch)
		total += len(ints)
	}
	require.Equal(t, 7, total)

	// A second pass after Reset yields the same item count.
	dl.Reset()
	total = 0
	for dl.HasNext() {
		batch, err := dl.Next()
		require.NoError(t, err)
		total += len(batch.([]int))
	}
	require.Equal(t, 7, total)
}

func TestDataLoaderSizeMismatch(t *testing.T) {
	ds := &intDataset{n: 7}
	s, err := dutil.NewBatchSampler(5, 2, false, false)
	require.NoError(t, err)

	_, err = dutil.NewDataLoader(ds, s)
	require.Error(t, err)
}
