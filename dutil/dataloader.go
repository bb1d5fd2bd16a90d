package dutil

import (
	"fmt"
	"reflect"
)

// DataLoader walks a Dataset in the order produced by a BatchSampler and
// materializes each batch as a typed slice of the dataset's item type.
type DataLoader struct {
	ds      Dataset
	sampler *BatchSampler
}

// NewDataLoader creates a DataLoader.
func NewDataLoader(ds Dataset, sampler *BatchSampler) (*DataLoader, error) {
	if ds.Len() != sampler.n {
		return nil, fmt.Errorf("Dataset length (%v) does not match sampler size (%v)", ds.Len(), sampler.n)
	}

	return &DataLoader{ds: ds, sampler: sampler}, nil
}

// Reset rewinds the loader for another pass.
func (dl *DataLoader) Reset() {
	dl.sampler.Reset()
}

// HasNext reports whether another batch is available.
func (dl *DataLoader) HasNext() bool {
	return dl.sampler.HasNext()
}

// Next loads the next batch. The returned value is a slice of the dataset
// item type, e.g. []ImagePair.
func (dl *DataLoader) Next() (interface{}, error) {
	indices := dl.sampler.Next()
	batch := reflect.MakeSlice(reflect.SliceOf(dl.ds.DType()), 0, len(indices))

	for _, idx := range indices {
		item, err := dl.ds.Item(idx)
		if err != nil {
			return nil, err
		}
		batch = reflect.Append(batch, reflect.ValueOf(item))
	}

	return batch.Interface(), nil
}

// BatchCount returns the number of batches per pass.
func (dl *DataLoader) BatchCount() int {
	return dl.sampler.BatchCount()
}
