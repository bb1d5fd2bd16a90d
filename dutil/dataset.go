package dutil

import "reflect"

// Dataset is an indexable collection of samples.
type Dataset interface {
	// Item returns the sample at idx.
	Item(idx int) (interface{}, error)
	// Len returns the number of samples.
	Len() int
	// DType is the reflect type of a single sample; DataLoader batches are
	// slices of it.
	DType() reflect.Type
}
