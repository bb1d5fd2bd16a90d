// Package dataset loads paired (input, target) images for image-to-image
// translation. Pairs are matched by file name across two directories,
// resized to the training resolution and augmented with synchronized
// horizontal flips.
package dataset

import (
	"fmt"
	"io/ioutil"
	"math/rand"
	"path/filepath"
	"reflect"
	"sort"

	"github.com/disintegration/imaging"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/jarrahkula/pix2pix/dutil"
)

// ImageSize is the spatial resolution every sample is resampled to. It is
// divisible by 2^8, the downsampling factor of the deepest default
// generator.
const ImageSize = 256

// ImagePair is one (input, target) training sample.
type ImagePair struct {
	Input  ts.Tensor
	Target ts.Tensor
}

// PairDataset implements dutil.Dataset over two image directories.
type PairDataset struct {
	inputDir  string
	targetDir string
	fnames    []string
	augment   bool
}

// NewPairDataset creates a dataset over the given file names. Augmentation
// applies a horizontal flip to both images of a pair at random; it is
// enabled for training splits only.
func NewPairDataset(inputDir, targetDir string, fnames []string, augment bool) *PairDataset {
	return &PairDataset{
		inputDir:  inputDir,
		targetDir: targetDir,
		fnames:    fnames,
		augment:   augment,
	}
}

// Len implements dutil.Dataset.
func (ds *PairDataset) Len() int {
	return len(ds.fnames)
}

// DType implements dutil.Dataset.
func (ds *PairDataset) DType() reflect.Type {
	return reflect.TypeOf(ImagePair{})
}

// Item implements dutil.Dataset. Decode errors propagate unmodified.
func (ds *PairDataset) Item(idx int) (interface{}, error) {
	fname := ds.fnames[idx]

	input, err := readImage(filepath.Join(ds.inputDir, fname))
	if err != nil {
		return nil, err
	}

	target, err := readImage(filepath.Join(ds.targetDir, fname))
	if err != nil {
		return nil, err
	}

	input = resizeTo(input, ImageSize)
	target = resizeTo(target, ImageSize)

	if ds.augment && rand.Float64() < 0.5 {
		input = imaging.FlipH(input)
		target = imaging.FlipH(target)
	}

	inputTs := toTensor(input)
	targetTs := toTensor(target)

	return ImagePair{
		Input:  *inputTs,
		Target: *targetTs,
	}, nil
}

// Module produces train and validation loaders from two image directories,
// holding out a fixed fraction of pairs for validation.
type Module struct {
	inputDir  string
	targetDir string
	batchSize int

	trainFiles []string
	valFiles   []string
}

// NewModule lists both directories, keeps the file names present in each,
// shuffles them deterministically and splits off the validation fraction.
func NewModule(inputDir, targetDir string, batchSize int, valSize float64) (*Module, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("Invalid batch size (%v)", batchSize)
	}
	if valSize < 0 || valSize >= 1 {
		return nil, fmt.Errorf("Invalid validation size (%v): want fraction in [0, 1)", valSize)
	}

	fnames, err := pairedNames(inputDir, targetDir)
	if err != nil {
		return nil, err
	}
	if len(fnames) == 0 {
		return nil, fmt.Errorf("No paired images found under %v and %v", inputDir, targetDir)
	}

	// Deterministic split across runs.
	r := rand.New(rand.NewSource(42))
	r.Shuffle(len(fnames), func(i, j int) {
		fnames[i], fnames[j] = fnames[j], fnames[i]
	})

	nVal := int(float64(len(fnames)) * valSize)
	m := &Module{
		inputDir:   inputDir,
		targetDir:  targetDir,
		batchSize:  batchSize,
		trainFiles: fnames[nVal:],
		valFiles:   fnames[:nVal],
	}

	if len(m.trainFiles) == 0 {
		return nil, fmt.Errorf("Validation split (%v) leaves no training samples", valSize)
	}

	return m, nil
}

// TrainLen returns the number of training pairs.
func (m *Module) TrainLen() int {
	return len(m.trainFiles)
}

// ValLen returns the number of validation pairs.
func (m *Module) ValLen() int {
	return len(m.valFiles)
}

// TrainLoader builds a shuffling loader over the training split.
func (m *Module) TrainLoader() (*dutil.DataLoader, error) {
	ds := NewPairDataset(m.inputDir, m.targetDir, m.trainFiles, true)
	s, err := dutil.NewBatchSampler(ds.Len(), m.batchSize, true, true)
	if err != nil {
		return nil, err
	}

	return dutil.NewDataLoader(ds, s)
}

// ValLoader builds an in-order loader over the validation split.
func (m *Module) ValLoader() (*dutil.DataLoader, error) {
	ds := NewPairDataset(m.inputDir, m.targetDir, m.valFiles, false)
	batchSize := m.batchSize
	if ds.Len() < batchSize {
		batchSize = ds.Len()
	}
	s, err := dutil.NewBatchSampler(ds.Len(), batchSize, false, false)
	if err != nil {
		return nil, err
	}

	return dutil.NewDataLoader(ds, s)
}

// pairedNames intersects the file listings of both directories.
func pairedNames(inputDir, targetDir string) ([]string, error) {
	inputs, err := ioutil.ReadDir(inputDir)
	if err != nil {
		return nil, err
	}
	targets, err := ioutil.ReadDir(targetDir)
	if err != nil {
		return nil, err
	}

	targetSet := make(map[string]bool, len(targets))
	for _, f := range targets {
		if !f.IsDir() {
			targetSet[f.Name()] = true
		}
	}

	var fnames []string
	for _, f := range inputs {
		if !f.IsDir() && targetSet[f.Name()] {
			fnames = append(fnames, f.Name())
		}
	}
	sort.Strings(fnames)

	return fnames, nil
}

// Stack collates a loader batch into device-ready input and target tensors
// of shape [N x 3 x ImageSize x ImageSize]. The per-sample tensors are
// dropped after stacking.
func Stack(batch []ImagePair) (input, target *ts.Tensor) {
	var inputs, targets []ts.Tensor
	for _, pair := range batch {
		inputs = append(inputs, pair.Input)
		targets = append(targets, pair.Target)
	}

	input = ts.MustStack(inputs, 0)
	for _, x := range inputs {
		x.MustDrop()
	}
	target = ts.MustStack(targets, 0)
	for _, x := range targets {
		x.MustDrop()
	}

	return input, target
}
