package gan

import (
	"fmt"

	"github.com/sugarme/gotch/nn"
)

// ModelName selects one of the trainable model variants.
type ModelName string

const (
	Pix2Pix  ModelName = "pix2pix"
	Palette  ModelName = "palette"
	TransGAN ModelName = "transgan"
)

// ParseModelName validates a model name from the command line. It fails
// before any dataset or trainer resource is allocated.
func ParseModelName(s string) (ModelName, error) {
	switch ModelName(s) {
	case Pix2Pix, Palette, TransGAN:
		return ModelName(s), nil
	default:
		return "", fmt.Errorf("Incorrect model name (%v)", s)
	}
}

// ModelConfig returns the named configuration of a variant. The variants
// all reuse the generator/discriminator composition and differ only in
// generator shape and loss weighting.
func ModelConfig(name ModelName, l1Lambda float64) (Config, error) {
	cfg := DefaultConfig()
	cfg.L1Lambda = l1Lambda

	switch name {
	case Pix2Pix:
		// defaults
	case Palette:
		// Shallow attention U-net refined by reconstruction alone.
		cfg.ChannelMults = []int64{1, 2, 4, 8}
		cfg.Dropout = 0
		cfg.AdvLambda = 0
		cfg.Attention = true
	case TransGAN:
		cfg.Attention = true
	default:
		return Config{}, fmt.Errorf("Incorrect model name (%v)", name)
	}

	cfg.Model = string(name)

	return cfg, nil
}

// NewModel builds the variant selected by name.
func NewModel(name ModelName, genPath, discPath *nn.Path, l1Lambda float64) (*GAN, error) {
	cfg, err := ModelConfig(name, l1Lambda)
	if err != nil {
		return nil, err
	}

	return NewResUnetGAN(genPath, discPath, cfg)
}
