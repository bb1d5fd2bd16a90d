package gan

import (
	"github.com/sugarme/gotch/nn"

	"github.com/jarrahkula/pix2pix/unet"
)

// Config holds the saved hyperparameters of a GAN run. It is persisted as
// named configuration next to the run's metrics.
type Config struct {
	Model        string  `json:"model"`
	InChannels   int64   `json:"in_channels"`
	OutChannels  int64   `json:"out_channels"`
	ChannelMults []int64 `json:"channel_mults"`
	Dropout      float64 `json:"dropout"`
	L1Lambda     float64 `json:"l1_lambda"`
	AdvLambda    float64 `json:"adv_lambda"`
	Attention    bool    `json:"attention"`
}

// DefaultConfig is the pix2pix configuration with a residual U-net
// generator.
func DefaultConfig() Config {
	return Config{
		Model:        "pix2pix",
		InChannels:   3,
		OutChannels:  3,
		ChannelMults: unet.DefaultChannelMults,
		Dropout:      0.5,
		L1Lambda:     50,
		AdvLambda:    1,
	}
}

// NewResUnetGAN builds a GAN from a residual U-net generator and a PatchGAN
// discriminator. Generator and discriminator live on separate paths so the
// driver can step them with separate optimizers.
func NewResUnetGAN(genPath, discPath *nn.Path, cfg Config) (*GAN, error) {
	generator, err := unet.NewResUNet(
		genPath,
		cfg.InChannels,
		cfg.OutChannels,
		cfg.ChannelMults,
		cfg.Dropout,
		cfg.Attention,
	)
	if err != nil {
		return nil, err
	}

	discriminator := NewDiscriminator(discPath, cfg.InChannels)

	return NewGAN(generator, discriminator, cfg.L1Lambda, cfg.AdvLambda), nil
}
