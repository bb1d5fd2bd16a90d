// Package train drives GAN optimization: epoch iteration, separate
// generator/discriminator Adam steps, EMA shadow updates and periodic
// validation with shadow weights swapped in.
package train

import (
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"
	"github.com/sugarme/gotch/vision"

	"github.com/jarrahkula/pix2pix/dataset"
	"github.com/jarrahkula/pix2pix/ema"
	"github.com/jarrahkula/pix2pix/gan"
	"github.com/jarrahkula/pix2pix/logger"
	"github.com/jarrahkula/pix2pix/metric"
)

// Config holds driver-level knobs. Zero values fall back to the documented
// defaults via Default.
type Config struct {
	Epochs    int
	LR        float64
	ValEvery  int
	EMADecay  float64
	Precision string // "32" or "16"
	Cuda      bool
}

// Default returns the stock training configuration.
func Default() Config {
	return Config{
		Epochs:    200,
		LR:        2e-4,
		ValEvery:  10,
		EMADecay:  ema.DefaultDecay,
		Precision: "32",
	}
}

// Trainer owns the variable stores and optimizers of one run.
type Trainer struct {
	cfg    Config
	device gotch.Device
	dtype  gotch.DType

	vsGen  *nn.VarStore
	vsDisc *nn.VarStore

	log *logger.CSVLogger
}

// NewTrainer validates the configuration and allocates the variable stores.
// The model must afterwards be built on GenPath/DiscPath so its variables
// land in the trainer's stores.
func NewTrainer(cfg Config, log *logger.CSVLogger) (*Trainer, error) {
	dtype, err := parsePrecision(cfg.Precision)
	if err != nil {
		return nil, err
	}
	if cfg.Epochs <= 0 {
		return nil, fmt.Errorf("Invalid epoch count (%v)", cfg.Epochs)
	}

	device := gotch.CPU
	if cfg.Cuda {
		device = gotch.NewCuda().CudaIfAvailable()
	}

	return &Trainer{
		cfg:    cfg,
		device: device,
		dtype:  dtype,
		vsGen:  nn.NewVarStore(device),
		vsDisc: nn.NewVarStore(device),
		log:    log,
	}, nil
}

// GenPath is the root path for generator variables.
func (t *Trainer) GenPath() *nn.Path {
	return t.vsGen.Root()
}

// DiscPath is the root path for discriminator variables.
func (t *Trainer) DiscPath() *nn.Path {
	return t.vsDisc.Root()
}

// Fit trains the model on the data module until the configured epoch count,
// then writes checkpoints and the loss plot into the run directory.
func (t *Trainer) Fit(model *gan.GAN, dm *dataset.Module) error {
	optGen, err := adamConfig().Build(t.vsGen, t.cfg.LR)
	if err != nil {
		return err
	}
	optDisc, err := adamConfig().Build(t.vsDisc, t.cfg.LR)
	if err != nil {
		return err
	}

	avg, err := ema.New(t.vsGen, t.cfg.EMADecay)
	if err != nil {
		return err
	}

	trainDL, err := dm.TrainLoader()
	if err != nil {
		return err
	}

	for e := 0; e < t.cfg.Epochs; e++ {
		start := time.Now()
		var genLosses, discLosses []float64

		trainDL.Reset()
		for trainDL.HasNext() {
			s, err := trainDL.Next()
			if err != nil {
				return err
			}

			input, target := dataset.Stack(s.([]dataset.ImagePair))
			input = t.prepare(input)
			target = t.prepare(target)

			fake := model.ForwardT(input, true)

			discLoss := model.DiscriminatorLoss(input, target, fake)
			optDisc.BackwardStep(discLoss)
			discLosses = append(discLosses, discLoss.Float64Values()[0])
			discLoss.MustDrop()

			genLoss := model.GeneratorLoss(input, target, fake)
			optGen.BackwardStep(genLoss)
			genLosses = append(genLosses, genLoss.Float64Values()[0])
			genLoss.MustDrop()

			avg.Step()

			fake.MustDrop()
			input.MustDrop()
			target.MustDrop()
		}

		row := logger.Row{
			Epoch:    e,
			GenLoss:  mean(genLosses),
			DiscLoss: mean(discLosses),
			ValL1:    math.NaN(),
			ValPSNR:  math.NaN(),
		}

		if t.validateAt(e) && dm.ValLen() > 0 {
			err := avg.Swap(func() error {
				l1, psnr, err := t.validate(model, dm, e)
				if err != nil {
					return err
				}
				row.ValL1 = l1
				row.ValPSNR = psnr

				return nil
			})
			if err != nil {
				return err
			}
		}

		if err := t.log.Log(row); err != nil {
			return err
		}

		fmt.Printf("Epoch %03d\t gen loss: %6.4f\t disc loss: %6.4f\t Taken time: %0.2fMin\n",
			e, row.GenLoss, row.DiscLoss, time.Since(start).Minutes())
	}

	if err := t.log.PlotLoss(); err != nil {
		return err
	}

	return t.checkpoint(avg)
}

// validate measures L1 and PSNR of the generator over the validation split
// and saves one translated sample image for eyeballing.
func (t *Trainer) validate(model *gan.GAN, dm *dataset.Module, epoch int) (l1, psnr float64, err error) {
	valDL, err := dm.ValLoader()
	if err != nil {
		return 0, 0, err
	}

	var l1s, psnrs []float64
	saved := false

	for valDL.HasNext() {
		s, err := valDL.Next()
		if err != nil {
			return 0, 0, err
		}

		input, target := dataset.Stack(s.([]dataset.ImagePair))
		input = t.prepare(input)
		target = t.prepare(target)

		var fake *ts.Tensor
		ts.NoGrad(func() {
			fake = model.ForwardT(input, false)
		})

		loss := metric.L1Loss(fake, target)
		l1s = append(l1s, loss.Float64Values()[0])
		loss.MustDrop()
		psnrs = append(psnrs, metric.PSNR(fake, target))

		if !saved {
			if err := t.saveSample(fake, epoch); err != nil {
				return 0, 0, err
			}
			saved = true
		}

		fake.MustDrop()
		input.MustDrop()
		target.MustDrop()
	}

	return mean(l1s), mean(psnrs), nil
}

// saveSample writes the first translated validation image, rescaled from
// (-1, 1) back to byte range.
func (t *Trainer) saveSample(fake *ts.Tensor, epoch int) error {
	img := fake.MustNarrow(0, 0, 1, false).
		MustSqueeze1(0, true).
		MustAdd1(ts.FloatScalar(1), true).
		MustMul1(ts.FloatScalar(127.5), true)
	defer img.MustDrop()

	fpath := filepath.Join(t.log.Dir(), fmt.Sprintf("sample_%03d.png", epoch))

	return vision.Save(img, fpath)
}

// checkpoint saves generator (EMA-swapped) and discriminator weights.
func (t *Trainer) checkpoint(avg *ema.EMA) error {
	err := avg.Swap(func() error {
		return t.vsGen.Save(filepath.Join(t.log.Dir(), "generator.gt"))
	})
	if err != nil {
		return err
	}

	return t.vsDisc.Save(filepath.Join(t.log.Dir(), "discriminator.gt"))
}

func (t *Trainer) validateAt(epoch int) bool {
	if t.cfg.ValEvery <= 0 {
		return false
	}

	return (epoch+1)%t.cfg.ValEvery == 0 || epoch == t.cfg.Epochs-1
}

// prepare moves a batch to the training device at the configured precision.
func (t *Trainer) prepare(x *ts.Tensor) *ts.Tensor {
	return x.MustTotype(t.dtype, true).MustTo(t.device, true)
}

func parsePrecision(p string) (gotch.DType, error) {
	switch p {
	case "", "32":
		return gotch.Float, nil
	case "16":
		return gotch.Half, nil
	default:
		return gotch.Float, fmt.Errorf("Invalid precision (%v): want \"32\" or \"16\"", p)
	}
}

// adamConfig returns the pix2pix Adam betas.
func adamConfig() *nn.AdamConfig {
	return nn.NewAdamConfig(0.5, 0.999, 0)
}

func mean(input []float64) float64 {
	if len(input) == 0 {
		return 0
	}

	var sum float64
	for _, v := range input {
		sum += v
	}

	return sum / float64(len(input))
}
