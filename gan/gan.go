package gan

import (
	ts "github.com/sugarme/gotch/tensor"

	"github.com/jarrahkula/pix2pix/metric"
)

// GAN pairs a generator with a discriminator under a shared adversarial +
// L1 reconstruction loss policy. Optimizer stepping belongs to the training
// driver; this struct only produces translations and loss tensors.
type GAN struct {
	generator     ts.ModuleT
	discriminator *Discriminator
	l1Lambda      float64
	advLambda     float64
}

// NewGAN composes a generator and discriminator. advLambda weights the
// adversarial term; zero turns the objective into pure reconstruction.
func NewGAN(generator ts.ModuleT, discriminator *Discriminator, l1Lambda, advLambda float64) *GAN {
	return &GAN{
		generator:     generator,
		discriminator: discriminator,
		l1Lambda:      l1Lambda,
		advLambda:     advLambda,
	}
}

// ForwardT implements ts.ModuleT for GAN struct: it translates the input
// image through the generator.
func (g *GAN) ForwardT(x *ts.Tensor, train bool) *ts.Tensor {
	return g.generator.ForwardT(x, train)
}

// GeneratorLoss scores a generated image against the discriminator's "real"
// target plus the weighted L1 distance to the ground truth.
func (g *GAN) GeneratorLoss(input, target, fake *ts.Tensor) *ts.Tensor {
	patch := g.discriminator.ForwardPair(input, fake, true)
	real := patch.MustOnesLike(false)
	adv := metric.BCEWithLogitsLoss(patch, real)
	patch.MustDrop()
	real.MustDrop()

	l1 := metric.L1Loss(fake, target)

	wAdv := adv.MustMul1(ts.FloatScalar(g.advLambda), true)
	wL1 := l1.MustMul1(ts.FloatScalar(g.l1Lambda), true)
	loss := wAdv.MustAdd(wL1, true)
	wL1.MustDrop()

	return loss
}

// DiscriminatorLoss averages the real and fake BCE halves. The generated
// image is detached so no gradient reaches the generator.
func (g *GAN) DiscriminatorLoss(input, target, fake *ts.Tensor) *ts.Tensor {
	realPatch := g.discriminator.ForwardPair(input, target, true)
	ones := realPatch.MustOnesLike(false)
	realLoss := metric.BCEWithLogitsLoss(realPatch, ones)
	realPatch.MustDrop()
	ones.MustDrop()

	detached := fake.MustDetach(false)
	fakePatch := g.discriminator.ForwardPair(input, detached, true)
	detached.MustDrop()
	zeros := fakePatch.MustZerosLike(false)
	fakeLoss := metric.BCEWithLogitsLoss(fakePatch, zeros)
	fakePatch.MustDrop()
	zeros.MustDrop()

	sum := realLoss.MustAdd(fakeLoss, true)
	fakeLoss.MustDrop()

	return sum.MustMul1(ts.FloatScalar(0.5), true)
}
