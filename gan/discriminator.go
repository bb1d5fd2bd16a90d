package gan

import (
	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/jarrahkula/pix2pix/base"
)

// Discriminator is a 70x70 PatchGAN classifier. It judges the realism of a
// (conditioning, judged) image pair concatenated along the channel axis and
// returns a patch map of logits.
//
// Input:  2 x [N x cIn x H x W]
// Output: [N x 1 x (H/8 - 2) x (W/8 - 2)]
type Discriminator struct {
	layers *nn.SequentialT
}

// NewDiscriminator creates a Discriminator over image pairs with cIn
// channels each.
func NewDiscriminator(p *nn.Path, cIn int64) *Discriminator {
	leaky := func(xs *ts.Tensor) *ts.Tensor {
		return base.LeakyRelu(xs, 0.2)
	}

	seq := nn.SeqT()

	// No norm on the first layer, as with the innermost encoder block.
	seq.Add(base.Conv2d(p.Sub("conv1"), cIn*2, 64, 4, 1, 2))
	seq.AddFn(nn.NewFunc(leaky))

	seq.Add(base.Conv2dNoBias(p.Sub("conv2"), 64, 128, 4, 1, 2))
	seq.Add(base.BatchNorm2d(p.Sub("bn2"), 128))
	seq.AddFn(nn.NewFunc(leaky))

	seq.Add(base.Conv2dNoBias(p.Sub("conv3"), 128, 256, 4, 1, 2))
	seq.Add(base.BatchNorm2d(p.Sub("bn3"), 256))
	seq.AddFn(nn.NewFunc(leaky))

	seq.Add(base.Conv2dNoBias(p.Sub("conv4"), 256, 512, 4, 1, 1))
	seq.Add(base.BatchNorm2d(p.Sub("bn4"), 512))
	seq.AddFn(nn.NewFunc(leaky))

	seq.Add(base.Conv2d(p.Sub("conv5"), 512, 1, 4, 1, 1))

	return &Discriminator{layers: seq}
}

// ForwardPair scores a conditioning image against a candidate target. Both
// images are cast to float32 so mixed-precision inputs concatenate cleanly.
func (d *Discriminator) ForwardPair(cond, img *ts.Tensor, train bool) *ts.Tensor {
	c := cond.MustTotype(gotch.Float, false)
	i := img.MustTotype(gotch.Float, false)
	pair := ts.MustCat([]ts.Tensor{*c, *i}, 1)
	c.MustDrop()
	i.MustDrop()

	res := d.layers.ForwardT(pair, train)
	pair.MustDrop()

	return res
}
