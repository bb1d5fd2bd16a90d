package unet

import (
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/jarrahkula/pix2pix/base"
)

// EncoderBlock is a residual block that downsamples the input by 2.
//
// Input:  [N x cIn x H x W]
// Output: [N x cOut x (H / 2) x (W / 2)]
type EncoderBlock struct {
	conv1 *nn.Conv2D
	bn1   *nn.BatchNorm
	conv2 *nn.Conv2D
	bn2   *nn.BatchNorm // nil when norm is disabled
	skip  *nn.Conv2D
}

// NewEncoderBlock creates an EncoderBlock. `norm` controls whether the
// second convolution output is batch-normalized; it is switched off at the
// innermost level.
func NewEncoderBlock(p *nn.Path, cIn, cOut int64, norm bool) *EncoderBlock {
	b := &EncoderBlock{
		conv1: base.Conv2d(p.Sub("conv1"), cIn, cOut, 4, 1, 2),
		bn1:   base.BatchNorm2d(p.Sub("bn1"), cOut),
		conv2: base.Conv2d(p.Sub("conv2"), cOut, cOut, 3, 1, 1),
		skip:  base.Conv2d(p.Sub("skip"), cIn, cOut, 1, 0, 2),
	}

	if norm {
		b.bn2 = base.BatchNorm2d(p.Sub("bn2"), cOut)
	}

	return b
}

// ForwardT implements ts.ModuleT for EncoderBlock struct.
func (b *EncoderBlock) ForwardT(x *ts.Tensor, train bool) *ts.Tensor {
	a1 := base.LeakyRelu(x, 0.2)
	c1 := b.conv1.ForwardT(a1, train)
	a1.MustDrop()
	n1 := b.bn1.ForwardT(c1, train)
	c1.MustDrop()
	a2 := base.LeakyRelu(n1, 0.2)
	n1.MustDrop()
	c2 := b.conv2.ForwardT(a2, train)
	a2.MustDrop()

	out := c2
	if b.bn2 != nil {
		out = b.bn2.ForwardT(c2, train)
		c2.MustDrop()
	}

	sk := b.skip.ForwardT(x, train)
	res := out.MustAdd(sk, true)
	sk.MustDrop()

	return res
}

// DecoderBlock is a residual block that upsamples the input by 2.
//
// Input:  [N x cIn x H x W]
// Output: [N x cOut x (H * 2) x (W * 2)]
type DecoderBlock struct {
	deconv  *base.Deconv2D
	bn1     *nn.BatchNorm
	conv    *nn.Conv2D
	bn2     *nn.BatchNorm
	skip    *base.Deconv2D
	dropout float64
}

// NewDecoderBlock creates a DecoderBlock. A zero dropout rate disables the
// dropout stage entirely.
func NewDecoderBlock(p *nn.Path, cIn, cOut int64, dropout float64) *DecoderBlock {
	return &DecoderBlock{
		deconv:  base.ConvTranspose2d(p.Sub("deconv"), cIn, cOut, 4, 1, 2),
		bn1:     base.BatchNorm2d(p.Sub("bn1"), cOut),
		conv:    base.Conv2d(p.Sub("conv"), cOut, cOut, 3, 1, 1),
		bn2:     base.BatchNorm2d(p.Sub("bn2"), cOut),
		skip:    base.ConvTranspose2d(p.Sub("skip"), cIn, cOut, 2, 0, 2),
		dropout: dropout,
	}
}

// ForwardT implements ts.ModuleT for DecoderBlock struct.
// Dropout is channel-wise and only active in train mode.
func (b *DecoderBlock) ForwardT(x *ts.Tensor, train bool) *ts.Tensor {
	a1 := x.MustRelu(false)
	d1 := b.deconv.Forward(a1)
	a1.MustDrop()
	n1 := b.bn1.ForwardT(d1, train)
	d1.MustDrop()
	a2 := n1.MustRelu(true)
	c1 := b.conv.ForwardT(a2, train)
	a2.MustDrop()
	n2 := b.bn2.ForwardT(c1, train)
	c1.MustDrop()

	out := n2
	if b.dropout > 0 {
		out = ts.MustFeatureDropout(n2, b.dropout, train)
		n2.MustDrop()
	}

	sk := b.skip.Forward(x)
	res := out.MustAdd(sk, true)
	sk.MustDrop()

	return res
}
