package base

import (
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"
)

// LeakyRelu applies a leaky rectifier with the given negative slope.
//
// Composed as max(x, 0) - slope * max(-x, 0) since the generated
// leaky_relu binding takes no slope argument.
func LeakyRelu(x *ts.Tensor, slope float64) *ts.Tensor {
	pos := x.MustRelu(false)
	neg := x.MustNeg(false).MustRelu(true).MustMul1(ts.FloatScalar(slope), true)
	res := pos.MustSub(neg, true)
	neg.MustDrop()

	return res
}

// Conv2d creates Conv2D module.
func Conv2d(p *nn.Path, cIn, cOut, ksize, padding, stride int64) *nn.Conv2D {
	config := nn.DefaultConv2DConfig()
	config.Stride = []int64{stride, stride}
	config.Padding = []int64{padding, padding}

	return nn.NewConv2D(p, cIn, cOut, ksize, config)
}

// Conv2dNoBias creates Conv2D with no bias.
func Conv2dNoBias(p *nn.Path, cIn, cOut, ksize, padding, stride int64) *nn.Conv2D {
	config := nn.DefaultConv2DConfig()
	config.Bias = false
	config.Stride = []int64{stride, stride}
	config.Padding = []int64{padding, padding}

	return nn.NewConv2D(p, cIn, cOut, ksize, config)
}

// Deconv2D is a 2-D transposed convolution module.
//
// The weight is stored as [cIn, cOut, k, k], the layout conv_transpose2d
// binds: input channels leading, unlike a forward convolution.
type Deconv2D struct {
	Ws      *ts.Tensor
	Bs      *ts.Tensor
	Stride  []int64
	Padding []int64
}

// Forward implements nn.Module for Deconv2D struct.
func (d *Deconv2D) Forward(xs *ts.Tensor) *ts.Tensor {
	return ts.MustConvTranspose2d(xs, d.Ws, d.Bs, d.Stride, d.Padding, []int64{0, 0}, 1, []int64{1, 1})
}

// ForwardT implements ts.ModuleT for Deconv2D struct.
func (d *Deconv2D) ForwardT(xs *ts.Tensor, train bool) *ts.Tensor {
	return d.Forward(xs)
}

// ConvTranspose2d creates a Deconv2D module.
func ConvTranspose2d(p *nn.Path, cIn, cOut, ksize, padding, stride int64) *Deconv2D {
	return &Deconv2D{
		Ws:      p.NewVar("weight", []int64{cIn, cOut, ksize, ksize}, nn.NewKaimingUniformInit()),
		Bs:      p.NewVar("bias", []int64{cOut}, nn.NewConstInit(0.0)),
		Stride:  []int64{stride, stride},
		Padding: []int64{padding, padding},
	}
}

// BatchNorm2d creates a BatchNorm module over a 4-D input.
func BatchNorm2d(p *nn.Path, cOut int64) *nn.BatchNorm {
	config := nn.DefaultBatchNormConfig()

	return nn.BatchNorm2D(p, cOut, config)
}
