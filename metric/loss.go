package metric

import (
	"math"

	"github.com/sugarme/gotch"
	ts "github.com/sugarme/gotch/tensor"
)

// BCEWithLogitsLoss returns the mean binary cross entropy between logits and
// targets, computed in the numerically stable form
// max(x, 0) - x*z + log(1 + exp(-|x|)).
func BCEWithLogitsLoss(logits, target *ts.Tensor) *ts.Tensor {
	relu := logits.MustRelu(false)
	xz := logits.MustMul(target, false)
	softplus := logits.MustAbs(false).MustNeg(true).MustExp(true).MustLog1p(true)

	diff := relu.MustSub(xz, true)
	xz.MustDrop()
	sum := diff.MustAdd(softplus, true)
	softplus.MustDrop()

	return sum.MustMean(gotch.Float, true)
}

// L1Loss returns the mean absolute difference between two tensors.
func L1Loss(pred, target *ts.Tensor) *ts.Tensor {
	return pred.MustSub(target, false).MustAbs(true).MustMean(gotch.Float, true)
}

// PSNR computes peak signal-to-noise ratio in dB between [-1, 1] images.
func PSNR(pred, target *ts.Tensor) float64 {
	diff := pred.MustSub(target, false)
	sq := diff.MustMul(diff, true)
	mseTs := sq.MustMean(gotch.Double, true)
	mse := mseTs.Float64Values()[0]
	mseTs.MustDrop()

	if mse == 0 {
		return math.Inf(1)
	}

	// dynamic range of tanh output is 2
	return 10 * math.Log10(4/mse)
}
