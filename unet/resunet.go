package unet

import (
	"fmt"

	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/jarrahkula/pix2pix/base"
)

// DefaultChannelMults is the channel multiplier sequence of the pix2pix
// generator. Each entry scales the 64-channel base width; the length sets
// the network depth.
var DefaultChannelMults = []int64{1, 2, 4, 8, 8, 8, 8, 8}

const baseChannels int64 = 64

// ResUNet is a residual U-net used as the generator in a pix2pix GAN.
//
// Input:  [N x cIn x H x W], H and W divisible by 2^len(mults)
// Output: [N x cOut x H x W], values in (-1, 1)
type ResUNet struct {
	encoders []ts.ModuleT
	decoders []ts.ModuleT
	attn     *base.SCSE // optional bottleneck attention
}

// ValidateChannelMults checks a channel multiplier sequence eagerly so
// malformed configuration fails before the first forward pass.
func ValidateChannelMults(mults []int64) error {
	if len(mults) < 2 {
		return fmt.Errorf("Invalid channel mults: expected at least 2 entries, got %v", len(mults))
	}
	for i, m := range mults {
		if m <= 0 {
			return fmt.Errorf("Invalid channel mults: entry %v is %v, want positive", i, m)
		}
	}

	return nil
}

// dropoutAt reports whether the decoder stage at `level` (indexed over
// mults[:len-1]) gets dropout: only stages at the widest multiplier within
// the boundary nearest the bottleneck.
func dropoutAt(mults []int64, level int) bool {
	var max int64
	for _, m := range mults {
		if m > max {
			max = m
		}
	}

	return mults[level] == max && level > len(mults)-5
}

// NewResUNet builds the generator from a channel multiplier sequence.
// Dropout applies to an architecture-fixed subset of decoder stages, see
// dropoutAt. When attn is true an SCSE block is inserted at the bottleneck.
func NewResUNet(p *nn.Path, cIn, cOut int64, mults []int64, dropout float64, attn bool) (*ResUNet, error) {
	if err := ValidateChannelMults(mults); err != nil {
		return nil, err
	}

	n := &ResUNet{}

	// Encoder stack: plain strided projection, then residual blocks. Norm
	// is disabled on the innermost block only.
	ep := p.Sub("encoder")
	n.encoders = append(n.encoders, base.Conv2d(ep.Sub("proj"), cIn, mults[0]*baseChannels, 4, 1, 2))
	chanIn := mults[0] * baseChannels
	for level := 1; level < len(mults); level++ {
		channels := mults[level] * baseChannels
		norm := level != len(mults)-1
		n.encoders = append(n.encoders, NewEncoderBlock(ep.Sub(fmt.Sprintf("block%v", level)), chanIn, channels, norm))
		chanIn = channels
	}

	if attn {
		n.attn = base.NewSCSE(p.Sub("attn"), chanIn)
	}

	// Decoder stack walks the multipliers in reverse, skipping the
	// bottleneck entry. Input widths double after the first stage to make
	// room for the concatenated skip connection.
	dp := p.Sub("decoder")
	for level := len(mults) - 2; level >= 0; level-- {
		channels := mults[level] * baseChannels

		rate := 0.0
		if dropoutAt(mults, level) {
			rate = dropout
		}

		n.decoders = append(n.decoders, NewDecoderBlock(dp.Sub(fmt.Sprintf("block%v", level)), chanIn, channels, rate))
		chanIn = channels * 2
	}

	// Final transposed-conv projection back to image channels.
	n.decoders = append(n.decoders, base.ConvTranspose2d(dp.Sub("proj"), chanIn, cOut, 4, 1, 2))

	return n, nil
}

// ForwardT implements ts.ModuleT for ResUNet struct.
//
// Encoder outputs are pushed onto a fixed-capacity stack; the bottleneck is
// popped off unused (it feeds the first decoder directly), the rest are
// concatenated in reverse order before each remaining decoder stage.
func (n *ResUNet) ForwardT(x *ts.Tensor, train bool) *ts.Tensor {
	cast := x.MustTotype(gotch.Float, false)

	feats := make([]*ts.Tensor, 0, len(n.encoders))
	h := cast
	for _, enc := range n.encoders {
		out := enc.ForwardT(h, train)
		feats = append(feats, out)
		h = out
	}
	cast.MustDrop()

	// Bottleneck is consumed directly, never as a skip connection.
	skips := feats[:len(feats)-1]

	if n.attn != nil {
		attended := n.attn.ForwardT(h, train)
		h.MustDrop()
		h = attended
	}

	for i, dec := range n.decoders {
		in := h
		if i != 0 {
			skip := skips[len(skips)-1]
			skips = skips[:len(skips)-1]
			in = ts.MustCat([]ts.Tensor{*h, *skip}, 1)
			skip.MustDrop()
			h.MustDrop()
		}

		out := dec.ForwardT(in, train)
		in.MustDrop()
		h = out
	}

	return h.MustTanh(true)
}
