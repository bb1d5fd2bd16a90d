package unet_test

import (
	"reflect"
	"testing"

	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/jarrahkula/pix2pix/unet"
)

func TestEncoderBlockHalvesSpatialDims(t *testing.T) {
	vs := nn.NewVarStore(gotch.CPU)
	block := unet.NewEncoderBlock(vs.Root(), 3, 8, true)

	x := ts.MustRand([]int64{2, 3, 16, 16}, gotch.Float, gotch.CPU)
	out := block.ForwardT(x, false)

	want := []int64{2, 8, 8, 8}
	if got := out.MustSize(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Expected shape %v. Got %v", want, got)
	}

	out.MustDrop()
	x.MustDrop()
}

func TestEncoderBlockNoNorm(t *testing.T) {
	vs := nn.NewVarStore(gotch.CPU)
	block := unet.NewEncoderBlock(vs.Root(), 4, 4, false)

	x := ts.MustRand([]int64{1, 4, 8, 8}, gotch.Float, gotch.CPU)
	out := block.ForwardT(x, false)

	want := []int64{1, 4, 4, 4}
	if got := out.MustSize(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Expected shape %v. Got %v", want, got)
	}

	out.MustDrop()
	x.MustDrop()
}

func TestDecoderBlockDoublesSpatialDims(t *testing.T) {
	vs := nn.NewVarStore(gotch.CPU)
	block := unet.NewDecoderBlock(vs.Root(), 8, 4, 0)

	x := ts.MustRand([]int64{2, 8, 8, 8}, gotch.Float, gotch.CPU)
	out := block.ForwardT(x, false)

	want := []int64{2, 4, 16, 16}
	if got := out.MustSize(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Expected shape %v. Got %v", want, got)
	}

	out.MustDrop()
	x.MustDrop()
}

func TestDecoderBlockDropoutTrain(t *testing.T) {
	vs := nn.NewVarStore(gotch.CPU)
	block := unet.NewDecoderBlock(vs.Root(), 16, 4, 0.5)

	x := ts.MustRand([]int64{2, 16, 4, 4}, gotch.Float, gotch.CPU)
	out := block.ForwardT(x, true)

	want := []int64{2, 4, 8, 8}
	if got := out.MustSize(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Expected shape %v. Got %v", want, got)
	}

	out.MustDrop()
	x.MustDrop()
}

func TestDecoderBlockDropoutInactiveInEval(t *testing.T) {
	vs := nn.NewVarStore(gotch.CPU)
	block := unet.NewDecoderBlock(vs.Root(), 8, 4, 0.5)

	x := ts.MustRand([]int64{1, 8, 4, 4}, gotch.Float, gotch.CPU)

	// Eval mode is deterministic, so two passes must agree exactly.
	out1 := block.ForwardT(x, false)
	out2 := block.ForwardT(x, false)
	diff := out1.MustSub(out2, false).MustAbs(true).MustMax(true)
	if max := diff.Float64Values()[0]; max != 0 {
		t.Fatalf("Expected identical eval outputs. Got max diff %v", max)
	}

	out1.MustDrop()
	out2.MustDrop()
	x.MustDrop()
}
