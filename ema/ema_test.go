package ema_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/jarrahkula/pix2pix/ema"
)

// setVar overwrites every element of a stored variable.
func setVar(vs *nn.VarStore, name string, val float64) {
	vars := vs.Variables()
	v, ok := vars[name]
	if !ok {
		panic("missing variable: " + name)
	}

	ts.NoGrad(func() {
		src := ts.MustOnes(v.MustSize(), gotch.Float, gotch.CPU).
			MustMul1(ts.FloatScalar(val), true)
		v.Copy_(src)
		src.MustDrop()
	})
}

func varValue(vs *nn.VarStore, name string) float64 {
	vars := vs.Variables()
	v := vars[name]

	return v.Float64Values()[0]
}

func TestEMAInvalidDecay(t *testing.T) {
	vs := nn.NewVarStore(gotch.CPU)

	_, err := ema.New(vs, 0)
	require.Error(t, err)

	_, err = ema.New(vs, 1)
	require.Error(t, err)
}

func TestEMARecurrence(t *testing.T) {
	const decay = 0.9

	vs := nn.NewVarStore(gotch.CPU)
	vs.Root().Zeros("w", []int64{4})

	avg, err := ema.New(vs, decay)
	require.NoError(t, err)

	// First step snapshots the live weights.
	setVar(vs, "w", 1)
	avg.Step()
	require.InDelta(t, 1.0, avg.Shadow("w").Float64Values()[0], 1e-6)

	// Scripted parameter updates against the geometric-decay recurrence.
	updates := []float64{2, 3, 5, 8}
	want := 1.0
	for _, u := range updates {
		setVar(vs, "w", u)
		avg.Step()
		want = decay*want + (1-decay)*u
	}

	require.InDelta(t, want, avg.Shadow("w").Float64Values()[0], 1e-5)
}

func TestEMASwapRestoresLiveWeights(t *testing.T) {
	const decay = 0.5

	vs := nn.NewVarStore(gotch.CPU)
	vs.Root().Zeros("w", []int64{2})

	avg, err := ema.New(vs, decay)
	require.NoError(t, err)

	setVar(vs, "w", 1)
	avg.Step() // shadow = 1
	setVar(vs, "w", 3)
	avg.Step() // shadow = 2

	err = avg.Swap(func() error {
		require.InDelta(t, 2.0, varValue(vs, "w"), 1e-6)
		return nil
	})
	require.NoError(t, err)
	require.InDelta(t, 3.0, varValue(vs, "w"), 1e-6)
}

func TestEMASwapRestoresOnError(t *testing.T) {
	vs := nn.NewVarStore(gotch.CPU)
	vs.Root().Zeros("w", []int64{2})

	avg, err := ema.New(vs, 0.5)
	require.NoError(t, err)

	setVar(vs, "w", 4)
	avg.Step()
	setVar(vs, "w", 6)

	failure := errors.New("evaluation failed")
	err = avg.Swap(func() error {
		return failure
	})
	require.Equal(t, failure, err)
	require.InDelta(t, 6.0, varValue(vs, "w"), 1e-6)
}

func TestEMASwapBeforeFirstStep(t *testing.T) {
	vs := nn.NewVarStore(gotch.CPU)
	vs.Root().Zeros("w", []int64{2})

	avg, err := ema.New(vs, 0.5)
	require.NoError(t, err)

	setVar(vs, "w", 7)
	err = avg.Swap(func() error {
		require.InDelta(t, 7.0, varValue(vs, "w"), 1e-6)
		return nil
	})
	require.NoError(t, err)
}
