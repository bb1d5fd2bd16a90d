// Package ema maintains an exponential moving average of model weights.
//
// A shadow copy of every trainable variable is refreshed after each
// optimization step; evaluation and export run against the shadow weights
// through a scoped swap that always restores the live weights.
package ema

import (
	"fmt"

	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"
)

// DefaultDecay is the conventional EMA decay constant.
const DefaultDecay = 0.9999

// EMA tracks shadow weights for every variable of a VarStore. The shadow
// set is initialized lazily from the live weights on the first Step call.
type EMA struct {
	vs     *nn.VarStore
	decay  float64
	shadow map[string]*ts.Tensor
}

// New creates an EMA callback over a VarStore.
func New(vs *nn.VarStore, decay float64) (*EMA, error) {
	if decay <= 0 || decay >= 1 {
		return nil, fmt.Errorf("Invalid EMA decay (%v): want value in (0, 1)", decay)
	}

	return &EMA{
		vs:    vs,
		decay: decay,
	}, nil
}

// clone copies a variable into a fresh gradient-free tensor.
func clone(v *ts.Tensor) *ts.Tensor {
	detached := v.MustDetach(false)
	copied := detached.MustZerosLike(false)
	copied.Copy_(detached)
	detached.MustDrop()

	return copied
}

// Step updates every shadow weight as decay*shadow + (1-decay)*live. The
// first call snapshots the live weights instead.
func (e *EMA) Step() {
	ts.NoGrad(func() {
		vars := e.vs.Variables()

		if e.shadow == nil {
			e.shadow = make(map[string]*ts.Tensor, len(vars))
			for name := range vars {
				v := vars[name]
				e.shadow[name] = clone(v)
			}
			return
		}

		for name := range vars {
			v := vars[name]
			sh, ok := e.shadow[name]
			if !ok {
				e.shadow[name] = clone(v)
				continue
			}

			live := v.MustDetach(false)
			update := live.MustMul1(ts.FloatScalar(1-e.decay), true)
			next := sh.MustMul1(ts.FloatScalar(e.decay), true)
			e.shadow[name] = next.MustAdd(update, true)
			update.MustDrop()
		}
	})
}

// Shadow returns the current shadow weight for a variable name, or nil when
// the callback has not been stepped yet.
func (e *EMA) Shadow(name string) *ts.Tensor {
	if e.shadow == nil {
		return nil
	}

	return e.shadow[name]
}

// Swap installs the shadow weights, runs fn, and restores the live weights
// on every exit path. Before the first Step it runs fn on live weights
// unchanged.
func (e *EMA) Swap(fn func() error) error {
	if e.shadow == nil {
		return fn()
	}

	saved := make(map[string]*ts.Tensor, len(e.shadow))
	ts.NoGrad(func() {
		vars := e.vs.Variables()
		for name := range vars {
			v := vars[name]
			sh, ok := e.shadow[name]
			if !ok {
				continue
			}
			saved[name] = clone(v)
			v.Copy_(sh)
		}
	})

	defer func() {
		ts.NoGrad(func() {
			vars := e.vs.Variables()
			for name, live := range saved {
				v, ok := vars[name]
				if ok {
					v.Copy_(live)
				}
				live.MustDrop()
			}
		})
	}()

	return fn()
}

// Drop releases the shadow tensors.
func (e *EMA) Drop() {
	for name, sh := range e.shadow {
		sh.MustDrop()
		delete(e.shadow, name)
	}
	e.shadow = nil
}
