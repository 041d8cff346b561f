package hdc

import (
	"math"

	"github.com/seqvec/helix/internal/tensor"
)

const (
	adamBeta1 = 0.9
	adamBeta2 = 0.999
	adamEps   = 1e-8
)

// Adam implements the Adam update rule for a single dense parameter
// tensor, with its own moment accumulators and step counter.
type Adam struct {
	LR float32

	m, v []float32
	t    int
}

// NewAdam creates optimizer state for a parameter of the given size.
func NewAdam(size int, lr float32) *Adam {
	return &Adam{
		LR: lr,
		m:  make([]float32, size),
		v:  make([]float32, size),
	}
}

// Update applies one Adam step to param in place.
func (o *Adam) Update(param, grad []float32) {
	o.t++
	c1 := float32(1 - math.Pow(adamBeta1, float64(o.t)))
	c2 := float32(1 - math.Pow(adamBeta2, float64(o.t)))
	for i := range param {
		g := grad[i]
		o.m[i] = adamBeta1*o.m[i] + (1-adamBeta1)*g
		o.v[i] = adamBeta2*o.v[i] + (1-adamBeta2)*g*g
		mHat := o.m[i] / c1
		vHat := o.v[i] / c2
		param[i] -= o.LR * mHat / (float32(math.Sqrt(float64(vHat))) + adamEps)
	}
}

// rowAdam applies Adam-style updates to individual embedding table rows.
// Moment accumulators are shaped like the table, but the step counter is
// shared across all rows and advanced once per gradient application, not
// per row. Canonical Adam would keep a counter per row; the shared counter
// reproduces the numerics the embeddings were trained with and is kept on
// purpose. The learning rate is supplied per call because pretraining and
// fine-tuning drive the same state at different rates.
type rowAdam struct {
	m, v tensor.Mat
	t    int
}

func newRowAdam(rows, cols int) *rowAdam {
	return &rowAdam{
		m: tensor.NewMat(rows, cols),
		v: tensor.NewMat(rows, cols),
	}
}

// step advances the shared counter. Called once per batch before the
// per-sample row updates.
func (o *rowAdam) step() { o.t++ }

// updateRow applies one Adam step to a single embedding row using the
// shared counter. step must have been called at least once.
func (o *rowAdam) updateRow(param []float32, row int, grad []float32, lr float32) {
	c1 := float32(1 - math.Pow(adamBeta1, float64(o.t)))
	c2 := float32(1 - math.Pow(adamBeta2, float64(o.t)))
	mRow := o.m.Row(row)
	vRow := o.v.Row(row)
	for i := range param {
		g := grad[i]
		mRow[i] = adamBeta1*mRow[i] + (1-adamBeta1)*g
		vRow[i] = adamBeta2*vRow[i] + (1-adamBeta2)*g*g
		mHat := mRow[i] / c1
		vHat := vRow[i] / c2
		param[i] -= lr * mHat / (float32(math.Sqrt(float64(vHat))) + adamEps)
	}
}
