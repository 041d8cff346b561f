package hdc

import (
	"math"
	"math/rand"

	"github.com/seqvec/helix/internal/tensor"
)

// classifier is the two-layer MLP head trained during fine-tuning:
// h = ReLU(x·W1+b1), logits = h·W2+b2. It does not exist before
// fine-tuning starts.
type classifier struct {
	dim, hidden, classes int

	w1 tensor.Mat // (dim, hidden)
	b1 []float32
	w2 tensor.Mat // (hidden, classes)
	b2 []float32

	optW1, optB1, optW2, optB2 *Adam
}

// forwardState carries the activations one backward pass needs.
type forwardState struct {
	x     tensor.Mat // (B, dim) pooled encodings
	h     tensor.Mat // (B, hidden) pre-activation
	a     tensor.Mat // (B, hidden) ReLU(h)
	probs tensor.Mat // (B, classes) softmax output
}

// classifierGrads holds one backward pass's gradients, including dX, the
// gradient w.r.t. the pooled encodings that is propagated into the
// embedding table.
type classifierGrads struct {
	dW1 tensor.Mat
	dB1 []float32
	dW2 tensor.Mat
	dB2 []float32
	dX  tensor.Mat
}

func newClassifier(dim, hidden, classes int, lr float32, rng *rand.Rand) *classifier {
	c := &classifier{
		dim:     dim,
		hidden:  hidden,
		classes: classes,
		w1:      tensor.NewMat(dim, hidden),
		b1:      make([]float32, hidden),
		w2:      tensor.NewMat(hidden, classes),
		b2:      make([]float32, classes),
		optW1:   NewAdam(dim*hidden, lr),
		optB1:   NewAdam(hidden, lr),
		optW2:   NewAdam(hidden*classes, lr),
		optB2:   NewAdam(classes, lr),
	}
	tensor.FillNorm(&c.w1, rng, math.Sqrt(2.0/float64(dim)))
	tensor.FillNorm(&c.w2, rng, math.Sqrt(2.0/float64(hidden)))
	return c
}

// forward runs the batch through the MLP, keeping the intermediates the
// backward pass needs.
func (c *classifier) forward(x tensor.Mat) forwardState {
	n := x.R
	st := forwardState{
		x:     x,
		h:     tensor.NewMat(n, c.hidden),
		a:     tensor.NewMat(n, c.hidden),
		probs: tensor.NewMat(n, c.classes),
	}

	for b := 0; b < n; b++ {
		xRow := x.Row(b)
		hRow := st.h.Row(b)
		aRow := st.a.Row(b)
		for j := 0; j < c.hidden; j++ {
			sum := c.b1[j]
			for i := 0; i < c.dim; i++ {
				sum += xRow[i] * c.w1.At(i, j)
			}
			hRow[j] = sum
			if sum > 0 {
				aRow[j] = sum
			}
		}

		pRow := st.probs.Row(b)
		for j := 0; j < c.classes; j++ {
			sum := c.b2[j]
			for i := 0; i < c.hidden; i++ {
				sum += aRow[i] * c.w2.At(i, j)
			}
			pRow[j] = sum
		}
		tensor.Softmax(pRow)
	}
	return st
}

// logits computes the raw class scores for a single encoding.
func (c *classifier) logits(x []float32, dst []float32) {
	h := make([]float32, c.hidden)
	for j := 0; j < c.hidden; j++ {
		sum := c.b1[j]
		for i := 0; i < c.dim; i++ {
			sum += x[i] * c.w1.At(i, j)
		}
		if sum > 0 {
			h[j] = sum
		}
	}
	for j := 0; j < c.classes; j++ {
		sum := c.b2[j]
		for i := 0; i < c.hidden; i++ {
			sum += h[i] * c.w2.At(i, j)
		}
		dst[j] = sum
	}
}

// loss computes mean cross-entropy plus the 0.5*l2*(|W1|^2+|W2|^2)
// penalty for a completed forward pass.
func (c *classifier) loss(st forwardState, labels []int, l2 float32) float32 {
	n := st.x.R
	var ce float64
	for b := 0; b < n; b++ {
		p := st.probs.At(b, labels[b])
		ce -= math.Log(float64(p) + 1e-10)
	}
	ce /= float64(n)

	var reg float64
	if l2 > 0 {
		for _, v := range c.w1.Data {
			reg += float64(v) * float64(v)
		}
		for _, v := range c.w2.Data {
			reg += float64(v) * float64(v)
		}
		reg *= 0.5 * float64(l2)
	}
	return float32(ce + reg)
}

// backward runs the chain rule through the MLP for one batch. Each
// gradient pairs with the corresponding forward step:
//
//	dLogits = (probs - onehot)/B
//	dW2 = a^T·dLogits + l2*W2      dB2 = sum dLogits
//	dA  = dLogits·W2^T             dH  = dA masked by h>0
//	dW1 = x^T·dH + l2*W1           dB1 = sum dH
//	dX  = dH·W1^T
//
// It does not mutate the classifier; apply performs the updates.
func (c *classifier) backward(st forwardState, labels []int, l2 float32) classifierGrads {
	n := st.x.R
	g := classifierGrads{
		dW1: tensor.NewMat(c.dim, c.hidden),
		dB1: make([]float32, c.hidden),
		dW2: tensor.NewMat(c.hidden, c.classes),
		dB2: make([]float32, c.classes),
		dX:  tensor.NewMat(n, c.dim),
	}

	dLogits := tensor.NewMat(n, c.classes)
	invN := 1 / float32(n)
	for b := 0; b < n; b++ {
		pRow := st.probs.Row(b)
		dRow := dLogits.Row(b)
		for j := 0; j < c.classes; j++ {
			dRow[j] = pRow[j] * invN
		}
		dRow[labels[b]] -= invN
	}

	// dW2, dB2
	for b := 0; b < n; b++ {
		aRow := st.a.Row(b)
		dRow := dLogits.Row(b)
		for i := 0; i < c.hidden; i++ {
			tensor.Axpy(g.dW2.Row(i), aRow[i], dRow)
		}
		tensor.Add(g.dB2, dRow)
	}
	if l2 > 0 {
		tensor.Axpy(g.dW2.Data, l2, c.w2.Data)
	}

	// dH = (dLogits·W2^T) masked by h>0
	dH := tensor.NewMat(n, c.hidden)
	for b := 0; b < n; b++ {
		dRow := dLogits.Row(b)
		hRow := st.h.Row(b)
		dhRow := dH.Row(b)
		for i := 0; i < c.hidden; i++ {
			if hRow[i] <= 0 {
				continue
			}
			dhRow[i] = tensor.Dot(c.w2.Row(i), dRow)
		}
	}

	// dW1, dB1
	for b := 0; b < n; b++ {
		xRow := st.x.Row(b)
		dhRow := dH.Row(b)
		for i := 0; i < c.dim; i++ {
			tensor.Axpy(g.dW1.Row(i), xRow[i], dhRow)
		}
		tensor.Add(g.dB1, dhRow)
	}
	if l2 > 0 {
		tensor.Axpy(g.dW1.Data, l2, c.w1.Data)
	}

	// dX = dH·W1^T
	for b := 0; b < n; b++ {
		dhRow := dH.Row(b)
		dxRow := g.dX.Row(b)
		for i := 0; i < c.dim; i++ {
			dxRow[i] = tensor.Dot(c.w1.Row(i), dhRow)
		}
	}

	return g
}

// apply performs the Adam updates for all four tensors.
func (c *classifier) apply(g classifierGrads) {
	c.optW2.Update(c.w2.Data, g.dW2.Data)
	c.optB2.Update(c.b2, g.dB2)
	c.optW1.Update(c.w1.Data, g.dW1.Data)
	c.optB1.Update(c.b1, g.dB1)
}
