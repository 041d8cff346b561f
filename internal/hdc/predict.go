package hdc

import (
	"errors"

	"github.com/seqvec/helix/internal/tensor"
)

// ErrNotFitted is returned by the predict methods when the classifier head
// has never been initialised, i.e. Finetune was not run.
var ErrNotFitted = errors.New("hdc: model not fitted")

// Predict returns the argmax class label for each sequence.
func (m *Model) Predict(seqs []string) ([]int, error) {
	if m.clf == nil {
		return nil, ErrNotFitted
	}
	x := m.EncodeBatch(seqs)
	out := make([]int, len(seqs))
	scores := make([]float32, m.cfg.NumClasses)
	for b := 0; b < x.R; b++ {
		m.clf.logits(x.Row(b), scores)
		best := 0
		for j := 1; j < len(scores); j++ {
			if scores[j] > scores[best] {
				best = j
			}
		}
		out[b] = best
	}
	return out, nil
}

// PredictProba returns the softmax class distribution for each sequence,
// one row per input.
func (m *Model) PredictProba(seqs []string) (tensor.Mat, error) {
	if m.clf == nil {
		return tensor.Mat{}, ErrNotFitted
	}
	x := m.EncodeBatch(seqs)
	out := tensor.NewMat(len(seqs), m.cfg.NumClasses)
	for b := 0; b < x.R; b++ {
		row := out.Row(b)
		m.clf.logits(x.Row(b), row)
		tensor.Softmax(row)
	}
	return out, nil
}
