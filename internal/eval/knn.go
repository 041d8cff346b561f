// Package eval provides k-NN evaluation over encoded sequence vectors,
// used to compare embedding tables (for example a random table against a
// trained one) without involving the classifier head.
package eval

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/seqvec/helix/internal/tensor"
)

// Metric selects the similarity used by KNN.
type Metric int

const (
	// Cosine similarity, for continuous encodings.
	Cosine Metric = iota
	// Hamming agreement (fraction of equal components), for binary
	// encodings.
	Hamming
)

// ToDense converts a float32 row matrix into a gonum Dense.
func ToDense(m tensor.Mat) *mat.Dense {
	out := mat.NewDense(m.R, m.C, nil)
	for i := 0; i < m.R; i++ {
		row := m.Row(i)
		for j, v := range row {
			out.Set(i, j, float64(v))
		}
	}
	return out
}

func similarity(a, b []float64, metric Metric) float64 {
	switch metric {
	case Hamming:
		same := 0
		for i := range a {
			if a[i] == b[i] {
				same++
			}
		}
		return float64(same) / float64(len(a))
	default:
		na := floats.Norm(a, 2)
		nb := floats.Norm(b, 2)
		return floats.Dot(a, b) / (na*nb + 1e-10)
	}
}

// KNN labels each test row by majority vote among its k most similar
// training rows. Ties go to the lowest label.
func KNN(train *mat.Dense, trainLabels []int, test *mat.Dense, k int, metric Metric) ([]int, error) {
	nTrain, _ := train.Dims()
	if nTrain != len(trainLabels) {
		return nil, fmt.Errorf("eval: %d training rows but %d labels", nTrain, len(trainLabels))
	}
	if k < 1 {
		return nil, fmt.Errorf("eval: k must be >= 1, got %d", k)
	}
	if k > nTrain {
		k = nTrain
	}

	nTest, _ := test.Dims()
	preds := make([]int, nTest)
	sims := make([]float64, nTrain)
	order := make([]int, nTrain)

	for t := 0; t < nTest; t++ {
		tv := test.RawRowView(t)
		for i := 0; i < nTrain; i++ {
			sims[i] = similarity(train.RawRowView(i), tv, metric)
			order[i] = i
		}
		sort.Slice(order, func(a, b int) bool { return sims[order[a]] > sims[order[b]] })

		votes := map[int]int{}
		for _, i := range order[:k] {
			votes[trainLabels[i]]++
		}
		best, bestCount := 0, -1
		for label, count := range votes {
			if count > bestCount || (count == bestCount && label < best) {
				best, bestCount = label, count
			}
		}
		preds[t] = best
	}
	return preds, nil
}

// Accuracy returns the fraction of predictions matching the labels.
func Accuracy(preds, labels []int) float64 {
	if len(preds) == 0 || len(preds) != len(labels) {
		return 0
	}
	correct := 0
	for i, p := range preds {
		if p == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(preds))
}
