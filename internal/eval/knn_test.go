package eval

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/seqvec/helix/internal/tensor"
)

func TestKNNCosineSeparatesClusters(t *testing.T) {
	train := mat.NewDense(4, 2, []float64{
		1, 0,
		0.9, 0.1,
		0, 1,
		0.1, 0.9,
	})
	labels := []int{0, 0, 1, 1}
	test := mat.NewDense(2, 2, []float64{
		0.95, 0.05,
		0.05, 0.95,
	})

	preds, err := KNN(train, labels, test, 3, Cosine)
	if err != nil {
		t.Fatal(err)
	}
	if preds[0] != 0 || preds[1] != 1 {
		t.Fatalf("preds = %v, want [0 1]", preds)
	}
}

func TestKNNHamming(t *testing.T) {
	train := mat.NewDense(2, 4, []float64{
		1, 1, 0, 0,
		0, 0, 1, 1,
	})
	labels := []int{0, 1}
	test := mat.NewDense(1, 4, []float64{1, 1, 1, 0})

	preds, err := KNN(train, labels, test, 1, Hamming)
	if err != nil {
		t.Fatal(err)
	}
	if preds[0] != 0 {
		t.Fatalf("preds = %v, want [0]", preds)
	}
}

func TestKNNClampsK(t *testing.T) {
	train := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	preds, err := KNN(train, []int{0, 1}, mat.NewDense(1, 2, []float64{1, 0}), 10, Cosine)
	if err != nil {
		t.Fatal(err)
	}
	if len(preds) != 1 {
		t.Fatalf("got %d predictions, want 1", len(preds))
	}
}

func TestKNNValidatesInput(t *testing.T) {
	train := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	if _, err := KNN(train, []int{0}, train, 1, Cosine); err == nil {
		t.Error("label count mismatch should be rejected")
	}
	if _, err := KNN(train, []int{0, 1}, train, 0, Cosine); err == nil {
		t.Error("k=0 should be rejected")
	}
}

func TestAccuracy(t *testing.T) {
	if acc := Accuracy([]int{0, 1, 1, 0}, []int{0, 1, 0, 0}); acc != 0.75 {
		t.Fatalf("accuracy = %v, want 0.75", acc)
	}
	if acc := Accuracy(nil, nil); acc != 0 {
		t.Fatalf("accuracy of empty input = %v, want 0", acc)
	}
	if acc := Accuracy([]int{0}, []int{0, 1}); acc != 0 {
		t.Fatalf("mismatched lengths should score 0, got %v", acc)
	}
}

func TestToDense(t *testing.T) {
	m := tensor.NewMat(2, 3)
	for i := range m.Data {
		m.Data[i] = float32(i)
	}
	d := ToDense(m)
	r, c := d.Dims()
	if r != 2 || c != 3 {
		t.Fatalf("dims = (%d,%d), want (2,3)", r, c)
	}
	if d.At(1, 2) != 5 {
		t.Fatalf("d[1][2] = %v, want 5", d.At(1, 2))
	}
}
