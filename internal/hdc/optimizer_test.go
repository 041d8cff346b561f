package hdc

import (
	"math"
	"testing"
)

// At t=1 the bias corrections cancel exactly: m̂=g, v̂=g², so the update is
// lr·g/(|g|+ε), i.e. lr·sign(g) up to ε.
func TestAdamFirstStepClosedForm(t *testing.T) {
	grad := []float32{1.0, -2.0, 0.5}
	param := []float32{0, 0, 0}
	lr := float32(0.001)

	opt := NewAdam(len(param), lr)
	opt.Update(param, grad)

	for i, g := range grad {
		want := -lr * g / (float32(math.Abs(float64(g))) + adamEps)
		if math.Abs(float64(param[i]-want)) > 1e-6 {
			t.Fatalf("param[%d] = %v, want %v (lr*sign(g))", i, param[i], want)
		}
	}
}

func TestAdamMomentAccumulators(t *testing.T) {
	grad := []float32{1.0, -2.0}
	param := []float32{0, 0}
	opt := NewAdam(2, 0.001)
	opt.Update(param, grad)

	// m = 0.1*g, v = 0.001*g^2 after the first step.
	for i, g := range grad {
		if math.Abs(float64(opt.m[i]-0.1*g)) > 1e-6 {
			t.Fatalf("m[%d] = %v, want %v", i, opt.m[i], 0.1*g)
		}
		if math.Abs(float64(opt.v[i]-0.001*g*g)) > 1e-6 {
			t.Fatalf("v[%d] = %v, want %v", i, opt.v[i], 0.001*g*g)
		}
	}
}

func TestAdamStepCounter(t *testing.T) {
	param := []float32{0}
	opt := NewAdam(1, 0.01)
	for i := 1; i <= 3; i++ {
		opt.Update(param, []float32{1})
		if opt.t != i {
			t.Fatalf("t = %d after %d updates", opt.t, i)
		}
	}
}

// Two rows updated under one shared step see the same bias correction,
// because the counter advances per gradient application, not per row.
func TestRowAdamSharedCounter(t *testing.T) {
	opt := newRowAdam(2, 3)
	grad := []float32{1, -1, 0.5}
	rowA := []float32{0, 0, 0}
	rowB := []float32{0, 0, 0}

	opt.step()
	if opt.t != 1 {
		t.Fatalf("t = %d after one step, want 1", opt.t)
	}
	opt.updateRow(rowA, 0, grad, 0.01)
	opt.updateRow(rowB, 1, grad, 0.01)
	if opt.t != 1 {
		t.Fatalf("updateRow must not advance the shared counter, t = %d", opt.t)
	}
	for i := range rowA {
		if rowA[i] != rowB[i] {
			t.Fatal("rows updated under the same step must move identically for identical gradients")
		}
	}
}

func TestRowAdamFirstStepClosedForm(t *testing.T) {
	opt := newRowAdam(1, 2)
	grad := []float32{1.0, -2.0}
	row := []float32{0, 0}
	lr := float32(0.001)

	opt.step()
	opt.updateRow(row, 0, grad, lr)

	for i, g := range grad {
		want := -lr * g / (float32(math.Abs(float64(g))) + adamEps)
		if math.Abs(float64(row[i]-want)) > 1e-6 {
			t.Fatalf("row[%d] = %v, want %v", i, row[i], want)
		}
	}
}

func TestRowAdamLaterStepsDiffer(t *testing.T) {
	opt := newRowAdam(1, 1)
	grad := []float32{1}
	row := []float32{0}

	opt.step()
	opt.updateRow(row, 0, grad, 0.01)
	first := row[0]

	opt.step()
	opt.updateRow(row, 0, grad, 0.01)
	second := row[0] - first

	if first == second {
		t.Fatal("bias correction should change the step size between t=1 and t=2")
	}
}
