package hdc

import "fmt"

// ClassifierParams is the portable form of the fine-tuned MLP head,
// row-major nested slices so it serialises naturally.
type ClassifierParams struct {
	InputDim  int
	HiddenDim int
	OutputDim int
	W1        [][]float32
	B1        []float32
	W2        [][]float32
	B2        []float32
}

// ClassifierParams returns a copy of the classifier weights, or false if
// the model has not been fine-tuned.
func (m *Model) ClassifierParams() (ClassifierParams, bool) {
	if m.clf == nil {
		return ClassifierParams{}, false
	}
	c := m.clf
	p := ClassifierParams{
		InputDim:  c.dim,
		HiddenDim: c.hidden,
		OutputDim: c.classes,
		W1:        copyRows(c.w1.R, c.w1.C, c.w1.Data),
		B1:        append([]float32(nil), c.b1...),
		W2:        copyRows(c.w2.R, c.w2.C, c.w2.Data),
		B2:        append([]float32(nil), c.b2...),
	}
	return p, true
}

// SetClassifier installs previously exported classifier weights, making
// the model predict-ready without training. Dimensions must match the
// model's configuration.
func (m *Model) SetClassifier(p ClassifierParams) error {
	if p.InputDim != m.cfg.Dim {
		return fmt.Errorf("hdc: classifier input dim %d does not match model dim %d", p.InputDim, m.cfg.Dim)
	}
	if p.HiddenDim <= 0 || p.OutputDim < 2 {
		return fmt.Errorf("hdc: invalid classifier shape (%d,%d,%d)", p.InputDim, p.HiddenDim, p.OutputDim)
	}
	if len(p.W1) != p.InputDim || len(p.B1) != p.HiddenDim ||
		len(p.W2) != p.HiddenDim || len(p.B2) != p.OutputDim {
		return fmt.Errorf("hdc: classifier weight shapes do not match declared dims")
	}

	clf := newClassifier(p.InputDim, p.HiddenDim, p.OutputDim, m.cfg.FinetuneLR, m.rng)
	for i, row := range p.W1 {
		if len(row) != p.HiddenDim {
			return fmt.Errorf("hdc: W1 row %d has %d values, want %d", i, len(row), p.HiddenDim)
		}
		copy(clf.w1.Row(i), row)
	}
	copy(clf.b1, p.B1)
	for i, row := range p.W2 {
		if len(row) != p.OutputDim {
			return fmt.Errorf("hdc: W2 row %d has %d values, want %d", i, len(row), p.OutputDim)
		}
		copy(clf.w2.Row(i), row)
	}
	copy(clf.b2, p.B2)

	m.cfg.NumClasses = p.OutputDim
	m.cfg.Hidden = p.HiddenDim
	m.clf = clf
	return nil
}

func copyRows(r, c int, data []float32) [][]float32 {
	out := make([][]float32, r)
	for i := 0; i < r; i++ {
		row := make([]float32, c)
		copy(row, data[i*c:(i+1)*c])
		out[i] = row
	}
	return out
}
