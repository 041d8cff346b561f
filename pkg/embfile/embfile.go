// Package embfile reads and writes the JSON interchange files for trained
// models: the k-mer embedding table and, separately, the fine-tuned
// classifier head. The table format is stable and self-describing, so
// embeddings can be inspected or consumed outside this codebase.
package embfile

import (
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"

	"github.com/seqvec/helix/internal/hdc"
)

// Table is the on-disk form of an embedding table.
type Table struct {
	KmerLength int                  `json:"kmer_length"`
	Dimension  int                  `json:"dimension"`
	Embeddings map[string][]float32 `json:"embeddings"`
}

// Classifier is the on-disk form of the MLP head.
type Classifier struct {
	InputDim  int         `json:"input_dim"`
	HiddenDim int         `json:"hidden_dim"`
	OutputDim int         `json:"output_dim"`
	W1        [][]float32 `json:"W1"`
	B1        []float32   `json:"b1"`
	W2        [][]float32 `json:"W2"`
	B2        []float32   `json:"b2"`
}

// WriteTable serialises the model's embedding table to w.
func WriteTable(w io.Writer, m *hdc.Model) error {
	t := Table{
		KmerLength: m.KmerLength(),
		Dimension:  m.Dim(),
		Embeddings: m.EmbeddingMap(),
	}
	enc := json.NewEncoder(w)
	return enc.Encode(t)
}

// ReadTable parses and validates an embedding table.
func ReadTable(r io.Reader) (Table, error) {
	var t Table
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return Table{}, fmt.Errorf("embfile: decode table: %w", err)
	}
	if t.KmerLength <= 0 || t.Dimension <= 0 {
		return Table{}, fmt.Errorf("%w: kmer_length=%d dimension=%d", ErrBadHeader, t.KmerLength, t.Dimension)
	}
	for k, vec := range t.Embeddings {
		if len(vec) != t.Dimension {
			return Table{}, fmt.Errorf("%w: %q has %d values, want %d", ErrDimMismatch, k, len(vec), t.Dimension)
		}
	}
	return t, nil
}

// Model reconstructs an encode-only model from the table.
func (t Table) Model() (*hdc.Model, error) {
	return hdc.NewFromEmbeddings(t.KmerLength, t.Dimension, t.Embeddings)
}

// WriteClassifier serialises the model's fine-tuned head to w. It fails
// if the model has not been fine-tuned.
func WriteClassifier(w io.Writer, m *hdc.Model) error {
	p, ok := m.ClassifierParams()
	if !ok {
		return hdc.ErrNotFitted
	}
	c := Classifier{
		InputDim:  p.InputDim,
		HiddenDim: p.HiddenDim,
		OutputDim: p.OutputDim,
		W1:        p.W1,
		B1:        p.B1,
		W2:        p.W2,
		B2:        p.B2,
	}
	return json.NewEncoder(w).Encode(c)
}

// ReadClassifier parses a classifier file. Shape validation happens when
// the weights are installed on a model.
func ReadClassifier(r io.Reader) (Classifier, error) {
	var c Classifier
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return Classifier{}, fmt.Errorf("embfile: decode classifier: %w", err)
	}
	if c.InputDim <= 0 || c.HiddenDim <= 0 || c.OutputDim <= 0 {
		return Classifier{}, fmt.Errorf("%w: dims (%d,%d,%d)", ErrBadHeader, c.InputDim, c.HiddenDim, c.OutputDim)
	}
	return c, nil
}

// Apply installs the classifier weights on a model, making it
// predict-ready.
func (c Classifier) Apply(m *hdc.Model) error {
	return m.SetClassifier(hdc.ClassifierParams{
		InputDim:  c.InputDim,
		HiddenDim: c.HiddenDim,
		OutputDim: c.OutputDim,
		W1:        c.W1,
		B1:        c.B1,
		W2:        c.W2,
		B2:        c.B2,
	})
}

// SaveModel writes the embedding table to embPath and, when clfPath is
// non-empty and the model is fitted, the classifier head to clfPath.
func SaveModel(embPath, clfPath string, m *hdc.Model) error {
	if err := writeFile(embPath, func(w io.Writer) error { return WriteTable(w, m) }); err != nil {
		return err
	}
	if clfPath == "" || !m.Fitted() {
		return nil
	}
	return writeFile(clfPath, func(w io.Writer) error { return WriteClassifier(w, m) })
}

// LoadModel reconstructs a model from an embedding table file and,
// when clfPath is non-empty, a classifier file. With no classifier the
// model can encode but not predict.
func LoadModel(embPath, clfPath string) (*hdc.Model, error) {
	f, err := os.Open(embPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	t, err := ReadTable(f)
	if err != nil {
		return nil, err
	}
	m, err := t.Model()
	if err != nil {
		return nil, err
	}

	if clfPath == "" {
		return m, nil
	}
	cf, err := os.Open(clfPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cf.Close() }()

	c, err := ReadClassifier(cf)
	if err != nil {
		return nil, err
	}
	if err := c.Apply(m); err != nil {
		return nil, err
	}
	return m, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
