// Package hdc implements a trainable hyperdimensional encoder for DNA
// sequences. Sequences are mapped to fixed-size vectors by mean-pooling
// learned k-mer embeddings; the embedding table is optimised in two stages,
// label-free contrastive pretraining followed by supervised fine-tuning
// with a small MLP head.
package hdc

import (
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"strings"
	"sync"

	"github.com/seqvec/helix/internal/kmer"
	"github.com/seqvec/helix/internal/tensor"
)

// Model owns the k-mer embedding table and, after fine-tuning, the
// classifier head. Training methods mutate the model; Encode and the
// predict methods only read and must not run concurrently with training
// on the same instance.
type Model struct {
	cfg   Config
	vocab *kmer.Vocabulary
	emb   tensor.Mat
	opt   *rowAdam
	rng   *rand.Rand
	clf   *classifier
}

// New constructs a model with a randomly initialised embedding table.
// Rows are drawn from a Gaussian with the Xavier-like scale sqrt(2/dim).
func New(cfg Config) (*Model, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	vocab, err := kmer.NewVocabulary(cfg.KmerLength)
	if err != nil {
		return nil, err
	}

	m := &Model{
		cfg:   cfg,
		vocab: vocab,
		emb:   tensor.NewMat(vocab.Size(), cfg.Dim),
		opt:   newRowAdam(vocab.Size(), cfg.Dim),
		rng:   rand.New(rand.NewSource(cfg.Seed)),
	}
	tensor.FillNorm(&m.emb, m.rng, math.Sqrt(2.0/float64(cfg.Dim)))
	return m, nil
}

// NewFromEmbeddings reconstructs an encode-only model from an exported
// k-mer embedding map. K-mers absent from the map keep zero rows. The
// resulting model can encode but not predict until fine-tuned.
func NewFromEmbeddings(kmerLength, dim int, embeddings map[string][]float32) (*Model, error) {
	cfg := DefaultConfig()
	cfg.KmerLength = kmerLength
	cfg.Dim = dim
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	vocab, err := kmer.NewVocabulary(kmerLength)
	if err != nil {
		return nil, err
	}

	m := &Model{
		cfg:   cfg,
		vocab: vocab,
		emb:   tensor.NewMat(vocab.Size(), dim),
		opt:   newRowAdam(vocab.Size(), dim),
		rng:   rand.New(rand.NewSource(cfg.Seed)),
	}
	for s, vec := range embeddings {
		idx, err := vocab.Index(s)
		if err != nil {
			return nil, fmt.Errorf("hdc: embedding key %q: %w", s, err)
		}
		if len(vec) != dim {
			return nil, fmt.Errorf("hdc: embedding %q has %d values, want %d", s, len(vec), dim)
		}
		copy(m.emb.Row(idx), vec)
	}
	return m, nil
}

// Config returns the model's hyperparameters.
func (m *Model) Config() Config { return m.cfg }

// Dim returns the hypervector dimension.
func (m *Model) Dim() int { return m.cfg.Dim }

// KmerLength returns the sliding window size.
func (m *Model) KmerLength() int { return m.cfg.KmerLength }

// Fitted reports whether the classifier head has been initialised by
// fine-tuning.
func (m *Model) Fitted() bool { return m.clf != nil }

// kmerIndices collects the vocabulary index of every valid window in the
// upper-cased sequence. Windows containing non-ACGT symbols are skipped.
func (m *Model) kmerIndices(seq string) []int {
	k := m.cfg.KmerLength
	if len(seq) < k {
		return nil
	}
	seq = strings.ToUpper(seq)
	indices := make([]int, 0, len(seq)-k+1)
	for i := 0; i+k <= len(seq); i++ {
		idx, err := m.vocab.Index(seq[i : i+k])
		if err != nil {
			continue
		}
		indices = append(indices, idx)
	}
	return indices
}

// encode mean-pools the embedding rows of the sequence's valid k-mers.
// A sequence with no valid window encodes to the zero vector. When
// normalize is set the pooled vector is divided by its Euclidean norm
// unless that norm is ~0.
func (m *Model) encode(seq string, normalize bool) ([]float32, []int) {
	out := make([]float32, m.cfg.Dim)
	indices := m.kmerIndices(seq)
	if len(indices) == 0 {
		return out, nil
	}
	for _, idx := range indices {
		tensor.Add(out, m.emb.Row(idx))
	}
	tensor.Scale(out, 1/float32(len(indices)))
	if normalize {
		if norm := tensor.Norm(out); norm > 0 {
			tensor.Scale(out, 1/norm)
		}
	}
	return out, indices
}

// Encode returns the L2-normalized hypervector for a sequence.
func (m *Model) Encode(seq string) []float32 {
	vec, _ := m.encode(seq, true)
	return vec
}

// EncodeBinary returns the elementwise sign indicator of the encoding,
// 1 where the value is positive and 0 elsewhere. Used for Hamming-style
// similarity evaluation.
func (m *Model) EncodeBinary(seq string) []float32 {
	vec, _ := m.encode(seq, true)
	for i, v := range vec {
		if v > 0 {
			vec[i] = 1
		} else {
			vec[i] = 0
		}
	}
	return vec
}

// EncodeBatch encodes sequences into the rows of a matrix. Encoding is a
// pure read of the embedding table, so rows are computed in parallel.
func (m *Model) EncodeBatch(seqs []string) tensor.Mat {
	out := tensor.NewMat(len(seqs), m.cfg.Dim)
	workers := runtime.GOMAXPROCS(0)
	if workers > len(seqs) {
		workers = len(seqs)
	}
	if workers <= 1 {
		for i, s := range seqs {
			vec, _ := m.encode(s, true)
			copy(out.Row(i), vec)
		}
		return out
	}

	var wg sync.WaitGroup
	chunk := (len(seqs) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > len(seqs) {
			end = len(seqs)
		}
		if start >= end {
			break
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				vec, _ := m.encode(seqs[i], true)
				copy(out.Row(i), vec)
			}
		}(start, end)
	}
	wg.Wait()
	return out
}

// EmbeddingMap returns a copy of the embedding table keyed by k-mer
// string, the portable form consumed by pkg/embfile.
func (m *Model) EmbeddingMap() map[string][]float32 {
	out := make(map[string][]float32, m.vocab.Size())
	for idx := 0; idx < m.vocab.Size(); idx++ {
		row := make([]float32, m.cfg.Dim)
		copy(row, m.emb.Row(idx))
		out[m.vocab.At(idx)] = row
	}
	return out
}
