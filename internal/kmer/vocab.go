// Package kmer enumerates fixed-length DNA k-mers over the ACGT alphabet
// and maps them to dense integer indices.
package kmer

import (
	"errors"
	"fmt"
)

// AlphabetSize is the number of DNA bases.
const AlphabetSize = 4

var bases = [AlphabetSize]byte{'A', 'C', 'G', 'T'}

// ErrInvalidKmer is returned by Index for strings that are not valid k-mers
// over {A,C,G,T} of the vocabulary's length. Encoding callers treat it as
// "skip this window" rather than propagating it.
var ErrInvalidKmer = errors.New("kmer: invalid k-mer")

// Vocabulary maps k-mer strings to indices in [0, 4^k) and back. The mapping
// is a fixed base-4 encoding (A=0, C=1, G=2, T=3, leftmost symbol most
// significant), so lookup needs no hashing and enumeration order matches the
// recursive generation order.
type Vocabulary struct {
	k    int
	size int
}

// NewVocabulary creates a vocabulary for k-mers of length k.
// k must be in [1, 15] so 4^k fits comfortably in an int.
func NewVocabulary(k int) (*Vocabulary, error) {
	if k < 1 || k > 15 {
		return nil, fmt.Errorf("kmer: length %d out of range [1,15]", k)
	}
	size := 1
	for i := 0; i < k; i++ {
		size *= AlphabetSize
	}
	return &Vocabulary{k: k, size: size}, nil
}

// K returns the k-mer length.
func (v *Vocabulary) K() int { return v.k }

// Size returns 4^k, the number of distinct k-mers.
func (v *Vocabulary) Size() int { return v.size }

// Index returns the dense index of the given k-mer. It fails with
// ErrInvalidKmer if the string has the wrong length or contains a symbol
// outside {A,C,G,T}.
func (v *Vocabulary) Index(kmer string) (int, error) {
	if len(kmer) != v.k {
		return 0, ErrInvalidKmer
	}
	idx := 0
	for i := 0; i < len(kmer); i++ {
		d, ok := baseDigit(kmer[i])
		if !ok {
			return 0, ErrInvalidKmer
		}
		idx = idx*AlphabetSize + d
	}
	return idx, nil
}

// At returns the k-mer string for the given index. It panics if the index
// is out of [0, Size()).
func (v *Vocabulary) At(idx int) string {
	if idx < 0 || idx >= v.size {
		panic("kmer: index out of range")
	}
	buf := make([]byte, v.k)
	for i := v.k - 1; i >= 0; i-- {
		buf[i] = bases[idx%AlphabetSize]
		idx /= AlphabetSize
	}
	return string(buf)
}

// All returns every k-mer in index order.
// Equivalent to calling At for each index but built by recursive
// concatenation over the alphabet.
func (v *Vocabulary) All() []string {
	return Generate(v.k)
}

// Generate returns the 4^k k-mers of length k in lexicographic order over
// the base order A, C, G, T.
func Generate(k int) []string {
	if k == 1 {
		out := make([]string, AlphabetSize)
		for i, b := range bases {
			out[i] = string(b)
		}
		return out
	}
	smaller := Generate(k - 1)
	out := make([]string, 0, AlphabetSize*len(smaller))
	for _, b := range bases {
		for _, s := range smaller {
			out = append(out, string(b)+s)
		}
	}
	return out
}

func baseDigit(c byte) (int, bool) {
	switch c {
	case 'A':
		return 0, true
	case 'C':
		return 1, true
	case 'G':
		return 2, true
	case 'T':
		return 3, true
	default:
		return 0, false
	}
}
