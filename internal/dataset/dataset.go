// Package dataset provides synthetic DNA classification datasets for
// training and evaluation, plus a minimal FASTA reader for real input.
// Generators are deterministic for a given seed.
package dataset

import (
	"math/rand"
	"strings"
)

var bases = [4]byte{'A', 'C', 'G', 'T'}

// Set is a labeled sequence collection.
type Set struct {
	Seqs   []string
	Labels []int
}

// Len returns the number of samples.
func (s Set) Len() int { return len(s.Seqs) }

// Classes returns the number of distinct labels, assuming labels are
// dense in [0, max].
func (s Set) Classes() int {
	max := -1
	for _, l := range s.Labels {
		if l > max {
			max = l
		}
	}
	return max + 1
}

// Split partitions the set into train/validation/test by the given
// fractions; the remainder after train and val becomes the test split.
func (s Set) Split(trainFrac, valFrac float64) (train, val, test Set) {
	n := s.Len()
	nTrain := int(float64(n) * trainFrac)
	nVal := int(float64(n) * valFrac)
	if nTrain+nVal > n {
		nVal = n - nTrain
	}
	train = Set{s.Seqs[:nTrain], s.Labels[:nTrain]}
	val = Set{s.Seqs[nTrain : nTrain+nVal], s.Labels[nTrain : nTrain+nVal]}
	test = Set{s.Seqs[nTrain+nVal:], s.Labels[nTrain+nVal:]}
	return train, val, test
}

func (s Set) shuffle(rng *rand.Rand) Set {
	perm := rng.Perm(s.Len())
	out := Set{
		Seqs:   make([]string, s.Len()),
		Labels: make([]int, s.Len()),
	}
	for i, p := range perm {
		out.Seqs[i] = s.Seqs[p]
		out.Labels[i] = s.Labels[p]
	}
	return out
}

func randomSeq(rng *rand.Rand, length int) []byte {
	seq := make([]byte, length)
	for i := range seq {
		seq[i] = bases[rng.Intn(4)]
	}
	return seq
}

func plant(seq []byte, motif string, pos int) {
	for j := 0; j < len(motif) && pos+j < len(seq); j++ {
		seq[pos+j] = motif[j]
	}
}

// Promoter generates a binary promoter-detection dataset. Positive
// sequences carry a TATA box at a random position in [20,30), sometimes
// a CAAT box in [45,55) and sometimes a GC box in [60,70); negatives
// are uniform random. The returned set is shuffled.
func Promoter(n, seqLen int, seed int64) Set {
	rng := rand.New(rand.NewSource(seed))
	s := Set{
		Seqs:   make([]string, 0, n),
		Labels: make([]int, 0, n),
	}
	for i := 0; i < n; i++ {
		seq := randomSeq(rng, seqLen)
		label := 0
		if i < n/2 {
			label = 1
			plant(seq, "TATAAA", 20+rng.Intn(10))
			if rng.Float64() < 0.6 {
				plant(seq, "CCAAT", 45+rng.Intn(10))
			}
			if rng.Float64() < 0.3 {
				plant(seq, "GGGCGG", 60+rng.Intn(10))
			}
		}
		s.Seqs = append(s.Seqs, string(seq))
		s.Labels = append(s.Labels, label)
	}
	return s.shuffle(rng)
}

// Taxonomy generates a species-classification dataset: one random
// reference per species, each sample a per-position mutated copy of its
// reference. The returned set is shuffled.
func Taxonomy(nSpecies, perSpecies, seqLen int, mutationRate float64, seed int64) Set {
	rng := rand.New(rand.NewSource(seed))

	refs := make([][]byte, nSpecies)
	for i := range refs {
		refs[i] = randomSeq(rng, seqLen)
	}

	s := Set{
		Seqs:   make([]string, 0, nSpecies*perSpecies),
		Labels: make([]int, 0, nSpecies*perSpecies),
	}
	for species, ref := range refs {
		for j := 0; j < perSpecies; j++ {
			seq := make([]byte, len(ref))
			copy(seq, ref)
			for i := range seq {
				if rng.Float64() < mutationRate {
					seq[i] = bases[rng.Intn(4)]
				}
			}
			s.Seqs = append(s.Seqs, string(seq))
			s.Labels = append(s.Labels, species)
		}
	}
	return s.shuffle(rng)
}

// SpliceSites generates a three-class dataset: random negatives (0),
// donor sites with GT and a MAG consensus at the window center (1), and
// acceptor sites with AG behind a pyrimidine-rich tract (2). The
// returned set is shuffled.
func SpliceSites(n, window int, seed int64) Set {
	rng := rand.New(rand.NewSource(seed))
	center := window / 2

	s := Set{
		Seqs:   make([]string, 0, n),
		Labels: make([]int, 0, n),
	}
	for i := 0; i < n; i++ {
		label := i % 3
		seq := randomSeq(rng, window)
		switch label {
		case 1:
			seq[center] = 'G'
			if center+1 < window {
				seq[center+1] = 'T'
			}
			if center >= 3 {
				seq[center-3] = bases[rng.Intn(2)] // A or C
				seq[center-2] = 'A'
				seq[center-1] = 'G'
			}
		case 2:
			seq[center] = 'A'
			if center+1 < window {
				seq[center+1] = 'G'
			}
			start := center - 15
			if start < 0 {
				start = 0
			}
			for j := start; j < center; j++ {
				if rng.Intn(4) == 0 {
					seq[j] = 'C'
				} else {
					seq[j] = 'T'
				}
			}
		}
		s.Seqs = append(s.Seqs, string(seq))
		s.Labels = append(s.Labels, label)
	}
	return s.shuffle(rng)
}

// ByName returns the named generator with its default shape, used by the
// CLI's --dataset flag.
func ByName(name string, n int, seed int64) (Set, bool) {
	switch strings.ToLower(name) {
	case "promoter":
		return Promoter(n, 100, seed), true
	case "taxonomy":
		perSpecies := n / 10
		if perSpecies < 1 {
			perSpecies = 1
		}
		return Taxonomy(10, perSpecies, 200, 0.05, seed), true
	case "splice":
		return SpliceSites(n, 80, seed), true
	}
	return Set{}, false
}
