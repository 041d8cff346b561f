package hdc

import "math/rand"

var augmentBases = [4]byte{'A', 'C', 'G', 'T'}

// Augment returns a copy of seq where each position is independently
// replaced by a uniformly random base with probability rate. The length is
// always preserved, so a small rate keeps the perturbation label-preserving;
// this is how positive pairs for contrastive pretraining are produced.
func Augment(seq string, rate float32, rng *rand.Rand) string {
	b := []byte(seq)
	for i := range b {
		if rng.Float32() < rate {
			b[i] = augmentBases[rng.Intn(len(augmentBases))]
		}
	}
	return string(b)
}
