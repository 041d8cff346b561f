package hdc

import (
	"math/rand"
	"strings"
	"testing"
)

func TestAugmentPreservesLength(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	seq := "ACGTACGTACGTACGT"
	for i := 0; i < 50; i++ {
		out := Augment(seq, 0.5, rng)
		if len(out) != len(seq) {
			t.Fatalf("Augment changed length: %d -> %d", len(seq), len(out))
		}
	}
}

func TestAugmentZeroRate(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	seq := "ACGTACGT"
	if out := Augment(seq, 0, rng); out != seq {
		t.Fatalf("Augment with rate 0 = %q, want unchanged", out)
	}
}

func TestAugmentAlphabet(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	out := Augment(strings.Repeat("A", 200), 1.0, rng)
	for i := 0; i < len(out); i++ {
		switch out[i] {
		case 'A', 'C', 'G', 'T':
		default:
			t.Fatalf("Augment produced invalid base %q", out[i])
		}
	}
	if out == strings.Repeat("A", 200) {
		t.Fatal("rate 1.0 over 200 positions should mutate something")
	}
}

func TestAugmentDeterministicWithSeed(t *testing.T) {
	seq := "ACGTACGTACGT"
	a := Augment(seq, 0.3, rand.New(rand.NewSource(5)))
	b := Augment(seq, 0.3, rand.New(rand.NewSource(5)))
	if a != b {
		t.Fatal("Augment with identical rng state must be deterministic")
	}
}
