package kmer

import (
	"errors"
	"testing"
)

func TestGenerateOrder(t *testing.T) {
	got := Generate(1)
	want := []string{"A", "C", "G", "T"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Generate(1) = %v, want %v", got, want)
		}
	}

	got2 := Generate(2)
	if len(got2) != 16 {
		t.Fatalf("Generate(2) returned %d k-mers, want 16", len(got2))
	}
	if got2[0] != "AA" || got2[1] != "AC" || got2[4] != "CA" || got2[15] != "TT" {
		t.Fatalf("Generate(2) order wrong: %v", got2)
	}
}

func TestIndexRoundTrip(t *testing.T) {
	for _, k := range []int{1, 2, 3, 4} {
		v, err := NewVocabulary(k)
		if err != nil {
			t.Fatalf("NewVocabulary(%d): %v", k, err)
		}
		all := v.All()
		if len(all) != v.Size() {
			t.Fatalf("k=%d: All() returned %d k-mers, want %d", k, len(all), v.Size())
		}
		seen := make(map[int]bool, len(all))
		for i, s := range all {
			idx, err := v.Index(s)
			if err != nil {
				t.Fatalf("k=%d: Index(%q): %v", k, s, err)
			}
			if idx != i {
				t.Fatalf("k=%d: Index(%q) = %d, want %d", k, s, idx, i)
			}
			if seen[idx] {
				t.Fatalf("k=%d: duplicate index %d for %q", k, idx, s)
			}
			seen[idx] = true
			if back := v.At(idx); back != s {
				t.Fatalf("k=%d: At(%d) = %q, want %q", k, idx, back, s)
			}
		}
	}
}

func TestIndexInvalid(t *testing.T) {
	v, err := NewVocabulary(3)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"", "AC", "ACGT", "ACN", "acg", "AXG"} {
		if _, err := v.Index(s); !errors.Is(err, ErrInvalidKmer) {
			t.Errorf("Index(%q) error = %v, want ErrInvalidKmer", s, err)
		}
	}
}

func TestNewVocabularyBounds(t *testing.T) {
	if _, err := NewVocabulary(0); err == nil {
		t.Error("NewVocabulary(0) should fail")
	}
	if _, err := NewVocabulary(16); err == nil {
		t.Error("NewVocabulary(16) should fail")
	}
	v, err := NewVocabulary(6)
	if err != nil {
		t.Fatal(err)
	}
	if v.Size() != 4096 {
		t.Fatalf("Size() = %d, want 4096", v.Size())
	}
}
