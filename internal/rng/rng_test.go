package rng

import "testing"

func TestDeterminism(t *testing.T) {
	t.Run("SameSeed_SameSequence", func(t *testing.T) {
		a := New(42)
		b := New(42)
		for i := 0; i < 100; i++ {
			if a.Next() != b.Next() {
				t.Fatalf("sequences diverged at step %d", i)
			}
		}
	})

	t.Run("ZeroSeed_RemappedToOne", func(t *testing.T) {
		a := New(0)
		b := New(1)
		if a.Next() != b.Next() {
			t.Error("seed 0 should behave as seed 1")
		}
	})
}

func TestDerive(t *testing.T) {
	t.Run("DifferentSalts_IndependentStreams", func(t *testing.T) {
		a := Derive(42, 0x0101)
		b := Derive(42, 0x0102)
		same := 0
		for i := 0; i < 50; i++ {
			if a.Next() == b.Next() {
				same++
			}
		}
		if same == 50 {
			t.Error("adjacent salts produced identical streams")
		}
	})

	t.Run("DeriveSeed_NeverZero", func(t *testing.T) {
		if DeriveSeed(0, 0) == 0 {
			t.Error("derived seed must not be zero")
		}
	})

	t.Run("DeriveSeed_Stable", func(t *testing.T) {
		if DeriveSeed(12345, 0x0200) != DeriveSeed(12345, 0x0200) {
			t.Error("DeriveSeed must be a pure function")
		}
	})
}

func TestBounds(t *testing.T) {
	s := New(7)

	t.Run("Float_InHalfOpenUnit", func(t *testing.T) {
		for i := 0; i < 1000; i++ {
			f := s.Float()
			if f < 0 || f >= 1 {
				t.Fatalf("Float out of range: %v", f)
			}
		}
	})

	t.Run("IntN_InRange", func(t *testing.T) {
		for i := 0; i < 1000; i++ {
			n := s.IntN(7)
			if n < 0 || n >= 7 {
				t.Fatalf("IntN(7) out of range: %d", n)
			}
		}
	})

	t.Run("IntN_NonPositive", func(t *testing.T) {
		if s.IntN(0) != 0 {
			t.Error("IntN(0) should return 0")
		}
	})

	t.Run("Range_WithinBounds", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			v := s.Range(76, 148)
			if v < 76 || v >= 148 {
				t.Fatalf("Range(76,148) out of bounds: %v", v)
			}
		}
	})

	t.Run("Pick_EmptySlice", func(t *testing.T) {
		if s.Pick(0) != -1 {
			t.Error("Pick(0) should return -1")
		}
	})
}

func TestShuffle(t *testing.T) {
	perm := func(seed uint32) []int {
		vals := []int{0, 1, 2, 3, 4, 5, 6, 7}
		New(seed).Shuffle(len(vals), func(i, j int) {
			vals[i], vals[j] = vals[j], vals[i]
		})
		return vals
	}

	t.Run("Deterministic", func(t *testing.T) {
		a, b := perm(99), perm(99)
		for i := range a {
			if a[i] != b[i] {
				t.Fatal("same seed should give same permutation")
			}
		}
	})

	t.Run("IsPermutation", func(t *testing.T) {
		seen := map[int]bool{}
		for _, v := range perm(5) {
			if seen[v] {
				t.Fatalf("duplicate element %d", v)
			}
			seen[v] = true
		}
		if len(seen) != 8 {
			t.Fatalf("expected 8 distinct elements, got %d", len(seen))
		}
	})
}
