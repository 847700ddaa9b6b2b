package fetch

import "testing"

func isPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make(map[int]bool, n)
	for _, idx := range order {
		if idx < 0 || idx >= n || seen[idx] {
			return false
		}
		seen[idx] = true
	}
	return true
}

func TestShuffleRotation_Permutation(t *testing.T) {
	s := NewShuffleRotation()
	for _, n := range []int{0, 1, 3, 10} {
		if order := s.Order(n); !isPermutation(order, n) {
			t.Errorf("Order(%d) is not a permutation: %v", n, order)
		}
	}
}

func TestShuffleRotation_SeededDeterminism(t *testing.T) {
	a := NewShuffleRotationSeeded(42).Order(8)
	b := NewShuffleRotationSeeded(42).Order(8)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different orders: %v vs %v", a, b)
		}
	}
}

func TestFixedRotation_Order(t *testing.T) {
	order := FixedRotation{}.Order(4)
	for i, idx := range order {
		if idx != i {
			t.Fatalf("expected declaration order, got %v", order)
		}
	}
}
