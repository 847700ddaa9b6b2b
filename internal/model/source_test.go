package model

import "testing"

func TestClampReliability(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{3.7, 1},
	}
	for _, tc := range cases {
		if got := ClampReliability(tc.in); got != tc.want {
			t.Errorf("ClampReliability(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
