package vmath

import (
	"math"
	"testing"
)

func almostEqual(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func TestAddSubScale(t *testing.T) {
	a := New(1, 2, 3)
	b := New(4, -2, 0.5)

	sum := a.Add(b)
	if sum != (Float3{5, 0, 3.5}) {
		t.Errorf("Add: got %+v", sum)
	}

	diff := a.Sub(b)
	if diff != (Float3{-3, 4, 2.5}) {
		t.Errorf("Sub: got %+v", diff)
	}

	scaled := a.Scale(2)
	if scaled != (Float3{2, 4, 6}) {
		t.Errorf("Scale: got %+v", scaled)
	}
}

func TestLength(t *testing.T) {
	v := New(3, 4, 0)
	if !almostEqual(v.Length(), 5) {
		t.Errorf("Length: got %v, want 5", v.Length())
	}
	if !almostEqual(v.SqLength(), 25) {
		t.Errorf("SqLength: got %v, want 25", v.SqLength())
	}
}

func TestSafeNormalize(t *testing.T) {
	v := New(0, 10, 0).SafeNormalize()
	if !almostEqual(v.Y, 1) || v.X != 0 || v.Z != 0 {
		t.Errorf("SafeNormalize: got %+v", v)
	}

	// The zero vector must stay zero rather than become NaN.
	z := Float3{}.SafeNormalize()
	if z != (Float3{}) {
		t.Errorf("SafeNormalize zero: got %+v", z)
	}
}
