package core

import (
	"math"
	"testing"
)

func TestNormalizeVector(t *testing.T) {
	v := NormalizeVector([]float32{3, 4})
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("expected [0.6 0.8], got %v", v)
	}

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if math.Abs(math.Sqrt(sum)-1.0) > 1e-6 {
		t.Errorf("expected unit length, got %f", math.Sqrt(sum))
	}
}

func TestNormalizeVector_ZeroVector(t *testing.T) {
	v := NormalizeVector([]float32{0, 0, 0})
	for i, x := range v {
		if x != 0 {
			t.Errorf("index %d: expected 0, got %f", i, x)
		}
	}
}

func TestNormalizeVector_Empty(t *testing.T) {
	if got := NormalizeVector(nil); len(got) != 0 {
		t.Errorf("expected empty, got %v", got)
	}
}
