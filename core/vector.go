package core

import "math"

// NormalizeVector scales v to unit length so that dot products between
// normalized vectors equal cosine similarity. A zero vector stays zero.
func NormalizeVector(v []float32) []float32 {
	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}
	if sum == 0 {
		return v
	}

	magnitude := float32(math.Sqrt(sum))
	result := make([]float32, len(v))
	for i, val := range v {
		result[i] = val / magnitude
	}
	return result
}
