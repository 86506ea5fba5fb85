package embedding

import (
	"fmt"
	"math"
)

// NormalizeVector normalizes a vector to unit length.
// Returns a new vector. If the input is a zero vector, returns a zero vector.
func NormalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	magnitude := math.Sqrt(sumSquares)

	result := make([]float32, len(v))
	// Can't normalize zero vector
	if magnitude == 0 {
		return result
	}

	for i, val := range v {
		result[i] = float32(float64(val) / magnitude)
	}
	return result
}

// UnitVector normalizes v to unit length. Unlike NormalizeVector it rejects
// vectors that cannot be normalized: empty, zero magnitude, or containing
// NaN or infinite components.
func UnitVector(v []float32) ([]float32, error) {
	if len(v) == 0 {
		return nil, fmt.Errorf("%w: empty vector", ErrDimensionMismatch)
	}
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 || math.IsNaN(sumSquares) || math.IsInf(sumSquares, 0) {
		return nil, fmt.Errorf("%w: magnitude %v", ErrDegenerateVector, math.Sqrt(sumSquares))
	}
	return NormalizeVector(v), nil
}
