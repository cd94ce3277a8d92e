package chatpod

import "gonum.org/v1/gonum/floats"

// CosineDistance returns 1 - cos(a, b), the same measure as pgvector's <=> operator.
// ok is false when the vectors differ in length or either has zero norm.
func CosineDistance(a, b []float32) (distance float64, ok bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	x, y := toFloat64(a), toFloat64(b)
	norm := floats.Norm(x, 2) * floats.Norm(y, 2)
	if norm == 0 {
		return 0, false
	}
	return 1 - floats.Dot(x, y)/norm, true
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}
