// Package vector fuses embeddings of different modalities into one search vector.
package vector

import "math"

// Weighted is a vector with its blending weight.
type Weighted struct {
	Vector []float32
	Weight float64
}

// Of pairs a vector with a weight.
func Of(v []float32, w float64) Weighted { return Weighted{Vector: v, Weight: w} }

// Combine fuses inputs into a vector as long as the longest input.
// Each input is L2-normalized and zero-padded (or truncated) to that length,
// the weighted sum is taken, and the sum is normalized again.
// All-zero input yields a zero vector of the target length.
func Combine(inputs ...Weighted) []float32 {
	dim := 0
	for _, in := range inputs {
		dim = max(dim, len(in.Vector))
	}
	return CombineTo(dim, inputs...)
}

// CombineTo is Combine with an explicit target length.
func CombineTo(dim int, inputs ...Weighted) []float32 {
	if dim <= 0 {
		return []float32{}
	}

	acc := make([]float64, dim)
	for _, in := range inputs {
		if in.Weight == 0 {
			continue
		}
		n := Norm(in.Vector)
		if n == 0 {
			continue
		}
		// normalized over the full input; a truncated tail is simply lost
		limit := min(dim, len(in.Vector))
		scale := in.Weight / n
		for i := 0; i < limit; i++ {
			acc[i] += float64(in.Vector[i]) * scale
		}
	}

	return normalized(acc)
}

// Normalize returns a unit-length copy of v. A zero vector stays zero.
func Normalize(v []float32) []float32 {
	acc := make([]float64, len(v))
	for i, x := range v {
		acc[i] = float64(x)
	}
	return normalized(acc)
}

// Fit returns a copy of v zero-padded or truncated to dim.
func Fit(v []float32, dim int) []float32 {
	out := make([]float32, max(dim, 0))
	copy(out, v)
	return out
}

// Zero returns a zero vector of the given length.
func Zero(dim int) []float32 { return make([]float32, max(dim, 0)) }

// IsZero reports whether every component is zero. Empty vectors are zero.
func IsZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Norm returns the L2 norm of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func normalized(acc []float64) []float32 {
	var sum float64
	for _, x := range acc {
		sum += x * x
	}
	out := make([]float32, len(acc))
	if sum == 0 {
		return out
	}
	n := math.Sqrt(sum)
	for i, x := range acc {
		out[i] = float32(x / n)
	}
	return out
}
