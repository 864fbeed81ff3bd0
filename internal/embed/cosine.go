// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import "math"

// Cosine returns the cosine similarity of two vectors. Mismatched lengths
// and zero vectors score 0, so malformed stored embeddings rank last
// instead of failing the scan.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
