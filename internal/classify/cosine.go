package classify

import (
	"fmt"
	"math"

	"memoria/internal/services"
)

// CosineSimilarity computes the cosine of the angle between two embedding
// vectors. Vectors must share a dimension; a zero vector scores 0.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, services.Wrap(services.ErrDimensionMismatch, "classify", "cosine",
			fmt.Sprintf("%d vs %d", len(a), len(b)), nil)
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
