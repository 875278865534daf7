package model

import (
	"fmt"
	"math"

	apperrors "learnstyle-workers/internal/common/errors"
)

// KMeans holds the fitted cluster centroids in the reduced space.
type KMeans struct {
	Centroids [][]float64 `yaml:"centroids"`
}

// Predict returns the index of the centroid nearest to x by squared
// Euclidean distance. Ties go to the lowest index. A point with no finite
// distance to any centroid cannot be assigned and is a transform error.
func (m KMeans) Predict(x []float64) (int, error) {
	if len(m.Centroids) == 0 {
		return 0, apperrors.NewShapeError("kmeans", 1, 0)
	}
	if len(x) != len(m.Centroids[0]) {
		return 0, apperrors.NewShapeError("kmeans", len(m.Centroids[0]), len(x))
	}
	best, bestDist := -1, math.Inf(1)
	for k, c := range m.Centroids {
		if d := euclidSquared(x, c); d < bestDist {
			best, bestDist = k, d
		}
	}
	if best < 0 {
		return 0, apperrors.NewTransformError("kmeans", "no finite distance to any centroid")
	}
	return best, nil
}

func euclidSquared(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func (m KMeans) validate(width int) error {
	if len(m.Centroids) == 0 {
		return fmt.Errorf("kmeans: no centroids")
	}
	for k, c := range m.Centroids {
		if len(c) != width {
			return fmt.Errorf("kmeans: centroid %d has length %d, want %d", k, len(c), width)
		}
	}
	return nil
}
