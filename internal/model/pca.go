package model

import (
	"fmt"
	"math"

	apperrors "learnstyle-workers/internal/common/errors"
)

// PCA is a fitted linear projection: Components is k x p, Mean has length p.
type PCA struct {
	Mean              []float64   `yaml:"mean"`
	Components        [][]float64 `yaml:"components"`
	ExplainedVariance []float64   `yaml:"explained_variance"`
	Whiten            bool        `yaml:"whiten"`
}

// Transform centers x with the fitted mean and projects it on each component.
func (p PCA) Transform(x []float64) ([]float64, error) {
	if len(x) != len(p.Mean) {
		return nil, apperrors.NewShapeError("pca", len(p.Mean), len(x))
	}
	out := make([]float64, len(p.Components))
	for i, comp := range p.Components {
		var dot float64
		for j, w := range comp {
			dot += (x[j] - p.Mean[j]) * w
		}
		if p.Whiten {
			dot /= math.Sqrt(p.ExplainedVariance[i])
		}
		out[i] = dot
	}
	return out, nil
}

// OutputWidth is the number of components.
func (p PCA) OutputWidth() int {
	return len(p.Components)
}

func (p PCA) validate(width int) error {
	if len(p.Mean) != width {
		return fmt.Errorf("pca: mean length %d for %d final columns", len(p.Mean), width)
	}
	if len(p.Components) == 0 {
		return fmt.Errorf("pca: no components")
	}
	for i, comp := range p.Components {
		if len(comp) != width {
			return fmt.Errorf("pca: component %d has length %d, want %d", i, len(comp), width)
		}
	}
	if p.Whiten {
		if len(p.ExplainedVariance) != len(p.Components) {
			return fmt.Errorf("pca: whiten needs %d explained variances, got %d", len(p.Components), len(p.ExplainedVariance))
		}
		for i, v := range p.ExplainedVariance {
			if v <= 0 {
				return fmt.Errorf("pca: explained variance %d is %v", i, v)
			}
		}
	}
	return nil
}
