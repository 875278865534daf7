package model

import "fmt"

// StandardScaler standardizes numeric columns with fitted means and scales.
type StandardScaler struct {
	Mean  []float64 `yaml:"mean"`
	Scale []float64 `yaml:"scale"`
}

// Transform returns (x - mean[j]) / scale[j].
func (s StandardScaler) Transform(j int, x float64) float64 {
	return (x - s.Mean[j]) / s.Scale[j]
}

// normalize replaces zero scales (constant training columns) with 1.
func (s *StandardScaler) normalize() {
	for j, v := range s.Scale {
		if v == 0 {
			s.Scale[j] = 1
		}
	}
}

func (s StandardScaler) validate(width int) error {
	if len(s.Mean) != width || len(s.Scale) != width {
		return fmt.Errorf("scaler: mean/scale lengths %d/%d for %d numeric columns", len(s.Mean), len(s.Scale), width)
	}
	for j, v := range s.Scale {
		if v < 0 {
			return fmt.Errorf("scaler: negative scale %v at column %d", v, j)
		}
	}
	return nil
}
