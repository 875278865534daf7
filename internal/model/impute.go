package model

import "fmt"

// Imputation strategies. The fill value is always the fitted statistic; the
// strategy only records how it was computed.
const (
	StrategyMean         = "mean"
	StrategyMedian       = "median"
	StrategyMostFrequent = "most_frequent"
	StrategyConstant     = "constant"
)

// NumericImputer holds one fill value per numeric column.
type NumericImputer struct {
	Strategy   string    `yaml:"strategy"`
	Statistics []float64 `yaml:"statistics"`
}

// CategoricalImputer holds one fill value per categorical column.
type CategoricalImputer struct {
	Strategy   string   `yaml:"strategy"`
	Statistics []string `yaml:"statistics"`
}

func (n NumericImputer) validate(width int) error {
	switch n.Strategy {
	case StrategyMean, StrategyMedian, StrategyMostFrequent, StrategyConstant:
	default:
		return fmt.Errorf("numeric_imputer: unknown strategy %q", n.Strategy)
	}
	if len(n.Statistics) != width {
		return fmt.Errorf("numeric_imputer: %d statistics for %d numeric columns", len(n.Statistics), width)
	}
	return nil
}

func (c CategoricalImputer) validate(width int) error {
	switch c.Strategy {
	case StrategyMostFrequent, StrategyConstant:
	default:
		return fmt.Errorf("categorical_imputer: unsupported strategy %q", c.Strategy)
	}
	if len(c.Statistics) != width {
		return fmt.Errorf("categorical_imputer: %d statistics for %d categorical columns", len(c.Statistics), width)
	}
	return nil
}
