package model

import (
	"fmt"

	apperrors "learnstyle-workers/internal/common/errors"
)

// Unknown-category policies.
const (
	HandleUnknownIgnore = "ignore"
	HandleUnknownError  = "error"
)

// OneHotEncoder holds the fitted category vocabulary of every categorical
// column, in column order.
type OneHotEncoder struct {
	Categories    [][]string `yaml:"categories"`
	HandleUnknown string     `yaml:"handle_unknown"`
}

// OutputName is the name of the indicator column for category of column.
func OutputName(column, category string) string {
	return column + "_" + category
}

// Transform encodes value for categorical column j. An unknown value yields an
// all-zero block, or a transform error when HandleUnknown is "error".
func (e OneHotEncoder) Transform(column string, j int, value string) (map[string]float64, error) {
	cats := e.Categories[j]
	out := make(map[string]float64, len(cats))
	known := false
	for _, c := range cats {
		if c == value {
			out[OutputName(column, c)] = 1
			known = true
		} else {
			out[OutputName(column, c)] = 0
		}
	}
	if !known && e.HandleUnknown == HandleUnknownError {
		return nil, apperrors.NewTransformError(column, fmt.Sprintf("unknown category %q", value))
	}
	return out, nil
}

// OutputNames lists every indicator column in fitted order.
func (e OneHotEncoder) OutputNames(columns []string) []string {
	var names []string
	for j, col := range columns {
		for _, c := range e.Categories[j] {
			names = append(names, OutputName(col, c))
		}
	}
	return names
}

func (e *OneHotEncoder) normalize() {
	if e.HandleUnknown == "" {
		e.HandleUnknown = HandleUnknownIgnore
	}
}

func (e OneHotEncoder) validate(columns []string) error {
	if e.HandleUnknown != HandleUnknownIgnore && e.HandleUnknown != HandleUnknownError {
		return fmt.Errorf("encoder: unknown handle_unknown %q", e.HandleUnknown)
	}
	if len(e.Categories) != len(columns) {
		return fmt.Errorf("encoder: %d vocabularies for %d categorical columns", len(e.Categories), len(columns))
	}
	for j, cats := range e.Categories {
		if len(cats) == 0 {
			return fmt.Errorf("encoder: empty vocabulary for %s", columns[j])
		}
		seen := make(map[string]struct{}, len(cats))
		for _, c := range cats {
			if _, dup := seen[c]; dup {
				return fmt.Errorf("encoder: duplicate category %q for %s", c, columns[j])
			}
			seen[c] = struct{}{}
		}
	}
	return nil
}
