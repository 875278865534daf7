package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	apperrors "learnstyle-workers/internal/common/errors"
	"learnstyle-workers/internal/model"
)

// Record is one raw student profile as decoded from JSON.
type Record map[string]interface{}

// Bundle is the set of fitted transforms the pipeline runs. *model.Bundle
// implements it; column indexes refer to the schema's Numeric and
// Categorical lists.
type Bundle interface {
	Columns() model.ColumnSchema
	ImputeNumeric(j int) float64
	ImputeCategorical(j int) string
	Scale(j int, x float64) float64
	Encode(j int, value string) (map[string]float64, error)
	Project(aligned []float64) ([]float64, error)
	AssignCluster(reduced []float64) (int, error)
	ClusterName(id int) (string, error)
}

// Features is the output of Preprocess. Aligned follows the schema's Final
// order; Standardized holds the scaled numeric values by column name.
type Features struct {
	Aligned      []float64
	Standardized map[string]float64
}

// Preprocess imputes, scales and one-hot encodes record, then reindexes the
// result to the final column list with zero fill. It does not apply
// defaults.
func Preprocess(record Record, b Bundle) (*Features, error) {
	cols := b.Columns()
	named := make(map[string]float64, len(cols.Final))
	standardized := make(map[string]float64, len(cols.Numeric))

	for j, col := range cols.Numeric {
		raw, ok := record[col]
		if !ok {
			return nil, apperrors.NewSchemaMismatchError(col)
		}
		x, missing, err := numericValue(raw)
		if err != nil {
			return nil, apperrors.NewTransformError(col, err.Error())
		}
		if missing {
			x = b.ImputeNumeric(j)
		}
		z := b.Scale(j, x)
		standardized[col] = z
		named[col] = z
	}

	for j, col := range cols.Categorical {
		raw, ok := record[col]
		if !ok {
			return nil, apperrors.NewSchemaMismatchError(col)
		}
		var value string
		switch v := raw.(type) {
		case nil:
			value = b.ImputeCategorical(j)
		case string:
			value = v
		default:
			return nil, apperrors.NewTransformError(col, fmt.Sprintf("expected a string, got %T", raw))
		}
		block, err := b.Encode(j, value)
		if err != nil {
			return nil, err
		}
		for name, bit := range block {
			named[name] = bit
		}
	}

	aligned := make([]float64, len(cols.Final))
	for i, name := range cols.Final {
		aligned[i] = named[name]
	}

	return &Features{Aligned: aligned, Standardized: standardized}, nil
}

// numericValue coerces a decoded JSON value. missing is true for null and NaN.
func numericValue(raw interface{}) (x float64, missing bool, err error) {
	switch v := raw.(type) {
	case nil:
		return 0, true, nil
	case float64:
		x = v
	case float32:
		x = float64(v)
	case int:
		x = float64(v)
	case int32:
		x = float64(v)
	case int64:
		x = float64(v)
	case json.Number:
		x, err = v.Float64()
		if err != nil {
			return 0, false, fmt.Errorf("not a number: %q", v.String())
		}
	case string:
		x, err = strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false, fmt.Errorf("not a number: %q", v)
		}
	default:
		return 0, false, fmt.Errorf("expected a number, got %T", raw)
	}
	if math.IsNaN(x) {
		return 0, true, nil
	}
	if math.IsInf(x, 0) {
		return 0, false, fmt.Errorf("not a finite number: %v", raw)
	}
	return x, false, nil
}
