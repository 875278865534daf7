// Package recommend turns a standardized feature row and its cluster name
// into an ordered, de-duplicated list of study recommendations.
package recommend

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	apperrors "learnstyle-workers/internal/common/errors"
)

// ClusterNameKey is the row key carrying the cluster name in map form.
const ClusterNameKey = "Cluster_Name"

// Row is one standardized profile. Missing features read as 0.
type Row struct {
	Features    map[string]float64 `json:"features"`
	ClusterName string             `json:"clusterName"`
}

// Engine applies the feature and cluster rule families. The zero value and
// NewEngine use the standard thresholds; NewEngineWithThresholds sets any
// pair, zero included.
type Engine struct {
	low, high float64
	custom    bool
}

// NewEngine returns an engine with the standard ±0.3 thresholds.
func NewEngine() *Engine {
	return &Engine{}
}

// NewEngineWithThresholds returns an engine that recommends below low and
// above high.
func NewEngineWithThresholds(low, high float64) *Engine {
	return &Engine{low: low, high: high, custom: true}
}

// Thresholds reports the low and high cut-offs in effect.
func (e *Engine) Thresholds() (low, high float64) {
	if e == nil || !e.custom {
		return LowThreshold, HighThreshold
	}
	return e.low, e.high
}

// Recommend never fails and never returns nil.
func (e *Engine) Recommend(row Row) []string {
	low, high := e.Thresholds()

	var recs []string
	for _, rule := range featureRules {
		v := row.Features[rule.Feature]
		switch {
		case v < low:
			recs = append(recs, rule.Low)
		case v > high:
			recs = append(recs, rule.High)
		}
	}
	recs = append(recs, clusterRules[row.ClusterName]...)

	return dedupe(recs)
}

// Recommend runs the default engine.
func Recommend(row Row) []string {
	return NewEngine().Recommend(row)
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// RowFromMap builds a Row from decoded JSON. Cluster_Name is read when it is
// a string; each known feature may be a number, a numeric string or null.
func RowFromMap(m map[string]interface{}) (Row, error) {
	row := Row{Features: make(map[string]float64, len(featureRules))}
	if name, ok := m[ClusterNameKey].(string); ok {
		row.ClusterName = name
	}

	for _, rule := range featureRules {
		raw, ok := m[rule.Feature]
		if !ok || raw == nil {
			continue
		}
		v, err := toFloat(raw)
		if err != nil {
			return Row{}, apperrors.NewTransformError(rule.Feature, err.Error())
		}
		if !math.IsNaN(v) {
			row.Features[rule.Feature] = v
		}
	}
	return row, nil
}

func toFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", t)
		}
		if math.IsInf(f, 0) {
			return 0, fmt.Errorf("not a finite number: %q", t)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}
