// Package model holds the pre-fitted transforms that turn a raw student
// profile into a learning-style cluster: imputers, scaler, one-hot encoder,
// PCA projection and k-means centroids. A Bundle is immutable once loaded
// and safe for concurrent use.
package model

import (
	"fmt"
	"strconv"

	apperrors "learnstyle-workers/internal/common/errors"

	"gopkg.in/yaml.v3"
)

// ColumnSchema names the columns the transforms were fitted on.
type ColumnSchema struct {
	Numeric     []string `yaml:"numeric" json:"numeric"`
	Categorical []string `yaml:"categorical" json:"categorical"`
	Final       []string `yaml:"final" json:"final"`
}

// Bundle is the full set of fitted artifacts.
type Bundle struct {
	Version            string             `yaml:"version"`
	Schema             ColumnSchema       `yaml:"columns"`
	NumericImputer     NumericImputer     `yaml:"numeric_imputer"`
	CategoricalImputer CategoricalImputer `yaml:"categorical_imputer"`
	Scaler             StandardScaler     `yaml:"scaler"`
	Encoder            OneHotEncoder      `yaml:"encoder"`
	PCA                PCA                `yaml:"pca"`
	KMeans             KMeans             `yaml:"kmeans"`
	Clusters           ClusterNames       `yaml:"clusters"`
}

// ClusterNames maps a centroid index to its human-readable name. Keys may be
// written as YAML integers or as JSON strings.
type ClusterNames map[int]string

func (c *ClusterNames) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("clusters: expected a mapping, got %s", node.Tag)
	}
	out := make(ClusterNames, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		id, err := strconv.Atoi(node.Content[i].Value)
		if err != nil {
			return fmt.Errorf("clusters: key %q is not an integer", node.Content[i].Value)
		}
		out[id] = node.Content[i+1].Value
	}
	*c = out
	return nil
}

// Columns returns the fitted column schema.
func (b *Bundle) Columns() ColumnSchema {
	return b.Schema
}

// ImputeNumeric returns the fill value for the j-th numeric column.
func (b *Bundle) ImputeNumeric(j int) float64 {
	return b.NumericImputer.Statistics[j]
}

// ImputeCategorical returns the fill value for the j-th categorical column.
func (b *Bundle) ImputeCategorical(j int) string {
	return b.CategoricalImputer.Statistics[j]
}

// Scale standardizes x for the j-th numeric column.
func (b *Bundle) Scale(j int, x float64) float64 {
	return b.Scaler.Transform(j, x)
}

// Encode one-hot encodes value for the j-th categorical column, keyed by
// output column name.
func (b *Bundle) Encode(j int, value string) (map[string]float64, error) {
	return b.Encoder.Transform(b.Schema.Categorical[j], j, value)
}

// Project applies the PCA projection to an aligned feature vector.
func (b *Bundle) Project(aligned []float64) ([]float64, error) {
	return b.PCA.Transform(aligned)
}

// AssignCluster returns the index of the nearest centroid.
func (b *Bundle) AssignCluster(reduced []float64) (int, error) {
	return b.KMeans.Predict(reduced)
}

// ClusterName looks up the name for a cluster id.
func (b *Bundle) ClusterName(id int) (string, error) {
	name, ok := b.Clusters[id]
	if !ok {
		return "", apperrors.NewUnknownClusterError(id)
	}
	return name, nil
}

// NumClusters returns the number of fitted centroids.
func (b *Bundle) NumClusters() int {
	return len(b.KMeans.Centroids)
}

// ModelVersion returns the bundle's version label.
func (b *Bundle) ModelVersion() string {
	return b.Version
}
