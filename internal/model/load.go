package model

import (
	"bytes"
	"fmt"
	"os"

	apperrors "learnstyle-workers/internal/common/errors"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML or JSON bundle from path and validates it.
func Load(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfigLoadError(path, err)
	}
	return Parse(data, path)
}

// Parse decodes a bundle document. source only labels errors.
func Parse(data []byte, source string) (*Bundle, error) {
	var b Bundle
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil {
		return nil, apperrors.NewConfigLoadError(source, err)
	}
	if err := b.Validate(); err != nil {
		return nil, apperrors.NewConfigLoadError(source, err)
	}
	return &b, nil
}

// Validate normalizes defaults and checks that every fitted artifact agrees
// with the column schema and with the next stage's width.
func (b *Bundle) Validate() error {
	b.Scaler.normalize()
	b.Encoder.normalize()

	s := b.Schema
	if len(s.Numeric)+len(s.Categorical) == 0 {
		return fmt.Errorf("columns: no input columns")
	}
	if len(s.Final) == 0 {
		return fmt.Errorf("columns: final column list is empty")
	}

	seen := make(map[string]string)
	for _, c := range s.Numeric {
		if _, dup := seen[c]; dup {
			return fmt.Errorf("columns: duplicate numeric column %s", c)
		}
		seen[c] = "numeric"
	}
	for _, c := range s.Categorical {
		if kind, dup := seen[c]; dup {
			return fmt.Errorf("columns: %s listed as both %s and categorical", c, kind)
		}
		seen[c] = "categorical"
	}
	finals := make(map[string]struct{}, len(s.Final))
	for _, c := range s.Final {
		if _, dup := finals[c]; dup {
			return fmt.Errorf("columns: duplicate final column %s", c)
		}
		finals[c] = struct{}{}
	}

	if err := b.NumericImputer.validate(len(s.Numeric)); err != nil {
		return err
	}
	if err := b.CategoricalImputer.validate(len(s.Categorical)); err != nil {
		return err
	}
	if err := b.Scaler.validate(len(s.Numeric)); err != nil {
		return err
	}
	if err := b.Encoder.validate(s.Categorical); err != nil {
		return err
	}
	if err := b.PCA.validate(len(s.Final)); err != nil {
		return err
	}
	if err := b.KMeans.validate(b.PCA.OutputWidth()); err != nil {
		return err
	}

	for k := range b.KMeans.Centroids {
		if _, ok := b.Clusters[k]; !ok {
			return fmt.Errorf("clusters: no name for centroid %d", k)
		}
	}
	return nil
}
