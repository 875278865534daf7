// Package pipeline runs a raw student profile through the fitted model
// bundle and the recommendation engine.
package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	apperrors "learnstyle-workers/internal/common/errors"
	"learnstyle-workers/internal/common/logger"
	"learnstyle-workers/internal/common/metrics"
	"learnstyle-workers/internal/recommend"
)

// ErrNoInput is the failure message for an empty recommendation request.
const ErrNoInput = "No input data provided"

// Pipeline is immutable after New and safe for concurrent use.
type Pipeline struct {
	bundle Bundle
	engine *recommend.Engine
	log    logger.Logger
	source string
}

type Option func(*Pipeline)

// WithLogger sets the logger used for per-run debug and failure lines.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithEngine replaces the default ±0.3 recommendation engine.
func WithEngine(e *recommend.Engine) Option {
	return func(p *Pipeline) { p.engine = e }
}

// WithSource labels inference metrics (worker, http, cli).
func WithSource(source string) Option {
	return func(p *Pipeline) { p.source = source }
}

func New(bundle Bundle, opts ...Option) *Pipeline {
	p := &Pipeline{
		bundle: bundle,
		engine: recommend.NewEngine(),
		log:    logger.NewNoOpLogger(),
		source: "library",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Version reports the model bundle version, or "" when the bundle does not
// carry one. Callers that cache predictions key on it.
func (p *Pipeline) Version() string {
	if v, ok := p.bundle.(interface{ ModelVersion() string }); ok {
		return v.ModelVersion()
	}
	return ""
}

// Result is a successful classification.
type Result struct {
	ClusterID       int                `json:"cluster_id"`
	ClusterName     string             `json:"cluster_name"`
	Recommendations []string           `json:"recommendations"`
	Standardized    map[string]float64 `json:"standardized,omitempty"`
}

// Response is the JSON envelope returned to callers. Failures carry only
// success and error.
type Response struct {
	Success         bool     `json:"success"`
	ClusterID       *int     `json:"cluster_id,omitempty"`
	ClusterName     string   `json:"cluster_name,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
	Error           string   `json:"error,omitempty"`
}

func (r Response) MarshalJSON() ([]byte, error) {
	if !r.Success {
		return json.Marshal(struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
		}{false, r.Error})
	}

	recs := r.Recommendations
	if recs == nil {
		recs = []string{}
	}
	if r.ClusterID == nil {
		return json.Marshal(struct {
			Success         bool     `json:"success"`
			Recommendations []string `json:"recommendations"`
		}{true, recs})
	}
	return json.Marshal(struct {
		Success         bool     `json:"success"`
		ClusterID       int      `json:"cluster_id"`
		ClusterName     string   `json:"cluster_name"`
		Recommendations []string `json:"recommendations"`
	}{true, *r.ClusterID, r.ClusterName, recs})
}

// Failure builds a failure response.
func Failure(msg string) *Response {
	return &Response{Success: false, Error: msg}
}

// ResponseFromResult builds a success response.
func ResponseFromResult(res *Result) *Response {
	id := res.ClusterID
	return &Response{
		Success:         true,
		ClusterID:       &id,
		ClusterName:     res.ClusterName,
		Recommendations: res.Recommendations,
	}
}

// ApplyDefaults fills absent default fields; see DefaultValues.
func (p *Pipeline) ApplyDefaults(record Record) Record {
	return ApplyDefaults(record)
}

// Predict runs defaults, preprocessing, projection, cluster assignment and
// the recommendation engine.
func (p *Pipeline) Predict(record Record) (*Result, error) {
	start := time.Now()
	res, err := p.predict(record)
	metrics.InferenceDuration.WithLabelValues(p.source).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.PipelineFailures.WithLabelValues(string(apperrors.CodeOf(err))).Inc()
		p.log.Warn("prediction failed", map[string]interface{}{
			"errorCode": string(apperrors.CodeOf(err)),
			"error":     err.Error(),
		})
		return nil, err
	}

	metrics.ClusterAssignments.WithLabelValues(res.ClusterName).Inc()
	metrics.RecommendationsEmitted.Observe(float64(len(res.Recommendations)))
	p.log.Debug("prediction completed", map[string]interface{}{
		"clusterId":       res.ClusterID,
		"clusterName":     res.ClusterName,
		"recommendations": len(res.Recommendations),
	})
	return res, nil
}

func (p *Pipeline) predict(record Record) (*Result, error) {
	features, err := Preprocess(p.ApplyDefaults(record), p.bundle)
	if err != nil {
		return nil, err
	}

	reduced, err := p.bundle.Project(features.Aligned)
	if err != nil {
		return nil, err
	}

	id, err := p.bundle.AssignCluster(reduced)
	if err != nil {
		return nil, err
	}

	name, err := p.bundle.ClusterName(id)
	if err != nil {
		return nil, err
	}

	recs := p.engine.Recommend(recommend.Row{
		Features:    features.Standardized,
		ClusterName: name,
	})

	return &Result{
		ClusterID:       id,
		ClusterName:     name,
		Recommendations: recs,
		Standardized:    features.Standardized,
	}, nil
}

// Run never returns nil; every error, including a panic inside a bundle
// implementation, becomes a failure response.
func (p *Pipeline) Run(record Record) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("prediction panicked", map[string]interface{}{"panic": fmt.Sprint(r)})
			metrics.PipelineFailures.WithLabelValues("INTERNAL_ERROR").Inc()
			resp = Failure(fmt.Sprintf("internal error: %v", r))
		}
	}()

	res, err := p.Predict(record)
	if err != nil {
		return Failure(err.Error())
	}
	return ResponseFromResult(res)
}

// ParseRecord decodes one JSON object. The error text is the failure message
// returned to callers.
func ParseRecord(data []byte) (Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New(ErrNoInput)
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("invalid JSON input: %v", err)
	}
	if record == nil {
		return nil, errors.New(ErrNoInput)
	}
	return record, nil
}

// RunJSON reads one JSON object from r and writes one Response to w. Only a
// write failure is returned as an error.
func (p *Pipeline) RunJSON(r io.Reader, w io.Writer) error {
	resp := func() *Response {
		data, err := io.ReadAll(r)
		if err != nil {
			return Failure(fmt.Sprintf("failed to read input: %v", err))
		}
		record, err := ParseRecord(data)
		if err != nil {
			return Failure(err.Error())
		}
		return p.Run(record)
	}()
	return json.NewEncoder(w).Encode(resp)
}

// RecommendJSON is the standalone recommendation entry point. The input is a
// standardized row object, or an array whose first element is used.
func RecommendJSON(r io.Reader, w io.Writer) error {
	return json.NewEncoder(w).Encode(recommendResponse(r))
}

func recommendResponse(r io.Reader) *Response {
	data, err := io.ReadAll(r)
	if err != nil {
		return Failure(fmt.Sprintf("failed to read input: %v", err))
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Failure(ErrNoInput)
	}

	var decoded interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return Failure(fmt.Sprintf("invalid JSON input: %v", err))
	}

	if list, ok := decoded.([]interface{}); ok {
		if len(list) == 0 {
			return Failure(ErrNoInput)
		}
		decoded = list[0]
	}

	m, ok := decoded.(map[string]interface{})
	if !ok {
		if decoded == nil {
			return Failure(ErrNoInput)
		}
		return Failure(fmt.Sprintf("invalid input: expected an object, got %T", decoded))
	}

	row, err := recommend.RowFromMap(m)
	if err != nil {
		return Failure(err.Error())
	}
	return &Response{Success: true, Recommendations: recommend.Recommend(row)}
}
