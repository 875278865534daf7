// internal/workers/learning/classify-learning-style/models.go
package classifylearningstyle

type Input struct {
	StudentID string                 `json:"studentId,omitempty"`
	Profile   map[string]interface{} `json:"profile"`
}

type Output struct {
	PredictionID    string             `json:"predictionId"`
	Success         bool               `json:"success"`
	ClusterID       int                `json:"clusterId"`
	ClusterName     string             `json:"clusterName"`
	Recommendations []string           `json:"recommendations"`
	StandardizedRow map[string]float64 `json:"standardizedRow"`
	Cached          bool               `json:"cached"`
}

// cachedPrediction is the value stored under a profile hash.
type cachedPrediction struct {
	ClusterID       int                `json:"clusterId"`
	ClusterName     string             `json:"clusterName"`
	Recommendations []string           `json:"recommendations"`
	StandardizedRow map[string]float64 `json:"standardizedRow"`
}

// CacheKeyPrefix namespaces cached predictions; the key suffix is the profile hash.
const CacheKeyPrefix = "learnstyle:prediction:"
