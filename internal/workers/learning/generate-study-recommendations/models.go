// internal/workers/learning/generate-study-recommendations/models.go
package generatestudyrecommendations

// Input is a standardized row as produced by classify-learning-style. A
// clusterName variable overrides any Cluster_Name key inside the row.
type Input struct {
	StandardizedRow map[string]interface{} `json:"standardizedRow"`
	ClusterName     string                 `json:"clusterName,omitempty"`
}

type Output struct {
	Recommendations     []string `json:"recommendations"`
	RecommendationCount int      `json:"recommendationCount"`
}
