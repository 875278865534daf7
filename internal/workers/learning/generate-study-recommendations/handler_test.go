// internal/workers/learning/generate-study-recommendations/handler_test.go
package generatestudyrecommendations

import (
	"context"
	"testing"
	"time"

	apperrors "learnstyle-workers/internal/common/errors"
	"learnstyle-workers/internal/common/logger"
	"learnstyle-workers/internal/recommend"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:       5 * time.Second,
		LowThreshold:  -0.3,
		HighThreshold: 0.3,
	}
}

func createTestHandler(t *testing.T, config *Config) *Handler {
	if config == nil {
		config = createTestConfig()
	}
	return NewHandler(config, logger.NewTestLogger(t))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	tests := []struct {
		name     string
		input    *Input
		expected []string
	}{
		{
			name: "low hours and high attendance with cluster advice",
			input: &Input{
				StandardizedRow: map[string]interface{}{
					"Hours_Studied":  -0.5,
					"Attendance":     0.5,
					"Cluster_Name":   recommend.ClusterFocusedLearners,
					"Unrelated_Data": "ignored",
				},
			},
			expected: append([]string{
				"Increase daily self-study time with a fixed schedule.",
				"Use your strong class attendance to actively ask questions and clarify doubts.",
			}, recommend.ClusterAdvice(recommend.ClusterFocusedLearners)...),
		},
		{
			name: "boundary values produce nothing",
			input: &Input{
				StandardizedRow: map[string]interface{}{
					"Hours_Studied": 0.3,
					"Attendance":    -0.3,
				},
			},
			expected: []string{},
		},
		{
			name: "clusterName variable overrides row",
			input: &Input{
				StandardizedRow: map[string]interface{}{
					"Cluster_Name": recommend.ClusterFocusedLearners,
				},
				ClusterName: recommend.ClusterActiveImprovers,
			},
			expected: recommend.ClusterAdvice(recommend.ClusterActiveImprovers),
		},
		{
			name: "numeric strings and nulls",
			input: &Input{
				StandardizedRow: map[string]interface{}{
					"Sleep_Hours":   "-1.2",
					"Hours_Studied": nil,
				},
			},
			expected: []string{
				"Aim for a more regular sleep schedule with at least 7 hours of sleep.",
			},
		},
		{
			name:     "unknown cluster gives no cluster advice",
			input:    &Input{StandardizedRow: map[string]interface{}{}, ClusterName: "Night Owls"},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := createTestHandler(t, nil)

			output, err := handler.Execute(context.Background(), tt.input)

			require.NoError(t, err)
			require.NotNil(t, output.Recommendations)
			assert.Equal(t, tt.expected, output.Recommendations)
			assert.Equal(t, len(tt.expected), output.RecommendationCount)
		})
	}
}

func TestHandler_Execute_CustomThresholds(t *testing.T) {
	config := createTestConfig()
	config.LowThreshold = -1
	config.HighThreshold = 1
	handler := createTestHandler(t, config)

	output, err := handler.Execute(context.Background(), &Input{
		StandardizedRow: map[string]interface{}{"Hours_Studied": -0.5},
	})

	require.NoError(t, err)
	assert.Empty(t, output.Recommendations)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name string
		row  map[string]interface{}
		code apperrors.ErrorCode
	}{
		{name: "missing row", row: nil, code: apperrors.ErrCodeInputValidationFailed},
		{name: "non numeric feature", row: map[string]interface{}{"Attendance": "often"}, code: apperrors.ErrCodeTransformError},
		{name: "boolean feature", row: map[string]interface{}{"Sleep_Hours": true}, code: apperrors.ErrCodeTransformError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := createTestHandler(t, nil)

			output, err := handler.Execute(context.Background(), &Input{StandardizedRow: tt.row})

			require.Error(t, err)
			assert.Nil(t, output)
			assert.Equal(t, tt.code, apperrors.CodeOf(err))
		})
	}
}
