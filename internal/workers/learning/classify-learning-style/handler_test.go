// internal/workers/learning/classify-learning-style/handler_test.go
package classifylearningstyle

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "learnstyle-workers/internal/common/errors"
	"learnstyle-workers/internal/common/logger"
	"learnstyle-workers/internal/model"
	"learnstyle-workers/internal/pipeline"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

const stubVersion = "test-1"

type stubPredictor struct {
	mu      sync.Mutex
	calls   int
	result  *pipeline.Result
	err     error
	version string
}

func (s *stubPredictor) Version() string {
	if s.version == "" {
		return stubVersion
	}
	return s.version
}

func (s *stubPredictor) Predict(record pipeline.Record) (*pipeline.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func focusedResult() *pipeline.Result {
	return &pipeline.Result{
		ClusterID:   1,
		ClusterName: "Focused Learners",
		Recommendations: []string{
			"Increase study hours to improve learning outcomes.",
			"Maintain high attendance for continued success.",
		},
		Standardized: map[string]float64{"Hours_Studied": -0.5, "Attendance": 0.5},
	}
}

func createTestConfig() *Config {
	return &Config{
		Timeout:       10 * time.Second,
		CacheTTL:      time.Hour,
		ValidateInput: true,
		StoreHistory:  true,
	}
}

func createTestHandler(t *testing.T, p Predictor, db *sql.DB, redisClient *redis.Client, config *Config) *Handler {
	if config == nil {
		config = createTestConfig()
	}
	return NewHandler(config, p, db, redisClient, logger.NewTestLogger(t))
}

func createProfile() map[string]interface{} {
	return map[string]interface{}{
		"Hours_Studied":              19.0,
		"Attendance":                 85.0,
		"Tutoring_Sessions":          1,
		"Physical_Activity":          3.0,
		"Sleep_Hours":                7.0,
		"Parental_Involvement":       "Medium",
		"Access_to_Resources":        "High",
		"Extracurricular_Activities": "Yes",
		"Motivation_Level":           "High",
		"Internet_Access":            "Yes",
		"Family_Income":              "Low",
		"Peer_Influence":             "Positive",
		"Learning_Disabilities":      "No",
		"Gender":                     "Male",
	}
}

func cacheKeyFor(t *testing.T, profile map[string]interface{}) string {
	t.Helper()
	hash, err := profileHash(stubVersion, pipeline.ApplyDefaults(profile))
	require.NoError(t, err)
	return CacheKeyPrefix + hash
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO learning_style_predictions").
		WithArgs(sqlmock.AnyArg(), "student-1", int64(1), "Focused Learners", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	predictor := &stubPredictor{result: focusedResult()}
	handler := createTestHandler(t, predictor, db, redisClient, nil)

	profile := createProfile()
	output, err := handler.Execute(context.Background(), &Input{StudentID: "student-1", Profile: profile})

	require.NoError(t, err)
	require.NotNil(t, output)
	assert.True(t, output.Success)
	assert.False(t, output.Cached)
	assert.Equal(t, 1, output.ClusterID)
	assert.Equal(t, "Focused Learners", output.ClusterName)
	assert.Len(t, output.Recommendations, 2)
	assert.NotEmpty(t, output.PredictionID)
	assert.Equal(t, -0.5, output.StandardizedRow["Hours_Studied"])

	key := cacheKeyFor(t, profile)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Hour, mr.TTL(key))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_CacheHit(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	predictor := &stubPredictor{result: focusedResult()}
	handler := createTestHandler(t, predictor, nil, redisClient, nil)

	first, err := handler.Execute(context.Background(), &Input{Profile: createProfile()})
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := handler.Execute(context.Background(), &Input{Profile: createProfile()})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.ClusterID, second.ClusterID)
	assert.Equal(t, first.ClusterName, second.ClusterName)
	assert.Equal(t, first.Recommendations, second.Recommendations)
	assert.NotEqual(t, first.PredictionID, second.PredictionID)
	assert.Equal(t, 1, predictor.calls)
}

func TestHandler_Execute_NewModelVersionMissesCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	oldModel := &stubPredictor{result: focusedResult(), version: "2024.1"}
	first, err := createTestHandler(t, oldModel, nil, redisClient, nil).
		Execute(context.Background(), &Input{Profile: createProfile()})
	require.NoError(t, err)
	assert.False(t, first.Cached)

	newModel := &stubPredictor{result: focusedResult(), version: "2024.2"}
	second, err := createTestHandler(t, newModel, nil, redisClient, nil).
		Execute(context.Background(), &Input{Profile: createProfile()})
	require.NoError(t, err)
	assert.False(t, second.Cached)
	assert.Equal(t, 1, newModel.calls)

	oldKey, err := profileHash("2024.1", pipeline.ApplyDefaults(createProfile()))
	require.NoError(t, err)
	newKey, err := profileHash("2024.2", pipeline.ApplyDefaults(createProfile()))
	require.NoError(t, err)
	assert.NotEqual(t, oldKey, newKey)
	assert.True(t, mr.Exists(CacheKeyPrefix+oldKey))
	assert.True(t, mr.Exists(CacheKeyPrefix+newKey))
}

func TestHandler_Execute_DefaultsShareCacheKey(t *testing.T) {
	implicit := createProfile()
	for key := range pipeline.DefaultValues {
		delete(implicit, key)
	}

	explicit := createProfile()
	for key, value := range pipeline.DefaultValues {
		explicit[key] = value
	}

	assert.Equal(t, cacheKeyFor(t, implicit), cacheKeyFor(t, explicit))
	assert.NotEqual(t, cacheKeyFor(t, implicit), cacheKeyFor(t, createProfile()))
}

func TestHandler_Execute_WithRedisMock(t *testing.T) {
	profile := createProfile()
	key := cacheKeyFor(t, profile)

	pred := &cachedPrediction{
		ClusterID:       2,
		ClusterName:     "Active Improvers",
		Recommendations: []string{"Encourage participation in extracurricular activities."},
	}
	data, err := json.Marshal(pred)
	require.NoError(t, err)

	tests := []struct {
		name          string
		setupMock     func(mock redismock.ClientMock)
		expectCached  bool
		expectCluster string
		expectCalls   int
	}{
		{
			name: "cache hit skips prediction",
			setupMock: func(mock redismock.ClientMock) {
				mock.ExpectGet(key).SetVal(string(data))
			},
			expectCached:  true,
			expectCluster: "Active Improvers",
			expectCalls:   0,
		},
		{
			name: "read error falls through to prediction",
			setupMock: func(mock redismock.ClientMock) {
				mock.ExpectGet(key).SetErr(errors.New("connection refused"))
				mock.Regexp().ExpectSet(key, `.*`, time.Hour).SetErr(errors.New("connection refused"))
			},
			expectCached:  false,
			expectCluster: "Focused Learners",
			expectCalls:   1,
		},
		{
			name: "corrupt entry is ignored",
			setupMock: func(mock redismock.ClientMock) {
				mock.ExpectGet(key).SetVal("{not json")
				mock.Regexp().ExpectSet(key, `.*`, time.Hour).SetVal("OK")
			},
			expectCached:  false,
			expectCluster: "Focused Learners",
			expectCalls:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			redisClient, redisMock := redismock.NewClientMock()
			tt.setupMock(redisMock)

			predictor := &stubPredictor{result: focusedResult()}
			handler := createTestHandler(t, predictor, nil, redisClient, nil)

			output, err := handler.Execute(context.Background(), &Input{Profile: profile})

			require.NoError(t, err)
			assert.Equal(t, tt.expectCached, output.Cached)
			assert.Equal(t, tt.expectCluster, output.ClusterName)
			assert.Equal(t, tt.expectCalls, predictor.calls)
		})
	}
}

func TestHandler_Execute_CacheDisabled(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()

	config := createTestConfig()
	config.CacheTTL = 0
	predictor := &stubPredictor{result: focusedResult()}
	handler := createTestHandler(t, predictor, nil, redisClient, config)

	for i := 0; i < 2; i++ {
		output, err := handler.Execute(context.Background(), &Input{Profile: createProfile()})
		require.NoError(t, err)
		assert.False(t, output.Cached)
	}

	assert.Equal(t, 2, predictor.calls)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

// ==========================
// History Tests
// ==========================

func TestHandler_Execute_HistoryInsertFailureIsNotFatal(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO learning_style_predictions").
		WillReturnError(errors.New("relation does not exist"))

	handler := createTestHandler(t, &stubPredictor{result: focusedResult()}, db, nil, nil)

	output, err := handler.Execute(context.Background(), &Input{StudentID: "student-1", Profile: createProfile()})

	require.NoError(t, err)
	assert.True(t, output.Success)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_HistorySkipped(t *testing.T) {
	tests := []struct {
		name      string
		studentID string
		store     bool
	}{
		{name: "no student id", studentID: "", store: true},
		{name: "history disabled", studentID: "student-1", store: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			config := createTestConfig()
			config.StoreHistory = tt.store
			handler := createTestHandler(t, &stubPredictor{result: focusedResult()}, db, nil, config)

			_, err = handler.Execute(context.Background(), &Input{StudentID: tt.studentID, Profile: createProfile()})

			require.NoError(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		profile map[string]interface{}
		field   string
	}{
		{name: "nil profile", profile: nil, field: "profile"},
		{
			name:    "hours out of range",
			profile: map[string]interface{}{"Hours_Studied": 30.0},
			field:   "Hours_Studied",
		},
		{
			name:    "attendance wrong type",
			profile: map[string]interface{}{"Attendance": true},
			field:   "Attendance",
		},
		{
			name:    "gender not a string",
			profile: map[string]interface{}{"Gender": 1},
			field:   "Gender",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			predictor := &stubPredictor{result: focusedResult()}
			handler := createTestHandler(t, predictor, nil, nil, nil)

			output, err := handler.Execute(context.Background(), &Input{Profile: tt.profile})

			require.Error(t, err)
			assert.Nil(t, output)
			assert.Equal(t, apperrors.ErrCodeInputValidationFailed, apperrors.CodeOf(err))
			assert.Contains(t, err.Error(), tt.field)
			assert.Equal(t, 0, predictor.calls)
		})
	}
}

func TestHandler_Execute_ValidationDisabled(t *testing.T) {
	config := createTestConfig()
	config.ValidateInput = false
	predictor := &stubPredictor{result: focusedResult()}
	handler := createTestHandler(t, predictor, nil, nil, config)

	_, err := handler.Execute(context.Background(), &Input{Profile: map[string]interface{}{"Hours_Studied": 30.0}})

	require.NoError(t, err)
	assert.Equal(t, 1, predictor.calls)
}

func TestHandler_Execute_PipelineError(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	predictor := &stubPredictor{err: apperrors.NewSchemaMismatchError("Gender")}
	handler := createTestHandler(t, predictor, nil, redisClient, nil)

	profile := createProfile()
	output, err := handler.Execute(context.Background(), &Input{Profile: profile})

	require.Error(t, err)
	assert.Nil(t, output)
	assert.True(t, errors.Is(err, apperrors.ErrSchemaMismatch))
	assert.False(t, mr.Exists(cacheKeyFor(t, profile)))
}

// ==========================
// Shipped Bundle Test
// ==========================

func TestHandler_Execute_ShippedBundle(t *testing.T) {
	bundle, err := model.Load("../../../../configs/model-bundle.yaml")
	require.NoError(t, err)

	p := pipeline.New(bundle, pipeline.WithSource("worker"))
	handler := createTestHandler(t, p, nil, nil, nil)

	output, err := handler.Execute(context.Background(), &Input{Profile: createProfile()})

	require.NoError(t, err)
	assert.True(t, output.Success)
	assert.Contains(t, []string{"Regular Attendees", "Focused Learners", "Active Improvers"}, output.ClusterName)
	assert.NotNil(t, output.Recommendations)
	assert.Contains(t, output.StandardizedRow, "Hours_Studied")
}
