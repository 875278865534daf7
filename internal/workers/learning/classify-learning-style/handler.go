// internal/workers/learning/classify-learning-style/handler.go
package classifylearningstyle

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"

	apperrors "learnstyle-workers/internal/common/errors"
	"learnstyle-workers/internal/common/logger"
	"learnstyle-workers/internal/common/metrics"
	"learnstyle-workers/internal/common/validation"
	"learnstyle-workers/internal/pipeline"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "classify-learning-style"
)

// Predictor is the part of *pipeline.Pipeline the handler needs.
type Predictor interface {
	Predict(record pipeline.Record) (*pipeline.Result, error)
	Version() string
}

type Handler struct {
	config     *Config
	predictor  Predictor
	db         *sql.DB
	redis      *redis.Client
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
}

// NewHandler wires the handler. db and redisClient may be nil, which
// disables history and caching respectively.
func NewHandler(config *Config, predictor Predictor, db *sql.DB, redisClient *redis.Client, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		predictor:  predictor,
		db:         db,
		redis:      redisClient,
		logger:     l,
		errHandler: apperrors.NewErrorHandler(l),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, apperrors.NewParseError(err))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Profile == nil {
		return nil, apperrors.NewInputValidationFailedError("profile is required")
	}
	if h.config.ValidateInput {
		if err := validation.ValidateProfile(input.Profile); err != nil {
			return nil, apperrors.NewInputValidationFailedError(err.Error())
		}
	}

	record := pipeline.ApplyDefaults(input.Profile)
	hash, err := profileHash(h.predictor.Version(), record)
	if err != nil {
		return nil, apperrors.NewInputValidationFailedError(err.Error())
	}

	pred, cached := h.lookup(ctx, hash)
	if !cached {
		res, err := h.predictor.Predict(record)
		if err != nil {
			return nil, err
		}
		pred = &cachedPrediction{
			ClusterID:       res.ClusterID,
			ClusterName:     res.ClusterName,
			Recommendations: res.Recommendations,
			StandardizedRow: res.Standardized,
		}
		h.store(ctx, hash, pred)
	}

	predictionID := uuid.New().String()
	h.recordHistory(ctx, predictionID, input.StudentID, hash, pred)

	h.logger.Info("learning style classified", map[string]interface{}{
		"predictionId":    predictionID,
		"studentId":       input.StudentID,
		"clusterId":       pred.ClusterID,
		"clusterName":     pred.ClusterName,
		"recommendations": len(pred.Recommendations),
		"cached":          cached,
	})

	recs := pred.Recommendations
	if recs == nil {
		recs = []string{}
	}
	return &Output{
		PredictionID:    predictionID,
		Success:         true,
		ClusterID:       pred.ClusterID,
		ClusterName:     pred.ClusterName,
		Recommendations: recs,
		StandardizedRow: pred.StandardizedRow,
		Cached:          cached,
	}, nil
}

// profileHash keys the cache on the model version and the defaulted profile,
// so a new bundle never serves predictions made by the old one. encoding/json
// sorts map keys, so equal profiles hash equally.
func profileHash(version string, record pipeline.Record) (string, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("profile is not serializable: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(version))
	h.Write([]byte{0})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (h *Handler) lookup(ctx context.Context, hash string) (*cachedPrediction, bool) {
	if h.redis == nil || h.config.CacheTTL <= 0 {
		return nil, false
	}

	val, err := h.redis.Get(ctx, CacheKeyPrefix+hash).Result()
	if err == redis.Nil {
		metrics.PredictionCacheHits.WithLabelValues("miss").Inc()
		return nil, false
	}
	if err != nil {
		metrics.PredictionCacheHits.WithLabelValues("error").Inc()
		h.logger.Warn("prediction cache read failed", map[string]interface{}{"error": err})
		return nil, false
	}

	var pred cachedPrediction
	if err := json.Unmarshal([]byte(val), &pred); err != nil {
		metrics.PredictionCacheHits.WithLabelValues("error").Inc()
		h.logger.Warn("discarding corrupt cache entry", map[string]interface{}{"error": err})
		return nil, false
	}
	metrics.PredictionCacheHits.WithLabelValues("hit").Inc()
	return &pred, true
}

func (h *Handler) store(ctx context.Context, hash string, pred *cachedPrediction) {
	if h.redis == nil || h.config.CacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(pred)
	if err != nil {
		return
	}
	if err := h.redis.Set(ctx, CacheKeyPrefix+hash, data, h.config.CacheTTL).Err(); err != nil {
		h.logger.Warn("prediction cache write failed", map[string]interface{}{"error": err})
	}
}

// recordHistory is best effort; a failed insert never fails the job.
func (h *Handler) recordHistory(ctx context.Context, id, studentID, hash string, pred *cachedPrediction) {
	if !h.config.StoreHistory || h.db == nil || studentID == "" {
		return
	}

	recsJSON, err := json.Marshal(pred.Recommendations)
	if err != nil {
		recsJSON = []byte("[]")
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO learning_style_predictions (
			id, student_id, cluster_id, cluster_name, recommendations, input_hash
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, studentID, pred.ClusterID, pred.ClusterName, recsJSON, hash,
	)
	if err != nil {
		h.logger.Warn("prediction history insert failed", map[string]interface{}{
			"error":        err,
			"predictionId": id,
		})
	}
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.CodeOf(err))).Inc()
	h.errHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
