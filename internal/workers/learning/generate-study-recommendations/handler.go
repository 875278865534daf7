// internal/workers/learning/generate-study-recommendations/handler.go
package generatestudyrecommendations

import (
	"context"
	"encoding/json"

	apperrors "learnstyle-workers/internal/common/errors"
	"learnstyle-workers/internal/common/logger"
	"learnstyle-workers/internal/common/metrics"
	"learnstyle-workers/internal/recommend"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "generate-study-recommendations"
)

type Handler struct {
	config     *Config
	engine     *recommend.Engine
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		engine:     recommend.NewEngineWithThresholds(config.LowThreshold, config.HighThreshold),
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
	if input.StandardizedRow == nil {
		return nil, apperrors.NewInputValidationFailedError("standardizedRow is required")
	}

	row, err := recommend.RowFromMap(input.StandardizedRow)
	if err != nil {
		return nil, err
	}
	if input.ClusterName != "" {
		row.ClusterName = input.ClusterName
	}

	recs := h.engine.Recommend(row)
	metrics.RecommendationsEmitted.Observe(float64(len(recs)))

	h.logger.Debug("recommendations generated", map[string]interface{}{
		"clusterName": row.ClusterName,
		"count":       len(recs),
	})

	return &Output{
		Recommendations:     recs,
		RecommendationCount: len(recs),
	}, nil
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
