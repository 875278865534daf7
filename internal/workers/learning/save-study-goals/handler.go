// internal/workers/learning/save-study-goals/handler.go
package savestudygoals

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "learnstyle-workers/internal/common/errors"
	"learnstyle-workers/internal/common/logger"
	"learnstyle-workers/internal/common/metrics"
	"learnstyle-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "save-study-goals"
)

type Handler struct {
	config     *Config
	db         *sql.DB
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
	now        func() time.Time
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		db:         db,
		logger:     l,
		errHandler: apperrors.NewErrorHandler(l),
		now:        time.Now,
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
	email := strings.TrimSpace(input.UserEmail)
	if email == "" {
		return nil, apperrors.NewInputValidationFailedError("userEmail is required")
	}
	if !validation.ValidateEmail(email) {
		return nil, apperrors.NewInputValidationFailedError(fmt.Sprintf("userEmail is not a valid address: %s", email))
	}
	if input.DeadlineDays < 0 {
		return nil, apperrors.NewInputValidationFailedError("deadlineDays must not be negative")
	}

	days := input.DeadlineDays
	if days == 0 {
		days = h.config.DeadlineDays
	}
	deadline := h.now().UTC().AddDate(0, 0, days).Format("2006-01-02")

	titles := uniqueTitles(input.Recommendations)
	output := &Output{
		GoalIDs:  []string{},
		Deadline: deadline,
	}
	if len(titles) == 0 {
		return output, nil
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.NewDatabaseInsertFailedError(err)
	}
	defer tx.Rollback()

	for _, title := range titles {
		var exists bool
		err := tx.QueryRowContext(ctx, `
			SELECT EXISTS(
				SELECT 1 FROM study_goals
				WHERE user_email = $1 AND title = $2 AND status <> $3
			)`, email, title, StatusCompleted).Scan(&exists)
		if err != nil {
			return nil, apperrors.NewDatabaseInsertFailedError(fmt.Errorf("duplicate check failed: %w", err))
		}
		if exists {
			output.GoalsSkipped++
			continue
		}

		id := uuid.New().String()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO study_goals (
				id, user_email, title, description, status, progress, deadline
			) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, email, title, GoalDescription, StatusPending, 0, deadline,
		)
		if err != nil {
			return nil, apperrors.NewDatabaseInsertFailedError(err)
		}
		output.GoalIDs = append(output.GoalIDs, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.NewDatabaseInsertFailedError(err)
	}
	output.GoalsCreated = len(output.GoalIDs)

	h.logger.Info("study goals saved", map[string]interface{}{
		"userEmail": email,
		"created":   output.GoalsCreated,
		"skipped":   output.GoalsSkipped,
		"deadline":  deadline,
	})

	return output, nil
}

// uniqueTitles drops blanks and repeats, keeping first-seen order.
func uniqueTitles(recs []string) []string {
	out := make([]string, 0, len(recs))
	seen := make(map[string]struct{}, len(recs))
	for _, r := range recs {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
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
