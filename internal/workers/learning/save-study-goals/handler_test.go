// internal/workers/learning/save-study-goals/handler_test.go
package savestudygoals

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	apperrors "learnstyle-workers/internal/common/errors"
	"learnstyle-workers/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var fixedNow = time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)

func createTestConfig() *Config {
	return &Config{
		Timeout:      10 * time.Second,
		DeadlineDays: 7,
	}
}

func createTestHandler(t *testing.T, db *sql.DB) *Handler {
	h := NewHandler(createTestConfig(), db, logger.NewTestLogger(t))
	h.now = func() time.Time { return fixedNow }
	return h
}

func expectNotExists(mock sqlmock.Sqlmock, email, title string) {
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(email, title, StatusCompleted).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
}

func expectInsert(mock sqlmock.Sqlmock, email, title, deadline string) {
	mock.ExpectExec("INSERT INTO study_goals").
		WithArgs(sqlmock.AnyArg(), email, title, GoalDescription, StatusPending, int64(0), deadline).
		WillReturnResult(sqlmock.NewResult(1, 1))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	email := "student@example.com"
	mock.ExpectBegin()
	expectNotExists(mock, email, "Improve class attendance by setting a minimum target.")
	expectInsert(mock, email, "Improve class attendance by setting a minimum target.", "2024-03-17")
	expectNotExists(mock, email, "Add regular light physical activity to improve focus.")
	expectInsert(mock, email, "Add regular light physical activity to improve focus.", "2024-03-17")
	mock.ExpectCommit()

	handler := createTestHandler(t, db)
	output, err := handler.Execute(context.Background(), &Input{
		UserEmail: email,
		Recommendations: []string{
			"Improve class attendance by setting a minimum target.",
			"  ",
			"Add regular light physical activity to improve focus.",
			"Improve class attendance by setting a minimum target.",
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, output.GoalsCreated)
	assert.Len(t, output.GoalIDs, 2)
	assert.NotEqual(t, output.GoalIDs[0], output.GoalIDs[1])
	assert.Equal(t, 0, output.GoalsSkipped)
	assert.Equal(t, "2024-03-17", output.Deadline)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_SkipsExistingGoals(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	email := "student@example.com"
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(email, "Keep a revision log.", StatusCompleted).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	expectNotExists(mock, email, "Sleep earlier.")
	expectInsert(mock, email, "Sleep earlier.", "2024-03-24")
	mock.ExpectCommit()

	handler := createTestHandler(t, db)
	output, err := handler.Execute(context.Background(), &Input{
		UserEmail:       email,
		Recommendations: []string{"Keep a revision log.", "Sleep earlier."},
		DeadlineDays:    14,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, output.GoalsCreated)
	assert.Equal(t, 1, output.GoalsSkipped)
	assert.Equal(t, "2024-03-24", output.Deadline)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_NoRecommendations(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	handler := createTestHandler(t, db)
	output, err := handler.Execute(context.Background(), &Input{UserEmail: "student@example.com"})

	require.NoError(t, err)
	assert.Equal(t, 0, output.GoalsCreated)
	assert.NotNil(t, output.GoalIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		input *Input
	}{
		{name: "missing email", input: &Input{Recommendations: []string{"a"}}},
		{name: "blank email", input: &Input{UserEmail: "   ", Recommendations: []string{"a"}}},
		{name: "malformed email", input: &Input{UserEmail: "not-an-email", Recommendations: []string{"a"}}},
		{name: "negative deadline", input: &Input{UserEmail: "a@b.com", Recommendations: []string{"a"}, DeadlineDays: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			handler := createTestHandler(t, db)
			output, err := handler.Execute(context.Background(), tt.input)

			require.Error(t, err)
			assert.Nil(t, output)
			assert.Equal(t, apperrors.ErrCodeInputValidationFailed, apperrors.CodeOf(err))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHandler_Execute_DatabaseErrors(t *testing.T) {
	email := "student@example.com"
	tests := []struct {
		name  string
		setup func(mock sqlmock.Sqlmock)
	}{
		{
			name: "begin fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(errors.New("connection refused"))
			},
		},
		{
			name: "duplicate check fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("SELECT EXISTS").WillReturnError(errors.New("timeout"))
				mock.ExpectRollback()
			},
		},
		{
			name: "insert fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				expectNotExists(mock, email, "Sleep earlier.")
				mock.ExpectExec("INSERT INTO study_goals").WillReturnError(errors.New("relation does not exist"))
				mock.ExpectRollback()
			},
		},
		{
			name: "commit fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				expectNotExists(mock, email, "Sleep earlier.")
				expectInsert(mock, email, "Sleep earlier.", "2024-03-17")
				mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			tt.setup(mock)

			handler := createTestHandler(t, db)
			output, err := handler.Execute(context.Background(), &Input{
				UserEmail:       email,
				Recommendations: []string{"Sleep earlier."},
			})

			require.Error(t, err)
			assert.Nil(t, output)
			assert.Equal(t, apperrors.ErrCodeDatabaseInsertFailed, apperrors.CodeOf(err))
			assert.True(t, apperrors.IsRetryableErrorCode(apperrors.CodeOf(err)))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUniqueTitles(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, uniqueTitles([]string{" a ", "", "b", "a"}))
	assert.Empty(t, uniqueTitles(nil))
}
