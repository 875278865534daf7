package database

// Table names shared by the workers that persist to postgres.
const (
	TablePredictions = "learning_style_predictions"
	TableStudyGoals  = "study_goals"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS learning_style_predictions (
		id              UUID PRIMARY KEY,
		student_id      TEXT NOT NULL,
		cluster_id      INTEGER NOT NULL,
		cluster_name    TEXT NOT NULL,
		recommendations JSONB NOT NULL DEFAULT '[]',
		input_hash      TEXT NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_predictions_student ON learning_style_predictions (student_id)`,
	`CREATE TABLE IF NOT EXISTS study_goals (
		id          UUID PRIMARY KEY,
		user_email  TEXT NOT NULL,
		title       TEXT NOT NULL,
		description TEXT NOT NULL,
		status      TEXT NOT NULL DEFAULT 'Pending',
		progress    INTEGER NOT NULL DEFAULT 0,
		deadline    DATE NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_study_goals_email ON study_goals (user_email)`,
}
