// internal/workers/learning/save-study-goals/models.go
package savestudygoals

type Input struct {
	UserEmail       string   `json:"userEmail"`
	Recommendations []string `json:"recommendations"`
	DeadlineDays    int      `json:"deadlineDays,omitempty"`
}

type Output struct {
	GoalIDs      []string `json:"goalIds"`
	GoalsCreated int      `json:"goalsCreated"`
	GoalsSkipped int      `json:"goalsSkipped"`
	Deadline     string   `json:"deadline"` // YYYY-MM-DD
}

const (
	GoalDescription = "Generated from AI Recommendation"
	StatusPending   = "Pending"
	StatusCompleted = "Completed"
)
