// internal/workers/learning/send-study-plan/models.go
package sendstudyplan

type Input struct {
	Email           string   `json:"email"`
	StudentName     string   `json:"studentName,omitempty"`
	ClusterName     string   `json:"clusterName"`
	Recommendations []string `json:"recommendations"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"` // "sent", "failed", "disabled"
	SentAt         string `json:"sentAt"` // ISO 8601
	Error          string `json:"error,omitempty"`
}

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)
