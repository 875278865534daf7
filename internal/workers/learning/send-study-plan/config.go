// internal/workers/learning/send-study-plan/config.go
package sendstudyplan

import "time"

type Config struct {
	EmailEnabled bool
	FromEmail    string
	Subject      string
	Timeout      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Subject: "Your personalised study plan",
		Timeout: 30 * time.Second,
	}
}
