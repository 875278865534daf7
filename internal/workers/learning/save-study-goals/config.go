// internal/workers/learning/save-study-goals/config.go
package savestudygoals

import "time"

type Config struct {
	Timeout      time.Duration
	DeadlineDays int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      10 * time.Second,
		DeadlineDays: 7,
	}
}
