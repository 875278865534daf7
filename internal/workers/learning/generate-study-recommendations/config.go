// internal/workers/learning/generate-study-recommendations/config.go
package generatestudyrecommendations

import "time"

type Config struct {
	Timeout       time.Duration
	LowThreshold  float64
	HighThreshold float64
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       5 * time.Second,
		LowThreshold:  -0.3,
		HighThreshold: 0.3,
	}
}
