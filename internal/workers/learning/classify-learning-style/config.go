// internal/workers/learning/classify-learning-style/config.go
package classifylearningstyle

import "time"

type Config struct {
	Timeout       time.Duration
	CacheTTL      time.Duration // 0 disables the prediction cache
	ValidateInput bool
	StoreHistory  bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       10 * time.Second,
		CacheTTL:      time.Hour,
		ValidateInput: true,
		StoreHistory:  true,
	}
}
