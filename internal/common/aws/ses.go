// internal/common/aws/ses.go
package aws

import (
	"context"
	"errors"
	"time"

	"learnstyle-workers/internal/common/metrics"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	gobreaker "github.com/sony/gobreaker/v2"
)

const sesBreakerName = "aws-ses"

// SESClient sends mail through SES behind a circuit breaker so a failing
// region stops absorbing job timeouts.
type SESClient struct {
	client *ses.Client
	cb     *gobreaker.CircuitBreaker[*ses.SendEmailOutput]
}

func NewSESClient(ctx context.Context, region string) (*SESClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SESClient{
		client: ses.NewFromConfig(cfg),
		cb:     newBreaker[*ses.SendEmailOutput](sesBreakerName),
	}, nil
}

func (s *SESClient) SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	return s.cb.Execute(func() (*ses.SendEmailOutput, error) {
		return s.client.SendEmail(ctx, input)
	})
}

// IsCircuitOpen reports whether err came from the breaker rejecting the call.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func newBreaker[T any](name string) *gobreaker.CircuitBreaker[T] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
