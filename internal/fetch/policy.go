package fetch

import (
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "quantkit/internal/errors"
	"quantkit/internal/request"
)

var validate = validator.New()

// RetryPolicy bounds the attempts of one fetch
type RetryPolicy struct {
	// MaxAttempts caps the number of attempts; zero means one per pool entry
	MaxAttempts int `validate:"gte=0"`
	// Delay is slept between a failed attempt and the next one
	Delay time.Duration `validate:"gte=0"`
	// Timeout bounds each attempt; zero means request.DefaultTimeout
	Timeout time.Duration `validate:"gte=0"`
}

// Validate checks that no field is negative
func (p RetryPolicy) Validate() error {
	if err := validate.Struct(p); err != nil {
		return apperrors.NewValidationError("invalid retry policy", err)
	}
	return nil
}

// attempts derives the attempt budget for a pool of the given size
func (p RetryPolicy) attempts(poolSize int) int {
	if p.MaxAttempts > 0 {
		return p.MaxAttempts
	}
	return poolSize
}

func (p RetryPolicy) timeout() time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	return request.DefaultTimeout
}
