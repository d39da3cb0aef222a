package errx

import (
	"net/http"
)

// WrapRedis wraps a Redis error with a consistent status code and message.
// Callers treat redis.Nil as an empty result before reaching this.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Err:     err,
		Status:  http.StatusBadGateway,
		Message: RedisErrorMessage,
	}
}
