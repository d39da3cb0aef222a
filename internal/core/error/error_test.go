package errx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapRedisNil(t *testing.T) {
	assert.NoError(t, WrapRedis(nil))
	assert.NoError(t, WrapUpstream(nil, 500))
}

func TestWrapRedisKeepsChain(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("load summary: %w", WrapRedis(cause))

	require.ErrorIs(t, err, cause)
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadGateway, appErr.Status)
	assert.Equal(t, RedisErrorMessage, appErr.Message)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWrapUpstreamStatus(t *testing.T) {
	err := WrapUpstream(errors.New("boom"), http.StatusUnauthorized)
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))

	err = WrapUpstream(errors.New("dial tcp"), 0)
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))

	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("plain")))
}

func TestAppErrorWithoutCause(t *testing.T) {
	err := New(nil, http.StatusBadRequest, "bad input")
	assert.Equal(t, "bad input", err.Error())
	assert.Nil(t, err.Unwrap())
}
