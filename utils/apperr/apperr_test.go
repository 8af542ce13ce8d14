package apperr

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindMapping(t *testing.T) {
	cases := []struct {
		kind   Kind
		status int
		code   string
	}{
		{Validation, http.StatusBadRequest, "VALIDATION_ERROR"},
		{NotFound, http.StatusNotFound, "NOT_FOUND"},
		{Conflict, http.StatusConflict, "CONFLICT"},
		{Upstream, http.StatusBadGateway, "UPSTREAM_ERROR"},
		{RateLimited, http.StatusTooManyRequests, "RATE_LIMITED"},
		{Unauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{Unprocessable, http.StatusUnprocessableEntity, "UNPROCESSABLE_ENTITY"},
		{Internal, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, c := range cases {
		assert.Equal(t, c.status, c.kind.HTTPStatus(), c.code)
		assert.Equal(t, c.code, c.kind.Code())
	}
}

func TestRateLimitedDistinctFromValidation(t *testing.T) {
	assert.NotEqual(t, RateLimited.Code(), Validation.Code())
	assert.NotEqual(t, RateLimited.HTTPStatus(), Validation.HTTPStatus())
}

func TestFromWrapsUnknownAsInternal(t *testing.T) {
	cause := errors.New("pq: connection refused")
	e := From(cause)
	require.NotNil(t, e)
	assert.Equal(t, Internal, e.Kind)
	assert.NotContains(t, e.Msg, "connection refused")
	assert.Equal(t, cause, errors.Cause(e))
}

func TestFromKeepsWrappedAppError(t *testing.T) {
	orig := NewValidation("days", "days must be between %d and %d", 1, 365)
	wrapped := errors.Wrap(orig, "category stats")

	e := From(wrapped)
	assert.Equal(t, Validation, e.Kind)
	assert.Equal(t, "days", e.Field)
	assert.True(t, Is(wrapped, Validation))
	assert.False(t, Is(wrapped, NotFound))
	assert.Nil(t, From(nil))
}
