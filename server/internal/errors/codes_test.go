package errors

import (
	"context"
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIError_HTTPStatus(t *testing.T) {
	tests := []struct {
		err  *APIError
		want int
	}{
		{Unauthorized("sign in"), http.StatusUnauthorized},
		{RateLimitExceeded("slow down"), http.StatusTooManyRequests},
		{InvalidArgument("text is required"), http.StatusBadRequest},
		{NotFound("unknown provider"), http.StatusNotFound},
		{ServiceUnavailable("oauth is not configured"), http.StatusServiceUnavailable},
		{ContextCanceled(context.Canceled), 499},
		{Internal(stderrors.New("boom")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	err := ContextCanceled(context.Canceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "[CONTEXT_CANCELED] operation canceled: context canceled", err.Error())
	assert.Equal(t, "[NOT_FOUND] unknown provider", NotFound("unknown provider").Error())
}
