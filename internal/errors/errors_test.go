package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
		{ErrCourseNotFound, http.StatusNotFound, "COURSE_NOT_FOUND"},
		{ErrSelfDelete, http.StatusBadRequest, "SELF_DELETE"},
		{ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{ErrNotCourseOwner, http.StatusForbidden, "NOT_COURSE_OWNER"},
		{ErrTokenInvalid, http.StatusBadRequest, "TOKEN_INVALID"},
		{ErrTokenUsed, http.StatusBadRequest, "TOKEN_USED"},
		{ErrTokenExpired, http.StatusBadRequest, "TOKEN_EXPIRED"},
		{ErrPasswordTooShort, http.StatusBadRequest, "PASSWORD_TOO_SHORT"},
		{ErrForgotPasswordDisabled, http.StatusBadRequest, "FORGOT_PASSWORD_DISABLED"},
		{ErrMessageNotAllowed, http.StatusForbidden, "MESSAGE_NOT_ALLOWED"},
	}

	for _, tt := range tests {
		t.Run(tt.expectedCode, func(t *testing.T) {
			httpErr := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.expectedStatus, httpErr.StatusCode)
			assert.Equal(t, tt.expectedCode, httpErr.Code)
			assert.Equal(t, tt.err.Error(), httpErr.Message)
		})
	}

	t.Run("wrapped sentinel still maps", func(t *testing.T) {
		httpErr := MapErrorToHTTP(fmt.Errorf("find course: %w", ErrCourseNotFound))
		assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
		assert.Equal(t, "COURSE_NOT_FOUND", httpErr.Code)
	})

	t.Run("unknown error hides the detail", func(t *testing.T) {
		httpErr := MapErrorToHTTP(errors.New("dial tcp: connection refused"))
		assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
		assert.Equal(t, "INTERNAL_ERROR", httpErr.Code)
		assert.Equal(t, "internal server error", httpErr.Message)
	})
}
