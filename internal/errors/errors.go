package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrCourseNotFound is returned when a course is not found.
	ErrCourseNotFound = errors.New("course not found")
	// ErrSelfDelete is returned when an admin tries to delete their own account.
	ErrSelfDelete = errors.New("cannot delete yourself")
	// ErrForbidden is returned when the caller lacks the required role.
	ErrForbidden = errors.New("insufficient permissions")
	// ErrNotCourseOwner is returned when mutating a course owned by someone else.
	ErrNotCourseOwner = errors.New("not the owner of this course")
	// ErrTokenInvalid is returned when a verification token is unknown.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenUsed is returned when a verification token was already consumed.
	ErrTokenUsed = errors.New("token already used")
	// ErrTokenExpired is returned when a verification token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrPasswordTooShort is returned when a new password fails the length rule.
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	// ErrForgotPasswordDisabled is returned when the reset flow is switched off.
	ErrForgotPasswordDisabled = errors.New("password reset is disabled")
	// ErrMessageNotAllowed is returned when the sender has no relation to the course.
	ErrMessageNotAllowed = errors.New("not allowed to message in this course")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrCourseNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "COURSE_NOT_FOUND")
	case errors.Is(err, ErrSelfDelete):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "SELF_DELETE")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, err.Error(), "FORBIDDEN")
	case errors.Is(err, ErrNotCourseOwner):
		return NewHTTPError(http.StatusForbidden, err.Error(), "NOT_COURSE_OWNER")
	case errors.Is(err, ErrTokenInvalid):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "TOKEN_INVALID")
	case errors.Is(err, ErrTokenUsed):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "TOKEN_USED")
	case errors.Is(err, ErrTokenExpired):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "TOKEN_EXPIRED")
	case errors.Is(err, ErrPasswordTooShort):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "PASSWORD_TOO_SHORT")
	case errors.Is(err, ErrForgotPasswordDisabled):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "FORGOT_PASSWORD_DISABLED")
	case errors.Is(err, ErrMessageNotAllowed):
		return NewHTTPError(http.StatusForbidden, err.Error(), "MESSAGE_NOT_ALLOWED")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
