package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error types for the storytail server
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnverifiedAccount  = errors.New("account email is not verified")
	ErrAccountNotFound    = errors.New("account not found")

	// Token errors
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")

	// Request errors
	ErrValidation  = errors.New("validation failed")
	ErrRateLimited = errors.New("too many attempts")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")

	// General errors
	ErrInternal = errors.New("internal error")
)

// userMessages maps sentinel errors to the text a client is allowed to see.
// Anything outside this table collapses to the generic internal message so
// that server-side detail never leaks.
var userMessages = map[error]string{
	ErrInvalidCredentials: "Invalid email or password.",
	ErrUnverifiedAccount:  "Please verify your email address. Check your inbox for the verification link.",
	ErrInvalidToken:       "That link is invalid or has already been used.",
	ErrTokenExpired:       "That link has expired. Please request a new one.",
	ErrTokenRevoked:       "Your session has ended. Please sign in again.",
	ErrValidation:         "Please enter a valid email and password.",
	ErrRateLimited:        "Too many attempts. Please try again later.",
	ErrUnauthorized:       "You must be signed in to do that.",
	ErrNotFound:           "Not found.",
	ErrInternal:           "Something went wrong. Please try again.",
}

// statusCodes maps sentinel errors to HTTP status codes at the route boundary.
var statusCodes = map[error]int{
	ErrInvalidCredentials: http.StatusUnauthorized,
	ErrUnverifiedAccount:  http.StatusUnauthorized,
	ErrInvalidToken:       http.StatusBadRequest,
	ErrTokenExpired:       http.StatusBadRequest,
	ErrTokenRevoked:       http.StatusUnauthorized,
	ErrValidation:         http.StatusBadRequest,
	ErrRateLimited:        http.StatusTooManyRequests,
	ErrUnauthorized:       http.StatusUnauthorized,
	ErrNotFound:           http.StatusNotFound,
	ErrInternal:           http.StatusInternalServerError,
}

// UserMessage returns the client-facing message for err. Unknown errors get
// the generic internal message.
func UserMessage(err error) string {
	for sentinel, msg := range userMessages {
		if errors.Is(err, sentinel) {
			return msg
		}
	}
	return userMessages[ErrInternal]
}

// HTTPStatus returns the status code for err, defaulting to 500.
func HTTPStatus(err error) int {
	for sentinel, code := range statusCodes {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return http.StatusInternalServerError
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
