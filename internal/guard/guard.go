package guard

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to API clients via the "code" field.
const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeExpired         = "EXPIRED"
)

// Platform role constants to avoid string typos
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Actor is the request-scoped identity every guarded operation receives.
// A zero UserID means the request carried no valid identity.
type Actor struct {
	UserID uint
	Role   string
}

func (a Actor) IsAuthenticated() bool {
	return a.UserID != 0
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Error is a typed authorization/lookup failure with a client-facing code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func Unauthenticated(msg string) *Error {
	return &Error{Code: CodeUnauthenticated, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Code: CodeForbidden, Message: msg}
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func Expired(msg string) *Error {
	return &Error{Code: CodeExpired, Message: msg}
}

// CodeOf returns the guard code of err, or "" for non-guard errors.
func CodeOf(err error) string {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code
	}
	return ""
}

// HTTPStatus maps a guard error to its HTTP status. Unknown errors map to 500.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeExpired:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// RequireAuthenticated returns UNAUTHENTICATED when the actor carries no identity.
func RequireAuthenticated(actor Actor) error {
	if !actor.IsAuthenticated() {
		return Unauthenticated("authentication required")
	}
	return nil
}

// RequireAdmin gates the admin surface. Existence of an identity is checked
// before the role so callers get UNAUTHENTICATED rather than FORBIDDEN when
// no token was presented at all.
func RequireAdmin(actor Actor) error {
	if err := RequireAuthenticated(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return Forbidden("admin access required")
	}
	return nil
}
