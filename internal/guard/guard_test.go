package guard

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequireAuthenticated(t *testing.T) {
	err := RequireAuthenticated(Actor{})
	assert.Equal(t, CodeUnauthenticated, CodeOf(err))

	assert.NoError(t, RequireAuthenticated(Actor{UserID: 7, Role: RoleUser}))
}

func TestRequireAdminChecksIdentityFirst(t *testing.T) {
	// No identity at all must read UNAUTHENTICATED, not FORBIDDEN
	err := RequireAdmin(Actor{})
	assert.Equal(t, CodeUnauthenticated, CodeOf(err))

	err = RequireAdmin(Actor{UserID: 7, Role: RoleUser})
	assert.Equal(t, CodeForbidden, CodeOf(err))

	assert.NoError(t, RequireAdmin(Actor{UserID: 1, Role: RoleAdmin}))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(Unauthenticated("x")))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(Forbidden("x")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("x")))
	assert.Equal(t, http.StatusGone, HTTPStatus(Expired("x")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(fmt.Errorf("db down")))
}

func TestCodeOfWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NotFound("intent %d not found", 5))
	assert.Equal(t, CodeNotFound, CodeOf(wrapped))
	assert.Empty(t, CodeOf(fmt.Errorf("plain")))
}
