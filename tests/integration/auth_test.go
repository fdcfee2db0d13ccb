package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProtectedRoutesRequireBearerToken(t *testing.T) {
	a := newApp(t)

	for _, path := range []string{"/api/v1/user", "/api/v1/posts", "/api/v1/friends"} {
		rr := a.call(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}
}

func TestUnknownUserGets404(t *testing.T) {
	a := newApp(t)

	rr := a.call(http.MethodGet, "/api/v1/user", "test_nobody", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
