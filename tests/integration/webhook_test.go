package integration

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wildAppAPI/internal/apperr"
	"wildAppAPI/tests/helpers"
)

func (a *app) deliver(eventType, userID string, secret string) *httptest.ResponseRecorder {
	a.t.Helper()
	body := helpers.MockClerkWebhookPayload(eventType, userID)
	headers, err := helpers.SignWebhook(secret, "msg_"+eventType, body, time.Now())
	require.NoError(a.t, err)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func TestClerkWebhookKeepsUsersInSync(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()
	userID := "test_webhook_" + time.Now().Format("150405.000")

	rr := a.deliver("user.created", userID, webhookSecret)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	u, err := a.store.GetUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "testuser", u.Username)

	rr = a.deliver("user.updated", userID, webhookSecret)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	u, err = a.store.GetUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "updateduser", u.Username)
	assert.Equal(t, "https://example.com/new-image.jpg", u.ProfilePicture)

	rr = a.deliver("user.deleted", userID, webhookSecret)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	_, err = a.store.GetUser(ctx, userID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestClerkWebhookRejectsForeignSecret(t *testing.T) {
	a := newApp(t)

	rr := a.deliver("user.created", "test_forged", "whsec_"+"Zm9yZ2VkLXNlY3JldA==")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
