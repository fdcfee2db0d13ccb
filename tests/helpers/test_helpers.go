package helpers

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	standardwebhooks "github.com/standard-webhooks/standard-webhooks/libraries/go"

	"wildAppAPI/internal/store/pgstore"
)

// SetupTestDB connects to TEST_DATABASE_URL and migrates it to the latest
// version. The test is skipped when the variable is not set.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	if err := pgstore.Migrate(ctx, dbURL, "up"); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	t.Cleanup(func() { CleanupTestDB(t, pool) })
	return pool
}

// CleanupTestDB removes rows created by tests. Test users carry a "test_"
// id prefix and everything else cascades from them.
func CleanupTestDB(t *testing.T, pool *pgxpool.Pool) {
	ctx := context.Background()
	for _, q := range []string{
		"DELETE FROM challenges WHERE name LIKE 'test %'",
		"DELETE FROM users WHERE id LIKE 'test_%'",
	} {
		if _, err := pool.Exec(ctx, q); err != nil {
			t.Logf("Warning: failed to cleanup test data: %v", err)
		}
	}
	pool.Close()
}

// SignWebhook returns the svix headers Clerk sends for body, signed with a
// "whsec_" secret.
func SignWebhook(secret, msgID string, body []byte, at time.Time) (map[string]string, error) {
	wh, err := standardwebhooks.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to load secret: %w", err)
	}
	sig, err := wh.Sign(msgID, at, body)
	if err != nil {
		return nil, fmt.Errorf("failed to sign payload: %w", err)
	}

	return map[string]string{
		"svix-id":        msgID,
		"svix-timestamp": strconv.FormatInt(at.Unix(), 10),
		"svix-signature": sig,
	}, nil
}

// MockClerkWebhookPayload creates a Clerk user event payload.
func MockClerkWebhookPayload(eventType string, clerkID string) []byte {
	payload := ""

	switch eventType {
	case "user.created":
		payload = fmt.Sprintf(`{
			"data": {
				"id": "%s",
				"first_name": "Test",
				"last_name": "User",
				"email_addresses": [{
					"id": "email_123",
					"email_address": "test.user@example.com"
				}],
				"primary_email_address_id": "email_123",
				"username": "testuser",
				"image_url": "https://example.com/image.jpg"
			},
			"object": "event",
			"type": "%s"
		}`, clerkID, eventType)

	case "user.updated":
		payload = fmt.Sprintf(`{
			"data": {
				"id": "%s",
				"first_name": "Updated",
				"last_name": "User",
				"email_addresses": [{
					"id": "email_123",
					"email_address": "test.user@example.com"
				}],
				"primary_email_address_id": "email_123",
				"username": "updateduser",
				"image_url": "https://example.com/new-image.jpg"
			},
			"object": "event",
			"type": "%s"
		}`, clerkID, eventType)

	case "user.deleted":
		payload = fmt.Sprintf(`{
			"data": {
				"id": "%s",
				"deleted": true
			},
			"object": "event",
			"type": "%s"
		}`, clerkID, eventType)
	}

	return []byte(payload)
}
