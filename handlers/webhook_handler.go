package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	standardwebhooks "github.com/standard-webhooks/standard-webhooks/libraries/go"

	"wildAppAPI/internal/user"
	"wildAppAPI/services"
)

const webhookTolerance = 5 * time.Minute

var errBadSignature = errors.New("invalid webhook signature")

type clerkEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type clerkEmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

type clerkUser struct {
	ID                    string              `json:"id"`
	Username              string              `json:"username"`
	FirstName             string              `json:"first_name"`
	LastName              string              `json:"last_name"`
	EmailAddresses        []clerkEmailAddress `json:"email_addresses"`
	PrimaryEmailAddressID string              `json:"primary_email_address_id"`
	ImageURL              string              `json:"image_url"`
}

func (u clerkUser) primaryEmail() string {
	for _, e := range u.EmailAddresses {
		if e.ID == u.PrimaryEmailAddressID {
			return e.EmailAddress
		}
	}
	if len(u.EmailAddresses) > 0 {
		return u.EmailAddresses[0].EmailAddress
	}
	return ""
}

type WebhookHandler struct {
	userService *services.UserService
	secret      string
	now         func() time.Time
}

func NewWebhookHandler(userService *services.UserService, secret string) *WebhookHandler {
	return &WebhookHandler{
		userService: userService,
		secret:      secret,
		now:         time.Now,
	}
}

func (h *WebhookHandler) HandleClerkWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if h.secret == "" {
		log.Error().Msg("clerk webhook received but CLERK_WEBHOOK_SECRET is not set")
		respondWithError(w, http.StatusServiceUnavailable, "Webhooks are not configured")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Error reading body")
		return
	}

	if err := verifySvix(h.secret, r.Header, body, h.now()); err != nil {
		log.Warn().Err(err).Msg("rejected clerk webhook")
		respondWithError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	var event clerkEvent
	if err := json.Unmarshal(body, &event); err != nil {
		respondWithError(w, http.StatusBadRequest, "Error parsing webhook")
		return
	}

	log.Info().Str("type", event.Type).Msg("received clerk webhook")

	switch event.Type {
	case "user.created", "user.updated":
		err = h.handleUserUpsert(ctx, event.Data)
	case "user.deleted":
		err = h.handleUserDeleted(ctx, event.Data)
	default:
		log.Debug().Str("type", event.Type).Msg("unhandled clerk webhook event")
	}
	if err != nil {
		respondWithServiceError(w, r, fmt.Errorf("%s: %w", event.Type, err))
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *WebhookHandler) handleUserUpsert(ctx context.Context, data json.RawMessage) error {
	var cu clerkUser
	if err := json.Unmarshal(data, &cu); err != nil {
		return fmt.Errorf("failed to unmarshal user data: %w", err)
	}

	username := cu.Username
	if username == "" {
		username = strings.ToLower(cu.FirstName + cu.LastName)
	}

	_, err := h.userService.SyncFromClerk(ctx, &user.CreateUserRequest{
		ID:             cu.ID,
		Email:          cu.primaryEmail(),
		Username:       username,
		ProfilePicture: cu.ImageURL,
	})
	return err
}

func (h *WebhookHandler) handleUserDeleted(ctx context.Context, data json.RawMessage) error {
	var cu struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &cu); err != nil {
		return fmt.Errorf("failed to unmarshal user data: %w", err)
	}

	return h.userService.DeleteFromClerk(ctx, cu.ID)
}

// verifySvix checks the svix headers Clerk signs its webhooks with. Svix
// follows the Standard Webhooks scheme under its own header names.
func verifySvix(secret string, header http.Header, body []byte, now time.Time) error {
	msgID := header.Get("svix-id")
	timestamp := header.Get("svix-timestamp")
	signatures := header.Get("svix-signature")
	if msgID == "" || timestamp == "" || signatures == "" {
		return fmt.Errorf("%w: missing svix headers", errBadSignature)
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad timestamp", errBadSignature)
	}
	sent := time.Unix(ts, 0)
	if now.Sub(sent) > webhookTolerance || sent.Sub(now) > webhookTolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", errBadSignature)
	}

	wh, err := standardwebhooks.NewWebhook(secret)
	if err != nil {
		return fmt.Errorf("failed to load webhook secret: %w", err)
	}

	std := http.Header{}
	std.Set("webhook-id", msgID)
	std.Set("webhook-timestamp", timestamp)
	std.Set("webhook-signature", signatures)
	if err := wh.VerifyIgnoringTimestamp(body, std); err != nil {
		return fmt.Errorf("%w: %v", errBadSignature, err)
	}
	return nil
}
