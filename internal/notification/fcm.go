package notification

import (
	"context"
	"encoding/base64"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"wildAppAPI/internal/user"
)

type FCMService struct {
	client *messaging.Client
}

// NewFCMService initializes FCM from a base64 encoded service account JSON.
func NewFCMService(ctx context.Context, encodedCreds string) (*FCMService, error) {
	decoded, err := base64.StdEncoding.DecodeString(encodedCreds)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 firebase credentials: %w", err)
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsJSON(decoded))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	log.Info().Msg("FCM service initialized")
	return &FCMService{client: client}, nil
}

// SendPush sends one message per token. It only fails when every send
// failed.
func (s *FCMService) SendPush(ctx context.Context, tokens []*user.DeviceToken, n *Notification) error {
	if len(tokens) == 0 {
		return nil
	}

	successCount := 0
	failureCount := 0
	for _, t := range tokens {
		_, err := s.client.Send(ctx, Message(t.Token, n))
		if err != nil {
			log.Warn().Err(err).Str("user_id", t.UserID).Str("platform", t.Platform).Msg("FCM send failed")
			failureCount++
		} else {
			successCount++
		}
	}

	log.Debug().Int("sent", successCount).Int("failed", failureCount).Str("type", string(n.Type)).Msg("FCM batch done")
	if successCount == 0 && failureCount > 0 {
		return fmt.Errorf("all %d push notifications failed", failureCount)
	}
	return nil
}

// Message builds the FCM payload for one device.
func Message(token string, n *Notification) *messaging.Message {
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: n.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}
}
