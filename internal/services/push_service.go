package services

import (
	"context"
	"errors"

	"firebase.google.com/go/messaging"
	"github.com/google/uuid"

	"soundcrew/internal/logger"
	"soundcrew/internal/models"
	"soundcrew/internal/repositories"
)

const (
	PushKindMessage = "message"
	PushKindRequest = "request"
)

// FCMClient sends notifications through Firebase Cloud Messaging.
type FCMClient struct {
	Client *messaging.Client
}

func NewFCMClient(client *messaging.Client) *FCMClient {
	return &FCMClient{Client: client}
}

// Send delivers n to every token, one request per token. Tokens FCM reports as
// unregistered are returned so the caller can forget them.
func (c *FCMClient) Send(ctx context.Context, tokens []string, n PushNotification) ([]string, error) {
	var invalid []string
	var errs []error
	for _, token := range tokens {
		_, err := c.Client.Send(ctx, fcmMessage(token, n))
		if err == nil {
			continue
		}
		if messaging.IsRegistrationTokenNotRegistered(err) {
			invalid = append(invalid, token)
			continue
		}
		errs = append(errs, err)
	}
	return invalid, errors.Join(errs...)
}

func fcmMessage(token string, n PushNotification) *messaging.Message {
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
				ChannelID: "high_priority_channel",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority": "10",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: n.Title,
						Body:  n.Body,
					},
					Sound: "default",
				},
			},
		},
	}
}

// PushService decides whether a user wants a notification and sends it to
// their registered devices. A nil Client disables pushes.
type PushService struct {
	UserRepo   *repositories.UserRepository
	DeviceRepo *repositories.DeviceRepository
	Client     Pusher
	Logger     logger.Logger
}

// Notify sends n to userID when the user's setting for kind is on. Delivery
// problems are logged, never returned.
func (s *PushService) Notify(ctx context.Context, userID, kind string, n PushNotification) {
	if s == nil || s.Client == nil {
		return
	}

	user, err := s.UserRepo.GetUserByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, models.ErrNoRecord) {
			s.Logger.Errorf("push: load user %s: %v", userID, err)
		}
		return
	}
	if !wantsPush(user, kind) {
		return
	}

	tokens, err := s.DeviceRepo.GetTokensByUser(ctx, userID)
	if err != nil {
		s.Logger.Errorf("push: load devices of %s: %v", userID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	invalid, err := s.Client.Send(ctx, tokens, n)
	if err != nil {
		s.Logger.Errorf("push: send to %s: %v", userID, err)
	}
	for _, token := range invalid {
		if err := s.DeviceRepo.DeleteByToken(ctx, token); err != nil {
			s.Logger.Errorf("push: drop token: %v", err)
		}
	}
}

func wantsPush(u models.User, kind string) bool {
	switch kind {
	case PushKindMessage:
		return u.NotifyMessage
	case PushKindRequest:
		return u.NotifyRequest
	}
	return false
}

// RegisterDevice stores the token for the user, moving it if another user had it.
func (s *PushService) RegisterDevice(ctx context.Context, userID string, in models.DeviceInput) error {
	platform := in.Platform
	if platform == "" {
		platform = "web"
	}
	now := timestamp(nil)
	return s.DeviceRepo.UpsertDevice(ctx, models.PushDevice{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     in.Token,
		Platform:  platform,
		CreatedAt: now,
		UpdatedAt: now,
	})
}
