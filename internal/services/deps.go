package services

import (
	"context"
	"time"

	"soundcrew/internal/realtime"
)

// Publisher fans realtime events out to connected clients. realtime.Bus satisfies it.
type Publisher interface {
	Publish(ctx context.Context, env realtime.Envelope) error
}

// PushNotification is a device notification addressed to one user.
type PushNotification struct {
	Title string
	Body  string
	Data  map[string]string
}

// Pusher delivers notifications to device tokens and returns the tokens the
// provider rejected as unregistered.
type Pusher interface {
	Send(ctx context.Context, tokens []string, n PushNotification) (invalid []string, err error)
}

// SMSSender delivers plain SMS and Alimtalk messages.
type SMSSender interface {
	SendSMS(ctx context.Context, to, text string) error
	SendAlimtalk(ctx context.Context, to, templateID string, variables map[string]string) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, realtime.Envelope) error { return nil }

// timestamp is the current time as the database layer stores it.
func timestamp(now func() time.Time) time.Time {
	if now == nil {
		now = time.Now
	}
	return now().UTC().Truncate(time.Microsecond)
}
