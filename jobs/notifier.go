package jobs

import (
	"context"
	"time"

	"github.com/meridian-id/meridian-id/internal/users"
)

// Notifier publishes account events to the Asynq queue. It satisfies
// users.Notifier so services stay unaware of the transport.
type Notifier struct {
	client *Client
}

// NewNotifier wraps a queue client as an account event sink.
func NewNotifier(client *Client) *Notifier {
	return &Notifier{client: client}
}

// UserRegistered enqueues the post-registration task.
func (n *Notifier) UserRegistered(ctx context.Context, event users.RegisteredEvent) error {
	if n == nil || n.client == nil {
		return nil
	}
	_, err := n.client.EnqueueUserRegistered(ctx, registeredPayload(event))
	return err
}

func registeredPayload(event users.RegisteredEvent) UserRegisteredPayload {
	return UserRegisteredPayload{
		UserID:       event.UserID,
		Email:        event.Email,
		FirstName:    event.FirstName,
		LastName:     event.LastName,
		Role:         string(event.Role),
		Source:       event.Source,
		RegisteredAt: time.Now().UTC(),
	}
}

// UserLoggedIn enqueues the login audit task.
func (n *Notifier) UserLoggedIn(ctx context.Context, event users.LoggedInEvent) error {
	if n == nil || n.client == nil {
		return nil
	}
	_, err := n.client.EnqueueUserLoggedIn(ctx, UserLoggedInPayload{
		UserID:     event.UserID,
		Email:      event.Email,
		IPAddress:  event.IPAddress,
		UserAgent:  event.UserAgent,
		LoggedInAt: time.Now().UTC(),
	})
	return err
}
