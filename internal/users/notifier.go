package users

import "context"

// RegisteredEvent is emitted after a successful registration.
type RegisteredEvent struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
	Source    string `json:"source"`
}

// LoggedInEvent is emitted after a successful login.
type LoggedInEvent struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// Notifier is the fire-and-forget notification sink. Implementations must
// not block the triggering use case; the service discards their errors
// after logging.
type Notifier interface {
	UserRegistered(ctx context.Context, event RegisteredEvent) error
	UserLoggedIn(ctx context.Context, event LoggedInEvent) error
}
