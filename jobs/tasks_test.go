package jobs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-id/meridian-id/internal/users"
)

func TestRegisteredPayloadCarriesFullIdentity(t *testing.T) {
	event := users.RegisteredEvent{
		UserID:    "9b2a7f46-1c3d-4e5f-8a9b-0c1d2e3f4a5b",
		Email:     "new@example.com",
		FirstName: "New",
		LastName:  "Account",
		Role:      users.RoleManager,
		Source:    "web",
	}

	payload := registeredPayload(event)
	require.Equal(t, event.UserID, payload.UserID)
	require.Equal(t, event.LastName, payload.LastName)
	require.Equal(t, event.Source, payload.Source)
	require.Equal(t, string(users.RoleManager), payload.Role)
	require.False(t, payload.RegisteredAt.IsZero())

	task, err := NewUserRegisteredTask(payload)
	require.NoError(t, err)
	require.Equal(t, TaskTypeUserRegistered, task.Type())

	var decoded UserRegisteredPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	require.Equal(t, "Account", decoded.LastName)
	require.Equal(t, "web", decoded.Source)
}

func TestNewUserLoggedInTask(t *testing.T) {
	task, err := NewUserLoggedInTask(UserLoggedInPayload{
		UserID:    "9b2a7f46-1c3d-4e5f-8a9b-0c1d2e3f4a5b",
		Email:     "new@example.com",
		IPAddress: "203.0.113.9",
		UserAgent: "cli/1.0",
	})
	require.NoError(t, err)
	require.Equal(t, TaskTypeUserLoggedIn, task.Type())

	var decoded UserLoggedInPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	require.Equal(t, "203.0.113.9", decoded.IPAddress)
}
