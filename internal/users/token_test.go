package users

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService([]byte("secret"), time.Hour, time.Minute)

	token, err := svc.Issue("9b2a7f46-1c3d-4e5f-8a9b-0c1d2e3f4a5b", "jane@example.com", RoleManager)
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	require.Equal(t, "9b2a7f46-1c3d-4e5f-8a9b-0c1d2e3f4a5b", claims.UserID())
	require.Equal(t, "jane@example.com", claims.Email)
	require.Equal(t, RoleManager, claims.Role)
	require.False(t, svc.NearExpiry(claims))
}

func TestTokenExpiry(t *testing.T) {
	svc := NewTokenService([]byte("secret"), time.Hour, time.Minute)
	expired := NewTokenService([]byte("secret"), -time.Hour, time.Minute)
	// NewTokenService clamps non-positive TTLs, so sign with a negative
	// expiry directly through a second service sharing the secret.
	expired.ttl = -time.Hour

	token, err := expired.Issue("9b2a7f46-1c3d-4e5f-8a9b-0c1d2e3f4a5b", "jane@example.com", RoleUser)
	require.NoError(t, err)

	_, err = svc.Validate(token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenTamperingIsRejected(t *testing.T) {
	svc := NewTokenService([]byte("secret"), time.Hour, time.Minute)
	other := NewTokenService([]byte("other-secret"), time.Hour, time.Minute)

	token, err := other.Issue("9b2a7f46-1c3d-4e5f-8a9b-0c1d2e3f4a5b", "jane@example.com", RoleUser)
	require.NoError(t, err)

	_, err = svc.Validate(token)
	require.ErrorIs(t, err, ErrTokenMalformed)

	_, err = svc.Validate("not.a.token")
	require.ErrorIs(t, err, ErrTokenMalformed)

	_, err = svc.Validate("")
	require.ErrorIs(t, err, ErrTokenMalformed)
}

func TestTokenRequiresIdentityClaims(t *testing.T) {
	svc := NewTokenService([]byte("secret"), time.Hour, time.Minute)

	token, err := svc.Issue("", "jane@example.com", RoleUser)
	require.NoError(t, err)

	_, err = svc.Validate(token)
	require.ErrorIs(t, err, ErrTokenMalformed)
}

func TestNearExpiry(t *testing.T) {
	svc := NewTokenService([]byte("secret"), 30*time.Second, time.Minute)

	token, err := svc.Issue("9b2a7f46-1c3d-4e5f-8a9b-0c1d2e3f4a5b", "jane@example.com", RoleUser)
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	require.True(t, svc.NearExpiry(claims))
	require.False(t, svc.NearExpiry(nil))
}
