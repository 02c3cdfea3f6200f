package users

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/meridian-id/meridian-id/internal/shared"
)

var userRowColumns = []string{
	"id", "email", "password_hash", "first_name", "last_name", "phone", "date_of_birth",
	"role", "status", "is_active", "email_verified", "login_attempts", "locked_until",
	"password_reset_token", "password_reset_expires", "email_verification_token", "last_login",
	"preferences", "metadata", "created_by", "updated_by", "created_at", "updated_at",
}

func userRow(user User) *pgxmock.Rows {
	return pgxmock.NewRows(userRowColumns).AddRow(
		user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.Phone, user.DateOfBirth, user.Role, user.Status, user.IsActive,
		user.EmailVerified, user.LoginAttempts, user.LockedUntil,
		user.PasswordResetToken, user.PasswordResetExpires, user.EmailVerificationToken,
		user.LastLogin, user.Preferences, user.Metadata,
		user.CreatedBy, user.UpdatedBy, user.CreatedAt, user.UpdatedAt,
	)
}

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, Repository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewRepositoryWithDB(mock)
}

func sampleUser() User {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return User{
		ID:          "9b2a7f46-1c3d-4e5f-8a9b-0c1d2e3f4a5b",
		Email:       "row@example.com",
		FirstName:   "Row",
		LastName:    "Sample",
		Role:        RoleUser,
		Status:      StatusActive,
		IsActive:    true,
		Preferences: Document{"theme": "dark"},
		Metadata:    Document{},
		CreatedBy:   "seed",
		UpdatedBy:   "seed",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestRepositoryGetByID(t *testing.T) {
	mock, repo := newMockRepo(t)
	want := sampleUser()

	mock.ExpectQuery(`(?s)SELECT (.+) FROM users WHERE id = \$1`).
		WithArgs(want.ID).
		WillReturnRows(userRow(want))

	got, err := repo.GetByID(context.Background(), want.ID)
	require.NoError(t, err)
	require.Equal(t, want.Email, got.Email)
	require.Equal(t, "dark", got.Preferences["theme"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetByIDNotFound(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery(`(?s)SELECT (.+) FROM users WHERE id = \$1`).
		WithArgs("9b2a7f46-1c3d-4e5f-8a9b-0c1d2e3f4a5b").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "9b2a7f46-1c3d-4e5f-8a9b-0c1d2e3f4a5b")
	require.Equal(t, shared.KindNotFound, shared.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreateDuplicateEmail(t *testing.T) {
	mock, repo := newMockRepo(t)
	user := sampleUser()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(),
		).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

	_, err := repo.Create(context.Background(), user)
	require.Equal(t, shared.KindConflict, shared.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryDelete(t *testing.T) {
	mock, repo := newMockRepo(t)
	id := "9b2a7f46-1c3d-4e5f-8a9b-0c1d2e3f4a5b"

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	deleted, err := repo.Delete(context.Background(), id)
	require.NoError(t, err)
	require.True(t, deleted)

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	deleted, err = repo.Delete(context.Background(), id)
	require.NoError(t, err)
	require.False(t, deleted)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryUpdateEmptyFallsBackToGet(t *testing.T) {
	mock, repo := newMockRepo(t)
	want := sampleUser()

	mock.ExpectQuery(`(?s)SELECT (.+) FROM users WHERE id = \$1`).
		WithArgs(want.ID).
		WillReturnRows(userRow(want))

	got, err := repo.Update(context.Background(), want.ID, UserUpdate{})
	require.NoError(t, err)
	require.Equal(t, want.Email, got.Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryUpdateBuildsSetList(t *testing.T) {
	mock, repo := newMockRepo(t)
	want := sampleUser()
	first := "Renamed"

	mock.ExpectQuery(`UPDATE users SET first_name = \$1, locked_until = NULL, updated_at = \$2 WHERE id = \$3`).
		WithArgs(first, pgxmock.AnyArg(), want.ID).
		WillReturnRows(userRow(want))

	_, err := repo.Update(context.Background(), want.ID, UserUpdate{FirstName: &first, ClearLockedUntil: true})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryUpdatePersistsEveryStatus(t *testing.T) {
	statuses := []string{StatusActive, StatusInactive, StatusSuspended, StatusPendingVerification}

	schema, err := os.ReadFile("../../scripts/schema.sql")
	require.NoError(t, err)
	for _, status := range statuses {
		require.Contains(t, string(schema), "'"+status+"'",
			"status %q must be allowed by the users table constraint", status)
	}

	mock, repo := newMockRepo(t)
	want := sampleUser()
	for _, status := range statuses {
		status := status
		mock.ExpectQuery(`UPDATE users SET status = \$1, updated_at = \$2 WHERE id = \$3`).
			WithArgs(status, pgxmock.AnyArg(), want.ID).
			WillReturnRows(userRow(want))

		_, err := repo.Update(context.Background(), want.ID, UserUpdate{Status: &status})
		require.NoError(t, err)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryListAppliesFilters(t *testing.T) {
	mock, repo := newMockRepo(t)
	want := sampleUser()
	active := true
	search := "row"

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE is_active = \$1 AND \(first_name ILIKE \$2 OR last_name ILIKE \$2 OR email ILIKE \$2\)`).
		WithArgs(active, "%row%").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`(?s)SELECT (.+) FROM users`).
		WithArgs(active, "%row%", 10, 0).
		WillReturnRows(userRow(want))

	items, total, err := repo.List(context.Background(), ListUsersRequest{
		Page:     1,
		Limit:    10,
		IsActive: &active,
		Search:   &search,
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, items, 1)
	require.Equal(t, want.ID, items[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
