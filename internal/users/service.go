package users

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-id/meridian-id/internal/shared"
)

// ErrInvalidCredentials is the single generic login failure. Missing email
// and wrong password are deliberately indistinguishable to the caller.
var ErrInvalidCredentials = shared.E(shared.KindUnauthorized, "invalid credentials")

// Login lockout policy.
const (
	maxLoginAttempts = 5
	lockoutDuration  = 15 * time.Minute
)

// Service orchestrates the account use cases against the store, the
// hasher and the token service. It holds no state between invocations.
type Service struct {
	repo     Repository
	hasher   *Hasher
	tokens   *TokenService
	notifier Notifier
	cache    *Cache
	logger   *slog.Logger
}

// NewService constructs a Service. Notifier and cache may be nil.
func NewService(repo Repository, hasher *Hasher, tokens *TokenService, notifier Notifier, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, hasher: hasher, tokens: tokens, notifier: notifier, cache: cache, logger: logger}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func requireID(id string) error {
	if id == "" {
		return shared.E(shared.KindValidation, "user id is required")
	}
	if !ValidID(id) {
		return shared.E(shared.KindValidation, "invalid user id format")
	}
	return nil
}

// Register creates a new account. The password is hashed before anything
// is persisted and never appears in the returned account.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	email := normalizeEmail(req.Email)
	if !ValidEmail(email) {
		return nil, shared.E(shared.KindValidation, "invalid email format")
	}
	if len(req.Password) < 8 {
		return nil, shared.E(shared.KindValidation, "password must be at least 8 characters long")
	}
	role := req.Role
	if role == "" {
		role = RoleUser
	}
	if err := ValidateRole(role); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, shared.E(shared.KindConflict, "user already exists with this email")
	} else if shared.KindOf(err) != shared.KindNotFound {
		return nil, shared.WrapErr("register: check existing email", err)
	}

	digest, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	id := uuid.NewString()
	user := User{
		ID:           id,
		Email:        email,
		PasswordHash: digest,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         role,
		Status:       StatusActive,
		IsActive:     true,
		Preferences:  Document{},
		Metadata:     Document{},
		CreatedBy:    id,
		UpdatedBy:    id,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		event := RegisteredEvent{
			UserID:    created.ID,
			Email:     created.Email,
			FirstName: created.FirstName,
			LastName:  created.LastName,
			Role:      created.Role,
			Source:    "web",
		}
		if err := s.notifier.UserRegistered(ctx, event); err != nil {
			s.logger.Warn("notify user registered", slog.Any("error", err))
		}
	}

	return created.Sanitized(), nil
}

// Login verifies credentials and issues a bearer token. All credential
// failures surface as the same generic Unauthorized outcome.
func (s *Service) Login(ctx context.Context, req LoginRequest, ip, userAgent string) (*LoginResult, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if shared.KindOf(err) == shared.KindNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, shared.WrapErr("login: lookup", err)
	}

	now := time.Now().UTC()
	if user.Locked(now) {
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.Verify(ctx, req.Password, user.PasswordHash) {
		s.recordFailedLogin(ctx, user, now)
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, shared.E(shared.KindForbidden, "account is deactivated")
	}

	token, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	s.recordSuccessfulLogin(ctx, user, now)

	if s.notifier != nil {
		event := LoggedInEvent{UserID: user.ID, Email: user.Email, IPAddress: ip, UserAgent: userAgent}
		if err := s.notifier.UserLoggedIn(ctx, event); err != nil {
			s.logger.Warn("notify user logged in", slog.Any("error", err))
		}
	}

	return &LoginResult{User: user.Sanitized(), Token: token}, nil
}

// recordFailedLogin bumps the attempt counter and arms the lockout after
// too many consecutive failures. Best effort: bookkeeping failures never
// change the login outcome.
func (s *Service) recordFailedLogin(ctx context.Context, user *User, now time.Time) {
	attempts := user.LoginAttempts + 1
	upd := UserUpdate{LoginAttempts: &attempts}
	if attempts >= maxLoginAttempts {
		lockedUntil := now.Add(lockoutDuration)
		upd.LockedUntil = &lockedUntil
	}
	if _, err := s.repo.Update(ctx, user.ID, upd); err != nil {
		s.logger.Warn("record failed login", slog.String("user_id", user.ID), slog.Any("error", err))
	}
	s.cache.Invalidate(ctx, user.ID)
}

func (s *Service) recordSuccessfulLogin(ctx context.Context, user *User, now time.Time) {
	zero := 0
	upd := UserUpdate{LoginAttempts: &zero, ClearLockedUntil: true, LastLogin: &now}
	if _, err := s.repo.Update(ctx, user.ID, upd); err != nil {
		s.logger.Warn("record successful login", slog.String("user_id", user.ID), slog.Any("error", err))
	}
	s.cache.Invalidate(ctx, user.ID)
}

// VerifyToken validates a bearer token and re-checks that the referenced
// account still exists and is active.
func (s *Service) VerifyToken(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, shared.E(shared.KindValidation, "token is required")
	}
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetByID(ctx, claims.UserID())
	if err != nil {
		if shared.KindOf(err) == shared.KindNotFound {
			return nil, shared.E(shared.KindUnauthorized, "user no longer exists")
		}
		return nil, shared.WrapErr("verify token: lookup", err)
	}
	if !user.IsActive {
		return nil, shared.E(shared.KindUnauthorized, "account is deactivated")
	}
	return claims, nil
}

// VerifyTokenWithRefresh validates a token and, when it is close to
// expiry, attaches a freshly issued replacement carrying the same claims.
// The original token stays valid; there is no revocation list.
func (s *Service) VerifyTokenWithRefresh(ctx context.Context, token string) (*VerifyResult, error) {
	claims, err := s.VerifyToken(ctx, token)
	if err != nil {
		return nil, err
	}
	result := &VerifyResult{Claims: claims}
	if s.tokens.NearExpiry(claims) {
		renewed, err := s.tokens.Issue(claims.UserID(), claims.Email, claims.Role)
		if err != nil {
			s.logger.Warn("renew token", slog.Any("error", err))
			return result, nil
		}
		result.NewToken = renewed
	}
	return result, nil
}

// GetByID fetches a sanitized account by id.
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if cached, ok := s.cache.Get(ctx, id); ok {
		if !cached.IsActive {
			return nil, shared.E(shared.KindForbidden, "account is deactivated")
		}
		return cached, nil
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.E(shared.KindForbidden, "account is deactivated")
	}
	s.cache.Set(ctx, user)
	return user.Sanitized(), nil
}

// GetByEmail fetches a sanitized account by email, case-insensitively.
func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	if email == "" {
		return nil, shared.E(shared.KindValidation, "email is required")
	}
	if !ValidEmail(email) {
		return nil, shared.E(shared.KindValidation, "invalid email format")
	}
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.E(shared.KindForbidden, "account is deactivated")
	}
	return user.Sanitized(), nil
}

// Update applies a partial update after the full precondition chain:
// identifier shape, existence, field validation, email uniqueness, role
// membership. An empty update is a no-op returning the current account.
func (s *Service) Update(ctx context.Context, id string, req UpdateUserRequest, actorID string) (*User, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateUpdate(req); err != nil {
		return nil, err
	}

	upd := UserUpdate{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Phone:       req.Phone,
		DateOfBirth: req.DateOfBirth,
		Status:      req.Status,
		IsActive:    req.IsActive,
		Preferences: req.Preferences,
		Metadata:    req.Metadata,
	}

	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email != existing.Email {
			if _, err := s.repo.GetByEmail(ctx, email); err == nil {
				return nil, shared.E(shared.KindConflict, "email already exists")
			} else if shared.KindOf(err) != shared.KindNotFound {
				return nil, shared.WrapErr("update: check email uniqueness", err)
			}
			upd.Email = &email
		}
	}

	if req.Password != nil {
		digest, err := s.hasher.Hash(ctx, *req.Password)
		if err != nil {
			return nil, err
		}
		upd.PasswordHash = &digest
	}

	if req.Role != nil {
		if err := ValidateRole(*req.Role); err != nil {
			return nil, err
		}
		upd.Role = req.Role
	}

	if upd.IsZero() {
		return existing.Sanitized(), nil
	}

	updatedBy := actorID
	if updatedBy == "" {
		updatedBy = id
	}
	upd.UpdatedBy = &updatedBy

	updated, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, id)
	return updated.Sanitized(), nil
}

// UpdateProfile restricts an update to the profile fields.
func (s *Service) UpdateProfile(ctx context.Context, id string, req UpdateUserRequest) (*User, error) {
	profile := UpdateUserRequest{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Phone:       req.Phone,
		DateOfBirth: req.DateOfBirth,
		Preferences: req.Preferences,
	}
	return s.Update(ctx, id, profile, id)
}

// ChangePassword rotates the password after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) (*User, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(ctx, currentPassword, user.PasswordHash) {
		return nil, shared.E(shared.KindUnauthorized, "current password is incorrect")
	}
	if len(newPassword) < 8 {
		return nil, shared.E(shared.KindValidation, "new password must be at least 8 characters long")
	}
	password := newPassword
	return s.Update(ctx, id, UpdateUserRequest{Password: &password}, id)
}

// Deactivate turns off the account's authenticated-actor gate.
func (s *Service) Deactivate(ctx context.Context, id, actorID string) (*User, error) {
	inactive := false
	status := StatusInactive
	return s.Update(ctx, id, UpdateUserRequest{IsActive: &inactive, Status: &status}, actorID)
}

// Activate re-enables a previously deactivated account.
func (s *Service) Activate(ctx context.Context, id, actorID string) (*User, error) {
	active := true
	status := StatusActive
	return s.Update(ctx, id, UpdateUserRequest{IsActive: &active, Status: &status}, actorID)
}

// UpdateRole assigns a role from the closed role set.
func (s *Service) UpdateRole(ctx context.Context, id string, role Role, actorID string) (*User, error) {
	if err := ValidateRole(role); err != nil {
		return nil, err
	}
	r := role
	return s.Update(ctx, id, UpdateUserRequest{Role: &r}, actorID)
}

// Delete removes an account through the self-service path. Admin-grade
// targets and self-deletion are rejected.
func (s *Service) Delete(ctx context.Context, id, actorID string) (bool, error) {
	if err := requireID(id); err != nil {
		return false, err
	}
	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if err := CanSelfDelete(target, actorID); err != nil {
		return false, err
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if !deleted {
		return false, shared.E(shared.KindNotFound, "user not found")
	}
	s.cache.Invalidate(ctx, id)
	return true, nil
}

// SoftDelete deactivates the account in place, retaining the record.
func (s *Service) SoftDelete(ctx context.Context, id, actorID string) (bool, error) {
	if err := requireID(id); err != nil {
		return false, err
	}
	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if err := CanSoftDelete(target, actorID); err != nil {
		return false, err
	}
	inactive := false
	status := StatusInactive
	upd := UserUpdate{IsActive: &inactive, Status: &status}
	if actorID != "" {
		upd.UpdatedBy = &actorID
	}
	if _, err := s.repo.Update(ctx, id, upd); err != nil {
		return false, err
	}
	s.cache.Invalidate(ctx, id)
	return true, nil
}

// AdminDelete removes an account through the elevated path governed by
// CanAdminDelete. With force set, the admin-protection rules are skipped.
func (s *Service) AdminDelete(ctx context.Context, id, actorID string, force bool) (bool, error) {
	if err := requireID(id); err != nil {
		return false, err
	}
	if err := requireID(actorID); err != nil {
		return false, err
	}
	actor, err := s.repo.GetByID(ctx, actorID)
	if err != nil {
		if shared.KindOf(err) == shared.KindNotFound {
			return false, shared.E(shared.KindNotFound, "admin user not found")
		}
		return false, err
	}
	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if err := CanAdminDelete(actor, target, force); err != nil {
		return false, err
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if !deleted {
		return false, shared.E(shared.KindNotFound, "user not found")
	}
	s.cache.Invalidate(ctx, id)
	return true, nil
}

// BulkDelete removes up to BulkDeleteMax accounts, isolating per-item
// failures: one rejected target never aborts the batch.
func (s *Service) BulkDelete(ctx context.Context, ids []string, actorID string) (*BulkDeleteResult, error) {
	if err := requireID(actorID); err != nil {
		return nil, err
	}
	actor, err := s.repo.GetByID(ctx, actorID)
	if err != nil {
		if shared.KindOf(err) == shared.KindNotFound {
			return nil, shared.E(shared.KindForbidden, "insufficient permissions for bulk delete")
		}
		return nil, err
	}
	if err := CanBulkDelete(actor, len(ids)); err != nil {
		return nil, err
	}

	result := &BulkDeleteResult{Succeeded: []string{}, Failed: []string{}}
	for _, id := range ids {
		if _, err := s.Delete(ctx, id, actorID); err != nil {
			result.Failed = append(result.Failed, id)
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}
	return result, nil
}

// List returns one page of sanitized accounts. Unless the caller
// overrides it, the listing is restricted to active accounts.
func (s *Service) List(ctx context.Context, req ListUsersRequest) (*UserPage, error) {
	if req.Page < 1 {
		return nil, shared.E(shared.KindValidation, "page number must be greater than 0")
	}
	if req.Limit < 1 || req.Limit > 100 {
		return nil, shared.E(shared.KindValidation, "limit must be between 1 and 100")
	}
	if req.IsActive == nil {
		active := true
		req.IsActive = &active
	}

	items, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.WrapErr("list users", err)
	}

	sanitized := make([]User, len(items))
	for i := range items {
		sanitized[i] = *items[i].Sanitized()
	}

	meta := shared.NewPagination(req.Page, req.Limit, total)
	return &UserPage{
		Items:      sanitized,
		Total:      meta.Total,
		Page:       meta.Page,
		Limit:      meta.Limit,
		TotalPages: meta.TotalPages,
	}, nil
}

// CountActive returns the number of active accounts.
func (s *Service) CountActive(ctx context.Context) (int, error) {
	page, err := s.List(ctx, ListUsersRequest{Page: 1, Limit: 1})
	if err != nil {
		return 0, err
	}
	return page.Total, nil
}

// GetByRole returns up to one full page of accounts holding a role.
func (s *Service) GetByRole(ctx context.Context, role Role) ([]User, error) {
	if err := ValidateRole(role); err != nil {
		return nil, err
	}
	r := role
	page, err := s.List(ctx, ListUsersRequest{Page: 1, Limit: 100, Role: &r})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func validateUpdate(req UpdateUserRequest) error {
	if req.FirstName != nil {
		name := strings.TrimSpace(*req.FirstName)
		if name == "" {
			return shared.E(shared.KindValidation, "first name must be a non-empty string")
		}
		if len(name) > 100 {
			return shared.E(shared.KindValidation, "first name must be less than 100 characters")
		}
	}
	if req.LastName != nil {
		name := strings.TrimSpace(*req.LastName)
		if name == "" {
			return shared.E(shared.KindValidation, "last name must be a non-empty string")
		}
		if len(name) > 100 {
			return shared.E(shared.KindValidation, "last name must be less than 100 characters")
		}
	}
	if req.Email != nil && !ValidEmail(*req.Email) {
		return shared.E(shared.KindValidation, "invalid email format")
	}
	if req.Phone != nil && *req.Phone != "" && !ValidPhone(*req.Phone) {
		return shared.E(shared.KindValidation, "invalid phone number format")
	}
	if req.Password != nil && len(*req.Password) < 8 {
		return shared.E(shared.KindValidation, "password must be at least 8 characters long")
	}
	if req.DateOfBirth != nil && req.DateOfBirth.After(time.Now()) {
		return shared.E(shared.KindValidation, "date of birth cannot be in the future")
	}
	return nil
}
