// Package users implements the account domain: registration, credential
// verification, token issuance, profile management and role-based
// lifecycle rules.
package users

import (
	"regexp"
	"time"
)

// Role is the authorization level of an account. The set is closed and
// ordered by privilege.
type Role string

const (
	RoleUser       Role = "USER"
	RoleManager    Role = "MANAGER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// Valid reports whether the role belongs to the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleManager, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Level returns the privilege rank of the role. Unknown roles rank below
// every valid role.
func (r Role) Level() int {
	switch r {
	case RoleUser:
		return 1
	case RoleManager:
		return 2
	case RoleAdmin:
		return 3
	case RoleSuperAdmin:
		return 4
	}
	return 0
}

// AtLeast reports whether the role carries at least the privilege of other.
func (r Role) AtLeast(other Role) bool {
	return r.Level() >= other.Level()
}

// Account status labels. Status is a free-form lifecycle annotation next
// to the hard is_active gate.
const (
	StatusActive              = "active"
	StatusInactive            = "inactive"
	StatusSuspended           = "suspended"
	StatusPendingVerification = "pending_verification"
)

// Document is an opaque key-value bag persisted as JSONB. The core never
// interprets its contents.
type Document map[string]any

// User is the persisted account entity.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`

	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Phone       *string    `json:"phone,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`

	Role          Role   `json:"role"`
	Status        string `json:"status"`
	IsActive      bool   `json:"is_active"`
	EmailVerified bool   `json:"email_verified"`

	LoginAttempts          int        `json:"-"`
	LockedUntil            *time.Time `json:"-"`
	PasswordResetToken     *string    `json:"-"`
	PasswordResetExpires   *time.Time `json:"-"`
	EmailVerificationToken *string    `json:"-"`
	LastLogin              *time.Time `json:"last_login,omitempty"`

	Preferences Document `json:"preferences"`
	Metadata    Document `json:"metadata"`

	CreatedBy string    `json:"created_by,omitempty"`
	UpdatedBy string    `json:"updated_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName joins first and last name for display.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Locked reports whether the account is under a login lockout at now.
func (u *User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// Sanitized returns a copy safe to hand to callers: the password hash and
// secondary credential tokens are stripped.
func (u *User) Sanitized() *User {
	clean := *u
	clean.PasswordHash = ""
	clean.PasswordResetToken = nil
	clean.EmailVerificationToken = nil
	return &clean
}

var (
	uuidPattern  = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[+]?[0-9\-()\s]+$`)
)

// ValidID reports whether id has the version-4 UUID shape accepted for
// addressing the store.
func ValidID(id string) bool {
	return uuidPattern.MatchString(id)
}

// ValidEmail reports whether the address has a plausible mailbox shape.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidPhone reports whether the number contains only dialable characters.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}
