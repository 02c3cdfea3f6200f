package users

import "time"

type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Role      Role   `json:"role,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserRequest carries one optional slot per mutable attribute; nil
// slots are left untouched.
type UpdateUserRequest struct {
	Email       *string    `json:"email,omitempty" validate:"omitempty,email"`
	Password    *string    `json:"password,omitempty" validate:"omitempty,min=8"`
	FirstName   *string    `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName    *string    `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Phone       *string    `json:"phone,omitempty" validate:"omitempty,max=50"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Role        *Role      `json:"role,omitempty"`
	Status      *string    `json:"status,omitempty" validate:"omitempty,max=50"`
	IsActive    *bool      `json:"is_active,omitempty"`
	Preferences Document   `json:"preferences,omitempty"`
	Metadata    Document   `json:"metadata,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

type UpdateRoleRequest struct {
	Role Role `json:"role" validate:"required"`
}

type ListUsersRequest struct {
	Page          int     `json:"page"`
	Limit         int     `json:"limit"`
	Role          *Role   `json:"role,omitempty"`
	IsActive      *bool   `json:"is_active,omitempty"`
	EmailVerified *bool   `json:"email_verified,omitempty"`
	Search        *string `json:"search,omitempty"`
}

type BulkDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=50"`
}

// BulkDeleteResult partitions a batch into per-item outcomes.
type BulkDeleteResult struct {
	Succeeded []string `json:"succeeded"`
	Failed    []string `json:"failed"`
}

type LoginResult struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type VerifyResult struct {
	Claims   *Claims `json:"claims"`
	NewToken string  `json:"new_token,omitempty"`
}

// UserPage is one page of a listing plus pagination metadata.
type UserPage struct {
	Items      []User `json:"items"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalPages int    `json:"total_pages"`
}
