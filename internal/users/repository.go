package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-id/meridian-id/internal/shared"
)

// Repository defines the persistence capability set consumed by the use
// cases. Email lookup is case-insensitive.
type Repository interface {
	Create(ctx context.Context, user User) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, id string, upd UserUpdate) (*User, error)
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, req ListUsersRequest) ([]User, int, error)
}

// UserUpdate holds one optional slot per mutable column. Only populated
// slots enter the parameterized UPDATE; Clear* flags write explicit NULLs
// for nullable columns.
type UserUpdate struct {
	Email            *string
	PasswordHash     *string
	FirstName        *string
	LastName         *string
	Phone            *string
	ClearPhone       bool
	DateOfBirth      *time.Time
	ClearDateOfBirth bool
	Role             *Role
	Status           *string
	IsActive         *bool
	EmailVerified    *bool
	LoginAttempts    *int
	LockedUntil      *time.Time
	ClearLockedUntil bool
	LastLogin        *time.Time
	Preferences      Document
	Metadata         Document
	UpdatedBy        *string
}

// IsZero reports whether no slot is populated.
func (u UserUpdate) IsZero() bool {
	return u.Email == nil && u.PasswordHash == nil && u.FirstName == nil &&
		u.LastName == nil && u.Phone == nil && !u.ClearPhone &&
		u.DateOfBirth == nil && !u.ClearDateOfBirth && u.Role == nil &&
		u.Status == nil && u.IsActive == nil && u.EmailVerified == nil &&
		u.LoginAttempts == nil && u.LockedUntil == nil && !u.ClearLockedUntil &&
		u.LastLogin == nil && u.Preferences == nil && u.Metadata == nil &&
		u.UpdatedBy == nil
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type pgRepository struct {
	db dbtx
}

// NewRepository constructs the PostgreSQL-backed account store.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{db: pool}
}

// NewRepositoryWithDB constructs the store over any pgx-compatible
// querier; used by tests to inject a mock connection.
func NewRepositoryWithDB(db dbtx) Repository {
	return &pgRepository{db: db}
}

const userColumns = `id, email, password_hash, first_name, last_name, phone, date_of_birth,
	role, status, is_active, email_verified, login_attempts, locked_until,
	password_reset_token, password_reset_expires, email_verification_token, last_login,
	preferences, metadata, created_by, updated_by, created_at, updated_at`

func (r *pgRepository) Create(ctx context.Context, user User) (*User, error) {
	query := fmt.Sprintf(`
		INSERT INTO users (
			id, email, password_hash, first_name, last_name, phone, date_of_birth,
			role, status, is_active, email_verified, preferences, metadata,
			created_by, updated_by, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING %s`, userColumns)

	row := r.db.QueryRow(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.Phone, user.DateOfBirth, user.Role, user.Status, user.IsActive,
		user.EmailVerified, user.Preferences, user.Metadata,
		user.CreatedBy, user.UpdatedBy, user.CreatedAt, user.UpdatedAt,
	)
	created, err := scanUser(row)
	if err != nil {
		return nil, classifyPgError("create user", err)
	}
	return created, nil
}

func (r *pgRepository) GetByID(ctx context.Context, id string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, classifyPgError("get user by id", err)
	}
	return user, nil
}

func (r *pgRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE LOWER(email) = LOWER($1)`, userColumns)
	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return nil, classifyPgError("get user by email", err)
	}
	return user, nil
}

func (r *pgRepository) Update(ctx context.Context, id string, upd UserUpdate) (*User, error) {
	if upd.IsZero() {
		return r.GetByID(ctx, id)
	}

	var fields []string
	var args []interface{}
	pos := 1

	set := func(column string, value interface{}) {
		fields = append(fields, fmt.Sprintf("%s = $%d", column, pos))
		args = append(args, value)
		pos++
	}

	if upd.Email != nil {
		set("email", *upd.Email)
	}
	if upd.PasswordHash != nil {
		set("password_hash", *upd.PasswordHash)
	}
	if upd.FirstName != nil {
		set("first_name", *upd.FirstName)
	}
	if upd.LastName != nil {
		set("last_name", *upd.LastName)
	}
	if upd.ClearPhone {
		fields = append(fields, "phone = NULL")
	} else if upd.Phone != nil {
		set("phone", *upd.Phone)
	}
	if upd.ClearDateOfBirth {
		fields = append(fields, "date_of_birth = NULL")
	} else if upd.DateOfBirth != nil {
		set("date_of_birth", *upd.DateOfBirth)
	}
	if upd.Role != nil {
		set("role", *upd.Role)
	}
	if upd.Status != nil {
		set("status", *upd.Status)
	}
	if upd.IsActive != nil {
		set("is_active", *upd.IsActive)
	}
	if upd.EmailVerified != nil {
		set("email_verified", *upd.EmailVerified)
	}
	if upd.LoginAttempts != nil {
		set("login_attempts", *upd.LoginAttempts)
	}
	if upd.ClearLockedUntil {
		fields = append(fields, "locked_until = NULL")
	} else if upd.LockedUntil != nil {
		set("locked_until", *upd.LockedUntil)
	}
	if upd.LastLogin != nil {
		set("last_login", *upd.LastLogin)
	}
	if upd.Preferences != nil {
		set("preferences", upd.Preferences)
	}
	if upd.Metadata != nil {
		set("metadata", upd.Metadata)
	}
	if upd.UpdatedBy != nil {
		set("updated_by", *upd.UpdatedBy)
	}

	set("updated_at", time.Now().UTC())

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(fields, ", "), pos, userColumns)
	args = append(args, id)

	user, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, classifyPgError("update user", err)
	}
	return user, nil
}

func (r *pgRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, classifyPgError("delete user", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *pgRepository) List(ctx context.Context, req ListUsersRequest) ([]User, int, error) {
	var conditions []string
	var args []interface{}
	pos := 1

	if req.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", pos))
		args = append(args, *req.IsActive)
		pos++
	}
	if req.Role != nil {
		conditions = append(conditions, fmt.Sprintf("role = $%d", pos))
		args = append(args, *req.Role)
		pos++
	}
	if req.EmailVerified != nil {
		conditions = append(conditions, fmt.Sprintf("email_verified = $%d", pos))
		args = append(args, *req.EmailVerified)
		pos++
	}
	if req.Search != nil && *req.Search != "" {
		pattern := "%" + *req.Search + "%"
		conditions = append(conditions, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d)", pos, pos, pos))
		args = append(args, pattern)
		pos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM users %s`, whereClause)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, classifyPgError("count users", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM users
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, userColumns, whereClause, pos, pos+1)
	args = append(args, req.Limit, (req.Page-1)*req.Limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, classifyPgError("list users", err)
	}
	defer rows.Close()

	var items []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, classifyPgError("scan user", err)
		}
		items = append(items, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, classifyPgError("list users", err)
	}
	return items, total, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Phone, &u.DateOfBirth,
		&u.Role, &u.Status, &u.IsActive, &u.EmailVerified, &u.LoginAttempts, &u.LockedUntil,
		&u.PasswordResetToken, &u.PasswordResetExpires, &u.EmailVerificationToken, &u.LastLogin,
		&u.Preferences, &u.Metadata, &u.CreatedBy, &u.UpdatedBy, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// classifyPgError translates store-level failures into the domain error
// taxonomy: unique violations become Conflict, constraint violations
// become Validation, missing rows become NotFound, everything else is
// wrapped as Internal with operation context.
func classifyPgError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.E(shared.KindNotFound, "user not found")
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return shared.E(shared.KindConflict, "email already exists")
		case pgerrcode.NotNullViolation, pgerrcode.CheckViolation, pgerrcode.ForeignKeyViolation:
			return shared.E(shared.KindValidation, "invalid account data")
		}
	}
	return shared.WrapErr(op, err)
}
