package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// User mirrors the 'users' table.  Identity lives in an external provider;
// the row here is a synced profile keyed by the provider's id
// (clerk_user_id).
type User struct {
	ID          uint64     `json:"id"`
	ClerkUserID string     `json:"clerk_user_id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Username    string     `json:"username"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ErrUserNotFound is returned when no user row matches a lookup.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailTaken is returned when a sync would insert a user whose email is
// already claimed by a different identity.
var ErrEmailTaken = errors.New("email already exists")

// UserRepo encapsulates user persistence and the sync workflow.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo constructs a UserRepo with the provided DB handle.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// Sync upserts the user row for an external identity.  The insert path is
// tried first; a duplicate-key failure is discriminated by constraint name:
// the clerk id key means the user already exists and gets a profile update
// plus a login timestamp, the email key means the address belongs to a
// different identity and surfaces as ErrEmailTaken.  Returns true when a
// new row was created.
func (r *UserRepo) Sync(ctx context.Context, u *User) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (clerk_user_id, email, first_name, last_name, username, role, last_login_at) VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)",
		u.ClerkUserID, email, u.FirstName, u.LastName, u.Username, u.Role)
	if err == nil {
		id, idErr := res.LastInsertId()
		if idErr != nil {
			return false, idErr
		}
		u.ID = uint64(id)
		return true, nil
	}

	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) || myErr.Number != 1062 {
		return false, err
	}
	switch {
	case strings.Contains(myErr.Message, "uq_users_clerk"):
		// Known identity: refresh the profile and record the login.
		if _, err := r.db.ExecContext(ctx,
			"UPDATE users SET email = ?, first_name = ?, last_name = ?, username = ?, role = ?, last_login_at = CURRENT_TIMESTAMP WHERE clerk_user_id = ?",
			email, u.FirstName, u.LastName, u.Username, u.Role, u.ClerkUserID); err != nil {
			return false, err
		}
		err := r.db.QueryRowContext(ctx,
			"SELECT id FROM users WHERE clerk_user_id = ?", u.ClerkUserID).Scan(&u.ID)
		return false, err
	case strings.Contains(myErr.Message, "uq_users_email"):
		return false, ErrEmailTaken
	}
	return false, err
}

// GetByClerkID fetches a user row by external identity id.  The identity
// middleware calls this on every authenticated request.
func (r *UserRepo) GetByClerkID(ctx context.Context, clerkID string) (*User, error) {
	var (
		u         User
		lastLogin sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, clerk_user_id, email, first_name, last_name, username, role, is_active, last_login_at, created_at, updated_at FROM users WHERE clerk_user_id = ? LIMIT 1",
		clerkID).Scan(&u.ID, &u.ClerkUserID, &u.Email, &u.FirstName, &u.LastName,
		&u.Username, &u.Role, &u.IsActive, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return &u, nil
}
