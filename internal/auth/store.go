package auth

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
)

// User is one account in the daemon's user store. The password hash
// never leaves the auth package in API responses.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store persists users. Backends: sqlite (the default, one file under
// the data dir) and postgres.
type Store interface {
	CreateUser(ctx context.Context, u *User) error
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	DeleteUser(ctx context.Context, username string) error
	ListUsers(ctx context.Context) ([]*User, error)
	Close() error
}

// OpenStore picks the backend from the DSN scheme. "sqlite://path",
// a bare path, or ":memory:" opens SQLite; "postgres://..." opens
// PostgreSQL.
func OpenStore(dsn string) (Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("empty auth store DSN")
	}
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return openPostgres(dsn)
	}
	if strings.HasPrefix(lower, "sqlite://") || !strings.Contains(dsn, "://") {
		return openSQLite(strings.TrimPrefix(dsn, "sqlite://"))
	}
	return nil, errors.New("unsupported auth store DSN: " + dsn)
}
