package application

import (
	"context"
	"time"
)

// Session is the server-side state behind a logged-in principal. The session
// id (SID) must match the sid claim of the presented token; rotating it on
// refresh invalidates previously issued pairs.
type Session struct {
	SID       string
	Email     string
	FirstName string
	LastName  string
	CreatedAt time.Time
}

// SessionStore persists sessions keyed by user id. The redis implementation
// lives in internal/infrastructure/redisstore; tests use an in-memory fake.
type SessionStore interface {
	Put(ctx context.Context, userID string, s Session, ttl time.Duration) error
	Get(ctx context.Context, userID string) (*Session, error)
	Delete(ctx context.Context, userID string) error
}

// Principal is the resolved identity of a request. Ephemeral; derived fresh
// per request from the session token and never persisted.
type Principal struct {
	UserID string
	Email  string
}
