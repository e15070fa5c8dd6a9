package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"booking-api/internal/application"
)

// SessionStore keeps one session hash per user in redis under
// user:session:<id>. Logging in overwrites the hash, so a user holds at
// most one live session at a time.
type SessionStore struct {
	rdb *redis.Client
}

func NewSessionStore(rdb *redis.Client) *SessionStore {
	return &SessionStore{rdb: rdb}
}

func sessionKey(userID string) string {
	return "user:session:" + userID
}

func (s *SessionStore) Put(ctx context.Context, userID string, sess application.Session, ttl time.Duration) error {
	key := sessionKey(userID)
	fields := map[string]any{
		"sid":        sess.SID,
		"email":      sess.Email,
		"first_name": sess.FirstName,
		"last_name":  sess.LastName,
		"created_at": sess.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *SessionStore) Get(ctx context.Context, userID string) (*application.Session, error) {
	data, err := s.rdb.HGetAll(ctx, sessionKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	sess := &application.Session{
		SID:       data["sid"],
		Email:     data["email"],
		FirstName: data["first_name"],
		LastName:  data["last_name"],
	}
	if raw := data["created_at"]; raw != "" {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			sess.CreatedAt = t
		}
	}
	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, userID string) error {
	return s.rdb.Del(ctx, sessionKey(userID)).Err()
}

var _ application.SessionStore = (*SessionStore)(nil)
