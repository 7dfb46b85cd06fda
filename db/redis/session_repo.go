package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nasermirzaei89/mypet/authentication"
	goredis "github.com/redis/go-redis/v9"
)

const DefaultKeyPrefix = "mypet:session:"

type SessionRepository struct {
	rdb       goredis.Cmdable
	keyPrefix string
}

var _ authentication.SessionRepository = (*SessionRepository)(nil)

func NewSessionRepository(rdb goredis.Cmdable, keyPrefix string) *SessionRepository {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}

	return &SessionRepository{
		rdb:       rdb,
		keyPrefix: keyPrefix,
	}
}

type sessionValue struct {
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (repo *SessionRepository) key(id string) string {
	return repo.keyPrefix + id
}

func (repo *SessionRepository) Insert(ctx context.Context, session *authentication.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("failed to insert session: %w", &authentication.SessionExpiredError{ID: session.ID})
	}

	value, err := json.Marshal(sessionValue{
		UserID:    session.UserID,
		CreatedAt: session.CreatedAt,
		ExpiresAt: session.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	err = repo.rdb.Set(ctx, repo.key(session.ID), value, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}

	return nil
}

func (repo *SessionRepository) Find(ctx context.Context, id string) (*authentication.Session, error) {
	raw, err := repo.rdb.Get(ctx, repo.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, &authentication.SessionNotFoundError{ID: id}
		}

		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var value sessionValue

	err = json.Unmarshal(raw, &value)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &authentication.Session{
		ID:        id,
		UserID:    value.UserID,
		CreatedAt: value.CreatedAt,
		ExpiresAt: value.ExpiresAt,
	}, nil
}

func (repo *SessionRepository) Delete(ctx context.Context, id string) error {
	deleted, err := repo.rdb.Del(ctx, repo.key(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if deleted == 0 {
		return &authentication.SessionNotFoundError{ID: id}
	}

	return nil
}

// DeleteExpired is a no-op: keys carry a TTL matching the session expiry.
func (repo *SessionRepository) DeleteExpired(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}
