package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/nasermirzaei89/mypet/authentication"
	"github.com/nasermirzaei89/mypet/db/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (*redis.SessionRepository, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		_ = rdb.Close()
	})

	return redis.NewSessionRepository(rdb, ""), mr
}

func TestSessionRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, mr := newTestRepo(t)

	now := time.Now()
	session := &authentication.Session{
		ID:        uuid.NewString(),
		UserID:    uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}

	err := repo.Insert(ctx, session)
	require.NoError(t, err)

	assert.True(t, mr.Exists(redis.DefaultKeyPrefix+session.ID))
	assert.InDelta(t, time.Hour.Seconds(), mr.TTL(redis.DefaultKeyPrefix+session.ID).Seconds(), 5)

	found, err := repo.Find(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.UserID, found.UserID)
	assert.True(t, session.ExpiresAt.Equal(found.ExpiresAt))

	deleted, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	err = repo.Delete(ctx, session.ID)
	require.NoError(t, err)

	_, err = repo.Find(ctx, session.ID)
	sessionNotFoundErr := &authentication.SessionNotFoundError{}
	require.ErrorAs(t, err, &sessionNotFoundErr)

	err = repo.Delete(ctx, session.ID)
	require.ErrorAs(t, err, &sessionNotFoundErr)
}

func TestSessionRepository_Expiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, mr := newTestRepo(t)

	now := time.Now()
	session := &authentication.Session{
		ID:        uuid.NewString(),
		UserID:    uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(time.Minute),
	}

	require.NoError(t, repo.Insert(ctx, session))

	mr.FastForward(2 * time.Minute)

	_, err := repo.Find(ctx, session.ID)
	sessionNotFoundErr := &authentication.SessionNotFoundError{}
	require.ErrorAs(t, err, &sessionNotFoundErr)
}

func TestSessionRepository_InsertExpired(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepo(t)

	err := repo.Insert(context.Background(), &authentication.Session{
		ID:        uuid.NewString(),
		UserID:    uuid.NewString(),
		CreatedAt: time.Now().Add(-time.Hour),
		ExpiresAt: time.Now().Add(-time.Minute),
	})

	sessionExpiredErr := &authentication.SessionExpiredError{}
	require.ErrorAs(t, err, &sessionExpiredErr)
}
