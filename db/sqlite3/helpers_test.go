package sqlite3_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nasermirzaei89/mypet/authentication"
	"github.com/nasermirzaei89/mypet/db/sqlite3"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()

	db, err := sqlite3.NewDB(ctx, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	err = sqlite3.MigrateUp(ctx, db)
	require.NoError(t, err)

	return db
}

func insertTestUser(t *testing.T, db *sql.DB, username string) *authentication.User {
	t.Helper()

	user := &authentication.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		RegisteredAt: time.Now(),
	}

	err := sqlite3.NewUserRepository(db).Insert(context.Background(), user)
	require.NoError(t, err)

	return user
}
