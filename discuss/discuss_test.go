package discuss_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	authcontext "github.com/nasermirzaei89/mypet/authentication/context"
	"github.com/nasermirzaei89/mypet/contents"
	"github.com/nasermirzaei89/mypet/db/sqlite3"
	"github.com/nasermirzaei89/mypet/discuss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServices(t *testing.T) (*discuss.BaseService, *contents.BaseService) {
	t.Helper()

	ctx := context.Background()

	db, err := sqlite3.NewDB(ctx, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	require.NoError(t, sqlite3.MigrateUp(ctx, db))

	postRepo := sqlite3.NewPostRepository(db)

	return discuss.NewService(sqlite3.NewCommentRepository(db), postRepo), contents.NewService(postRepo)
}

func TestBaseService_CreateComment(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, postSvc := newTestServices(t)

	post, err := postSvc.CreatePost(ctx, contents.CreatePostRequest{
		AuthorID: uuid.NewString(),
		Subject:  "subject",
		Content:  "content",
	})
	require.NoError(t, err)

	authorID := uuid.NewString()

	comment, err := svc.CreateComment(ctx, discuss.CreateCommentRequest{
		PostID:   post.ID,
		AuthorID: authorID,
		Content:  "nice post",
	})
	require.NoError(t, err)
	assert.Equal(t, post.ID, comment.PostID)
	assert.WithinDuration(t, time.Now(), comment.CreatedAt, time.Second)
	assert.Nil(t, comment.ModifiedAt)

	t.Run("missing post", func(t *testing.T) {
		_, err := svc.CreateComment(ctx, discuss.CreateCommentRequest{
			PostID:   uuid.NewString(),
			AuthorID: authorID,
			Content:  "orphan",
		})
		require.Error(t, err)
		assert.True(t, contents.IsNotFound(err))
	})

	t.Run("list and count", func(t *testing.T) {
		_, err := svc.CreateComment(ctx, discuss.CreateCommentRequest{
			PostID:   post.ID,
			AuthorID: authorID,
			Content:  "second",
		})
		require.NoError(t, err)

		comments, err := svc.ListComments(ctx, post.ID)
		require.NoError(t, err)
		require.Len(t, comments, 2)
		assert.Equal(t, comment.ID, comments[0].ID)

		count, err := svc.CountComments(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}

func TestBaseService_Ownership(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, postSvc := newTestServices(t)

	post, err := postSvc.CreatePost(ctx, contents.CreatePostRequest{
		AuthorID: uuid.NewString(),
		Subject:  "subject",
		Content:  "content",
	})
	require.NoError(t, err)

	authorID := uuid.NewString()

	comment, err := svc.CreateComment(ctx, discuss.CreateCommentRequest{
		PostID:   post.ID,
		AuthorID: authorID,
		Content:  "original",
	})
	require.NoError(t, err)

	for name, subjectCtx := range map[string]context.Context{
		"anonymous":   ctx,
		"stranger":    authcontext.WithSubject(ctx, uuid.NewString()),
		"post author": authcontext.WithSubject(ctx, post.AuthorID),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.UpdateComment(subjectCtx, discuss.UpdateCommentRequest{
				CommentID: comment.ID,
				Content:   "hacked",
			})
			notAuthorErr := &discuss.NotAuthorError{}
			require.ErrorAs(t, err, &notAuthorErr)

			_, err = svc.DeleteComment(subjectCtx, comment.ID)
			require.ErrorAs(t, err, &notAuthorErr)

			found, err := svc.GetComment(ctx, comment.ID)
			require.NoError(t, err)
			assert.Equal(t, "original", found.Content)
			assert.Nil(t, found.ModifiedAt)
		})
	}

	authorCtx := authcontext.WithSubject(ctx, authorID)

	t.Run("author updates", func(t *testing.T) {
		updated, err := svc.UpdateComment(authorCtx, discuss.UpdateCommentRequest{
			CommentID: comment.ID,
			Content:   "edited",
		})
		require.NoError(t, err)
		require.NotNil(t, updated.ModifiedAt)
		assert.Equal(t, post.ID, updated.PostID)
	})

	t.Run("author deletes", func(t *testing.T) {
		deleted, err := svc.DeleteComment(authorCtx, comment.ID)
		require.NoError(t, err)
		assert.Equal(t, post.ID, deleted.PostID)

		_, err = svc.GetComment(ctx, comment.ID)
		assert.True(t, discuss.IsNotFound(err))
	})
}
