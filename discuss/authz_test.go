package discuss_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
	"github.com/google/uuid"
	authcontext "github.com/nasermirzaei89/mypet/authentication/context"
	"github.com/nasermirzaei89/mypet/authorization"
	"github.com/nasermirzaei89/mypet/authorization/casbin"
	"github.com/nasermirzaei89/mypet/discuss"
	"github.com/stretchr/testify/require"
)

type stubService struct{}

func (s *stubService) CreateComment(_ context.Context, req discuss.CreateCommentRequest) (*discuss.Comment, error) {
	return &discuss.Comment{
		ID:       uuid.NewString(),
		PostID:   req.PostID,
		AuthorID: req.AuthorID,
		Content:  req.Content,
	}, nil
}

func (s *stubService) GetComment(_ context.Context, commentID string) (*discuss.Comment, error) {
	return &discuss.Comment{ID: commentID}, nil
}

func (s *stubService) ListComments(_ context.Context, _ string) ([]*discuss.Comment, error) {
	return []*discuss.Comment{}, nil
}

func (s *stubService) CountComments(_ context.Context, _ string) (int, error) {
	return 0, nil
}

func (s *stubService) UpdateComment(_ context.Context, req discuss.UpdateCommentRequest) (*discuss.Comment, error) {
	return &discuss.Comment{ID: req.CommentID, Content: req.Content}, nil
}

func (s *stubService) DeleteComment(_ context.Context, commentID string) (*discuss.Comment, error) {
	return &discuss.Comment{ID: commentID}, nil
}

func TestAuthorizationMiddleware(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "policy.csv")
	content := []byte(`g, system:anonymous, system:unauthenticated

p, system:authenticated, github.com/nasermirzaei89/mypet/discuss, *, createComment
p, system:authenticated, github.com/nasermirzaei89/mypet/discuss, *, getComment
p, system:unauthenticated, github.com/nasermirzaei89/mypet/discuss, *, getComment
p, system:authenticated, github.com/nasermirzaei89/mypet/discuss, *, listComments
p, system:unauthenticated, github.com/nasermirzaei89/mypet/discuss, *, listComments
p, system:authenticated, github.com/nasermirzaei89/mypet/discuss, *, countComments
p, system:unauthenticated, github.com/nasermirzaei89/mypet/discuss, *, countComments
p, system:authenticated, github.com/nasermirzaei89/mypet/discuss, *, updateComment
p, system:authenticated, github.com/nasermirzaei89/mypet/discuss, *, deleteComment
`)

	err := os.WriteFile(tmpFile, content, 0o600)
	require.NoError(t, err)

	adapter := fileadapter.NewAdapter(tmpFile)

	provider, err := casbin.NewAuthorizationProvider(adapter)
	require.NoError(t, err)

	authzSvc, err := authorization.NewService(provider)
	require.NoError(t, err)

	client := authorization.NewClient(authzSvc)
	svc := discuss.NewAuthorizationMiddleware(client, &stubService{})

	userID := uuid.NewString()
	err = client.AddToGroup(ctx, userID, authcontext.Authenticated)
	require.NoError(t, err)

	authorID := uuid.NewString()
	postID := uuid.NewString()
	commentID := uuid.NewString()

	anonymousCtx := ctx
	authenticatedCtx := authcontext.WithSubject(ctx, userID)

	t.Run("anonymous", func(t *testing.T) {
		accessDeniedErr := &authorization.AccessDeniedError{}

		_, err := svc.CreateComment(anonymousCtx, discuss.CreateCommentRequest{
			PostID:   postID,
			AuthorID: authorID,
			Content:  "comment",
		})
		require.ErrorAs(t, err, &accessDeniedErr)

		_, err = svc.UpdateComment(anonymousCtx, discuss.UpdateCommentRequest{CommentID: commentID, Content: "x"})
		require.ErrorAs(t, err, &accessDeniedErr)

		_, err = svc.DeleteComment(anonymousCtx, commentID)
		require.ErrorAs(t, err, &accessDeniedErr)

		_, err = svc.GetComment(anonymousCtx, commentID)
		require.NoError(t, err)

		_, err = svc.ListComments(anonymousCtx, postID)
		require.NoError(t, err)

		_, err = svc.CountComments(anonymousCtx, postID)
		require.NoError(t, err)
	})

	t.Run("authenticated", func(t *testing.T) {
		_, err := svc.CreateComment(authenticatedCtx, discuss.CreateCommentRequest{
			PostID:   postID,
			AuthorID: authorID,
			Content:  "comment",
		})
		require.NoError(t, err)

		_, err = svc.UpdateComment(authenticatedCtx, discuss.UpdateCommentRequest{CommentID: commentID, Content: "x"})
		require.NoError(t, err)

		_, err = svc.DeleteComment(authenticatedCtx, commentID)
		require.NoError(t, err)

		_, err = svc.ListComments(authenticatedCtx, postID)
		require.NoError(t, err)

		_, err = svc.CountComments(authenticatedCtx, postID)
		require.NoError(t, err)
	})
}
