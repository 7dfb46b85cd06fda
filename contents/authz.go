package contents

import (
	"context"
	"fmt"

	"github.com/nasermirzaei89/mypet/authorization"
)

const (
	ActionCreatePost = "createPost"
	ActionGetPost    = "getPost"
	ActionListPosts  = "listPosts"
	ActionUpdatePost = "updatePost"
	ActionDeletePost = "deletePost"
)

type AuthorizationMiddleware struct {
	authzClient *authorization.Client
	next        Service
}

var _ Service = (*AuthorizationMiddleware)(nil)

func NewAuthorizationMiddleware(authzClient *authorization.Client, next Service) *AuthorizationMiddleware {
	return &AuthorizationMiddleware{
		authzClient: authzClient,
		next:        next,
	}
}

func (mw *AuthorizationMiddleware) CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error) {
	err := mw.authzClient.CheckAccess(ctx, ServiceName, "", ActionCreatePost)
	if err != nil {
		return nil, fmt.Errorf("failed to check authorization: %w", err)
	}

	post, err := mw.next.CreatePost(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to call next method: %w", err)
	}

	return post, nil
}

func (mw *AuthorizationMiddleware) GetPost(ctx context.Context, postID string) (*Post, error) {
	err := mw.authzClient.CheckAccess(ctx, ServiceName, postID, ActionGetPost)
	if err != nil {
		return nil, fmt.Errorf("failed to check authorization: %w", err)
	}

	post, err := mw.next.GetPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to call next method: %w", err)
	}

	return post, nil
}

func (mw *AuthorizationMiddleware) ListPosts(ctx context.Context, params ListPostsParams) (*PostPage, error) {
	err := mw.authzClient.CheckAccess(ctx, ServiceName, "", ActionListPosts)
	if err != nil {
		return nil, fmt.Errorf("failed to check authorization: %w", err)
	}

	page, err := mw.next.ListPosts(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to call next method: %w", err)
	}

	return page, nil
}

func (mw *AuthorizationMiddleware) UpdatePost(ctx context.Context, req UpdatePostRequest) (*Post, error) {
	err := mw.authzClient.CheckAccess(ctx, ServiceName, req.PostID, ActionUpdatePost)
	if err != nil {
		return nil, fmt.Errorf("failed to check authorization: %w", err)
	}

	post, err := mw.next.UpdatePost(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to call next method: %w", err)
	}

	return post, nil
}

func (mw *AuthorizationMiddleware) DeletePost(ctx context.Context, postID string) error {
	err := mw.authzClient.CheckAccess(ctx, ServiceName, postID, ActionDeletePost)
	if err != nil {
		return fmt.Errorf("failed to check authorization: %w", err)
	}

	err = mw.next.DeletePost(ctx, postID)
	if err != nil {
		return fmt.Errorf("failed to call next method: %w", err)
	}

	return nil
}
