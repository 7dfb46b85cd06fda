package contents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	authcontext "github.com/nasermirzaei89/mypet/authentication/context"
	"github.com/nasermirzaei89/mypet/pagination"
)

const (
	ServiceName = "github.com/nasermirzaei89/mypet/contents"

	PostsPerPage = 10
)

type Service interface {
	CreatePost(ctx context.Context, req CreatePostRequest) (post *Post, err error)
	GetPost(ctx context.Context, postID string) (post *Post, err error)
	ListPosts(ctx context.Context, params ListPostsParams) (page *PostPage, err error)
	UpdatePost(ctx context.Context, req UpdatePostRequest) (post *Post, err error)
	DeletePost(ctx context.Context, postID string) (err error)
}

type BaseService struct {
	postRepo PostRepository
}

var _ Service = (*BaseService)(nil)

func NewService(postRepo PostRepository) *BaseService {
	return &BaseService{
		postRepo: postRepo,
	}
}

type CreatePostRequest struct {
	AuthorID string
	Subject  string
	Content  string
}

func (svc *BaseService) CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error) {
	post := &Post{
		ID:         uuid.NewString(),
		AuthorID:   req.AuthorID,
		Subject:    strings.TrimSpace(req.Subject),
		Content:    req.Content,
		CreatedAt:  time.Now(),
		ModifiedAt: nil,
	}

	err := svc.postRepo.Insert(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("failed to insert post: %w", err)
	}

	return post, nil
}

func (svc *BaseService) GetPost(ctx context.Context, postID string) (*Post, error) {
	post, err := svc.postRepo.Find(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}

	return post, nil
}

type ListPostsParams struct {
	// Page is the raw page number; invalid values fall back to the first page.
	Page  string
	Query string
}

type PostPage struct {
	pagination.Page

	Posts []*Post
}

func (svc *BaseService) ListPosts(ctx context.Context, params ListPostsParams) (*PostPage, error) {
	repoParams := &ListPostsRepoParams{
		Query: strings.TrimSpace(params.Query),
	}

	count, err := svc.postRepo.Count(ctx, repoParams)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}

	page := pagination.New(count, PostsPerPage).GetPage(params.Page)

	repoParams.Limit = uint64(page.PerPage)
	repoParams.Offset = uint64(page.Offset())

	posts, err := svc.postRepo.List(ctx, repoParams)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	return &PostPage{
		Page:  page,
		Posts: posts,
	}, nil
}

type UpdatePostRequest struct {
	PostID  string
	Subject string
	Content string
}

func (svc *BaseService) UpdatePost(ctx context.Context, req UpdatePostRequest) (*Post, error) {
	post, err := svc.findOwnPost(ctx, req.PostID)
	if err != nil {
		return nil, err
	}

	modifiedAt := time.Now()

	post.Subject = strings.TrimSpace(req.Subject)
	post.Content = req.Content
	post.ModifiedAt = &modifiedAt

	err = svc.postRepo.Update(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	return post, nil
}

func (svc *BaseService) DeletePost(ctx context.Context, postID string) error {
	_, err := svc.findOwnPost(ctx, postID)
	if err != nil {
		return err
	}

	err = svc.postRepo.Delete(ctx, postID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	return nil
}

// findOwnPost returns the post only when the context subject is its author.
func (svc *BaseService) findOwnPost(ctx context.Context, postID string) (*Post, error) {
	post, err := svc.postRepo.Find(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}

	subject := authcontext.GetSubject(ctx)
	if !IsAuthor(post, subject) {
		return nil, &NotAuthorError{PostID: post.ID, Subject: subject}
	}

	return post, nil
}

// IsAuthor reports whether userID wrote post. Anonymous never authors anything.
func IsAuthor(post *Post, userID string) bool {
	return post != nil && userID != authcontext.Anonymous && post.AuthorID == userID
}

func IsNotFound(err error) bool {
	var postNotFoundErr *PostNotFoundError

	return errors.As(err, &postNotFoundErr)
}
