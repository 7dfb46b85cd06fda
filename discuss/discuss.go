package discuss

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	authcontext "github.com/nasermirzaei89/mypet/authentication/context"
	"github.com/nasermirzaei89/mypet/contents"
)

const ServiceName = "github.com/nasermirzaei89/mypet/discuss"

type Service interface {
	CreateComment(ctx context.Context, req CreateCommentRequest) (comment *Comment, err error)
	GetComment(ctx context.Context, commentID string) (comment *Comment, err error)
	ListComments(ctx context.Context, postID string) (comments []*Comment, err error)
	CountComments(ctx context.Context, postID string) (count int, err error)
	UpdateComment(ctx context.Context, req UpdateCommentRequest) (comment *Comment, err error)
	DeleteComment(ctx context.Context, commentID string) (comment *Comment, err error)
}

// PostFinder resolves the post a comment is attached to.
type PostFinder interface {
	Find(ctx context.Context, postID string) (post *contents.Post, err error)
}

type BaseService struct {
	commentRepo CommentRepository
	postFinder  PostFinder
}

var _ Service = (*BaseService)(nil)

func NewService(commentRepo CommentRepository, postFinder PostFinder) *BaseService {
	return &BaseService{
		commentRepo: commentRepo,
		postFinder:  postFinder,
	}
}

type CreateCommentRequest struct {
	PostID   string
	AuthorID string
	Content  string
}

func (svc *BaseService) CreateComment(ctx context.Context, req CreateCommentRequest) (*Comment, error) {
	post, err := svc.postFinder.Find(ctx, req.PostID)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}

	comment := &Comment{
		ID:         uuid.NewString(),
		PostID:     post.ID,
		AuthorID:   req.AuthorID,
		Content:    req.Content,
		CreatedAt:  time.Now(),
		ModifiedAt: nil,
	}

	err = svc.commentRepo.Insert(ctx, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to insert comment: %w", err)
	}

	return comment, nil
}

func (svc *BaseService) GetComment(ctx context.Context, commentID string) (*Comment, error) {
	comment, err := svc.commentRepo.Find(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}

	return comment, nil
}

func (svc *BaseService) ListComments(ctx context.Context, postID string) ([]*Comment, error) {
	comments, err := svc.commentRepo.List(ctx, &ListCommentsParams{PostID: postID})
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return comments, nil
}

func (svc *BaseService) CountComments(ctx context.Context, postID string) (int, error) {
	count, err := svc.commentRepo.Count(ctx, &ListCommentsParams{PostID: postID})
	if err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}

	return count, nil
}

type UpdateCommentRequest struct {
	CommentID string
	Content   string
}

func (svc *BaseService) UpdateComment(ctx context.Context, req UpdateCommentRequest) (*Comment, error) {
	comment, err := svc.findOwnComment(ctx, req.CommentID)
	if err != nil {
		return nil, err
	}

	modifiedAt := time.Now()

	comment.Content = req.Content
	comment.ModifiedAt = &modifiedAt

	err = svc.commentRepo.Update(ctx, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	return comment, nil
}

// DeleteComment returns the deleted comment so callers can still reach its post.
func (svc *BaseService) DeleteComment(ctx context.Context, commentID string) (*Comment, error) {
	comment, err := svc.findOwnComment(ctx, commentID)
	if err != nil {
		return nil, err
	}

	err = svc.commentRepo.Delete(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete comment: %w", err)
	}

	return comment, nil
}

func (svc *BaseService) findOwnComment(ctx context.Context, commentID string) (*Comment, error) {
	comment, err := svc.commentRepo.Find(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}

	subject := authcontext.GetSubject(ctx)
	if !IsAuthor(comment, subject) {
		return nil, &NotAuthorError{CommentID: comment.ID, Subject: subject}
	}

	return comment, nil
}

func IsAuthor(comment *Comment, userID string) bool {
	return comment != nil && userID != authcontext.Anonymous && comment.AuthorID == userID
}

func IsNotFound(err error) bool {
	var commentNotFoundErr *CommentNotFoundError

	return errors.As(err, &commentNotFoundErr)
}
