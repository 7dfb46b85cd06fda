package discuss

import (
	"context"
	"fmt"
	"time"
)

type Comment struct {
	ID         string
	PostID     string
	AuthorID   string
	Content    string
	CreatedAt  time.Time
	ModifiedAt *time.Time
}

type CommentRepository interface {
	Insert(ctx context.Context, comment *Comment) (err error)
	Find(ctx context.Context, commentID string) (comment *Comment, err error)
	List(ctx context.Context, params *ListCommentsParams) (comments []*Comment, err error)
	Count(ctx context.Context, params *ListCommentsParams) (count int, err error)
	Update(ctx context.Context, comment *Comment) (err error)
	Delete(ctx context.Context, commentID string) (err error)
}

type ListCommentsParams struct {
	PostID string
}

type CommentNotFoundError struct {
	ID string
}

func (err CommentNotFoundError) Error() string {
	return fmt.Sprintf("comment with id %q not found", err.ID)
}

type NotAuthorError struct {
	CommentID string
	Subject   string
}

func (err NotAuthorError) Error() string {
	return fmt.Sprintf("subject %q is not the author of comment %q", err.Subject, err.CommentID)
}
