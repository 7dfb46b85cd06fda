package contents

import (
	"context"
	"fmt"
	"time"
)

type Post struct {
	ID         string
	AuthorID   string
	Subject    string
	Content    string
	CreatedAt  time.Time
	ModifiedAt *time.Time
}

type PostRepository interface {
	Insert(ctx context.Context, post *Post) (err error)
	Find(ctx context.Context, postID string) (post *Post, err error)
	List(ctx context.Context, params *ListPostsRepoParams) (posts []*Post, err error)
	Count(ctx context.Context, params *ListPostsRepoParams) (count int, err error)
	Update(ctx context.Context, post *Post) (err error)
	Delete(ctx context.Context, postID string) (err error)
}

// ListPostsRepoParams filters and windows a post listing. Posts are ordered newest first.
type ListPostsRepoParams struct {
	Query  string
	Limit  uint64
	Offset uint64
}

type PostNotFoundError struct {
	ID string
}

func (err PostNotFoundError) Error() string {
	return fmt.Sprintf("post with id %q not found", err.ID)
}

type NotAuthorError struct {
	PostID  string
	Subject string
}

func (err NotAuthorError) Error() string {
	return fmt.Sprintf("subject %q is not the author of post %q", err.Subject, err.PostID)
}
