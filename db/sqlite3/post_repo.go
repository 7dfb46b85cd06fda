package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/nasermirzaei89/mypet/contents"
)

const tablePosts = "posts"

type PostRepository struct {
	db *sql.DB
}

var _ contents.PostRepository = (*PostRepository)(nil)

func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

const (
	postFieldID         = "id"
	postFieldAuthorID   = "author_id"
	postFieldSubject    = "subject"
	postFieldContent    = "content"
	postFieldCreatedAt  = "created_at"
	postFieldModifiedAt = "modified_at"
)

func postColumns() []string {
	return []string{
		postFieldID,
		postFieldAuthorID,
		postFieldSubject,
		postFieldContent,
		postFieldCreatedAt,
		postFieldModifiedAt,
	}
}

func scanPost(row sq.RowScanner) (*contents.Post, error) {
	var post contents.Post

	err := row.Scan(
		&post.ID,
		&post.AuthorID,
		&post.Subject,
		&post.Content,
		&post.CreatedAt,
		&post.ModifiedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	return &post, nil
}

func (repo *PostRepository) Insert(ctx context.Context, post *contents.Post) error {
	q := sq.Insert(tablePosts).
		Columns(postColumns()...).
		Values(post.ID, post.AuthorID, post.Subject, post.Content, post.CreatedAt, post.ModifiedAt)

	q = q.RunWith(repo.db)

	_, err := q.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec insert: %w", err)
	}

	return nil
}

func (repo *PostRepository) Find(ctx context.Context, postID string) (*contents.Post, error) {
	q := sq.Select(postColumns()...).
		From(tablePosts).
		Where(sq.Eq{postFieldID: postID})

	q = q.RunWith(repo.db)

	post, err := scanPost(q.QueryRowContext(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &contents.PostNotFoundError{ID: postID}
		}

		return nil, fmt.Errorf("failed to scan post: %w", err)
	}

	return post, nil
}

func filterPosts(q sq.SelectBuilder, params *contents.ListPostsRepoParams) sq.SelectBuilder {
	if params == nil || params.Query == "" {
		return q
	}

	pattern := "%" + params.Query + "%"

	return q.Where(sq.Or{
		sq.Like{postFieldSubject: pattern},
		sq.Like{postFieldContent: pattern},
	})
}

func (repo *PostRepository) List(ctx context.Context, params *contents.ListPostsRepoParams) ([]*contents.Post, error) {
	q := sq.Select(postColumns()...).
		From(tablePosts).
		OrderBy(postFieldCreatedAt+" DESC", postFieldID+" DESC")

	q = filterPosts(q, params)

	if params != nil && params.Limit > 0 {
		q = q.Limit(params.Limit).Offset(params.Offset)
	}

	q = q.RunWith(repo.db)

	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			slog.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	posts := make([]*contents.Post, 0)

	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}

		posts = append(posts, post)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return posts, nil
}

func (repo *PostRepository) Count(ctx context.Context, params *contents.ListPostsRepoParams) (int, error) {
	q := filterPosts(sq.Select("COUNT(*)").From(tablePosts), params)

	var count int

	err := q.RunWith(repo.db).QueryRowContext(ctx).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}

	return count, nil
}

func (repo *PostRepository) Update(ctx context.Context, post *contents.Post) error {
	result, err := sq.Update(tablePosts).
		Set(postFieldSubject, post.Subject).
		Set(postFieldContent, post.Content).
		Set(postFieldModifiedAt, post.ModifiedAt).
		Where(sq.Eq{postFieldID: post.ID}).
		RunWith(repo.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec update: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return &contents.PostNotFoundError{ID: post.ID}
	}

	return nil
}

// Delete removes the post together with its comments.
func (repo *PostRepository) Delete(ctx context.Context, postID string) (err error) {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err == nil {
			return
		}

		rollbackErr := tx.Rollback()
		if rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			slog.ErrorContext(ctx, "failed to rollback transaction", "error", rollbackErr)
		}
	}()

	_, err = sq.Delete(tableComments).
		Where(sq.Eq{commentFieldPostID: postID}).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete post comments: %w", err)
	}

	result, err := sq.Delete(tablePosts).
		Where(sq.Eq{postFieldID: postID}).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec delete: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		err = &contents.PostNotFoundError{ID: postID}

		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
