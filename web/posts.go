package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/nasermirzaei89/mypet/authentication"
	"github.com/nasermirzaei89/mypet/contents"
	"github.com/nasermirzaei89/mypet/discuss"
)

type FullPost struct {
	contents.Post

	Author        *authentication.User
	CommentsCount int
	Comments      []*CommentWithAuthor
	IsAuthor      bool
}

type CommentWithAuthor struct {
	discuss.Comment

	Author   *authentication.User
	IsAuthor bool
}

func (h *Handler) HandleHomePage(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("kw")

	page, err := h.contentsSvc.ListPosts(r.Context(), contents.ListPostsParams{
		Page:  r.URL.Query().Get("page"),
		Query: query,
	})
	if err != nil {
		h.handleServiceError(w, r, "failed to list posts", err)

		return
	}

	postsWithAuthors, err := h.preloadPostAuthor(r.Context(), page.Posts, currentUserID(r))
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to preload post authors", "error", err)
		h.renderInternalError(w, r)

		return
	}

	data := map[string]any{
		"Posts": postsWithAuthors,
		"Page":  page.Page,
		"Query": query,
	}

	h.renderTemplate(w, r, "home-page.gohtml", data)
}

func (h *Handler) preloadPostAuthor(
	ctx context.Context,
	posts []*contents.Post,
	currentUserID string,
) ([]*FullPost, error) {
	result := make([]*FullPost, 0, len(posts))
	authors := make(map[string]*authentication.User)

	for _, post := range posts {
		author, err := h.getAuthor(ctx, authors, post.AuthorID)
		if err != nil {
			return nil, fmt.Errorf("failed to get author: %w", err)
		}

		commentsCount, err := h.discussSvc.CountComments(ctx, post.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count comments: %w", err)
		}

		result = append(result, &FullPost{
			Post:          *post,
			Author:        author,
			CommentsCount: commentsCount,
			IsAuthor:      contents.IsAuthor(post, currentUserID),
		})
	}

	return result, nil
}

// getAuthor looks a user up once per request.
func (h *Handler) getAuthor(
	ctx context.Context,
	cache map[string]*authentication.User,
	userID string,
) (*authentication.User, error) {
	if author, ok := cache[userID]; ok {
		return author, nil
	}

	author, err := h.authSvc.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	cache[userID] = author

	return author, nil
}

func (h *Handler) HandlePostDetailPage() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.renderPostDetail(w, r, http.StatusOK, r.PathValue("postId"), CommentForm{}, nil)
	})
}

func (h *Handler) renderPostDetail(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	postID string,
	form CommentForm,
	formErrors FormErrors,
) {
	post, err := h.contentsSvc.GetPost(r.Context(), postID)
	if err != nil {
		h.handleServiceError(w, r, "failed to get post", err)

		return
	}

	fullPost, err := h.loadFullPost(r.Context(), post, currentUserID(r))
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to load post details", "postId", post.ID, "error", err)
		h.renderInternalError(w, r)

		return
	}

	data := map[string]any{
		"SiteTitle":  post.Subject,
		"Post":       fullPost,
		"Form":       form,
		"FormErrors": formErrors,
	}

	h.renderTemplateWithStatus(w, r, status, "post-detail-page.gohtml", data)
}

func (h *Handler) loadFullPost(ctx context.Context, post *contents.Post, currentUserID string) (*FullPost, error) {
	authors := make(map[string]*authentication.User)

	author, err := h.getAuthor(ctx, authors, post.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get post author: %w", err)
	}

	comments, err := h.discussSvc.ListComments(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	commentsWithAuthors := make([]*CommentWithAuthor, 0, len(comments))

	for _, comment := range comments {
		commentAuthor, err := h.getAuthor(ctx, authors, comment.AuthorID)
		if err != nil {
			return nil, fmt.Errorf("failed to get comment author: %w", err)
		}

		commentsWithAuthors = append(commentsWithAuthors, &CommentWithAuthor{
			Comment:  *comment,
			Author:   commentAuthor,
			IsAuthor: discuss.IsAuthor(comment, currentUserID),
		})
	}

	return &FullPost{
		Post:          *post,
		Author:        author,
		CommentsCount: len(commentsWithAuthors),
		Comments:      commentsWithAuthors,
		IsAuthor:      contents.IsAuthor(post, currentUserID),
	}, nil
}

func (h *Handler) HandleCreatePostPage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			"SiteTitle": "Create Post",
			"Form":      PostForm{},
		}

		h.renderTemplate(w, r, "post-form-page.gohtml", data)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleCreatePost() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		form := parsePostForm(r)

		formErrors, err := validateForm(form)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to validate post form", "error", err)
			h.renderInternalError(w, r)

			return
		}

		if formErrors != nil {
			h.renderTemplateWithStatus(w, r, http.StatusUnprocessableEntity, "post-form-page.gohtml", map[string]any{
				"SiteTitle":  "Create Post",
				"Form":       form,
				"FormErrors": formErrors,
			})

			return
		}

		_, err = h.contentsSvc.CreatePost(r.Context(), contents.CreatePostRequest{
			AuthorID: currentUserID(r),
			Subject:  form.Subject,
			Content:  form.Content,
		})
		if err != nil {
			h.handleServiceError(w, r, "failed to create post", err)

			return
		}

		http.Redirect(w, r, "/", http.StatusSeeOther)
	})

	return h.AuthenticatedOnly(hf)
}

// loadOwnPost finds the post and makes sure the current user wrote it.
// It answers the request itself and returns nil when the caller should stop.
func (h *Handler) loadOwnPost(w http.ResponseWriter, r *http.Request, deniedMessage string) *contents.Post {
	post, err := h.contentsSvc.GetPost(r.Context(), r.PathValue("postId"))
	if err != nil {
		h.handleServiceError(w, r, "failed to get post", err)

		return nil
	}

	if !contents.IsAuthor(post, currentUserID(r)) {
		h.denyPost(w, r, post.ID, deniedMessage)

		return nil
	}

	return post
}

func (h *Handler) denyPost(w http.ResponseWriter, r *http.Request, postID, message string) {
	h.addFlash(w, r, message)
	http.Redirect(w, r, postURL(postID), http.StatusSeeOther)
}

func postURL(postID string) string {
	return "/" + postID + "/"
}

const (
	msgNoPermissionToModify = "You do not have permission to modify this."
	msgNoPermissionToDelete = "You do not have permission to delete this."
)

func (h *Handler) HandleModifyPostPage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		post := h.loadOwnPost(w, r, msgNoPermissionToModify)
		if post == nil {
			return
		}

		data := map[string]any{
			"SiteTitle": "Modify Post",
			"Post":      post,
			"Form":      PostForm{Subject: post.Subject, Content: post.Content},
		}

		h.renderTemplate(w, r, "post-form-page.gohtml", data)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleModifyPost() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		post := h.loadOwnPost(w, r, msgNoPermissionToModify)
		if post == nil {
			return
		}

		form := parsePostForm(r)

		formErrors, err := validateForm(form)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to validate post form", "error", err)
			h.renderInternalError(w, r)

			return
		}

		if formErrors != nil {
			h.renderTemplateWithStatus(w, r, http.StatusUnprocessableEntity, "post-form-page.gohtml", map[string]any{
				"SiteTitle":  "Modify Post",
				"Post":       post,
				"Form":       form,
				"FormErrors": formErrors,
			})

			return
		}

		_, err = h.contentsSvc.UpdatePost(r.Context(), contents.UpdatePostRequest{
			PostID:  post.ID,
			Subject: form.Subject,
			Content: form.Content,
		})
		if err != nil {
			var notAuthorErr *contents.NotAuthorError
			if errors.As(err, &notAuthorErr) {
				h.denyPost(w, r, post.ID, msgNoPermissionToModify)

				return
			}

			h.handleServiceError(w, r, "failed to update post", err)

			return
		}

		http.Redirect(w, r, postURL(post.ID), http.StatusSeeOther)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleDeletePostPage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		post := h.loadOwnPost(w, r, msgNoPermissionToDelete)
		if post == nil {
			return
		}

		data := map[string]any{
			"SiteTitle": "Delete Post",
			"Post":      post,
		}

		h.renderTemplate(w, r, "post-delete-page.gohtml", data)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleDeletePost() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		post := h.loadOwnPost(w, r, msgNoPermissionToDelete)
		if post == nil {
			return
		}

		err := h.contentsSvc.DeletePost(r.Context(), post.ID)
		if err != nil {
			var notAuthorErr *contents.NotAuthorError
			if errors.As(err, &notAuthorErr) {
				h.denyPost(w, r, post.ID, msgNoPermissionToDelete)

				return
			}

			h.handleServiceError(w, r, "failed to delete post", err)

			return
		}

		http.Redirect(w, r, "/", http.StatusSeeOther)
	})

	return h.AuthenticatedOnly(hf)
}
