package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nasermirzaei89/mypet/discuss"
)

func (h *Handler) HandleCreateCommentPage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.renderPostDetail(w, r, http.StatusOK, r.PathValue("postId"), CommentForm{}, nil)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleCreateComment() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		postID := r.PathValue("postId")
		form := parseCommentForm(r)

		formErrors, err := validateForm(form)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to validate comment form", "error", err)
			h.renderInternalError(w, r)

			return
		}

		if formErrors != nil {
			h.renderPostDetail(w, r, http.StatusUnprocessableEntity, postID, form, formErrors)

			return
		}

		comment, err := h.discussSvc.CreateComment(r.Context(), discuss.CreateCommentRequest{
			PostID:   postID,
			AuthorID: currentUserID(r),
			Content:  form.Content,
		})
		if err != nil {
			h.handleServiceError(w, r, "failed to create comment", err)

			return
		}

		http.Redirect(w, r, postURL(comment.PostID), http.StatusSeeOther)
	})

	return h.AuthenticatedOnly(hf)
}

// loadOwnComment finds the comment and makes sure the current user wrote it.
// It answers the request itself and returns nil when the caller should stop.
func (h *Handler) loadOwnComment(w http.ResponseWriter, r *http.Request, deniedMessage string) *discuss.Comment {
	comment, err := h.discussSvc.GetComment(r.Context(), r.PathValue("commentId"))
	if err != nil {
		h.handleServiceError(w, r, "failed to get comment", err)

		return nil
	}

	if !discuss.IsAuthor(comment, currentUserID(r)) {
		h.denyPost(w, r, comment.PostID, deniedMessage)

		return nil
	}

	return comment
}

func (h *Handler) HandleModifyCommentPage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		comment := h.loadOwnComment(w, r, msgNoPermissionToModify)
		if comment == nil {
			return
		}

		data := map[string]any{
			"SiteTitle": "Modify Comment",
			"Comment":   comment,
			"Form":      CommentForm{Content: comment.Content},
		}

		h.renderTemplate(w, r, "comment-form-page.gohtml", data)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleModifyComment() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		comment := h.loadOwnComment(w, r, msgNoPermissionToModify)
		if comment == nil {
			return
		}

		form := parseCommentForm(r)

		formErrors, err := validateForm(form)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to validate comment form", "error", err)
			h.renderInternalError(w, r)

			return
		}

		if formErrors != nil {
			h.renderTemplateWithStatus(w, r, http.StatusUnprocessableEntity, "comment-form-page.gohtml", map[string]any{
				"SiteTitle":  "Modify Comment",
				"Comment":    comment,
				"Form":       form,
				"FormErrors": formErrors,
			})

			return
		}

		_, err = h.discussSvc.UpdateComment(r.Context(), discuss.UpdateCommentRequest{
			CommentID: comment.ID,
			Content:   form.Content,
		})
		if err != nil {
			var notAuthorErr *discuss.NotAuthorError
			if errors.As(err, &notAuthorErr) {
				h.denyPost(w, r, comment.PostID, msgNoPermissionToModify)

				return
			}

			h.handleServiceError(w, r, "failed to update comment", err)

			return
		}

		http.Redirect(w, r, postURL(comment.PostID), http.StatusSeeOther)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleDeleteCommentPage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		comment := h.loadOwnComment(w, r, msgNoPermissionToDelete)
		if comment == nil {
			return
		}

		data := map[string]any{
			"SiteTitle": "Delete Comment",
			"Comment":   comment,
		}

		h.renderTemplate(w, r, "comment-delete-page.gohtml", data)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleDeleteComment() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		comment := h.loadOwnComment(w, r, msgNoPermissionToDelete)
		if comment == nil {
			return
		}

		_, err := h.discussSvc.DeleteComment(r.Context(), comment.ID)
		if err != nil {
			var notAuthorErr *discuss.NotAuthorError
			if errors.As(err, &notAuthorErr) {
				h.denyPost(w, r, comment.PostID, msgNoPermissionToDelete)

				return
			}

			h.handleServiceError(w, r, "failed to delete comment", err)

			return
		}

		http.Redirect(w, r, postURL(comment.PostID), http.StatusSeeOther)
	})

	return h.AuthenticatedOnly(hf)
}
