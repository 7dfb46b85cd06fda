package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/nasermirzaei89/mypet/authentication"
	authcontext "github.com/nasermirzaei89/mypet/authentication/context"
)

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sessionValueNotFoundError *SessionValueNotFoundError

		sessionID, err := h.getSessionValue(r, sessionIDKey)
		if err != nil && !errors.As(err, &sessionValueNotFoundError) {
			// an unreadable cookie (e.g. rotated keys) is treated as no session
			slog.WarnContext(r.Context(), "error on getting session value", "key", sessionIDKey, "error", err)
			next.ServeHTTP(w, r)

			return
		}

		sessionIDStr, _ := sessionID.(string)
		if sessionIDStr == "" {
			next.ServeHTTP(w, r)

			return
		}

		session, err := h.authSvc.GetSession(r.Context(), sessionIDStr)
		if err != nil {
			var sessionNotFoundError *authentication.SessionNotFoundError

			var sessionExpiredError *authentication.SessionExpiredError

			if errors.As(err, &sessionNotFoundError) || errors.As(err, &sessionExpiredError) {
				h.dropSessionValue(w, r)
				next.ServeHTTP(w, r)

				return
			}

			slog.ErrorContext(r.Context(), "error on getting session", "sessionId", sessionIDStr, "error", err)
			http.Error(w, "error on getting session", http.StatusInternalServerError)

			return
		}

		ctx := authcontext.WithSessionID(r.Context(), session.ID)

		user, err := h.authSvc.GetUser(ctx, session.UserID)
		if err != nil {
			var userNotFoundError *authentication.UserNotFoundError
			if errors.As(err, &userNotFoundError) {
				err = h.authSvc.Logout(ctx, session.ID)
				if err != nil {
					slog.ErrorContext(ctx, "error on logging out session", "sessionId", session.ID, "error", err)
				}

				h.dropSessionValue(w, r)
				next.ServeHTTP(w, r)

				return
			}

			slog.ErrorContext(ctx, "error retrieving user", "error", err)
			http.Error(w, "error on retrieving user", http.StatusInternalServerError)

			return
		}

		r = r.WithContext(authcontext.WithSubject(ctx, user.ID))

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) dropSessionValue(w http.ResponseWriter, r *http.Request) {
	err := h.deleteSessionValue(w, r, sessionIDKey)
	if err != nil {
		slog.ErrorContext(r.Context(), "error on deleting session value", "key", sessionIDKey, "error", err)
	}
}

func isAuthenticated(r *http.Request) bool {
	return authcontext.GetSubject(r.Context()) != authcontext.Anonymous
}

// AuthenticatedOnly sends guests to the login page, remembering where they were going.
func (h *Handler) AuthenticatedOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isAuthenticated(r) {
			http.Redirect(w, r, loginURL(r.URL.RequestURI()), http.StatusSeeOther)

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) GuestOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isAuthenticated(r) {
			http.Redirect(w, r, "/", http.StatusSeeOther)

			return
		}

		next.ServeHTTP(w, r)
	})
}

func loginURL(next string) string {
	return "/login/?" + url.Values{"next": {next}}.Encode()
}

// sanitizeReturnToPath only lets local absolute paths through; anything else becomes "/".
func sanitizeReturnToPath(returnTo string) string {
	if returnTo == "" || !strings.HasPrefix(returnTo, "/") || strings.HasPrefix(returnTo, "//") {
		return "/"
	}

	if strings.Contains(returnTo, "\\") {
		return "/"
	}

	u, err := url.Parse(returnTo)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}

	return returnTo
}
