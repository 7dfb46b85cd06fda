package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nasermirzaei89/mypet/authentication"
	authcontext "github.com/nasermirzaei89/mypet/authentication/context"
)

func (h *Handler) HandleLoginPage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			"SiteTitle": "Login",
			"Form":      LoginForm{},
			"Next":      sanitizeReturnToPath(r.URL.Query().Get("next")),
		}

		h.renderTemplate(w, r, "login-page.gohtml", data)
	})

	return h.GuestOnly(hf)
}

func (h *Handler) HandleLogin() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		form := parseLoginForm(r)
		next := sanitizeReturnToPath(r.PostFormValue("next"))

		renderForm := func(formErrors FormErrors) {
			form.Password = ""

			h.renderTemplateWithStatus(w, r, http.StatusUnprocessableEntity, "login-page.gohtml", map[string]any{
				"SiteTitle":  "Login",
				"Form":       form,
				"FormErrors": formErrors,
				"Next":       next,
			})
		}

		formErrors, err := validateForm(form)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to validate login form", "error", err)
			h.renderInternalError(w, r)

			return
		}

		if formErrors != nil {
			renderForm(formErrors)

			return
		}

		session, err := h.authSvc.Login(r.Context(), form.Username, form.Password)
		if err != nil {
			if errors.Is(err, authentication.ErrInvalidCredentials) {
				renderForm(FormErrors{"": "Please enter a correct username and password."})

				return
			}

			slog.ErrorContext(r.Context(), "failed to login user", "error", err)
			h.renderInternalError(w, r)

			return
		}

		err = h.setSessionValue(w, r, sessionIDKey, session.ID)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to set session ID", "error", err)
			h.renderInternalError(w, r)

			return
		}

		http.Redirect(w, r, next, http.StatusSeeOther)
	})

	return h.GuestOnly(hf)
}

func (h *Handler) HandleLogoutPage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			"SiteTitle": "Logout",
		}

		h.renderTemplate(w, r, "logout-page.gohtml", data)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleLogout() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := authcontext.SessionIDFromContext(r.Context())
		if ok {
			err := h.authSvc.Logout(r.Context(), sessionID)
			if err != nil {
				var sessionNotFoundErr *authentication.SessionNotFoundError
				if !errors.As(err, &sessionNotFoundErr) {
					slog.ErrorContext(r.Context(), "error on logout", "sessionId", sessionID, "error", err)
					h.renderInternalError(w, r)

					return
				}
			}
		}

		err := h.deleteSessionValue(w, r, sessionIDKey)
		if err != nil {
			slog.ErrorContext(
				r.Context(),
				"error on deleting session value",
				"key",
				sessionIDKey,
				"error",
				err,
			)
			h.renderInternalError(w, r)

			return
		}

		http.Redirect(w, r, "/", http.StatusSeeOther)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleSignupPage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			"SiteTitle": "Sign Up",
			"Form":      SignupForm{},
		}

		h.renderTemplate(w, r, "signup-page.gohtml", data)
	})

	return h.GuestOnly(hf)
}

func (h *Handler) HandleSignup() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		form := parseSignupForm(r)

		renderForm := func(formErrors FormErrors) {
			form.Password1 = ""
			form.Password2 = ""

			h.renderTemplateWithStatus(w, r, http.StatusUnprocessableEntity, "signup-page.gohtml", map[string]any{
				"SiteTitle":  "Sign Up",
				"Form":       form,
				"FormErrors": formErrors,
			})
		}

		formErrors, err := validateForm(form)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to validate signup form", "error", err)
			h.renderInternalError(w, r)

			return
		}

		if formErrors != nil {
			renderForm(formErrors)

			return
		}

		_, err = h.authSvc.Register(r.Context(), authentication.RegisterRequest{
			Username: form.Username,
			Email:    form.Email,
			Password: form.Password1,
		})
		if err != nil {
			var userAlreadyExistsErr *authentication.UserAlreadyExistsError
			if errors.As(err, &userAlreadyExistsErr) {
				renderForm(FormErrors{"username": "A user with that username already exists."})

				return
			}

			slog.ErrorContext(r.Context(), "failed to register user", "error", err)
			h.renderInternalError(w, r)

			return
		}

		session, err := h.authSvc.Login(r.Context(), form.Username, form.Password1)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to login registered user", "error", err)
			h.renderInternalError(w, r)

			return
		}

		err = h.setSessionValue(w, r, sessionIDKey, session.ID)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to set session ID", "error", err)
			h.renderInternalError(w, r)

			return
		}

		http.Redirect(w, r, "/", http.StatusSeeOther)
	})

	return h.GuestOnly(hf)
}
