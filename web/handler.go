package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
	"github.com/nasermirzaei89/mypet/authentication"
	authcontext "github.com/nasermirzaei89/mypet/authentication/context"
	"github.com/nasermirzaei89/mypet/authorization"
	"github.com/nasermirzaei89/mypet/contents"
	"github.com/nasermirzaei89/mypet/discuss"
)

var (
	//go:embed templates/*
	templatesFS embed.FS

	//go:embed static/*
	staticFS embed.FS
)

const (
	defaultSiteTitle = "MyPet"

	// DefaultAuthRateLimit is the number of login and sign-up attempts allowed per IP per minute.
	DefaultAuthRateLimit = 10
)

type Handler struct {
	mux         *http.ServeMux
	handler     http.Handler
	tpl         *template.Template
	static      fs.FS
	authSvc     *authentication.Service
	contentsSvc contents.Service
	discussSvc  discuss.Service
	cookieStore *sessions.CookieStore
	sessionName string
	markdown    *markdownRenderer
	authLimiter *RateLimiter
}

var _ http.Handler = (*Handler)(nil)

type CSRFConfig struct {
	AuthKey        []byte
	TrustedOrigins []string
	// Secure marks the CSRF cookie secure and enforces strict Referer checks.
	Secure bool
}

func NewHandler(
	authSvc *authentication.Service,
	contentsSvc contents.Service,
	discussSvc discuss.Service,
	cookieStore *sessions.CookieStore,
	sessionName string,
	csrfConfig CSRFConfig,
	authLimiter *RateLimiter,
) (*Handler, error) {
	if authLimiter == nil {
		authLimiter = NewRateLimiter(DefaultAuthRateLimit)
	}

	h := &Handler{
		mux:         nil,
		handler:     nil,
		tpl:         nil,
		authSvc:     authSvc,
		contentsSvc: contentsSvc,
		discussSvc:  discussSvc,
		cookieStore: cookieStore,
		sessionName: sessionName,
		markdown:    newMarkdownRenderer(),
		authLimiter: authLimiter,
	}

	{
		tpl, err := template.New("").Funcs(h.funcs()).ParseFS(templatesFS, "templates/*.gohtml")
		if err != nil {
			return nil, fmt.Errorf("failed to parse templates: %w", err)
		}

		h.tpl = tpl
	}

	{
		static, err := fs.Sub(staticFS, "static")
		if err != nil {
			return nil, fmt.Errorf("failed to sub static fs: %w", err)
		}

		h.static = static
	}

	{
		h.mux = &http.ServeMux{}
		h.handler = h.mux

		h.registerRoutes()
	}

	{
		h.handler = h.authMiddleware(h.handler)

		{
			csrfMiddleware := csrf.Protect(
				csrfConfig.AuthKey,
				csrf.TrustedOrigins(csrfConfig.TrustedOrigins),
				csrf.Secure(csrfConfig.Secure),
				csrf.Path("/"),
				csrf.ErrorHandler(http.HandlerFunc(h.HandleCSRFFailure)),
			)

			h.handler = csrfMiddleware(h.handler)

			if !csrfConfig.Secure {
				h.handler = plaintextMiddleware(h.handler)
			}
		}

		h.handler = recoverMiddleware(h.handler)
	}

	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("/", h.HandleIndex)

	h.mux.Handle("GET /{postId}/{$}", h.HandlePostDetailPage())
	h.mux.Handle("GET /comment/create/{postId}/{$}", h.HandleCreateCommentPage())
	h.mux.Handle("POST /comment/create/{postId}/{$}", h.HandleCreateComment())
	h.mux.Handle("GET /post/create", h.HandleCreatePostPage())
	h.mux.Handle("POST /post/create", h.HandleCreatePost())

	h.mux.Handle("GET /login/{$}", h.HandleLoginPage())
	h.mux.Handle("POST /login/{$}", h.authLimiter.Middleware(h.HandleLogin()))
	h.mux.Handle("GET /logout/{$}", h.HandleLogoutPage())
	h.mux.Handle("POST /logout/{$}", h.HandleLogout())
	h.mux.Handle("GET /signup/{$}", h.HandleSignupPage())
	h.mux.Handle("POST /signup/{$}", h.authLimiter.Middleware(h.HandleSignup()))

	h.mux.Handle("GET /post/modify/{postId}/{$}", h.HandleModifyPostPage())
	h.mux.Handle("POST /post/modify/{postId}/{$}", h.HandleModifyPost())
	h.mux.Handle("GET /post/delete/{postId}/{$}", h.HandleDeletePostPage())
	h.mux.Handle("POST /post/delete/{postId}/{$}", h.HandleDeletePost())
	h.mux.Handle("GET /comment/modify/{commentId}/{$}", h.HandleModifyCommentPage())
	h.mux.Handle("POST /comment/modify/{commentId}/{$}", h.HandleModifyComment())
	h.mux.Handle("GET /comment/delete/{commentId}/{$}", h.HandleDeleteCommentPage())
	h.mux.Handle("POST /comment/delete/{commentId}/{$}", h.HandleDeleteComment())
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func(ctx context.Context) {
			if err := recover(); err != nil {
				slog.ErrorContext(
					ctx,
					"recovered from panic",
					"error",
					err,
					"stack",
					string(debug.Stack()),
				)

				http.Error(w, "internal error occurred", http.StatusInternalServerError)
			}
		}(r.Context())

		next.ServeHTTP(w, r)
	})
}

// plaintextMiddleware tells the CSRF middleware the request came over plain HTTP.
func plaintextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.TLS == nil {
			r = csrf.PlaintextHTTPRequest(r)
		}

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) HandleCSRFFailure(w http.ResponseWriter, r *http.Request) {
	slog.WarnContext(r.Context(), "csrf check failed", "path", r.URL.Path, "reason", csrf.FailureReason(r))

	h.renderError(w, r, http.StatusForbidden, "The form has expired or is invalid. Please try again.")
}

func (h *Handler) funcs() template.FuncMap {
	return template.FuncMap{
		"markdown": h.markdown.Render,
		"formatTime": func(t time.Time) string {
			return t.Local().Format("2006-01-02 15:04")
		},
		"fieldError": func(formErrors FormErrors, field string) string {
			return formErrors[field]
		},
		"pageURL": func(page int, query string) string {
			values := url.Values{"page": {strconv.Itoa(page)}}
			if query != "" {
				values.Set("kw", query)
			}

			return "/?" + values.Encode()
		},
	}
}

func (h *Handler) renderTemplate(w http.ResponseWriter, r *http.Request, name string, extraData map[string]any) {
	h.renderTemplateWithStatus(w, r, http.StatusOK, name, extraData)
}

func (h *Handler) renderTemplateWithStatus(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	name string,
	extraData map[string]any,
) {
	var currentUser *authentication.User

	if isAuthenticated(r) {
		var err error

		currentUser, err = h.authSvc.GetCurrentUser(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to get current user", "error", err)
			http.Error(w, "Failed to get current user", http.StatusInternalServerError)

			return
		}
	}

	data := map[string]any{
		"CurrentPath":     r.URL.Path,
		"Lang":            "en",
		"Dir":             "ltr",
		"IsAuthenticated": isAuthenticated(r),
		"CurrentUser":     currentUser,
		csrf.TemplateTag:  csrf.TemplateField(r),
	}

	maps.Copy(data, extraData)

	data["SiteTitle"] = defaultSiteTitle

	if extraData["SiteTitle"] != nil {
		data["SiteTitle"] = fmt.Sprintf("%s | %s", extraData["SiteTitle"], data["SiteTitle"])
	}

	// flashes are popped before anything is written so the session cookie can still be updated
	data["Messages"] = h.popFlashes(w, r)

	var buf bytes.Buffer

	err := h.tpl.ExecuteTemplate(&buf, name, data)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to render template", "name", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	_, err = buf.WriteTo(w)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to write response", "name", name, "error", err)
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.renderTemplateWithStatus(w, r, status, "error-page.gohtml", map[string]any{
		"SiteTitle":  http.StatusText(status),
		"StatusCode": status,
		"Message":    message,
	})
}

func (h *Handler) renderNotFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusNotFound, "The page you are looking for does not exist.")
}

func (h *Handler) renderInternalError(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusInternalServerError, "Something went wrong. Please try again later.")
}

// handleServiceError answers the request for errors that are not specific to a handler.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	var accessDeniedErr *authorization.AccessDeniedError

	switch {
	case contents.IsNotFound(err), discuss.IsNotFound(err):
		h.renderNotFound(w, r)
	case errors.As(err, &accessDeniedErr):
		if !isAuthenticated(r) {
			http.Redirect(w, r, loginURL(r.URL.RequestURI()), http.StatusSeeOther)

			return
		}

		h.renderError(w, r, http.StatusForbidden, "You do not have permission to do that.")
	default:
		slog.ErrorContext(r.Context(), msg, "error", err)
		h.renderInternalError(w, r)
	}
}

func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/" {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)

			return
		}

		h.HandleHomePage(w, r)

		return
	}

	h.HandleStatic(w, r)
}

// HandleStatic serves static files.
func (h *Handler) HandleStatic(w http.ResponseWriter, r *http.Request) {
	_, err := fs.Stat(h.static, staticFilePath(r))
	if err != nil {
		h.renderNotFound(w, r)

		return
	}

	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.FileServer(http.FS(h.static)).ServeHTTP(w, r)
}

func staticFilePath(r *http.Request) string {
	p := r.URL.Path
	if len(p) > 0 && p[0] == '/' {
		p = p[1:]
	}

	if p == "" {
		return "."
	}

	return p
}

func currentUserID(r *http.Request) string {
	return authcontext.GetSubject(r.Context())
}
