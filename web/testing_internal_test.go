package web

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/nasermirzaei89/mypet/authentication"
	"github.com/nasermirzaei89/mypet/authorization"
	"github.com/nasermirzaei89/mypet/authorization/casbin"
	"github.com/nasermirzaei89/mypet/contents"
	"github.com/nasermirzaei89/mypet/db/sqlite3"
	"github.com/nasermirzaei89/mypet/discuss"
	"github.com/nasermirzaei89/mypet/random"
	"github.com/stretchr/testify/require"
)

const testPolicy = `g, system:anonymous, system:unauthenticated
p, system:authenticated, github.com/nasermirzaei89/mypet/contents, *, createPost
p, system:authenticated, github.com/nasermirzaei89/mypet/contents, *, getPost
p, system:unauthenticated, github.com/nasermirzaei89/mypet/contents, *, getPost
p, system:authenticated, github.com/nasermirzaei89/mypet/contents, *, listPosts
p, system:unauthenticated, github.com/nasermirzaei89/mypet/contents, *, listPosts
p, system:authenticated, github.com/nasermirzaei89/mypet/contents, *, updatePost
p, system:authenticated, github.com/nasermirzaei89/mypet/contents, *, deletePost
p, system:authenticated, github.com/nasermirzaei89/mypet/discuss, *, createComment
p, system:authenticated, github.com/nasermirzaei89/mypet/discuss, *, getComment
p, system:unauthenticated, github.com/nasermirzaei89/mypet/discuss, *, getComment
p, system:authenticated, github.com/nasermirzaei89/mypet/discuss, *, listComments
p, system:unauthenticated, github.com/nasermirzaei89/mypet/discuss, *, listComments
p, system:authenticated, github.com/nasermirzaei89/mypet/discuss, *, countComments
p, system:unauthenticated, github.com/nasermirzaei89/mypet/discuss, *, countComments
p, system:authenticated, github.com/nasermirzaei89/mypet/discuss, *, updateComment
p, system:authenticated, github.com/nasermirzaei89/mypet/discuss, *, deleteComment
`

type testEnv struct {
	handler  *Handler
	authSvc  *authentication.Service
	posts    *contents.BaseService
	comments *discuss.BaseService
}

func newTestEnv(t *testing.T, authLimiter *RateLimiter) *testEnv {
	t.Helper()

	ctx := context.Background()

	db, err := sqlite3.NewDB(ctx, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	require.NoError(t, sqlite3.MigrateUp(ctx, db))

	provider, err := casbin.NewAuthorizationProvider(stringadapter.NewAdapter(testPolicy))
	require.NoError(t, err)

	authzSvc, err := authorization.NewService(provider)
	require.NoError(t, err)

	authzClient := authorization.NewClient(authzSvc)

	postRepo := sqlite3.NewPostRepository(db)
	posts := contents.NewService(postRepo)
	comments := discuss.NewService(sqlite3.NewCommentRepository(db), postRepo)

	authSvc := authentication.NewService(
		sqlite3.NewUserRepository(db),
		sqlite3.NewSessionRepository(db),
		authzClient,
	)

	if authLimiter == nil {
		authLimiter = NewRateLimiter(1000)
	}

	handler, err := NewHandler(
		authSvc,
		contents.NewAuthorizationMiddleware(authzClient, posts),
		discuss.NewAuthorizationMiddleware(authzClient, comments),
		sessions.NewCookieStore(random.Bytes(32)),
		"mypet-test",
		CSRFConfig{AuthKey: random.Bytes(32)},
		authLimiter,
	)
	require.NoError(t, err)

	return &testEnv{
		handler:  handler,
		authSvc:  authSvc,
		posts:    posts,
		comments: comments,
	}
}

func (env *testEnv) register(t *testing.T, username string) *authentication.User {
	t.Helper()

	user, err := env.authSvc.Register(context.Background(), authentication.RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "password-" + username,
	})
	require.NoError(t, err)

	return user
}

func (env *testEnv) createPost(t *testing.T, authorID, subject string) *contents.Post {
	t.Helper()

	post, err := env.posts.CreatePost(context.Background(), contents.CreatePostRequest{
		AuthorID: authorID,
		Subject:  subject,
		Content:  "content of " + subject,
	})
	require.NoError(t, err)

	return post
}

func (env *testEnv) createComment(t *testing.T, authorID, postID, content string) *discuss.Comment {
	t.Helper()

	comment, err := env.comments.CreateComment(context.Background(), discuss.CreateCommentRequest{
		PostID:   postID,
		AuthorID: authorID,
		Content:  content,
	})
	require.NoError(t, err)

	return comment
}

// testClient keeps cookies between requests like a browser.
type testClient struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
}

func (env *testEnv) newClient(t *testing.T) *testClient {
	t.Helper()

	return &testClient{
		t:       t,
		handler: env.handler,
		cookies: make(map[string]*http.Cookie),
	}
}

func (c *testClient) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()

	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.MaxAge < 0 {
			delete(c.cookies, cookie.Name)

			continue
		}

		c.cookies[cookie.Name] = cookie
	}

	return rec
}

func (c *testClient) get(target string) *httptest.ResponseRecorder {
	c.t.Helper()

	return c.do(httptest.NewRequest(http.MethodGet, target, nil))
}

var csrfTokenPattern = regexp.MustCompile(`name="gorilla\.csrf\.Token" value="([^"]+)"`)

// post loads formPage to pick up a CSRF token, then submits form to target.
func (c *testClient) post(formPage, target string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()

	page := c.get(formPage)

	matches := csrfTokenPattern.FindStringSubmatch(page.Body.String())
	require.Len(c.t, matches, 2, "no csrf token on %s (status %d)", formPage, page.Code)

	if form == nil {
		form = url.Values{}
	}

	form.Set("gorilla.csrf.Token", matches[1])

	return c.postRaw(target, form)
}

func (c *testClient) postRaw(target string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(req)
}

func (c *testClient) login(username string) {
	c.t.Helper()

	rec := c.post("/login/", "/login/", url.Values{
		"username": {username},
		"password": {"password-" + username},
	})
	require.Equal(c.t, http.StatusSeeOther, rec.Code, rec.Body.String())
}

func postPath(postID string) string {
	return fmt.Sprintf("/%s/", postID)
}
