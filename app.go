package mypet

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/sessions"
	"github.com/nasermirzaei89/env"
	"github.com/nasermirzaei89/mypet/authentication"
	"github.com/nasermirzaei89/mypet/authorization"
	"github.com/nasermirzaei89/mypet/authorization/casbin"
	"github.com/nasermirzaei89/mypet/contents"
	"github.com/nasermirzaei89/mypet/db/redis"
	"github.com/nasermirzaei89/mypet/db/sqlite3"
	"github.com/nasermirzaei89/mypet/discuss"
	"github.com/nasermirzaei89/mypet/random"
	"github.com/nasermirzaei89/mypet/server"
	"github.com/nasermirzaei89/mypet/web"
	goredis "github.com/redis/go-redis/v9"
)

const (
	SessionStoreSQLite = "sqlite"
	SessionStoreRedis  = "redis"

	defaultSessionPruneInterval = time.Hour
	sessionCookieMaxAge         = 30 * 24 * 60 * 60
)

type App struct {
	server        *server.Server
	handler       http.Handler
	db            *sql.DB
	rdb           *goredis.Client
	authSvc       *authentication.Service
	pruneInterval time.Duration
}

//go:embed policy.csv
var defaultAuthorizationPolicyContent string

func NewApp(ctx context.Context) (*App, error) {
	db, err := sqlite3.NewDB(ctx, env.GetString("DB_DSN", "file:mypet.db?_pragma=busy_timeout(5000)"))
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	app := &App{
		server:        newServer(),
		db:            db,
		pruneInterval: defaultSessionPruneInterval,
	}

	err = app.init(ctx)
	if err != nil {
		app.close(ctx)

		return nil, err
	}

	return app, nil
}

func (app *App) init(ctx context.Context) error {
	err := sqlite3.MigrateUp(ctx, app.db)
	if err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	userRepo := sqlite3.NewUserRepository(app.db)
	postRepo := sqlite3.NewPostRepository(app.db)
	commentRepo := sqlite3.NewCommentRepository(app.db)

	sessionRepo, err := app.newSessionRepository(ctx)
	if err != nil {
		return fmt.Errorf("failed to create session repository: %w", err)
	}

	authzProvider, err := newAuthorizationProvider(ctx, app.db)
	if err != nil {
		return fmt.Errorf("failed to create authorization provider: %w", err)
	}

	authzSvc, err := authorization.NewService(authzProvider)
	if err != nil {
		return fmt.Errorf("failed to create authorization service: %w", err)
	}

	authzClient := authorization.NewClient(authzSvc)
	app.authSvc = authentication.NewService(userRepo, sessionRepo, authzClient)

	var contentsSvc contents.Service = contents.NewService(postRepo)
	contentsSvc = contents.NewAuthorizationMiddleware(authzClient, contentsSvc)

	var discussSvc discuss.Service = discuss.NewService(commentRepo, postRepo)
	discussSvc = discuss.NewAuthorizationMiddleware(authzClient, discussSvc)

	sessionName := env.GetString("SESSION_NAME", "mypet-"+random.Hex(4))
	sessionKey := env.GetString("SESSION_KEY", random.Hex(32))
	cookieStore := sessions.NewCookieStore([]byte(sessionKey))
	cookieStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionCookieMaxAge,
		Secure:   app.server.TLS.Enabled,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	csrfConfig := web.CSRFConfig{
		AuthKey:        []byte(env.GetString("CSRF_AUTH_KEY", random.Hex(16))),
		TrustedOrigins: env.GetStringSlice("CSRF_TRUSTED_ORIGINS", []string{}),
		Secure:         app.server.TLS.Enabled,
	}

	authRateLimit, err := strconv.Atoi(env.GetString("AUTH_RATE_LIMIT_PER_MINUTE", strconv.Itoa(web.DefaultAuthRateLimit)))
	if err != nil {
		return fmt.Errorf("failed to parse auth rate limit: %w", err)
	}

	app.handler, err = web.NewHandler(
		app.authSvc,
		contentsSvc,
		discussSvc,
		cookieStore,
		sessionName,
		csrfConfig,
		web.NewRateLimiter(authRateLimit),
	)
	if err != nil {
		return fmt.Errorf("failed to create HTTP handler: %w", err)
	}

	pruneInterval := env.GetString("SESSION_PRUNE_INTERVAL", "")
	if pruneInterval != "" {
		app.pruneInterval, err = time.ParseDuration(pruneInterval)
		if err != nil {
			return fmt.Errorf("failed to parse session prune interval: %w", err)
		}
	}

	return nil
}

func (app *App) newSessionRepository(ctx context.Context) (authentication.SessionRepository, error) {
	store := env.GetString("SESSION_STORE", SessionStoreSQLite)

	switch store {
	case SessionStoreSQLite:
		return sqlite3.NewSessionRepository(app.db), nil
	case SessionStoreRedis:
		app.rdb = goredis.NewClient(&goredis.Options{
			Addr:         env.GetString("REDIS_ADDR", "localhost:6379"),
			Password:     env.GetString("REDIS_PASSWORD", ""),
			DialTimeout:  3 * time.Second,
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
		})

		err := app.rdb.Ping(ctx).Err()
		if err != nil {
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}

		return redis.NewSessionRepository(app.rdb, env.GetString("REDIS_KEY_PREFIX", redis.DefaultKeyPrefix)), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", store)
	}
}

func (app *App) Run(ctx context.Context) error {
	// Handle SIGINT (CTRL+C) and SIGTERM gracefully.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer app.close(ctx)

	go app.pruneSessions(ctx)

	err := app.server.Run(ctx, app.handler)
	if err != nil {
		return fmt.Errorf("failed to run server: %w", err)
	}

	return nil
}

func (app *App) pruneSessions(ctx context.Context) {
	if app.pruneInterval <= 0 {
		return
	}

	ticker := time.NewTicker(app.pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := app.authSvc.PruneExpiredSessions(ctx)
			if err != nil {
				slog.ErrorContext(ctx, "failed to prune expired sessions", "error", err)

				continue
			}

			if deleted > 0 {
				slog.InfoContext(ctx, "pruned expired sessions", "count", deleted)
			}
		}
	}
}

func (app *App) close(ctx context.Context) {
	if app.rdb != nil {
		err := app.rdb.Close()
		if err != nil {
			slog.ErrorContext(ctx, "failed to close redis client", "error", err)
		}
	}

	if app.db != nil {
		err := app.db.Close()
		if err != nil {
			slog.ErrorContext(ctx, "failed to close database", "error", err)
		}
	}
}

func newServer() *server.Server {
	return &server.Server{
		Port: env.GetString("PORT", server.DefaultPort),
		Host: env.GetString("HOST", ""),
		TLS: server.ServerTLS{
			Enabled: env.GetBool("TLS_ENABLED", false),
			Mode:    env.GetString("TLS_MODE", server.DefaultTLSMode),
			AutoCert: &server.ServerTLSAutoCert{
				CacheDir: env.GetString("TLS_AUTOCERT_CACHE_DIR", "./cert-cache"),
				Domains:  env.GetStringSlice("TLS_AUTOCERT_DOMAINS", []string{}),
				Email:    env.GetString("TLS_AUTOCERT_EMAIL", ""),
			},
			CertFile: env.GetString("TLS_CERT_FILE", ""),
			KeyFile:  env.GetString("TLS_KEY_FILE", ""),
		},
	}
}

func newAuthorizationProvider(ctx context.Context, db *sql.DB) (*casbin.AuthorizationProvider, error) {
	adapter, err := casbin.NewSQLAdapter(db, sqlite3.DriverName, casbin.DefaultTableName)
	if err != nil {
		return nil, fmt.Errorf("failed to create authorization adapter: %w", err)
	}

	provider, err := casbin.NewAuthorizationProvider(adapter)
	if err != nil {
		return nil, fmt.Errorf("failed to create authorization provider: %w", err)
	}

	policyContent, err := loadPolicyContent()
	if err != nil {
		return nil, fmt.Errorf("failed to load authorization policy content: %w", err)
	}

	err = provider.AddPolicyFromCSV(ctx, policyContent)
	if err != nil {
		return nil, fmt.Errorf("failed to add authorization policy from csv: %w", err)
	}

	return provider, nil
}

func loadPolicyContent() (string, error) {
	policyFilePath := env.GetString("AUTHORIZATION_POLICY_FILE", "")

	if policyFilePath == "" {
		return defaultAuthorizationPolicyContent, nil
	}

	content, err := os.ReadFile(policyFilePath) // nolint:gosec
	if err != nil {
		return "", fmt.Errorf("failed to read policy file %q: %w", policyFilePath, err)
	}

	return string(content), nil
}
