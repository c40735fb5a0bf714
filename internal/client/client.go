// Package client assembles the blog client from configuration: transport,
// session persistence, query cache, identity and the services built on them.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/RaduPandor/Blog-Web-App/internal/apiclient"
	"github.com/RaduPandor/Blog-Web-App/internal/cache"
	"github.com/RaduPandor/Blog-Web-App/internal/config"
	"github.com/RaduPandor/Blog-Web-App/internal/featureflags"
	"github.com/RaduPandor/Blog-Web-App/internal/repository"
	"github.com/RaduPandor/Blog-Web-App/internal/service"
	"github.com/RaduPandor/Blog-Web-App/internal/session"
	"github.com/redis/go-redis/v9"
)

// SessionStore persists both the identity and the backend cookies.
type SessionStore interface {
	session.Store
	session.CookieStore
}

// Client is one signed-in (or anonymous) blog client.
type Client struct {
	API      *apiclient.Client
	Identity *session.IdentityContext
	Cache    *cache.QueryCache
	Features *featureflags.Manager

	Posts     *service.PostQueries
	Mutations *service.PostMutations
	Auth      *service.AuthService
	Users     *service.UserAdmin

	store  SessionStore
	redis  *redis.Client
	logger *slog.Logger
}

// Options overrides parts of the wiring, mostly for tests.
type Options struct {
	Store      SessionStore
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// New builds a Client from cfg. Saved cookies are restored into the
// transport so a previous login carries over.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Client, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var rdb *redis.Client
	if cfg.SessionStore == "redis" || cfg.CacheBackend == "redis" {
		var err error
		rdb, err = cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
	}

	store := opts.Store
	if store == nil {
		switch cfg.SessionStore {
		case "memory":
			store = session.NewMemoryStore()
		case "redis":
			store = session.NewRedisStore(rdb, "blog:session:", 0)
		default:
			store = session.NewFileStore(cfg.SessionFile)
		}
	}

	api, err := apiclient.New(apiclient.Config{
		BaseURL:    cfg.APIURL,
		HTTPClient: opts.HTTPClient,
		Timeout:    cfg.RequestTimeout,
		Logger:     logger,
	})
	if err != nil {
		closeRedis(rdb)
		return nil, err
	}
	cookies, err := store.LoadCookies(ctx)
	if err != nil {
		logger.WarnContext(ctx, "failed to restore session cookies", slog.String("error", err.Error()))
	} else if len(cookies) > 0 {
		api.SetCookies(cookies)
	}

	var backend cache.Store = cache.NewMemoryStore()
	if cfg.CacheBackend == "redis" {
		backend = cache.NewRedisStore(rdb, "blog:query:")
	}
	qc := cache.NewQueryCache(backend, cfg.CacheTTL, logger, cache.WithFetchTimeout(cfg.RequestTimeout))

	postRepo := repository.NewPostRepository(api, logger)
	authRepo := repository.NewAuthRepository(api)
	userRepo := repository.NewUserRepository(api)

	resolver := session.NewResolver(store, authRepo,
		session.WithConfirmTimeout(cfg.IdentityConfirmTimeout),
		session.WithRetries(cfg.IdentityRetries),
		session.WithLogger(logger),
	)
	identity := session.NewIdentityContext(ctx, resolver)
	features := featureflags.NewManager(cfg.BackendFeatures)

	return &Client{
		API:       api,
		Identity:  identity,
		Cache:     qc,
		Features:  features,
		Posts:     service.NewPostQueries(postRepo, qc),
		Mutations: service.NewPostMutations(postRepo, qc, service.WithMutationLogger(logger)),
		Auth:      service.NewAuthService(authRepo, identity, qc, logger),
		Users:     service.NewUserAdmin(userRepo, identity, features, logger),
		store:     store,
		redis:     rdb,
		logger:    logger,
	}, nil
}

// Close saves the transport's current cookies and releases Redis. A
// signed-out client saves an empty cookie set.
func (c *Client) Close(ctx context.Context) error {
	var cookies []*http.Cookie
	if c.Identity.Current() != nil {
		cookies = c.API.Cookies()
	}
	err := c.store.SaveCookies(ctx, cookies)
	closeRedis(c.redis)
	if err != nil {
		return fmt.Errorf("saving session cookies: %w", err)
	}
	return nil
}

func closeRedis(rdb *redis.Client) {
	if rdb != nil {
		_ = rdb.Close()
	}
}
