// Package devserver is a local reference implementation of the blog REST
// backend. It exists so the client can be developed and integration-tested
// without the production service.
package devserver

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/RaduPandor/Blog-Web-App/internal/database"
	"github.com/RaduPandor/Blog-Web-App/internal/middleware"
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options configures a Server.
type Options struct {
	JWTSecret      string
	SessionTTL     time.Duration
	SecureCookies  bool
	AllowedOrigins string
	// HonorCreateRole makes POST /Auth/create apply isAdmin in the same
	// call. Without it new accounts always start as User.
	HonorCreateRole bool
	// LoginLimit is the number of login attempts per minute per IP.
	// Zero disables the limit.
	LoginLimit int
	Redis      *redis.Client
	Logger     *slog.Logger
	// Registry receives the HTTP metrics. A fresh registry is used when nil.
	Registry *prometheus.Registry
}

// Server holds the backend's dependencies and its Fiber app.
type Server struct {
	db       *gorm.DB
	opts     Options
	logger   *slog.Logger
	sessions *middleware.Sessions
	prom     *fiberprometheus.FiberPrometheus
	app      *fiber.App
}

// New builds the server and registers all middleware and routes.
func New(db *gorm.DB, opts Options) (*Server, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}
	if opts.JWTSecret == "" {
		return nil, errors.New("JWT secret is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}

	s := &Server{
		db:       db,
		opts:     opts,
		logger:   opts.Logger,
		sessions: middleware.NewSessions(opts.JWTSecret, opts.SessionTTL, opts.SecureCookies, opts.Redis),
		prom:     fiberprometheus.NewWithRegistry(opts.Registry, "blogdev", "blog", "http", nil),
	}

	s.app = fiber.New(fiber.Config{
		AppName:      "Blog Dev API",
		ErrorHandler: s.handleError,
	})
	s.SetupMiddleware(s.app)
	s.SetupRoutes(s.app)
	return s, nil
}

// App returns the Fiber app, for tests and adaptors.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else {
		s.logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	}
	return respondError(c, code, message)
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())
	app.Use(s.prom.Middleware)
	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger(s.logger))

	origins := s.opts.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, X-Request-ID, traceparent",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
}

// SetupRoutes registers the REST surface under /api. Routing is case
// insensitive, so /Auth and /auth are the same group. Literal segments are
// registered before /:id.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health", s.HealthCheck)
	s.prom.RegisterAt(app, "/metrics")

	api := app.Group("/api")

	posts := api.Group("/posts")
	posts.Get("/", s.ListPosts)
	posts.Get("/:id", s.GetPost)
	posts.Post("/", s.sessions.Required(), s.CreatePost)
	posts.Put("/:id", s.sessions.Required(), s.UpdatePost)
	posts.Delete("/:id", s.sessions.Required(), s.DeletePost)

	auth := api.Group("/auth")
	var loginLimit fiber.Handler = func(c *fiber.Ctx) error { return c.Next() }
	if s.opts.LoginLimit > 0 {
		loginLimit = middleware.RateLimit(s.opts.Redis, s.logger, s.opts.LoginLimit, time.Minute, "login")
	}
	auth.Post("/login", loginLimit, s.Login)
	auth.Post("/register", s.Register)
	auth.Post("/logout", s.sessions.Optional(), s.Logout)
	auth.Put("/editprofile", s.sessions.Required(), s.EditProfile)
	auth.Get("/me", s.sessions.Required(), s.Me)

	admin := []fiber.Handler{s.sessions.Optional(), s.AdminRequired()}
	auth.Get("/getall", append(admin, s.ListUsers)...)
	auth.Post("/create", append(admin, s.CreateUser)...)
	auth.Get("/:id", s.UserInfo)
	auth.Put("/:id/role", append(admin, s.SetUserRole)...)
	auth.Put("/:id", append(admin, s.UpdateUser)...)
	auth.Delete("/:id", append(admin, s.DeleteUser)...)
}

// HealthCheck reports whether the database is reachable.
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	if err := database.Ping(ctx, s.db); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info("Dev backend listening", slog.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
