package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/incuna/user-management/internal/api/handler"
	"github.com/incuna/user-management/internal/api/middleware"
	"github.com/incuna/user-management/internal/core/ports"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Log      zerolog.Logger
	Auth     ports.AuthService
	Accounts ports.AccountService
	Profiles ports.ProfileService
	Avatars  ports.AvatarService
	Users    ports.UserService
	// Health lists the dependencies pinged by /health/ready.
	Health map[string]handler.Pinger
	// MediaDir, when set, is served under /media for local avatar storage.
	MediaDir string
	// BodyLimit caps request bodies, e.g. "10M". Empty disables the limit.
	BodyLimit string
	// Swagger mounts /swagger/* when true.
	Swagger bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	e.Pre(echomiddleware.RemoveTrailingSlash())

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(middleware.Metrics())
	if d.BodyLimit != "" {
		e.Use(echomiddleware.BodyLimit(d.BodyLimit))
	}
	e.Use(middleware.Authenticate(d.Auth))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth)
	accountHandler := handler.NewAccountHandler(d.Accounts)
	profileHandler := handler.NewProfileHandler(d.Profiles)
	avatarHandler := handler.NewAvatarHandler(d.Avatars)
	userHandler := handler.NewUserHandler(d.Users)
	healthHandler := handler.NewHealthHandler(d.Health)

	// --- Auth & account routes ---
	e.POST("/auth/login", authHandler.Login)
	e.POST("/register", accountHandler.Register)
	e.POST("/password_reset", accountHandler.RequestPasswordReset)
	e.PUT("/password_reset/confirm/:uid/:token", accountHandler.ConfirmPasswordReset)
	e.PUT("/password_change", accountHandler.ChangePassword)
	e.POST("/verify/:uid/:token", accountHandler.VerifyEmail)

	// --- Profile & avatar ---
	e.GET("/profile", profileHandler.Get)
	e.PUT("/profile", profileHandler.Put)
	e.PATCH("/profile", profileHandler.Patch)
	e.GET("/avatar", avatarHandler.Get)
	e.PUT("/avatar", avatarHandler.Put)
	e.GET("/avatar/thumbnail", avatarHandler.Thumbnail)

	// --- Users ---
	users := e.Group("/users")
	users.GET("", userHandler.List)
	users.POST("", userHandler.Create)
	users.GET("/:id", userHandler.Get)
	users.PUT("/:id", userHandler.Put)
	users.PATCH("/:id", userHandler.Patch)
	users.DELETE("/:id", userHandler.Delete)

	// --- Health probes & ops (no auth required) ---
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	if d.Swagger {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}
	if d.MediaDir != "" {
		e.Static("/media", d.MediaDir)
	}

	return e
}
