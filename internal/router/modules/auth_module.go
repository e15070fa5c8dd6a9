package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"booking-api/config"
	"booking-api/internal/application"
	"booking-api/internal/container"
	handlers "booking-api/internal/interface/http"
	"booking-api/internal/interface/middleware"
)

// AuthModule registers the identity surface.
// Public: POST /auth/register, POST /auth/login, POST /auth/refresh
// Session-gated: POST /auth/logout, GET /auth/me
type AuthModule struct {
	Auth    *application.AuthService
	Handler *handlers.AuthHandler
}

func NewAuthModule(auth *application.AuthService, logger *logrus.Logger, cfg *config.Config) *AuthModule {
	h := handlers.NewAuthHandler(auth, logger, cfg.CookieDomain, cfg.CookieSecure)
	return &AuthModule{Auth: auth, Handler: h}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	registerLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)
	refreshLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIP(), nil)

	rg.POST("/auth/register", registerLimiter, m.Handler.Register)
	rg.POST("/auth/login", loginLimiter, m.Handler.Login)
	rg.POST("/auth/refresh", refreshLimiter, m.Handler.Refresh)

	auth := rg.Group("/")
	auth.Use(middleware.Session(m.Auth))
	{
		auth.POST("/auth/logout", m.Handler.Logout)
		auth.GET("/auth/me", m.Handler.Me)
	}
}
