package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"booking-api/internal/application"
	"booking-api/internal/container"
	handlers "booking-api/internal/interface/http"
	"booking-api/internal/interface/middleware"
)

// AppointmentModule registers the user booking surface. Every route runs
// through the session resolver; ownership is enforced in the service.
// GET /appointments, POST /appointments,
// POST /appointments/:id/cancel, DELETE /appointments/:id
type AppointmentModule struct {
	Auth    *application.AuthService
	Handler *handlers.AppointmentHandler
}

func NewAppointmentModule(auth *application.AuthService, booking *application.BookingService, logger *logrus.Logger) *AppointmentModule {
	return &AppointmentModule{Auth: auth, Handler: handlers.NewAppointmentHandler(booking, logger)}
}

func (m *AppointmentModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Session(m.Auth))
	auth.Use(
		middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP()),
		middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.GET("/appointments", m.Handler.List)
		auth.POST("/appointments", m.Handler.Create)
		auth.POST("/appointments/:id/cancel", m.Handler.Cancel)
		auth.DELETE("/appointments/:id", m.Handler.Cancel)
	}
}
