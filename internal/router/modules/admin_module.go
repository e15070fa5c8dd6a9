package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"booking-api/internal/application"
	"booking-api/internal/container"
	"booking-api/internal/domain/repository"
	handlers "booking-api/internal/interface/http"
	"booking-api/internal/interface/middleware"
)

// AdminModule registers the admin surface behind the session resolver plus
// the role gate.
// GET /admin/calendar/week, GET /admin/appointments/search,
// DELETE /admin/appointments/:id
type AdminModule struct {
	Auth     *application.AuthService
	Profiles repository.ProfileRepository
	Handler  *handlers.AdminHandler
}

func NewAdminModule(auth *application.AuthService, booking *application.BookingService, profiles repository.ProfileRepository, logger *logrus.Logger) *AdminModule {
	return &AdminModule{Auth: auth, Profiles: profiles, Handler: handlers.NewAdminHandler(booking, logger)}
}

func (m *AdminModule) Register(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")
	admin.Use(middleware.Session(m.Auth))
	admin.Use(middleware.RequireAdmin(m.Profiles))
	admin.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		admin.GET("/calendar/week", m.Handler.WeekCalendar)
		admin.GET("/appointments/search", m.Handler.Search)
		admin.DELETE("/appointments/:id", m.Handler.DeleteAppointment)
	}
}
