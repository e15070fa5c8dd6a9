package router

import (
	"booking-api/internal/application"
	"booking-api/internal/container"
	"booking-api/internal/infrastructure/postgres"
	"booking-api/internal/infrastructure/redisstore"
	"booking-api/internal/router/modules"
)

// InitModules wires repositories, services and handlers from the container
// singletons and registers every feature module with the registry. Called
// once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	pool := container.GetPGPool()

	users := postgres.NewUserRepository(pool)
	profiles := postgres.NewProfileRepository(pool)
	appointments := postgres.NewAppointmentRepository(pool)
	sessions := redisstore.NewSessionStore(container.GetRedis())

	authSvc := application.NewAuthService(users, profiles, sessions, container.GetJWT(), logger)
	bookingSvc := application.NewBookingService(appointments, logger, container.GetEvents(), container.GetES(), cfg.ESAppointmentsIndex)

	r.Add(modules.NewAuthModule(authSvc, logger, cfg))
	r.Add(modules.NewAppointmentModule(authSvc, bookingSvc, logger))
	r.Add(modules.NewAdminModule(authSvc, bookingSvc, profiles, logger))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
