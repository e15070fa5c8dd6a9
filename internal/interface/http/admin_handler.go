package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"booking-api/internal/application"
	"booking-api/pkg/response"
)

// AdminHandler serves the admin-gated read and delete surface. Routes are
// registered behind middleware.RequireAdmin.
type AdminHandler struct {
	Svc    *application.BookingService
	Logger *logrus.Logger
}

func NewAdminHandler(svc *application.BookingService, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{Svc: svc, Logger: logger}
}

// WeekCalendar GET /admin/calendar/week?weekStart&weekEnd
// Returns every appointment in the closed interval, ascending by start.
// Grouping into days is the UI's concern.
func (h *AdminHandler) WeekCalendar(c *gin.Context) {
	start, err1 := time.Parse(time.RFC3339, c.Query("weekStart"))
	end, err2 := time.Parse(time.RFC3339, c.Query("weekEnd"))
	if err1 != nil || err2 != nil {
		response.Fail(c, http.StatusBadRequest, "weekStart and weekEnd must be valid RFC3339 timestamps", nil)
		return
	}
	if start.After(end) {
		response.Fail(c, http.StatusBadRequest, "weekStart must be before or equal to weekEnd", nil)
		return
	}

	list, err := h.Svc.WeekCalendar(c.Request.Context(), start, end)
	if err != nil {
		h.Logger.WithError(err).Error("week calendar failed")
		response.Fail(c, http.StatusInternalServerError, "could not load appointments", nil)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"appointments": appointmentListJSON(list)}, "weekly calendar", nil)
}

// DeleteAppointment DELETE /admin/appointments/:id
// Hard delete, distinct from cancellation.
func (h *AdminHandler) DeleteAppointment(c *gin.Context) {
	id := c.Param("id")
	if !isUUID(id) {
		response.Fail(c, http.StatusBadRequest, "invalid appointment id", nil)
		return
	}

	if err := h.Svc.AdminDelete(c.Request.Context(), id); err != nil {
		if errors.Is(err, application.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, "appointment not found", nil)
			return
		}
		h.Logger.WithError(err).WithField("appointment_id", id).Error("admin delete failed")
		response.Fail(c, http.StatusInternalServerError, "could not delete appointment", nil)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"deleted": true}, "appointment deleted", nil)
}

// Search GET /admin/appointments/search?q=&size=
// Backed by the appointment index; returns an empty list when search is
// not configured.
func (h *AdminHandler) Search(c *gin.Context) {
	q := c.Query("q")
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.SearchAppointments(c.Request.Context(), q, size)
	if err != nil {
		h.Logger.WithError(err).Error("appointment search failed")
		response.Fail(c, http.StatusInternalServerError, "search failed", nil)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"results": hits}, "search results", nil)
}
