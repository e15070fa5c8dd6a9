package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"booking-api/internal/application"
	"booking-api/internal/domain/entity"
	"booking-api/internal/interface/middleware"
	"booking-api/pkg/response"
	"booking-api/pkg/validation"
)

type AppointmentHandler struct {
	Svc    *application.BookingService
	Logger *logrus.Logger
}

func NewAppointmentHandler(svc *application.BookingService, logger *logrus.Logger) *AppointmentHandler {
	return &AppointmentHandler{Svc: svc, Logger: logger}
}

type createAppointmentRequest struct {
	Type     string `json:"type" binding:"required"`
	StartsAt string `json:"startsAt" binding:"required"`
}

func appointmentJSON(a *entity.Appointment) gin.H {
	return gin.H{
		"id":         a.ID,
		"user_id":    a.UserID,
		"type":       a.Type,
		"starts_at":  a.StartsAt.UTC().Format(time.RFC3339),
		"status":     a.Status,
		"created_at": a.CreatedAt,
	}
}

func appointmentListJSON(list []entity.Appointment) []gin.H {
	out := make([]gin.H, 0, len(list))
	for i := range list {
		out = append(out, appointmentJSON(&list[i]))
	}
	return out
}

// isUUID rejects anything that is not the canonical hyphenated form, so a
// malformed id never reaches the store.
func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// List GET /appointments
func (h *AppointmentHandler) List(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	list, err := h.Svc.ListUpcoming(c.Request.Context(), uid)
	if err != nil {
		h.Logger.WithError(err).WithField("user_id", uid).Error("list appointments failed")
		response.Fail(c, http.StatusInternalServerError, "could not load appointments", nil)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"appointments": appointmentListJSON(list)}, "appointments", nil)
}

// Create POST /appointments
func (h *AppointmentHandler) Create(c *gin.Context) {
	var req createAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "type and startsAt are required", validation.ToDetails(err))
		return
	}
	if !entity.ValidType(req.Type) {
		response.Fail(c, http.StatusBadRequest, "invalid type, use 'free_intro' or 'session'", nil)
		return
	}
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "startsAt must be a valid RFC3339 timestamp", nil)
		return
	}

	uid := c.GetString(middleware.CtxUserIDKey)
	a, err := h.Svc.Create(c.Request.Context(), uid, req.Type, startsAt)
	if err != nil {
		if errors.Is(err, application.ErrSlotTaken) {
			response.Fail(c, http.StatusConflict, "this time slot is already booked", nil)
			return
		}
		h.Logger.WithError(err).WithFields(logrus.Fields{"user_id": uid, "starts_at": req.StartsAt}).Error("create appointment failed")
		response.Fail(c, http.StatusInternalServerError, "could not create appointment", nil)
		return
	}
	response.OK(c, http.StatusCreated, gin.H{"appointment": appointmentJSON(a)}, "appointment created", nil)
}

// Cancel handles both POST /appointments/:id/cancel and
// DELETE /appointments/:id. One canonical contract: owner-only state
// transition to cancelled.
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	id := c.Param("id")
	if !isUUID(id) {
		response.Fail(c, http.StatusBadRequest, "invalid appointment id", nil)
		return
	}

	uid := c.GetString(middleware.CtxUserIDKey)
	a, err := h.Svc.Cancel(c.Request.Context(), uid, id)
	if err != nil {
		switch {
		case errors.Is(err, application.ErrNotFound):
			response.Fail(c, http.StatusNotFound, "appointment not found", nil)
		case errors.Is(err, application.ErrNotOwner):
			response.Fail(c, http.StatusForbidden, "you are not allowed to cancel this appointment", nil)
		default:
			h.Logger.WithError(err).WithField("appointment_id", id).Error("cancel appointment failed")
			response.Fail(c, http.StatusInternalServerError, "could not cancel appointment", nil)
		}
		return
	}
	response.OK(c, http.StatusOK, gin.H{"appointment": appointmentJSON(a)}, "appointment cancelled", nil)
}
