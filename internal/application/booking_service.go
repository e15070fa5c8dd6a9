package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"booking-api/internal/domain/entity"
	"booking-api/internal/domain/repository"
	"booking-api/pkg/helpers"
)

var (
	ErrSlotTaken    = errors.New("time slot already booked")
	ErrNotFound     = errors.New("appointment not found")
	ErrNotOwner     = errors.New("appointment owned by another user")
	ErrInvalidType  = errors.New("invalid appointment type")
	ErrInvalidStart = errors.New("invalid start time")
)

// BookingService executes appointment commands and admin reads. It owns the
// one non-trivial invariant: no two booked appointments share a starts_at.
//
// The invariant is enforced twice. A precondition read yields a friendly
// conflict for the common case; the partial unique index behind
// AppointmentRepository.Insert closes the check-then-act race between two
// concurrent creates for the same instant.
type BookingService struct {
	Appointments repository.AppointmentRepository
	Logger       *logrus.Logger
	Events       *helpers.EventPublisher
	ES           *elasticsearch.Client
	ESIndex      string

	// now is swappable in tests.
	now func() time.Time
}

func NewBookingService(appts repository.AppointmentRepository, logger *logrus.Logger, events *helpers.EventPublisher, es *elasticsearch.Client, esIndex string) *BookingService {
	return &BookingService{
		Appointments: appts,
		Logger:       logger,
		Events:       events,
		ES:           es,
		ESIndex:      esIndex,
		now:          time.Now,
	}
}

// ListUpcoming returns the caller's appointments from now on, ascending.
func (s *BookingService) ListUpcoming(ctx context.Context, userID string) ([]entity.Appointment, error) {
	return s.Appointments.ListUpcomingByOwner(ctx, userID, s.now())
}

// Create books a new appointment for userID at startsAt.
func (s *BookingService) Create(ctx context.Context, userID, typ string, startsAt time.Time) (*entity.Appointment, error) {
	if !entity.ValidType(typ) {
		return nil, ErrInvalidType
	}
	if startsAt.IsZero() {
		return nil, ErrInvalidStart
	}

	// Precondition read; the insert below still holds under races.
	if _, err := s.Appointments.FindBookedAt(ctx, startsAt); err == nil {
		return nil, ErrSlotTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	a := &entity.Appointment{
		UserID:   userID,
		Type:     typ,
		StartsAt: startsAt.UTC(),
		Status:   entity.StatusBooked,
	}
	if err := s.Appointments.Insert(ctx, a); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrSlotTaken
		}
		return nil, err
	}

	s.publishEvent(ctx, "appointment.booked", a)
	s.indexAppointment(ctx, a)
	return a, nil
}

// Cancel transitions the caller's appointment to cancelled. Cancelling an
// already-cancelled appointment leaves it cancelled.
func (s *BookingService) Cancel(ctx context.Context, userID, id string) (*entity.Appointment, error) {
	a, err := s.Appointments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if a.UserID != userID {
		return nil, ErrNotOwner
	}
	updated, err := s.Appointments.UpdateStatus(ctx, id, entity.StatusCancelled)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.publishEvent(ctx, "appointment.cancelled", updated)
	s.indexAppointment(ctx, updated)
	return updated, nil
}

// AdminDelete permanently removes a record. Distinct from cancellation;
// admin-gated at the route.
func (s *BookingService) AdminDelete(ctx context.Context, id string) error {
	a, err := s.Appointments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := s.Appointments.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.publishEvent(ctx, "appointment.deleted", a)
	s.deleteFromIndex(ctx, a.ID)
	return nil
}

// WeekCalendar returns every appointment with starts_at in [start, end],
// ascending. Grouping into days is the caller's presentation concern.
func (s *BookingService) WeekCalendar(ctx context.Context, start, end time.Time) ([]entity.Appointment, error) {
	return s.Appointments.ListInRange(ctx, start, end)
}

// BookingEvent is the JSON shape published to the events queue.
type BookingEvent struct {
	Action        string    `json:"action"`
	AppointmentID string    `json:"appointment_id"`
	UserID        string    `json:"user_id"`
	Type          string    `json:"type"`
	StartsAt      time.Time `json:"starts_at"`
	Status        string    `json:"status"`
	At            time.Time `json:"at"`
}

func (s *BookingService) publishEvent(ctx context.Context, action string, a *entity.Appointment) {
	if s.Events == nil {
		return
	}
	ev := BookingEvent{
		Action:        action,
		AppointmentID: a.ID,
		UserID:        a.UserID,
		Type:          a.Type,
		StartsAt:      a.StartsAt,
		Status:        a.Status,
		At:            s.now().UTC(),
	}
	if err := s.Events.PublishJSON(ctx, ev); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("action", action).Warn("event publish failed")
	}
}

func (s *BookingService) indexAppointment(ctx context.Context, a *entity.Appointment) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	doc := map[string]any{
		"id":         a.ID,
		"user_id":    a.UserID,
		"type":       a.Type,
		"starts_at":  a.StartsAt.Format(time.RFC3339Nano),
		"status":     a.Status,
		"created_at": a.CreatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESIndex, DocumentID: a.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("appointment_id", a.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("appointment_id", a.ID).Warn("es index response error")
	}
}

func (s *BookingService) deleteFromIndex(ctx context.Context, id string) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: s.ESIndex, DocumentID: id}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("appointment_id", id).Warn("es delete failed")
		}
		return
	}
	_ = res.Body.Close()
}

// SearchAppointments performs a simple multi_match over the appointment index.
func (s *BookingService) SearchAppointments(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"user_id^2", "type", "status"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
