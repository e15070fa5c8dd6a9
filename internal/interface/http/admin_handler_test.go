package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"booking-api/internal/domain/repository"
)

func weekQuery(start, end string) string {
	q := url.Values{}
	q.Set("weekStart", start)
	q.Set("weekEnd", end)
	return "/admin/calendar/week?" + q.Encode()
}

func TestWeekCalendarRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	_, alice := env.signup(t, "alice@example.com")

	w := env.do(t, http.MethodGet, weekQuery(future(0), future(168)), alice, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestWeekCalendarRequiresSession(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, weekQuery(future(0), future(168)), "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestWeekCalendarListsAllUsersAppointments(t *testing.T) {
	env := newTestEnv(t)
	_, alice := env.signup(t, "alice@example.com")
	_, bob := env.signup(t, "bob@example.com")
	adminID, admin := env.signup(t, "admin@example.com")
	env.promote(t, adminID)

	inWeek1 := future(24)
	inWeek2 := future(48)
	outOfWeek := future(300)
	if res := createAppointment(t, env, alice, "session", inWeek1); res.Code != http.StatusCreated {
		t.Fatal("booking failed")
	}
	if res := createAppointment(t, env, bob, "free_intro", inWeek2); res.Code != http.StatusCreated {
		t.Fatal("booking failed")
	}
	if res := createAppointment(t, env, bob, "session", outOfWeek); res.Code != http.StatusCreated {
		t.Fatal("booking failed")
	}

	w := env.do(t, http.MethodGet, weekQuery(future(0), future(168)), admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			Appointments []struct {
				StartsAt string `json:"starts_at"`
			} `json:"appointments"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	got := resp.Data.Appointments
	if len(got) != 2 {
		t.Fatalf("got %d appointments, want 2", len(got))
	}
	if got[0].StartsAt != inWeek1 || got[1].StartsAt != inWeek2 {
		t.Errorf("order = [%s, %s], want [%s, %s]", got[0].StartsAt, got[1].StartsAt, inWeek1, inWeek2)
	}
}

func TestWeekCalendarRejectsInvertedRange(t *testing.T) {
	env := newTestEnv(t)
	adminID, admin := env.signup(t, "admin@example.com")
	env.promote(t, adminID)

	w := env.do(t, http.MethodGet, weekQuery(future(168), future(0)), admin, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestWeekCalendarRejectsBadTimestamps(t *testing.T) {
	env := newTestEnv(t)
	adminID, admin := env.signup(t, "admin@example.com")
	env.promote(t, adminID)

	w := env.do(t, http.MethodGet, weekQuery("monday", future(168)), admin, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestWeekCalendarIncludesRangeBounds(t *testing.T) {
	env := newTestEnv(t)
	_, alice := env.signup(t, "alice@example.com")
	adminID, admin := env.signup(t, "admin@example.com")
	env.promote(t, adminID)

	edge := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	edgeStr := edge.Format(time.RFC3339)
	if res := createAppointment(t, env, alice, "session", edgeStr); res.Code != http.StatusCreated {
		t.Fatal("booking failed")
	}

	// Closed interval: an appointment exactly at weekEnd is included.
	w := env.do(t, http.MethodGet, weekQuery(edge.Add(-time.Hour).Format(time.RFC3339), edgeStr), admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data struct {
			Appointments []json.RawMessage `json:"appointments"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data.Appointments) != 1 {
		t.Fatalf("got %d appointments, want 1", len(resp.Data.Appointments))
	}
}

func TestAdminDeleteRemovesRecord(t *testing.T) {
	env := newTestEnv(t)
	_, alice := env.signup(t, "alice@example.com")
	adminID, admin := env.signup(t, "admin@example.com")
	env.promote(t, adminID)

	res := createAppointment(t, env, alice, "session", future(24))
	if res.Code != http.StatusCreated {
		t.Fatal("booking failed")
	}
	id := res.appointmentID(t)

	w := env.do(t, http.MethodDelete, "/admin/appointments/"+id, admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	// Hard delete: the row is gone, not cancelled.
	if _, err := env.appts.GetByID(context.Background(), id); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected record gone, got err=%v", err)
	}
}

func TestAdminDeleteRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	_, alice := env.signup(t, "alice@example.com")

	res := createAppointment(t, env, alice, "session", future(24))
	if res.Code != http.StatusCreated {
		t.Fatal("booking failed")
	}
	id := res.appointmentID(t)

	w := env.do(t, http.MethodDelete, "/admin/appointments/"+id, alice, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestAdminDeleteUnknownID(t *testing.T) {
	env := newTestEnv(t)
	adminID, admin := env.signup(t, "admin@example.com")
	env.promote(t, adminID)

	w := env.do(t, http.MethodDelete, "/admin/appointments/7b0f4b9e-9f3a-4a57-9a68-66f335a1f2a0", admin, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}

	w = env.do(t, http.MethodDelete, "/admin/appointments/garbage", admin, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed id status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
