package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"booking-api/internal/application"
	"booking-api/internal/domain/entity"
	"booking-api/internal/domain/repository"
	"booking-api/internal/interface/middleware"
	"booking-api/pkg/helpers"
	"booking-api/pkg/validation"
)

// In-memory repository fakes shared by the handler tests. They mirror the
// postgres implementations' contract, including ErrDuplicate on a second
// booked appointment at the same starts_at.

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User // by id
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]*entity.User{}}
}

func (r *memUserRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

type memProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*entity.Profile // by user id
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{profiles: map[string]*entity.Profile{}}
}

func (r *memProfileRepo) Create(_ context.Context, p *entity.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[p.UserID]; ok {
		return repository.ErrDuplicate
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	r.profiles[p.UserID] = &cp
	return nil
}

func (r *memProfileRepo) GetByUserID(_ context.Context, userID string) (*entity.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

type memApptRepo struct {
	mu    sync.Mutex
	appts map[string]*entity.Appointment
}

func newMemApptRepo() *memApptRepo {
	return &memApptRepo{appts: map[string]*entity.Appointment{}}
}

func (r *memApptRepo) Insert(_ context.Context, a *entity.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.appts {
		if existing.Status == entity.StatusBooked && existing.StartsAt.Equal(a.StartsAt) {
			return repository.ErrDuplicate
		}
	}
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now()
	cp := *a
	r.appts[a.ID] = &cp
	return nil
}

func (r *memApptRepo) GetByID(_ context.Context, id string) (*entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memApptRepo) ListUpcomingByOwner(_ context.Context, ownerID string, from time.Time) ([]entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Appointment
	for _, a := range r.appts {
		if a.UserID == ownerID && !a.StartsAt.Before(from) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (r *memApptRepo) FindBookedAt(_ context.Context, startsAt time.Time) (*entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.appts {
		if a.Status == entity.StatusBooked && a.StartsAt.Equal(startsAt) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memApptRepo) ListInRange(_ context.Context, start, end time.Time) ([]entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Appointment
	for _, a := range r.appts {
		if !a.StartsAt.Before(start) && !a.StartsAt.After(end) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (r *memApptRepo) UpdateStatus(_ context.Context, id, status string) (*entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	a.Status = status
	cp := *a
	return &cp, nil
}

func (r *memApptRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.appts, id)
	return nil
}

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*application.Session
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: map[string]*application.Session{}}
}

func (s *memSessionStore) Put(_ context.Context, userID string, sess application.Session, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := sess
	s.sessions[userID] = &cp
	return nil
}

func (s *memSessionStore) Get(_ context.Context, userID string) (*application.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, nil
	}
	cp := *sess
	return &cp, nil
}

func (s *memSessionStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

// testEnv wires the whole HTTP surface against in-memory stores.
type testEnv struct {
	router   *gin.Engine
	users    *memUserRepo
	profiles *memProfileRepo
	appts    *memApptRepo
	auth     *application.AuthService
	booking  *application.BookingService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	users := newMemUserRepo()
	profiles := newMemProfileRepo()
	appts := newMemApptRepo()

	jwtMgr := helpers.NewJWTManager("test-access", "test-refresh", time.Hour, 24*time.Hour)
	auth := application.NewAuthService(users, profiles, newMemSessionStore(), jwtMgr, logger)
	booking := application.NewBookingService(appts, logger, nil, nil, "")

	authH := NewAuthHandler(auth, logger, "localhost", false)
	apptH := NewAppointmentHandler(booking, logger)
	adminH := NewAdminHandler(booking, logger)

	r := gin.New()
	r.POST("/auth/register", authH.Register)
	r.POST("/auth/login", authH.Login)
	r.POST("/auth/refresh", authH.Refresh)

	sess := r.Group("/", middleware.Session(auth))
	sess.POST("/auth/logout", authH.Logout)
	sess.GET("/auth/me", authH.Me)
	sess.GET("/appointments", apptH.List)
	sess.POST("/appointments", apptH.Create)
	sess.POST("/appointments/:id/cancel", apptH.Cancel)
	sess.DELETE("/appointments/:id", apptH.Cancel)

	admin := r.Group("/admin", middleware.Session(auth), middleware.RequireAdmin(profiles))
	admin.GET("/calendar/week", adminH.WeekCalendar)
	admin.DELETE("/appointments/:id", adminH.DeleteAppointment)

	return &testEnv{router: r, users: users, profiles: profiles, appts: appts, auth: auth, booking: booking}
}

func (e *testEnv) do(t *testing.T, method, path, cookie string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// register creates an account and returns the new user id.
func (e *testEnv) register(t *testing.T, email, password string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"email": email, "password": password, "firstName": "Test", "lastName": "User",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: status = %d, body %s", email, w.Code, w.Body.String())
	}
	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	return resp.Data.ID
}

// login returns the Cookie header value carrying the access token.
func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": email, "password": password})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status = %d, body %s", email, w.Code, w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == "access_token" {
			return "access_token=" + c.Value
		}
	}
	t.Fatal("login did not set access_token cookie")
	return ""
}

// signup registers and logs in, returning user id and session cookie.
func (e *testEnv) signup(t *testing.T, email string) (string, string) {
	t.Helper()
	id := e.register(t, email, "password123")
	return id, e.login(t, email, "password123")
}

// promote flips a user's role to admin, as cmd/seed would.
func (e *testEnv) promote(t *testing.T, userID string) {
	t.Helper()
	e.profiles.mu.Lock()
	defer e.profiles.mu.Unlock()
	p, ok := e.profiles.profiles[userID]
	if !ok {
		t.Fatalf("no profile for user %s", userID)
	}
	p.Role = entity.RoleAdmin
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return out
}
