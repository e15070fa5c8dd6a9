package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"booking-api/internal/domain/entity"
	"booking-api/internal/domain/repository"
	"booking-api/pkg/helpers"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrRoleMissing        = errors.New("user role not found")
	ErrInvalidSession     = errors.New("invalid session")
)

const sessionTTL = 24 * time.Hour

// AuthService is the identity surface of the API: account creation,
// credential login, session resolution, refresh and sign-out.
type AuthService struct {
	Users    repository.UserRepository
	Profiles repository.ProfileRepository
	Sessions SessionStore
	JWT      *helpers.JWTManager
	Logger   *logrus.Logger
}

func NewAuthService(users repository.UserRepository, profiles repository.ProfileRepository, sessions SessionStore, jwt *helpers.JWTManager, logger *logrus.Logger) *AuthService {
	return &AuthService{Users: users, Profiles: profiles, Sessions: sessions, JWT: jwt, Logger: logger}
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates an account plus its profile. Every registered account
// starts with the user role; admin is granted out of band (see cmd/seed).
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*entity.Profile, error) {
	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{Email: in.Email, Password: hash}
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	p := &entity.Profile{
		UserID:    u.ID,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      entity.RoleUser,
	}
	if err := s.Profiles.Create(ctx, p); err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("profile creation failed")
		}
		return nil, err
	}
	return p, nil
}

// Login verifies credentials, loads the caller's role and records a fresh
// session. The returned token pair goes into HttpOnly cookies.
func (s *AuthService) Login(ctx context.Context, email, password string) (*entity.Profile, TokenPair, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil || u == nil {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	p, err := s.Profiles.GetByUserID(ctx, u.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, TokenPair{}, ErrRoleMissing
		}
		return nil, TokenPair{}, err
	}
	pair, err := s.issueTokens(ctx, u, p)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return p, pair, nil
}

func (s *AuthService) issueTokens(ctx context.Context, u *entity.User, p *entity.Profile) (TokenPair, error) {
	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	sess := Session{
		SID:       sid,
		Email:     u.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		CreatedAt: time.Now(),
	}
	if err := s.Sessions.Put(ctx, u.ID, sess, sessionTTL); err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("session store failed")
		}
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// ResolveSession exchanges a session token for the authenticated identity.
// Pure lookup: it never refreshes or rotates the token.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*Principal, error) {
	claims, err := s.JWT.ParseAccessToken(token)
	if err != nil {
		return nil, ErrInvalidSession
	}
	sess, err := s.Sessions.Get(ctx, claims.UserID)
	if err != nil || sess == nil || sess.SID != claims.SessionID {
		return nil, ErrInvalidSession
	}
	return &Principal{UserID: claims.UserID, Email: sess.Email}, nil
}

// Refresh rotates the session id and issues a new token pair. Any mismatch
// between the presented refresh token and the live session fails closed.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, ErrInvalidSession
	}
	sess, err := s.Sessions.Get(ctx, claims.UserID)
	if err != nil || sess == nil || sess.SID != claims.SessionID {
		return TokenPair{}, ErrInvalidSession
	}
	u, err := s.Users.GetByID(ctx, claims.UserID)
	if err != nil || u == nil {
		return TokenPair{}, ErrInvalidSession
	}
	p, err := s.Profiles.GetByUserID(ctx, u.ID)
	if err != nil {
		return TokenPair{}, ErrInvalidSession
	}
	return s.issueTokens(ctx, u, p)
}

// Logout drops the server-side session. Cookie clearing is the handler's job.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.Sessions.Delete(ctx, userID)
}

// Whoami returns the caller's profile for the authenticated user id.
func (s *AuthService) Whoami(ctx context.Context, userID string) (*entity.Profile, error) {
	return s.Profiles.GetByUserID(ctx, userID)
}
