package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"booking-api/internal/application"
	"booking-api/internal/interface/middleware"
	"booking-api/pkg/helpers"
	"booking-api/pkg/response"
	"booking-api/pkg/validation"
)

type AuthHandler struct {
	Svc     *application.AuthService
	Logger  *logrus.Logger
	Cookies *helpers.CookieManager
}

func NewAuthHandler(svc *application.AuthService, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type registerRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,pwd"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "email, password, first name and last name are required", validation.ToDetails(err))
		return
	}

	p, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		if errors.Is(err, application.ErrEmailTaken) {
			response.Fail(c, http.StatusBadRequest, "email already registered", nil)
			return
		}
		h.Logger.WithError(err).Error("registration failed")
		response.Fail(c, http.StatusInternalServerError, "registration failed", nil)
		return
	}
	response.OK(c, http.StatusCreated, gin.H{"id": p.UserID, "role": p.Role}, "account created", nil)
}

// Login POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "email and password are required", validation.ToDetails(err))
		return
	}

	p, pair, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, application.ErrInvalidCredentials):
			response.Fail(c, http.StatusUnauthorized, "invalid credentials", nil)
		case errors.Is(err, application.ErrRoleMissing):
			response.Fail(c, http.StatusNotFound, "user role not found", nil)
		default:
			h.Logger.WithError(err).Error("login failed")
			response.Fail(c, http.StatusInternalServerError, "login failed", nil)
		}
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.OK(c, http.StatusOK, gin.H{"id": p.UserID, "role": p.Role}, "login successful", gin.H{
		"access_expires_at":  pair.AccessTokenExpiry,
		"refresh_expires_at": pair.RefreshTokenExpiry,
	})
}

// Logout POST /auth/logout (session required)
func (h *AuthHandler) Logout(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	if err := h.Svc.Logout(c.Request.Context(), uid); err != nil {
		h.Logger.WithError(err).WithField("user_id", uid).Error("logout failed")
		response.Fail(c, http.StatusInternalServerError, "logout failed", nil)
		return
	}
	h.Cookies.Clear(c)
	response.OK(c, http.StatusOK, gin.H{"logged_out": true}, "logged out", nil)
}

// Refresh POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie("refresh_token")
	if err != nil || refresh == "" {
		response.Fail(c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	pair, err := h.Svc.Refresh(c.Request.Context(), refresh)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.OK(c, http.StatusOK, gin.H{"refreshed": true}, "token refreshed", gin.H{
		"access_expires_at":  pair.AccessTokenExpiry,
		"refresh_expires_at": pair.RefreshTokenExpiry,
	})
}

// Me GET /auth/me (session required)
func (h *AuthHandler) Me(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	p, err := h.Svc.Whoami(c.Request.Context(), uid)
	if err != nil {
		response.Fail(c, http.StatusNotFound, "profile not found", nil)
		return
	}
	response.OK(c, http.StatusOK, gin.H{
		"id":         p.UserID,
		"email":      c.GetString(middleware.CtxUserEmailKey),
		"first_name": p.FirstName,
		"last_name":  p.LastName,
		"role":       p.Role,
	}, "profile", nil)
}
