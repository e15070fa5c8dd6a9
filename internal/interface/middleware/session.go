package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"booking-api/internal/application"
	"booking-api/pkg/response"
)

// Gin context keys set by the session middleware.
const (
	CtxUserIDKey    = "userID"
	CtxUserEmailKey = "userEmail"
	CtxUserRoleKey  = "userRole"
)

// Cookie names recognized by the session resolver. The primary name is what
// this API sets at login; the legacy prefix/suffix pair matches the auth
// cookie of the previous hosted-backend frontend, whose value is a JSON
// array carrying the access token first.
const (
	sessionCookieName  = "access_token"
	legacyCookiePrefix = "sb-"
	legacyCookieSuffix = "-auth-token"
)

// ParseCookieHeader parses a raw Cookie header into a name -> value map:
// pairs split on ';', each on the first '=', both sides trimmed.
func ParseCookieHeader(header string) map[string]string {
	out := map[string]string{}
	if header == "" {
		return out
	}
	for _, part := range strings.Split(header, ";") {
		name, value, _ := strings.Cut(strings.TrimSpace(part), "=")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out[name] = strings.TrimSpace(value)
	}
	return out
}

// ExtractSessionToken pulls the session token out of a raw Cookie header.
// Returns "" when no token can be extracted.
func ExtractSessionToken(header string) string {
	cookies := ParseCookieHeader(header)

	if tok := cookies[sessionCookieName]; tok != "" {
		return tok
	}

	for name, value := range cookies {
		if !strings.HasPrefix(name, legacyCookiePrefix) || !strings.HasSuffix(name, legacyCookieSuffix) {
			continue
		}
		var parsed []any
		if err := json.Unmarshal([]byte(value), &parsed); err != nil {
			continue
		}
		if len(parsed) > 0 {
			if tok, ok := parsed[0].(string); ok && tok != "" {
				return tok
			}
		}
	}
	return ""
}

// Session resolves the caller's identity from the request cookies and sets
// userID and userEmail in the Gin context. Every authenticated route runs
// through here; admin routes add RequireAdmin on top.
func Session(auth *application.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractSessionToken(c.GetHeader("Cookie"))
		if token == "" {
			resp := response.Error[any](c, http.StatusUnauthorized, "not authenticated", nil)
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}
		p, err := auth.ResolveSession(c.Request.Context(), token)
		if err != nil {
			resp := response.Error[any](c, http.StatusUnauthorized, "invalid session", nil)
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}
		c.Set(CtxUserIDKey, p.UserID)
		c.Set(CtxUserEmailKey, p.Email)
		c.Next()
	}
}
