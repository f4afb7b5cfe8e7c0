package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"groupmanager/internal/policy"
	"groupmanager/internal/service"
	"groupmanager/pkg/response"
)

const (
	// AccessTokenCookie carries the JWT for browser clients.
	AccessTokenCookie = "access_token"

	claimsKey    = "claims"
	principalKey = "principal"
)

// TokenParser verifies a raw token. service.AuthService satisfies it.
type TokenParser interface {
	ParseToken(ctx context.Context, token string) (*service.Claims, error)
}

// SetTokenCookie stores the access token as an HttpOnly cookie.
// Production (cross-origin): SameSiteNoneMode + Secure=true
// Development (same-site):   SameSiteLaxMode  + Secure=false
func SetTokenCookie(c *gin.Context, token string, ttl time.Duration, secure bool) {
	c.SetSameSite(sameSite(secure))
	c.SetCookie(AccessTokenCookie, token, int(ttl.Seconds()), "/", "", secure, true)
}

// ClearTokenCookie removes the access token cookie.
func ClearTokenCookie(c *gin.Context, secure bool) {
	c.SetSameSite(sameSite(secure))
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", secure, true)
}

func sameSite(secure bool) http.SameSite {
	if secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// TokenFromRequest reads the token from the cookie first, then from the
// Authorization header. ok is false when neither carries one.
func TokenFromRequest(c *gin.Context) (token string, ok bool) {
	if v, err := c.Cookie(AccessTokenCookie); err == nil && v != "" {
		return v, true
	}
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// RequireAuth validates the token and stores the claims and the resolved
// principal on the context. Role checks happen in the services.
func RequireAuth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := TokenFromRequest(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("Token de acesso não informado."))
			return
		}

		claims, err := parser.ParseToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(service.MsgInvalidToken))
			return
		}

		c.Set(claimsKey, claims)
		c.Set(principalKey, claims.Principal())
		c.Next()
	}
}

// PrincipalFrom returns the principal stored by RequireAuth.
func PrincipalFrom(c *gin.Context) (policy.Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return policy.Principal{}, false
	}
	p, ok := v.(policy.Principal)
	return p, ok
}

// ClaimsFrom returns the token claims stored by RequireAuth.
func ClaimsFrom(c *gin.Context) (*service.Claims, bool) {
	v, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*service.Claims)
	return claims, ok
}
