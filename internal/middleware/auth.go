package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/ghorbari/ghorbari/internal/models"
)

// PrincipalKey is the gin context key holding the authenticated principal.
const PrincipalKey = "principal"

// authTimingFloor is the minimum response time for rejected auth so timing
// cannot distinguish malformed tokens from tokens with bad signatures.
const authTimingFloor = 50 * time.Millisecond

// Claims are the JWT claims GhorBari tokens carry. Tokens are issued by the
// external identity service; this service only verifies them.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// enforceTimingFloor sleeps if needed so the response takes at least authTimingFloor.
func enforceTimingFloor(start time.Time) {
	if elapsed := time.Since(start); elapsed < authTimingFloor {
		time.Sleep(authTimingFloor - elapsed)
	}
}

// AuthMiddleware returns Gin middleware that authenticates requests via a
// Bearer JWT signed with the shared HS256 secret. On success the resolved
// principal is stored under PrincipalKey.
func AuthMiddleware(secret []byte, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if c.Writer.Status() == http.StatusUnauthorized {
				enforceTimingFloor(start)
			}
		}()

		token := ExtractBearerToken(c)
		if token == "" {
			respondError(c, http.StatusUnauthorized, "unauthorized", "missing or invalid authorization header")
			return
		}

		principal, err := VerifyToken(token, secret)
		if err != nil {
			logAuthFailure(log, c, err)
			respondError(c, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}

		c.Set(PrincipalKey, *principal)
		c.Next()
	}
}

// OptionalAuth verifies a Bearer token when the request carries one and
// stores the principal under PrincipalKey, but lets anonymous requests
// through untouched. For public routes that widen their response for
// authenticated callers. A token that is present but invalid is still a 401.
func OptionalAuth(secret []byte, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractBearerToken(c)
		if token == "" {
			c.Next()
			return
		}

		start := time.Now()

		principal, err := VerifyToken(token, secret)
		if err != nil {
			logAuthFailure(log, c, err)
			enforceTimingFloor(start)
			respondError(c, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}

		c.Set(PrincipalKey, *principal)
		c.Next()
	}
}

// VerifyToken parses and validates a JWT and returns the principal it carries.
func VerifyToken(token string, secret []byte) (*models.Principal, error) {
	principal, _, err := VerifyTokenWithExpiry(token, secret)
	return principal, err
}

// VerifyTokenWithExpiry is VerifyToken plus the token's expiry time, for
// callers that bound session lifetime to the token (the WebSocket handler).
// The expiry is zero when the token carries no exp claim.
func VerifyTokenWithExpiry(token string, secret []byte) (*models.Principal, time.Time, error) {
	var claims Claims

	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("parsing token: %w", err)
	}

	if !parsed.Valid {
		return nil, time.Time{}, fmt.Errorf("token is not valid")
	}

	if claims.Email == "" {
		return nil, time.Time{}, fmt.Errorf("token has no email claim")
	}

	role := models.Role(claims.Role)
	if role != models.RoleSeeker && role != models.RoleOwner && role != models.RoleAdmin {
		return nil, time.Time{}, fmt.Errorf("token has unknown role %q", claims.Role)
	}

	var expiry time.Time
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}

	return &models.Principal{Email: claims.Email, Name: claims.Name, Role: role}, expiry, nil
}

// GetPrincipal returns the authenticated principal from the gin context.
// It must only be called on routes behind AuthMiddleware.
func GetPrincipal(c *gin.Context) (models.Principal, bool) {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return models.Principal{}, false
	}

	p, ok := v.(models.Principal)

	return p, ok
}

// RequireRole returns middleware that rejects principals without one of the
// given roles. It runs after AuthMiddleware.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}

		for _, r := range roles {
			if p.Role == r {
				c.Next()
				return
			}
		}

		respondError(c, http.StatusForbidden, "forbidden", "insufficient role")
	}
}

// ExtractBearerToken extracts the token from the Authorization header.
func ExtractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// logAuthFailure logs a failed authentication attempt.
func logAuthFailure(log *logrus.Logger, c *gin.Context, err error) {
	log.WithFields(logrus.Fields{
		"client_ip":  c.ClientIP(),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"user_agent": c.Request.UserAgent(),
		"request_id": c.GetString("request_id"),
	}).WithError(err).Warn("authentication failed")
}
