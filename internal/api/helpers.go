package api

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ghorbari/ghorbari/internal/middleware"
	"github.com/ghorbari/ghorbari/internal/models"
	"github.com/ghorbari/ghorbari/internal/ws"
)

// principal extracts the authenticated principal set by the auth middleware,
// writing a 401 and returning false if it is missing.
func principal(c *gin.Context) (models.Principal, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return models.Principal{}, false
	}

	return p, true
}

// wsHandler upgrades the connection and registers a hub client bound to the
// authenticated user. Browsers cannot set headers on WebSocket upgrades, so
// the token may also arrive as a query parameter.
func wsHandler(appCtx context.Context, log *logrus.Logger, hub *ws.Hub, corsOrigins []string, jwtSecret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := middleware.ExtractBearerToken(c)
		if token == "" {
			token = c.Query("token")
		}

		p, expiry, err := middleware.VerifyTokenWithExpiry(token, jwtSecret)
		if err != nil {
			respondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid token")
			return
		}

		// CORS origins are reused as WebSocket origin patterns. The config
		// validator ensures these are safe host patterns (no wildcards etc.).
		conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
			OriginPatterns:       corsOrigins,
			CompressionMode:      websocket.CompressionContextTakeover,
			CompressionThreshold: 128,
		})
		if err != nil {
			log.WithError(err).Error("websocket accept failed")

			return
		}

		client := ws.NewClient(hub, conn, p.Email, expiry)
		hub.Register(client)

		// Derive a context that cancels when either the server shuts down or the request ends.
		wsCtx, wsCancel := context.WithCancel(appCtx)
		go func() {
			select {
			case <-c.Request.Context().Done():
				wsCancel()
			case <-wsCtx.Done():
			}
		}()

		go client.WritePump(wsCtx)
		client.ReadPump(wsCtx)
		wsCancel()
	}
}

func ginLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"client":   c.ClientIP(),
		}
		if rid, exists := c.Get(middleware.RequestIDKey); exists {
			fields["request_id"] = rid
		}
		if p, ok := middleware.GetPrincipal(c); ok {
			fields["user"] = p.Email
		}
		log.WithFields(fields).Info("request")
	}
}

// maxPaginationLimit caps the maximum number of items per page.
const maxPaginationLimit = 200

// maxPaginationOffset caps the maximum offset for paginated queries.
const maxPaginationOffset = 100000

func parseInt(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return fallback
	}

	if v > maxPaginationLimit {
		return maxPaginationLimit
	}

	return v
}

func parseOffset(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0
	}

	if v > maxPaginationOffset {
		return maxPaginationOffset
	}

	return v
}

// validatePathID checks that a path parameter ID is non-empty and within length limits.
func validatePathID(id string) error {
	if id == "" {
		return fmt.Errorf("id must not be empty")
	}
	if len(id) > 255 {
		return fmt.Errorf("id exceeds maximum length of 255")
	}
	return nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}

	return v
}
