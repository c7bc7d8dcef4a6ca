package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/ghorbari/ghorbari/internal/dbpool"
	"github.com/ghorbari/ghorbari/internal/middleware"
	"github.com/ghorbari/ghorbari/internal/models"
	"github.com/ghorbari/ghorbari/internal/ws"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log          *logrus.Logger
	Pool         *dbpool.Pool
	Hub          *ws.Hub
	Properties   PropertyService
	Applications ApplicationService
	Audit        AuditService
	JWTSecret    []byte
	CORSOrigins  []string
	Version      string
}

// Router-level limits.
const (
	maxBodySize = 1 << 20 // 1 MB; listings carry image URLs, not images
	rateLimit   = 100     // requests per second per IP
	rateBurst   = 200     // token bucket burst size
)

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(maxBodySize))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.NewRateLimiter(ctx, rateLimit, rateBurst).Handler())
	r.Use(middleware.PrometheusMiddleware())

	// Metrics endpoint (unauthenticated, like health).
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	health := NewHealthHandler(deps.Pool, deps.Hub, log, deps.Version)
	properties := NewPropertyHandler(deps.Properties, log)
	applications := NewApplicationHandler(deps.Applications, log)
	audit := NewAuditHandler(deps.Audit, log)

	// Health, readiness, and listing browsing are unauthenticated. Listing
	// browsing still accepts a token so owners and admins can filter beyond
	// active listings.
	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)
	api.GET("/properties", middleware.OptionalAuth(deps.JWTSecret, log), properties.List)
	api.GET("/properties/:id", properties.Get)

	// Everything else requires a valid token.
	auth := api.Group("")
	auth.Use(middleware.AuthMiddleware(deps.JWTSecret, log))

	// Property lifecycle.
	auth.POST("/properties", properties.Create)
	auth.PATCH("/properties/:id", properties.Update)
	auth.PATCH("/properties/:id/visibility", properties.SetHidden)
	auth.DELETE("/properties/:id", properties.Remove)
	auth.POST("/properties/:id/reopen", properties.Reopen)
	auth.PATCH("/properties/:id/moderation",
		middleware.RequireRole(models.RoleAdmin), properties.Moderate)

	// Applications and negotiation.
	auth.POST("/applications", applications.Create)
	auth.GET("/applications", applications.List)
	auth.GET("/applications/:id", applications.Get)
	auth.PATCH("/applications/:id", applications.OwnerAction)
	auth.POST("/applications/:id/withdraw", applications.Withdraw)
	auth.POST("/applications/:id/revise", applications.Revise)
	auth.POST("/applications/:id/accept-counter", applications.AcceptCounter)
	auth.GET("/properties/:id/applications", applications.ListForProperty)
	auth.PATCH("/properties/:id/deal", applications.UpdateDealStatus)

	// Audit (admin only).
	auth.GET("/audit", middleware.RequireRole(models.RoleAdmin), audit.Query)
	auth.DELETE("/audit", middleware.RequireRole(models.RoleAdmin), audit.Purge)

	// WebSocket endpoint authenticates inside the handler so browsers can
	// pass the token as a query parameter.
	api.GET("/ws", wsHandler(ctx, log, deps.Hub, deps.CORSOrigins, deps.JWTSecret))
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(ctx, r, deps)
	registerRoutes(ctx, r.Group("/api/v1"), deps)

	return r
}
