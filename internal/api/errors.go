package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ghorbari/ghorbari/internal/httputil"
	"github.com/ghorbari/ghorbari/internal/metrics"
	"github.com/ghorbari/ghorbari/internal/models"
	"github.com/ghorbari/ghorbari/internal/negotiation"
)

// Error code constants for standardized API responses.
const (
	ErrCodeInvalidRequest  = "invalid_request"
	ErrCodeNotFound        = "not_found"
	ErrCodeConflict        = "conflict"
	ErrCodeForbidden       = "forbidden"
	ErrCodeInternalError   = "internal_error"
	ErrCodeUnauthorized    = "unauthorized"
	ErrCodeRateLimited     = "rate_limited"
	ErrCodeValidationError = "validation_error"
)

// respondError writes a standardized JSON error response, pulling the request
// ID from the Gin context (set by the request ID middleware).
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}

// respondServiceError maps service and engine errors onto HTTP statuses.
// Negotiation guard failures are conflicts except unauthorized, which means
// the caller is the wrong party, not the wrong state.
func respondServiceError(c *gin.Context, log *logrus.Logger, err error) {
	switch {
	case errors.Is(err, models.ErrPropertyNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "property not found")
	case errors.Is(err, models.ErrApplicationNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "application not found")
	case errors.Is(err, models.ErrNoActiveDeal):
		respondError(c, http.StatusConflict, ErrCodeConflict, "property has no active deal")
	case errors.Is(err, models.ErrForbidden):
		respondError(c, http.StatusForbidden, ErrCodeForbidden, "not allowed to act on this resource")
	case errors.Is(err, models.ErrDuplicateKey):
		respondError(c, http.StatusConflict, ErrCodeConflict, "resource with this id already exists")
	case errors.Is(err, models.ErrInvalidModeration):
		respondError(c, http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		respondNegotiationError(c, log, err)
	}
}

func respondNegotiationError(c *gin.Context, log *logrus.Logger, err error) {
	switch negotiation.KindOf(err) {
	case negotiation.KindUnauthorized:
		respondError(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case negotiation.KindInvalidTransition, negotiation.KindTerminalState,
		negotiation.KindAlreadyInDeal, negotiation.KindNotInDeal,
		negotiation.KindGuardViolation:
		respondError(c, http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		log.WithError(err).Error("internal error")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}
