package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ghorbari/ghorbari/internal/middleware"
	"github.com/ghorbari/ghorbari/internal/models"
)

// PropertyHandler serves property listing endpoints.
type PropertyHandler struct {
	svc PropertyService
	log *logrus.Logger
}

// NewPropertyHandler creates a PropertyHandler.
func NewPropertyHandler(svc PropertyService, log *logrus.Logger) *PropertyHandler {
	return &PropertyHandler{svc: svc, log: log}
}

// List handles GET /api/v1/properties.
func (h *PropertyHandler) List(c *gin.Context) {
	filter := models.PropertyFilter{
		Status:      models.PropertyStatus(c.Query("status")),
		ListingType: models.ListingType(c.Query("listing_type")),
		OwnerEmail:  c.Query("owner"),
		MinPrice:    parseFloat(c.Query("min_price")),
		MaxPrice:    parseFloat(c.Query("max_price")),
		Limit:       parseInt(c.DefaultQuery("limit", "50"), 50),
		Offset:      parseOffset(c.DefaultQuery("offset", "0")),
	}

	if filter.Status == "" {
		filter.Status = models.PropertyActive
	}

	if !models.ValidPropertyStatus(filter.Status) {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "unknown status filter")

		return
	}

	// Only active listings are public. Any other status is dashboard data:
	// admins see everything, owners see their own listings, and nobody else
	// (anonymous callers included) gets past the filter.
	if filter.Status != models.PropertyActive {
		p, authed := middleware.GetPrincipal(c)
		ownSlice := authed && filter.OwnerEmail == p.Email && p.Email != ""

		if !authed || (p.Role != models.RoleAdmin && !ownSlice) {
			respondError(c, http.StatusForbidden, ErrCodeForbidden, "status filter limited to your own listings")

			return
		}
	}

	properties, hasMore, err := h.svc.ListProperties(c.Request.Context(), filter)
	if err != nil {
		h.log.WithError(err).Error("listing properties")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, gin.H{"properties": properties, "has_more": hasMore})
}

// Get handles GET /api/v1/properties/:id.
func (h *PropertyHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	property, err := h.svc.GetProperty(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	c.JSON(http.StatusOK, property)
}

// Create handles POST /api/v1/properties.
func (h *PropertyHandler) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req models.CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	property, err := h.svc.CreateProperty(c.Request.Context(), p, req)
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	h.log.WithFields(logrus.Fields{"action": "property.create", "property_id": property.ID, "owner": p.Email}).Info("audit")

	c.JSON(http.StatusCreated, property)
}

// Update handles PATCH /api/v1/properties/:id.
func (h *PropertyHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	p, ok := principal(c)
	if !ok {
		return
	}

	var req models.UpdatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	property, err := h.svc.UpdateProperty(c.Request.Context(), p, id, req)
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	c.JSON(http.StatusOK, property)
}

// Moderate handles PATCH /api/v1/properties/:id/moderation (admin only).
func (h *PropertyHandler) Moderate(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	p, ok := principal(c)
	if !ok {
		return
	}

	var req models.ModeratePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	property, err := h.svc.ModerateProperty(c.Request.Context(), p, id, req)
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	h.log.WithFields(logrus.Fields{"action": "property.moderate", "property_id": id, "decision": req.Decision, "admin": p.Email}).Info("audit")

	c.JSON(http.StatusOK, property)
}

// hideRequest is the payload toggling listing visibility.
type hideRequest struct {
	Hidden bool `json:"hidden"`
}

// SetHidden handles PATCH /api/v1/properties/:id/visibility.
func (h *PropertyHandler) SetHidden(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	p, ok := principal(c)
	if !ok {
		return
	}

	var req hideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	property, err := h.svc.SetHidden(c.Request.Context(), p, id, req.Hidden)
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	c.JSON(http.StatusOK, property)
}

// Remove handles DELETE /api/v1/properties/:id. The listing is marked
// removed, not deleted; applications keep their history.
func (h *PropertyHandler) Remove(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	p, ok := principal(c)
	if !ok {
		return
	}

	property, err := h.svc.RemoveProperty(c.Request.Context(), p, id)
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	h.log.WithFields(logrus.Fields{"action": "property.remove", "property_id": id, "actor": p.Email}).Info("audit")

	c.JSON(http.StatusOK, property)
}

// Reopen handles POST /api/v1/properties/:id/reopen.
func (h *PropertyHandler) Reopen(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	p, ok := principal(c)
	if !ok {
		return
	}

	property, err := h.svc.ReopenProperty(c.Request.Context(), p, id)
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	c.JSON(http.StatusOK, property)
}
