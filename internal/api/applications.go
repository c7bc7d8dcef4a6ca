package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ghorbari/ghorbari/internal/models"
)

// ApplicationHandler serves negotiation endpoints.
type ApplicationHandler struct {
	svc ApplicationService
	log *logrus.Logger
}

// NewApplicationHandler creates an ApplicationHandler.
func NewApplicationHandler(svc ApplicationService, log *logrus.Logger) *ApplicationHandler {
	return &ApplicationHandler{svc: svc, log: log}
}

// Create handles POST /api/v1/applications.
func (h *ApplicationHandler) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req models.CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	app, err := h.svc.CreateApplication(c.Request.Context(), p, req)
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	h.log.WithFields(logrus.Fields{"action": "application.create", "application_id": app.ID, "property_id": app.PropertyID, "seeker": p.Email}).Info("audit")

	c.JSON(http.StatusCreated, app)
}

// applicationResponse decorates a single application with the seeker's last
// self-submitted price. After an owner counter, proposed_price holds the
// counter, so the revise form defaults to last_seeker_price instead.
type applicationResponse struct {
	*models.Application
	LastSeekerPrice *float64 `json:"last_seeker_price,omitempty"`
}

func newApplicationResponse(app *models.Application) applicationResponse {
	resp := applicationResponse{Application: app}
	if entry, ok := app.PriceHistory.LatestBy(models.PartySeeker); ok {
		resp.LastSeekerPrice = &entry.Price
	}

	return resp
}

// Get handles GET /api/v1/applications/:id.
func (h *ApplicationHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	p, ok := principal(c)
	if !ok {
		return
	}

	app, err := h.svc.GetApplication(c.Request.Context(), p, id)
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	c.JSON(http.StatusOK, newApplicationResponse(app))
}

// ListForProperty handles GET /api/v1/properties/:id/applications.
func (h *ApplicationHandler) ListForProperty(c *gin.Context) {
	propertyID := c.Param("id")
	if err := validatePathID(propertyID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	p, ok := principal(c)
	if !ok {
		return
	}

	apps, err := h.svc.ListForProperty(c.Request.Context(), p, propertyID)
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"applications": apps})
}

// List handles GET /api/v1/applications. ?role=received returns applications
// against the caller's listings; the default is the caller's own submissions.
func (h *ApplicationHandler) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var (
		apps []models.Application
		err  error
	)

	if c.Query("role") == "received" {
		apps, err = h.svc.ListReceived(c.Request.Context(), p)
	} else {
		apps, err = h.svc.ListSubmitted(c.Request.Context(), p)
	}

	if err != nil {
		h.log.WithError(err).Error("listing applications")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, gin.H{"applications": apps})
}

// OwnerAction handles PATCH /api/v1/applications/:id: the owner accepts,
// rejects, or counters an offer.
func (h *ApplicationHandler) OwnerAction(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	p, ok := principal(c)
	if !ok {
		return
	}

	var req models.OwnerActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	app, err := h.svc.OwnerAction(c.Request.Context(), p, id, req)
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	h.log.WithFields(logrus.Fields{"action": "application.owner_action", "application_id": id, "status": req.Status, "actor": p.Email}).Info("audit")

	c.JSON(http.StatusOK, app)
}

// Withdraw handles POST /api/v1/applications/:id/withdraw.
func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	p, ok := principal(c)
	if !ok {
		return
	}

	app, err := h.svc.Withdraw(c.Request.Context(), p, id)
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	c.JSON(http.StatusOK, app)
}

// Revise handles POST /api/v1/applications/:id/revise.
func (h *ApplicationHandler) Revise(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	p, ok := principal(c)
	if !ok {
		return
	}

	var req models.ReviseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	app, err := h.svc.Revise(c.Request.Context(), p, id, req)
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	c.JSON(http.StatusOK, app)
}

// AcceptCounter handles POST /api/v1/applications/:id/accept-counter.
func (h *ApplicationHandler) AcceptCounter(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	p, ok := principal(c)
	if !ok {
		return
	}

	app, err := h.svc.AcceptCounter(c.Request.Context(), p, id)
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	c.JSON(http.StatusOK, app)
}

// UpdateDealStatus handles PATCH /api/v1/properties/:id/deal: completes or
// cancels the deal on whichever application the property is committed to.
func (h *ApplicationHandler) UpdateDealStatus(c *gin.Context) {
	propertyID := c.Param("id")
	if err := validatePathID(propertyID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	p, ok := principal(c)
	if !ok {
		return
	}

	var req models.DealStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	app, err := h.svc.UpdateDealStatus(c.Request.Context(), p, propertyID, req)
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	h.log.WithFields(logrus.Fields{"action": "deal.update", "property_id": propertyID, "deal_status": req.DealStatus, "actor": p.Email}).Info("audit")

	c.JSON(http.StatusOK, app)
}
