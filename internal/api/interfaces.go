package api

import "github.com/ghorbari/ghorbari/internal/domain"

// Handler dependencies are the canonical service interfaces from the domain
// package; handlers never reach past the service layer.
type (
	PropertyService    = domain.PropertyService
	ApplicationService = domain.ApplicationService
	AuditService       = domain.AuditService
)
