package handler

import (
	"github.com/gin-gonic/gin"

	"wasteops_backend/internal/accounts/service"
	"wasteops_backend/platform/httpkit"
)

// Handler handles HTTP requests for account lookups.
type Handler struct {
	svc *service.Service
}

// New creates a new accounts handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// AvailableCollectors lists active collectors in the caller's organization.
// GET /api/v1/collectors/available
func (h *Handler) AvailableCollectors(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.AvailableCollectors(c.Request.Context(), identity.OrganizationID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
