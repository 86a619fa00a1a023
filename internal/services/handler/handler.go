package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wasteops_backend/internal/services/service"
	"wasteops_backend/internal/services/transport"
	"wasteops_backend/platform/httpkit"
	"wasteops_backend/platform/validator"
)

// Handler handles HTTP requests for the service lifecycle.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid service ID"
)

// New creates a new services handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Create registers a new service request.
// POST /api/v1/services
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Create(c.Request.Context(), identity, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// List retrieves services visible to the caller, optionally filtered.
// GET /api/v1/services
func (h *Handler) List(c *gin.Context) {
	var req transport.ListServicesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.ListMine(c.Request.Context(), identity, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListPending retrieves pending services awaiting approval.
// GET /api/v1/services/pending
func (h *Handler) ListPending(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.ListPending(c.Request.Context(), identity)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListToday retrieves approved services scheduled for today.
// GET /api/v1/services/today
func (h *Handler) ListToday(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.ListToday(c.Request.Context(), identity)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetByID retrieves a single service.
// GET /api/v1/services/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, identity, ok := h.idAndIdentity(c)
	if !ok {
		return
	}

	result, err := h.svc.GetByID(c.Request.Context(), identity, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Approve moves a pending service to approved.
// POST /api/v1/services/:id/approve
func (h *Handler) Approve(c *gin.Context) {
	id, identity, ok := h.idAndIdentity(c)
	if !ok {
		return
	}

	result, err := h.svc.Approve(c.Request.Context(), identity, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Reject cancels a pending service.
// POST /api/v1/services/:id/reject
func (h *Handler) Reject(c *gin.Context) {
	id, identity, ok := h.idAndIdentity(c)
	if !ok {
		return
	}

	result, err := h.svc.Reject(c.Request.Context(), identity, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// AssignCollector assigns a collector and moves the service to in progress.
// POST /api/v1/services/:id/assign
func (h *Handler) AssignCollector(c *gin.Context) {
	id, identity, ok := h.idAndIdentity(c)
	if !ok {
		return
	}

	var req transport.AssignCollectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.AssignCollector(c.Request.Context(), identity, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Complete moves an in-progress service to completed.
// POST /api/v1/services/:id/complete
func (h *Handler) Complete(c *gin.Context) {
	id, identity, ok := h.idAndIdentity(c)
	if !ok {
		return
	}

	result, err := h.svc.Complete(c.Request.Context(), identity, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// LogCompletion records a completion log against a service.
// POST /api/v1/services/:id/logs
func (h *Handler) LogCompletion(c *gin.Context) {
	id, identity, ok := h.idAndIdentity(c)
	if !ok {
		return
	}

	var req transport.LogCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.LogCompletion(c.Request.Context(), identity, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// ListLogs retrieves completion logs for a service.
// GET /api/v1/services/:id/logs
func (h *Handler) ListLogs(c *gin.Context) {
	id, identity, ok := h.idAndIdentity(c)
	if !ok {
		return
	}

	result, err := h.svc.ListLogs(c.Request.Context(), identity, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListMyLogs retrieves the calling collector's completion logs.
// GET /api/v1/services/logs/mine
func (h *Handler) ListMyLogs(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.ListMyLogs(c.Request.Context(), identity)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) idAndIdentity(c *gin.Context) (uuid.UUID, httpkit.Identity, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.UUID{}, nil, false
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return uuid.UUID{}, nil, false
	}
	return id, identity, true
}
