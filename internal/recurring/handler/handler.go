package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wasteops_backend/internal/recurring/repository"
	"wasteops_backend/internal/recurring/service"
	"wasteops_backend/internal/recurring/transport"
	"wasteops_backend/platform/config"
	"wasteops_backend/platform/httpkit"
	"wasteops_backend/platform/validator"
)

// Handler handles HTTP requests for recurring schedules.
type Handler struct {
	svc *service.Service
	cfg config.GenerationConfig
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid recurring service ID"
)

// New creates a new recurring schedules handler.
func New(svc *service.Service, cfg config.GenerationConfig, val *validator.Validator) *Handler {
	return &Handler{svc: svc, cfg: cfg, val: val}
}

// Create registers a new recurring schedule.
// POST /api/v1/recurring-services
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateRecurringRequest
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

// List retrieves the organization's recurring schedules. An optional
// status query narrows the result to one schedule state.
// GET /api/v1/recurring-services
func (h *Handler) List(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.List(c.Request.Context(), identity, c.Query("status"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetByID retrieves a single recurring schedule.
// GET /api/v1/recurring-services/:id
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

// Pause suspends an active schedule.
// POST /api/v1/recurring-services/:id/pause
func (h *Handler) Pause(c *gin.Context) {
	h.statusChange(c, h.svc.Pause)
}

// Resume reactivates a paused schedule.
// POST /api/v1/recurring-services/:id/resume
func (h *Handler) Resume(c *gin.Context) {
	h.statusChange(c, h.svc.Resume)
}

// Cancel stops a schedule.
// POST /api/v1/recurring-services/:id/cancel
func (h *Handler) Cancel(c *gin.Context) {
	h.statusChange(c, h.svc.Cancel)
}

// Reactivate brings a cancelled schedule back to active.
// POST /api/v1/recurring-services/:id/reactivate
func (h *Handler) Reactivate(c *gin.Context) {
	h.statusChange(c, h.svc.Reactivate)
}

// Generate runs one generation step for a schedule on demand.
// POST /api/v1/recurring-services/:id/generate
func (h *Handler) Generate(c *gin.Context) {
	id, identity, ok := h.idAndIdentity(c)
	if !ok {
		return
	}

	result, err := h.svc.Generate(c.Request.Context(), identity, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GenerateDue sweeps all due schedules, mirroring the scheduled job.
// POST /api/v1/recurring-services/generate-due
func (h *Handler) GenerateDue(c *gin.Context) {
	var req transport.GenerateDueRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	asOf := time.Now()
	if req.AsOf != "" {
		parsed, err := time.Parse(transport.DateLayout, req.AsOf)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "asOf must use the "+transport.DateLayout+" format", nil)
			return
		}
		asOf = parsed
	}

	daysAhead := h.cfg.GetGenerationDaysAhead()
	if req.DaysAhead != nil {
		if *req.DaysAhead < 0 {
			httpkit.Error(c, http.StatusBadRequest, "daysAhead cannot be negative", nil)
			return
		}
		daysAhead = *req.DaysAhead
	}

	result, err := h.svc.GenerateDue(c.Request.Context(), asOf, daysAhead, req.DryRun)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

type statusChangeFn func(ctx context.Context, identity httpkit.Identity, id uuid.UUID) (repository.RecurringService, error)

func (h *Handler) statusChange(c *gin.Context, op statusChangeFn) {
	id, identity, ok := h.idAndIdentity(c)
	if !ok {
		return
	}

	result, err := op(c.Request.Context(), identity, id)
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
