package inapp

import (
	"context"

	"wasteops_backend/platform/apperr"
	"wasteops_backend/platform/logger"

	"github.com/google/uuid"
)

// Notification types emitted by the operations modules.
const (
	TypeServiceCreated     = "service_created"
	TypeServiceApproved    = "service_approved"
	TypeServiceRejected    = "service_rejected"
	TypeServiceAssigned    = "service_assigned"
	TypeServiceCompleted   = "service_completed"
	TypeRecurringGenerated = "recurring_generated"
	TypeRecurringPaused    = "recurring_paused"
	TypeRecurringCancelled = "recurring_cancelled"
)

// Store is the persistence surface the service needs.
type Store interface {
	Create(ctx context.Context, p CreateParams) (Notification, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Notification, int, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) (Notification, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error)
}

type Service struct {
	store Store
	log   *logger.Logger
}

func NewService(store Store, log *logger.Logger) *Service {
	return &Service{store: store, log: log}
}

type SendParams struct {
	OrgID              uuid.UUID
	UserID             uuid.UUID
	Type               string
	Title              string
	Message            string
	ServiceID          *uuid.UUID
	RecurringServiceID *uuid.UUID
}

// Send persists the notification. Delivery is best effort: a missing
// recipient is silently dropped so the triggering operation never fails.
func (s *Service) Send(ctx context.Context, p SendParams) error {
	if s == nil || s.store == nil {
		return apperr.Internal("in-app notification service not configured")
	}
	if p.UserID == uuid.Nil {
		if s.log != nil {
			s.log.Warn("dropping notification without recipient", "type", p.Type)
		}
		return nil
	}

	_, err := s.store.Create(ctx, CreateParams{
		OrganizationID:     p.OrgID,
		UserID:             p.UserID,
		Type:               p.Type,
		Title:              p.Title,
		Message:            p.Message,
		ServiceID:          p.ServiceID,
		RecurringServiceID: p.RecurringServiceID,
	})
	if err != nil {
		if s.log != nil {
			s.log.Error("failed to persist in-app notification", "error", err, "userId", p.UserID)
		}
		return err
	}

	return nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	offset := (page - 1) * pageSize
	return s.store.List(ctx, userID, pageSize, offset)
}

func (s *Service) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.store.CountUnread(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) (Notification, error) {
	return s.store.MarkRead(ctx, userID, id)
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.store.MarkAllRead(ctx, userID)
}
