// Package notification provides the in-app notification bounded context.
// It subscribes to lifecycle and recurrence events and persists
// notifications for the affected users. Delivery is best effort: a failed
// notification is logged and never fails the operation that triggered it.
package notification

import (
	"context"
	"fmt"

	apphttp "wasteops_backend/internal/http"

	accountsservice "wasteops_backend/internal/accounts/service"
	"wasteops_backend/internal/events"
	"wasteops_backend/internal/notification/handler"
	"wasteops_backend/internal/notification/inapp"
	"wasteops_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the notification bounded context module implementing http.Module.
type Module struct {
	handler  *handler.Handler
	inapp    *inapp.Service
	accounts *accountsservice.Service
	log      *logger.Logger
}

// NewModule creates and initializes the notification module.
func NewModule(pool *pgxpool.Pool, accounts *accountsservice.Service, log *logger.Logger) *Module {
	repo := inapp.NewRepository(pool)
	svc := inapp.NewService(repo, log)
	h := handler.New(svc)

	return &Module{
		handler:  h,
		inapp:    svc,
		accounts: accounts,
		log:      log,
	}
}

// NewModuleWithStore wires the module against an explicit store, used by tests.
func NewModuleWithStore(store inapp.Store, accounts *accountsservice.Service, log *logger.Logger) *Module {
	svc := inapp.NewService(store, log)
	h := handler.New(svc)

	return &Module{
		handler:  h,
		inapp:    svc,
		accounts: accounts,
		log:      log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notification"
}

// InApp returns the in-app notification service.
func (m *Module) InApp() *inapp.Service {
	return m.inapp
}

// RegisterRoutes mounts notification routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/notifications")
	group.GET("", m.handler.List)
	group.GET("/unread-count", m.handler.CountUnread)
	group.POST("/:id/read", m.handler.MarkRead)
	group.POST("/read-all", m.handler.MarkAllRead)
}

// RegisterHandlers subscribes to the domain events that produce notifications.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	for _, name := range []string{
		events.ServiceCreated{}.EventName(),
		events.ServiceApproved{}.EventName(),
		events.ServiceRejected{}.EventName(),
		events.CollectorAssigned{}.EventName(),
		events.ServiceCompleted{}.EventName(),
		events.RecurringServiceGenerated{}.EventName(),
		events.RecurringServicePaused{}.EventName(),
		events.RecurringServiceCancelled{}.EventName(),
	} {
		bus.Subscribe(name, m)
	}
}

// Handle routes events to the appropriate notification. Errors bubble to the
// bus where they are logged; publishers never see them.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.ServiceCreated:
		return m.inapp.Send(ctx, inapp.SendParams{
			OrgID:     e.OrganizationID,
			UserID:    m.primaryContact(ctx, e.OrganizationID),
			Type:      inapp.TypeServiceCreated,
			Title:     "New service request",
			Message:   fmt.Sprintf("Service %s was requested for %s and awaits approval.", e.ServiceNumber, e.ScheduledDate.Format("2006-01-02")),
			ServiceID: &e.ServiceID,
		})
	case events.ServiceApproved:
		return m.inapp.Send(ctx, inapp.SendParams{
			OrgID:     e.OrganizationID,
			UserID:    e.ClientID,
			Type:      inapp.TypeServiceApproved,
			Title:     "Service approved",
			Message:   fmt.Sprintf("Your service %s has been approved.", e.ServiceNumber),
			ServiceID: &e.ServiceID,
		})
	case events.ServiceRejected:
		return m.inapp.Send(ctx, inapp.SendParams{
			OrgID:     e.OrganizationID,
			UserID:    e.ClientID,
			Type:      inapp.TypeServiceRejected,
			Title:     "Service cancelled",
			Message:   fmt.Sprintf("Your service %s has been cancelled.", e.ServiceNumber),
			ServiceID: &e.ServiceID,
		})
	case events.CollectorAssigned:
		return m.inapp.Send(ctx, inapp.SendParams{
			OrgID:     e.OrganizationID,
			UserID:    e.CollectorID,
			Type:      inapp.TypeServiceAssigned,
			Title:     "Service assigned to you",
			Message:   fmt.Sprintf("Service %s has been assigned to you and is now in progress.", e.ServiceNumber),
			ServiceID: &e.ServiceID,
		})
	case events.ServiceCompleted:
		return m.inapp.Send(ctx, inapp.SendParams{
			OrgID:     e.OrganizationID,
			UserID:    e.ClientID,
			Type:      inapp.TypeServiceCompleted,
			Title:     "Service completed",
			Message:   fmt.Sprintf("Your service %s has been completed.", e.ServiceNumber),
			ServiceID: &e.ServiceID,
		})
	case events.RecurringServiceGenerated:
		return m.inapp.Send(ctx, inapp.SendParams{
			OrgID:              e.OrganizationID,
			UserID:             e.RecipientID,
			Type:               inapp.TypeRecurringGenerated,
			Title:              "Recurring service generated",
			Message:            fmt.Sprintf("Service %s was generated for %s.", e.ServiceNumber, e.ScheduledDate.Format("2006-01-02")),
			ServiceID:          &e.ServiceID,
			RecurringServiceID: &e.RecurringServiceID,
		})
	case events.RecurringServicePaused:
		return m.inapp.Send(ctx, inapp.SendParams{
			OrgID:              e.OrganizationID,
			UserID:             e.RecipientID,
			Type:               inapp.TypeRecurringPaused,
			Title:              "Recurring service paused",
			Message:            "A recurring service schedule has been paused. No services will be generated until it is resumed.",
			RecurringServiceID: &e.RecurringServiceID,
		})
	case events.RecurringServiceCancelled:
		return m.inapp.Send(ctx, inapp.SendParams{
			OrgID:              e.OrganizationID,
			UserID:             e.RecipientID,
			Type:               inapp.TypeRecurringCancelled,
			Title:              "Recurring service cancelled",
			Message:            "A recurring service schedule has been cancelled.",
			RecurringServiceID: &e.RecurringServiceID,
		})
	default:
		return nil
	}
}

// primaryContact resolves the management recipient for organization events.
// Failures degrade to an empty recipient, which Send drops.
func (m *Module) primaryContact(ctx context.Context, organizationID uuid.UUID) uuid.UUID {
	if m.accounts == nil {
		return uuid.Nil
	}
	contactID, err := m.accounts.PrimaryContact(ctx, organizationID)
	if err != nil {
		m.log.DatabaseError("resolve primary contact", err)
		return uuid.Nil
	}
	return contactID
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
