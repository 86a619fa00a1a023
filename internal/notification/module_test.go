package notification

import (
	"context"
	"testing"
	"time"

	accountsrepo "wasteops_backend/internal/accounts/repository"
	accountsservice "wasteops_backend/internal/accounts/service"
	"wasteops_backend/internal/events"
	"wasteops_backend/internal/notification/inapp"
	"wasteops_backend/platform/apperr"
	"wasteops_backend/platform/logger"

	"github.com/google/uuid"
)

// fakeStore implements inapp.Store in memory with the same idempotent
// mark-read semantics as the SQL implementation.
type fakeStore struct {
	items map[uuid.UUID]inapp.Notification
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: make(map[uuid.UUID]inapp.Notification)}
}

func (s *fakeStore) Create(_ context.Context, p inapp.CreateParams) (inapp.Notification, error) {
	n := inapp.Notification{
		ID:                 uuid.New(),
		UserID:             p.UserID,
		Type:               p.Type,
		Title:              p.Title,
		Message:            p.Message,
		ServiceID:          p.ServiceID,
		RecurringServiceID: p.RecurringServiceID,
		CreatedAt:          time.Now(),
	}
	s.items[n.ID] = n
	return n, nil
}

func (s *fakeStore) List(_ context.Context, userID uuid.UUID, limit, offset int) ([]inapp.Notification, int, error) {
	var out []inapp.Notification
	for _, n := range s.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, len(out), nil
}

func (s *fakeStore) CountUnread(_ context.Context, userID uuid.UUID) (int, error) {
	count := 0
	for _, n := range s.items {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *fakeStore) MarkRead(_ context.Context, userID, id uuid.UUID) (inapp.Notification, error) {
	n, ok := s.items[id]
	if !ok || n.UserID != userID {
		return inapp.Notification{}, apperr.NotFound("notification not found")
	}
	if !n.IsRead {
		now := time.Now()
		n.IsRead = true
		n.ReadAt = &now
		s.items[id] = n
	}
	return n, nil
}

func (s *fakeStore) MarkAllRead(_ context.Context, userID uuid.UUID) (int, error) {
	count := 0
	now := time.Now()
	for id, n := range s.items {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &now
			s.items[id] = n
			count++
		}
	}
	return count, nil
}

// fakeAccounts provides a deterministic primary contact.
type fakeAccounts struct {
	contactID uuid.UUID
}

func (a fakeAccounts) GetUser(context.Context, uuid.UUID) (accountsrepo.User, error) {
	return accountsrepo.User{}, apperr.NotFound("user not found")
}

func (a fakeAccounts) ListActiveCollectors(context.Context, uuid.UUID) ([]accountsrepo.User, error) {
	return nil, nil
}

func (a fakeAccounts) PrimaryContact(context.Context, uuid.UUID) (uuid.UUID, error) {
	return a.contactID, nil
}

func newTestModule(store inapp.Store, contactID uuid.UUID) *Module {
	log := logger.New("development")
	accounts := accountsservice.New(fakeAccounts{contactID: contactID}, log)
	return NewModuleWithStore(store, accounts, log)
}

func TestHandleServiceCreatedNotifiesPrimaryContact(t *testing.T) {
	store := newFakeStore()
	contactID := uuid.New()
	m := newTestModule(store, contactID)

	err := m.Handle(context.Background(), events.ServiceCreated{
		BaseEvent:      events.NewBaseEvent(),
		ServiceID:      uuid.New(),
		ServiceNumber:  "SRV-deadbeef-000001",
		OrganizationID: uuid.New(),
		ClientID:       uuid.New(),
		ScheduledDate:  time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		CreatedBy:      uuid.New(),
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	count, err := m.InApp().CountUnread(context.Background(), contactID)
	if err != nil {
		t.Fatalf("CountUnread: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one unread notification for the primary contact, got %d", count)
	}
}

func TestHandleApprovalEventsNotifyClient(t *testing.T) {
	store := newFakeStore()
	m := newTestModule(store, uuid.New())
	clientID := uuid.New()

	for _, event := range []events.Event{
		events.ServiceApproved{BaseEvent: events.NewBaseEvent(), ServiceID: uuid.New(), ServiceNumber: "SRV-deadbeef-000002", OrganizationID: uuid.New(), ClientID: clientID},
		events.ServiceRejected{BaseEvent: events.NewBaseEvent(), ServiceID: uuid.New(), ServiceNumber: "SRV-deadbeef-000003", OrganizationID: uuid.New(), ClientID: clientID},
		events.ServiceCompleted{BaseEvent: events.NewBaseEvent(), ServiceID: uuid.New(), ServiceNumber: "SRV-deadbeef-000004", OrganizationID: uuid.New(), ClientID: clientID},
	} {
		if err := m.Handle(context.Background(), event); err != nil {
			t.Fatalf("Handle %s: %v", event.EventName(), err)
		}
	}

	count, err := m.InApp().CountUnread(context.Background(), clientID)
	if err != nil {
		t.Fatalf("CountUnread: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected three client notifications, got %d", count)
	}
}

func TestMarkReadIsIdempotent(t *testing.T) {
	store := newFakeStore()
	m := newTestModule(store, uuid.New())
	userID := uuid.New()

	created, err := store.Create(context.Background(), inapp.CreateParams{
		OrganizationID: uuid.New(),
		UserID:         userID,
		Type:           inapp.TypeServiceApproved,
		Title:          "Service approved",
		Message:        "Your service has been approved.",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	first, err := m.InApp().MarkRead(context.Background(), userID, created.ID)
	if err != nil {
		t.Fatalf("first MarkRead: %v", err)
	}
	if !first.IsRead || first.ReadAt == nil {
		t.Fatal("expected notification to be read with a read timestamp")
	}

	second, err := m.InApp().MarkRead(context.Background(), userID, created.ID)
	if err != nil {
		t.Fatalf("repeated MarkRead must succeed: %v", err)
	}
	if second.ReadAt == nil || !second.ReadAt.Equal(*first.ReadAt) {
		t.Fatal("repeated MarkRead must not move the read timestamp")
	}

	// Another user's notification stays hidden.
	if _, err := m.InApp().MarkRead(context.Background(), uuid.New(), created.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for another user's notification, got %v", err)
	}
}

func TestMarkAllReadReturnsCount(t *testing.T) {
	store := newFakeStore()
	m := newTestModule(store, uuid.New())
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		if _, err := store.Create(context.Background(), inapp.CreateParams{
			OrganizationID: uuid.New(),
			UserID:         userID,
			Type:           inapp.TypeRecurringGenerated,
			Title:          "Recurring service generated",
			Message:        "A service was generated.",
		}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	marked, err := m.InApp().MarkAllRead(context.Background(), userID)
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if marked != 3 {
		t.Fatalf("expected 3 marked, got %d", marked)
	}

	again, err := m.InApp().MarkAllRead(context.Background(), userID)
	if err != nil {
		t.Fatalf("second MarkAllRead: %v", err)
	}
	if again != 0 {
		t.Fatalf("expected 0 marked on repeat, got %d", again)
	}
}

func TestSendWithoutRecipientIsDropped(t *testing.T) {
	store := newFakeStore()
	m := newTestModule(store, uuid.Nil)

	err := m.Handle(context.Background(), events.RecurringServicePaused{
		BaseEvent:          events.NewBaseEvent(),
		RecurringServiceID: uuid.New(),
		OrganizationID:     uuid.New(),
		RecipientID:        uuid.Nil,
		PausedBy:           uuid.New(),
	})
	if err != nil {
		t.Fatalf("Handle with empty recipient must not fail: %v", err)
	}
	if len(store.items) != 0 {
		t.Fatalf("expected no stored notifications, got %d", len(store.items))
	}
}
