package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"wasteops_backend/internal/events"
	"wasteops_backend/internal/recurring/domain"
	"wasteops_backend/internal/recurring/repository"
	"wasteops_backend/internal/recurring/transport"
	svcdomain "wasteops_backend/internal/services/domain"
	servicesrepo "wasteops_backend/internal/services/repository"
	"wasteops_backend/platform/apperr"
	"wasteops_backend/platform/httpkit"
	"wasteops_backend/platform/logger"
)

type testIdentity struct {
	userID uuid.UUID
	role   string
	orgID  uuid.UUID
}

func (i testIdentity) UserID() uuid.UUID         { return i.userID }
func (i testIdentity) Role() string              { return i.role }
func (i testIdentity) OrganizationID() uuid.UUID { return i.orgID }
func (i testIdentity) HasRole(role string) bool  { return i.role == role }
func (i testIdentity) IsAuthenticated() bool     { return true }

type recordingBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) byName(name string) []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []events.Event
	for _, e := range b.published {
		if e.EventName() == name {
			out = append(out, e)
		}
	}
	return out
}

type fakeContacts struct {
	contactID uuid.UUID
}

func (c fakeContacts) PrimaryContact(context.Context, uuid.UUID) (uuid.UUID, error) {
	return c.contactID, nil
}

// fakeFactory stands in for the services repository during generation.
type fakeFactory struct {
	mu       sync.Mutex
	created  []servicesrepo.Service
	existing map[string]bool
	failFor  map[uuid.UUID]error
	seq      int
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{existing: make(map[string]bool), failFor: make(map[uuid.UUID]error)}
}

func scheduleKey(clientID, locationID uuid.UUID, date time.Time) string {
	return fmt.Sprintf("%s|%s|%s", clientID, locationID, date.Format("2006-01-02"))
}

func (f *fakeFactory) CreateInTx(_ context.Context, _ pgx.Tx, params servicesrepo.CreateParams) (servicesrepo.Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor[params.ClientID]; err != nil {
		return servicesrepo.Service{}, err
	}
	f.seq++
	svc := servicesrepo.Service{
		ID:             uuid.New(),
		ServiceNumber:  fmt.Sprintf("SRV-%s-%06d", params.OrganizationID.String()[:8], f.seq),
		OrganizationID: params.OrganizationID,
		ClientID:       params.ClientID,
		LocationID:     params.LocationID,
		ServiceTypeID:  params.ServiceTypeID,
		Status:         params.Status,
		ScheduledDate:  params.ScheduledDate,
	}
	f.created = append(f.created, svc)
	f.existing[scheduleKey(params.ClientID, params.LocationID, params.ScheduledDate)] = true
	return svc, nil
}

func (f *fakeFactory) ExistsForScheduleInTx(ctx context.Context, _ pgx.Tx, clientID, locationID uuid.UUID, date time.Time) (bool, error) {
	return f.ExistsForSchedule(ctx, clientID, locationID, date)
}

func (f *fakeFactory) ExistsForSchedule(_ context.Context, clientID, locationID uuid.UUID, date time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.existing[scheduleKey(clientID, locationID, date)], nil
}

// fakeRepo keeps schedules in memory and runs the lock callback inline.
type fakeRepo struct {
	mu        sync.Mutex
	schedules map[uuid.UUID]repository.RecurringService
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{schedules: make(map[uuid.UUID]repository.RecurringService)}
}

func (r *fakeRepo) Create(_ context.Context, params repository.CreateParams) (repository.RecurringService, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := repository.RecurringService{
		ID:                 uuid.New(),
		OrganizationID:     params.OrganizationID,
		ClientID:           params.ClientID,
		LocationID:         params.LocationID,
		ServiceTypeID:      params.ServiceTypeID,
		WasteCategoryID:    params.WasteCategoryID,
		WasteSubcategoryID: params.WasteSubcategoryID,
		Frequency:          params.Frequency,
		CustomDays:         params.CustomDays,
		StartDate:          params.StartDate,
		EndDate:            params.EndDate,
		NextGenerationDate: params.StartDate,
		Status:             domain.ScheduleActive,
		Notes:              params.Notes,
		CreatedBy:          params.CreatedBy,
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}
	r.schedules[rec.ID] = rec
	return rec, nil
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.RecurringService, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.schedules[id]
	if !ok {
		return repository.RecurringService{}, apperr.NotFound("recurring service not found")
	}
	return rec, nil
}

func (r *fakeRepo) ListByOrganization(_ context.Context, organizationID uuid.UUID, status domain.ScheduleStatus) ([]repository.RecurringService, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []repository.RecurringService
	for _, rec := range r.schedules {
		if rec.OrganizationID != organizationID {
			continue
		}
		if status != "" && rec.Status != status {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *fakeRepo) ListDueIDs(_ context.Context, horizon time.Time) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uuid.UUID
	for _, rec := range r.schedules {
		if rec.Status != domain.ScheduleActive || rec.NextGenerationDate.After(horizon) {
			continue
		}
		if rec.EndDate != nil && rec.NextGenerationDate.After(*rec.EndDate) {
			continue
		}
		ids = append(ids, rec.ID)
	}
	return ids, nil
}

func (r *fakeRepo) SetStatus(_ context.Context, id uuid.UUID, from, to domain.ScheduleStatus) (repository.RecurringService, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.schedules[id]
	if !ok {
		return repository.RecurringService{}, apperr.NotFound("recurring service not found")
	}
	if rec.Status != from {
		return repository.RecurringService{}, apperr.InvalidTransition(fmt.Sprintf(
			"cannot move recurring service to %s: current status is %s, required %s",
			to, rec.Status, from,
		))
	}
	rec.Status = to
	r.schedules[id] = rec
	return rec, nil
}

func (r *fakeRepo) WithScheduleLock(_ context.Context, id uuid.UUID, fn func(tx pgx.Tx, rec repository.RecurringService) error) error {
	r.mu.Lock()
	rec, ok := r.schedules[id]
	r.mu.Unlock()
	if !ok {
		return apperr.NotFound("recurring service not found")
	}
	return fn(nil, rec)
}

func (r *fakeRepo) AdvanceNextDate(_ context.Context, _ pgx.Tx, id uuid.UUID, next time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.schedules[id]
	if !ok {
		return apperr.NotFound("recurring service not found")
	}
	rec.NextGenerationDate = next
	r.schedules[id] = rec
	return nil
}

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestService(repo repository.Repository, factory ServiceFactory, bus events.Bus, contactID uuid.UUID) *Service {
	svc := New(repo, factory, fakeContacts{contactID: contactID}, bus, logger.New("development"))
	svc.now = func() time.Time { return testNow }
	return svc
}

func weeklyRequest() transport.CreateRecurringRequest {
	return transport.CreateRecurringRequest{
		ClientID:      uuid.New(),
		LocationID:    uuid.New(),
		ServiceTypeID: uuid.New(),
		Frequency:     string(domain.FrequencyWeekly),
		StartDate:     "2026-03-12",
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(newFakeRepo(), newFakeFactory(), &recordingBus{}, uuid.New())
	manager := testIdentity{userID: uuid.New(), role: httpkit.RoleManagement, orgID: uuid.New()}

	req := weeklyRequest()
	req.Frequency = "fortnightly"
	if _, err := svc.Create(context.Background(), manager, req); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown frequency, got %v", err)
	}

	req = weeklyRequest()
	req.Frequency = string(domain.FrequencyCustom)
	if _, err := svc.Create(context.Background(), manager, req); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for custom without customDays, got %v", err)
	}

	days := 3
	req = weeklyRequest()
	req.CustomDays = &days
	if _, err := svc.Create(context.Background(), manager, req); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for customDays without custom frequency, got %v", err)
	}

	req = weeklyRequest()
	end := "2026-03-12"
	req.EndDate = &end
	if _, err := svc.Create(context.Background(), manager, req); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for endDate not after startDate, got %v", err)
	}

	req = weeklyRequest()
	req.StartDate = "2026-03-09"
	if _, err := svc.Create(context.Background(), manager, req); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for past startDate, got %v", err)
	}
}

func TestGenerateCreatesPendingServiceAndAdvances(t *testing.T) {
	repo := newFakeRepo()
	factory := newFakeFactory()
	bus := &recordingBus{}
	svc := newTestService(repo, factory, bus, uuid.New())
	manager := testIdentity{userID: uuid.New(), role: httpkit.RoleManagement, orgID: uuid.New()}

	rec, err := svc.Create(context.Background(), manager, weeklyRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	outcome, err := svc.Generate(context.Background(), manager, rec.ID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !outcome.Generated || outcome.ServiceID == nil {
		t.Fatalf("expected a generated service, got %+v", outcome)
	}
	if len(factory.created) != 1 {
		t.Fatalf("expected one created service, got %d", len(factory.created))
	}
	created := factory.created[0]
	if created.Status != svcdomain.StatusPending {
		t.Fatalf("generated service must start pending, got %s", created.Status)
	}
	if !created.ScheduledDate.Equal(rec.StartDate) {
		t.Fatalf("expected first generation on the start date %s, got %s", rec.StartDate, created.ScheduledDate)
	}

	after, err := repo.GetByID(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	wantNext := rec.StartDate.AddDate(0, 0, 7)
	if !after.NextGenerationDate.Equal(wantNext) {
		t.Fatalf("expected pointer at %s, got %s", wantNext, after.NextGenerationDate)
	}

	generated := bus.byName(events.RecurringServiceGenerated{}.EventName())
	if len(generated) != 1 {
		t.Fatalf("expected one generated event, got %d", len(generated))
	}
}

func TestGenerateSkipsDuplicateButStillAdvances(t *testing.T) {
	repo := newFakeRepo()
	factory := newFakeFactory()
	svc := newTestService(repo, factory, &recordingBus{}, uuid.New())
	manager := testIdentity{userID: uuid.New(), role: httpkit.RoleManagement, orgID: uuid.New()}

	req := weeklyRequest()
	rec, err := svc.Create(context.Background(), manager, req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	factory.existing[scheduleKey(rec.ClientID, rec.LocationID, rec.StartDate)] = true

	outcome, err := svc.Generate(context.Background(), manager, rec.ID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !outcome.Skipped || outcome.Generated {
		t.Fatalf("expected a skip, got %+v", outcome)
	}
	if len(factory.created) != 0 {
		t.Fatalf("expected no created services, got %d", len(factory.created))
	}

	after, _ := repo.GetByID(context.Background(), rec.ID)
	if !after.NextGenerationDate.After(rec.NextGenerationDate) {
		t.Fatal("pointer must advance past a skipped date or the engine would retry it forever")
	}
}

func TestGenerateRejectsInactiveSchedule(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, newFakeFactory(), &recordingBus{}, uuid.New())
	manager := testIdentity{userID: uuid.New(), role: httpkit.RoleManagement, orgID: uuid.New()}

	rec, err := svc.Create(context.Background(), manager, weeklyRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Pause(context.Background(), manager, rec.ID); err != nil {
		t.Fatalf("Pause: %v", err)
	}

	_, err = svc.Generate(context.Background(), manager, rec.ID)
	if !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("expected invalid transition generating from a paused schedule, got %v", err)
	}
}

func TestScheduleStateMachine(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	contactID := uuid.New()
	svc := newTestService(repo, newFakeFactory(), bus, contactID)
	manager := testIdentity{userID: uuid.New(), role: httpkit.RoleManagement, orgID: uuid.New()}

	rec, err := svc.Create(context.Background(), manager, weeklyRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	paused, err := svc.Pause(context.Background(), manager, rec.ID)
	if err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if paused.Status != domain.SchedulePaused {
		t.Fatalf("expected paused, got %s", paused.Status)
	}

	resumed, err := svc.Resume(context.Background(), manager, rec.ID)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if resumed.Status != domain.ScheduleActive {
		t.Fatalf("expected active, got %s", resumed.Status)
	}

	cancelled, err := svc.Cancel(context.Background(), manager, rec.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != domain.ScheduleCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	// Pausing a cancelled schedule is not allowed; it must be reactivated.
	if _, err := svc.Pause(context.Background(), manager, rec.ID); !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("expected invalid transition pausing a cancelled schedule, got %v", err)
	}

	reactivated, err := svc.Reactivate(context.Background(), manager, rec.ID)
	if err != nil {
		t.Fatalf("Reactivate: %v", err)
	}
	if reactivated.Status != domain.ScheduleActive {
		t.Fatalf("expected active after reactivation, got %s", reactivated.Status)
	}

	pausedEvents := bus.byName(events.RecurringServicePaused{}.EventName())
	cancelledEvents := bus.byName(events.RecurringServiceCancelled{}.EventName())
	if len(pausedEvents) != 1 || len(cancelledEvents) != 1 {
		t.Fatalf("expected one paused and one cancelled event, got %d and %d", len(pausedEvents), len(cancelledEvents))
	}
	pausedEvent := pausedEvents[0].(events.RecurringServicePaused)
	if pausedEvent.RecipientID != contactID {
		t.Fatal("paused notification must target the organization's primary contact")
	}
}

func TestGenerateDueSweep(t *testing.T) {
	repo := newFakeRepo()
	factory := newFakeFactory()
	svc := newTestService(repo, factory, &recordingBus{}, uuid.New())
	manager := testIdentity{userID: uuid.New(), role: httpkit.RoleManagement, orgID: uuid.New()}

	// A daily schedule three days behind catches up in one sweep.
	daily := weeklyRequest()
	daily.Frequency = string(domain.FrequencyDaily)
	daily.StartDate = "2026-03-12"
	recDaily, err := svc.Create(context.Background(), manager, daily)
	if err != nil {
		t.Fatalf("Create daily: %v", err)
	}

	// A weekly schedule due once in the window.
	recWeekly, err := svc.Create(context.Background(), manager, weeklyRequest())
	if err != nil {
		t.Fatalf("Create weekly: %v", err)
	}

	// A paused schedule is never swept.
	recPaused, err := svc.Create(context.Background(), manager, weeklyRequest())
	if err != nil {
		t.Fatalf("Create paused: %v", err)
	}
	if _, err := svc.Pause(context.Background(), manager, recPaused.ID); err != nil {
		t.Fatalf("Pause: %v", err)
	}

	asOf := time.Date(2026, 3, 14, 2, 0, 0, 0, time.UTC)
	result, err := svc.GenerateDue(context.Background(), asOf, 0, false)
	if err != nil {
		t.Fatalf("GenerateDue: %v", err)
	}

	// Daily: 12th, 13th, 14th. Weekly: 12th. Paused: none.
	if result.Generated != 4 {
		t.Fatalf("expected 4 generated, got %+v", result)
	}
	if result.Skipped != 0 || result.Errored != 0 {
		t.Fatalf("expected clean run, got %+v", result)
	}

	afterDaily, _ := repo.GetByID(context.Background(), recDaily.ID)
	if !afterDaily.NextGenerationDate.Equal(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("daily pointer should rest on the 15th, got %s", afterDaily.NextGenerationDate)
	}
	afterWeekly, _ := repo.GetByID(context.Background(), recWeekly.ID)
	if !afterWeekly.NextGenerationDate.Equal(time.Date(2026, 3, 19, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("weekly pointer should rest on the 19th, got %s", afterWeekly.NextGenerationDate)
	}
}

func TestGenerateDueIsolatesScheduleFailures(t *testing.T) {
	repo := newFakeRepo()
	factory := newFakeFactory()
	svc := newTestService(repo, factory, &recordingBus{}, uuid.New())
	manager := testIdentity{userID: uuid.New(), role: httpkit.RoleManagement, orgID: uuid.New()}

	healthy, err := svc.Create(context.Background(), manager, weeklyRequest())
	if err != nil {
		t.Fatalf("Create healthy: %v", err)
	}

	broken, err := svc.Create(context.Background(), manager, weeklyRequest())
	if err != nil {
		t.Fatalf("Create broken: %v", err)
	}
	factory.failFor[broken.ClientID] = fmt.Errorf("insert service: client %s does not exist", broken.ClientID)

	asOf := time.Date(2026, 3, 12, 6, 0, 0, 0, time.UTC)
	result, err := svc.GenerateDue(context.Background(), asOf, 0, false)
	if err != nil {
		t.Fatalf("GenerateDue: %v", err)
	}

	if result.Generated != 1 || result.Errored != 1 {
		t.Fatalf("expected one generated and one errored, got %+v", result)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected one collected error, got %v", result.Errors)
	}

	afterHealthy, _ := repo.GetByID(context.Background(), healthy.ID)
	if !afterHealthy.NextGenerationDate.Equal(time.Date(2026, 3, 19, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("healthy pointer should rest on the 19th, got %s", afterHealthy.NextGenerationDate)
	}
	afterBroken, _ := repo.GetByID(context.Background(), broken.ID)
	if !afterBroken.NextGenerationDate.Equal(time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("broken pointer should not advance, got %s", afterBroken.NextGenerationDate)
	}
	if len(factory.created) != 1 {
		t.Fatalf("expected exactly one service created, got %d", len(factory.created))
	}
}

func TestGenerateDueDryRunWritesNothing(t *testing.T) {
	repo := newFakeRepo()
	factory := newFakeFactory()
	svc := newTestService(repo, factory, &recordingBus{}, uuid.New())
	manager := testIdentity{userID: uuid.New(), role: httpkit.RoleManagement, orgID: uuid.New()}

	daily := weeklyRequest()
	daily.Frequency = string(domain.FrequencyDaily)
	daily.StartDate = "2026-03-12"
	rec, err := svc.Create(context.Background(), manager, daily)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	factory.existing[scheduleKey(rec.ClientID, rec.LocationID, rec.StartDate)] = true

	asOf := time.Date(2026, 3, 14, 2, 0, 0, 0, time.UTC)
	result, err := svc.GenerateDue(context.Background(), asOf, 0, true)
	if err != nil {
		t.Fatalf("GenerateDue dry run: %v", err)
	}
	if !result.DryRun {
		t.Fatal("expected a dry-run result")
	}
	if result.Generated != 2 || result.Skipped != 1 {
		t.Fatalf("expected 2 would-generate and 1 skip, got %+v", result)
	}

	if len(factory.created) != 0 {
		t.Fatalf("dry run must not create services, got %d", len(factory.created))
	}
	after, _ := repo.GetByID(context.Background(), rec.ID)
	if !after.NextGenerationDate.Equal(rec.NextGenerationDate) {
		t.Fatal("dry run must not advance the pointer")
	}
}

func TestGenerateStopsAtEndDate(t *testing.T) {
	repo := newFakeRepo()
	factory := newFakeFactory()
	svc := newTestService(repo, factory, &recordingBus{}, uuid.New())
	manager := testIdentity{userID: uuid.New(), role: httpkit.RoleManagement, orgID: uuid.New()}

	daily := weeklyRequest()
	daily.Frequency = string(domain.FrequencyDaily)
	daily.StartDate = "2026-03-12"
	end := "2026-03-13"
	daily.EndDate = &end
	rec, err := svc.Create(context.Background(), manager, daily)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	asOf := time.Date(2026, 3, 20, 2, 0, 0, 0, time.UTC)
	result, err := svc.GenerateDue(context.Background(), asOf, 0, false)
	if err != nil {
		t.Fatalf("GenerateDue: %v", err)
	}

	// The 12th and 13th generate; the 14th is past the end date.
	if result.Generated != 2 {
		t.Fatalf("expected 2 generated before the end date, got %+v", result)
	}
	if result.Skipped != 1 {
		t.Fatalf("expected the post-end step to be reported as skipped, got %+v", result)
	}

	after, _ := repo.GetByID(context.Background(), rec.ID)
	if !after.NextGenerationDate.Equal(time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("pointer should rest just past the end date, got %s", after.NextGenerationDate)
	}

	// Once the pointer passes the end date the schedule drops out of the
	// due query entirely instead of being re-locked every sweep.
	again, err := svc.GenerateDue(context.Background(), asOf, 0, false)
	if err != nil {
		t.Fatalf("GenerateDue second sweep: %v", err)
	}
	if again.Generated != 0 || again.Skipped != 0 || again.Errored != 0 {
		t.Fatalf("ended schedule must not be swept again, got %+v", again)
	}
}

func TestCreateWithoutNotes(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, newFakeFactory(), &recordingBus{}, uuid.New())
	manager := testIdentity{userID: uuid.New(), role: httpkit.RoleManagement, orgID: uuid.New()}

	rec, err := svc.Create(context.Background(), manager, weeklyRequest())
	if err != nil {
		t.Fatalf("Create without notes: %v", err)
	}
	if rec.Notes != nil {
		t.Fatalf("expected absent notes to stay absent, got %q", *rec.Notes)
	}

	stored, err := svc.GetByID(context.Background(), manager, rec.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Notes != nil {
		t.Fatalf("expected stored notes to stay absent, got %q", *stored.Notes)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, newFakeFactory(), &recordingBus{}, uuid.New())
	manager := testIdentity{userID: uuid.New(), role: httpkit.RoleManagement, orgID: uuid.New()}

	first, err := svc.Create(context.Background(), manager, weeklyRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(context.Background(), manager, weeklyRequest()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Pause(context.Background(), manager, first.ID); err != nil {
		t.Fatalf("Pause: %v", err)
	}

	all, err := svc.List(context.Background(), manager, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 schedules without filter, got %d", len(all))
	}

	paused, err := svc.List(context.Background(), manager, "paused")
	if err != nil {
		t.Fatalf("List paused: %v", err)
	}
	if len(paused) != 1 || paused[0].ID != first.ID {
		t.Fatalf("expected only the paused schedule, got %d", len(paused))
	}

	if _, err := svc.List(context.Background(), manager, "dormant"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown status filter, got %v", err)
	}
}

func TestCrossOrganizationScheduleIsHidden(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, newFakeFactory(), &recordingBus{}, uuid.New())
	manager := testIdentity{userID: uuid.New(), role: httpkit.RoleManagement, orgID: uuid.New()}

	rec, err := svc.Create(context.Background(), manager, weeklyRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	outsider := testIdentity{userID: uuid.New(), role: httpkit.RoleManagement, orgID: uuid.New()}
	if _, err := svc.GetByID(context.Background(), outsider, rec.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for cross-organization access, got %v", err)
	}
	if _, err := svc.Pause(context.Background(), outsider, rec.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found pausing across organizations, got %v", err)
	}
}
