package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/repair-service/internal/domain"
	"github.com/spec-kit/repair-service/internal/events"
	"github.com/spec-kit/repair-service/internal/repository"
	apperrors "github.com/spec-kit/repair-service/pkg/util"
)

// memRepairRepo is an in-memory RepairRepository for tests.
type memRepairRepo struct {
	repairs   map[string]*domain.Repair
	timelines map[string][]domain.TimelineEvent
	nextID    int
	failOp    string
}

func newMemRepairRepo() *memRepairRepo {
	return &memRepairRepo{
		repairs:   map[string]*domain.Repair{},
		timelines: map[string][]domain.TimelineEvent{},
	}
}

func (m *memRepairRepo) fail(op string) error {
	if m.failOp == op {
		return errors.New("forced failure")
	}
	return nil
}

func (m *memRepairRepo) Create(_ context.Context, repair *domain.Repair) error {
	if err := m.fail("Create"); err != nil {
		return err
	}
	m.nextID++
	repair.ID = "repair-" + strconv.Itoa(m.nextID)
	repair.CreatedAt = time.Now()
	repair.UpdatedAt = repair.CreatedAt
	clone := *repair
	m.repairs[repair.ID] = &clone
	return nil
}

func (m *memRepairRepo) Update(_ context.Context, repair *domain.Repair) error {
	if err := m.fail("Update"); err != nil {
		return err
	}
	if _, ok := m.repairs[repair.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *repair
	m.repairs[repair.ID] = &clone
	return nil
}

func (m *memRepairRepo) UpdateStatus(_ context.Context, repairID string, from, to domain.RepairStatus) error {
	if err := m.fail("UpdateStatus"); err != nil {
		return err
	}
	stored, ok := m.repairs[repairID]
	if !ok || stored.Status != from {
		return pgx.ErrNoRows
	}
	stored.Status = to
	return nil
}

func (m *memRepairRepo) GetByID(_ context.Context, id string) (*domain.Repair, error) {
	if err := m.fail("GetByID"); err != nil {
		return nil, err
	}
	stored, ok := m.repairs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *stored
	return &clone, nil
}

func (m *memRepairRepo) GetByExternalKey(_ context.Context, key string) (*domain.Repair, error) {
	for _, stored := range m.repairs {
		if stored.ExternalKey == key {
			clone := *stored
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memRepairRepo) ListWithFilter(_ context.Context, filter repository.RepairFilter) ([]domain.Repair, error) {
	var result []domain.Repair
	for _, stored := range m.repairs {
		if filter.ShopID != nil && stored.ShopID != *filter.ShopID {
			continue
		}
		if len(filter.Statuses) > 0 {
			matched := false
			for _, status := range filter.Statuses {
				if stored.Status == status {
					matched = true
				}
			}
			if !matched {
				continue
			}
		}
		result = append(result, *stored)
	}
	return result, nil
}

func (m *memRepairRepo) GetTimeline(_ context.Context, repairID string) ([]domain.TimelineEvent, error) {
	if err := m.fail("GetTimeline"); err != nil {
		return nil, err
	}
	return append([]domain.TimelineEvent{}, m.timelines[repairID]...), nil
}

func (m *memRepairRepo) SetTimeline(_ context.Context, repairID string, eventsIn []domain.TimelineEvent) error {
	if err := m.fail("SetTimeline"); err != nil {
		return err
	}
	m.timelines[repairID] = append([]domain.TimelineEvent{}, eventsIn...)
	return nil
}

// memAuditRepo is an in-memory AuditRepository for tests.
type memAuditRepo struct {
	entries []domain.StatusUpdate
	nextID  int
}

func (m *memAuditRepo) Append(_ context.Context, entry *domain.StatusUpdate) error {
	m.nextID++
	entry.ID = "audit-" + strconv.Itoa(m.nextID)
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memAuditRepo) ListByRepair(_ context.Context, repairID string, _, _ int) ([]domain.StatusUpdate, error) {
	var result []domain.StatusUpdate
	for _, entry := range m.entries {
		if entry.RepairID == repairID {
			result = append(result, entry)
		}
	}
	return result, nil
}

type testEnv struct {
	svc        *RepairService
	repairs    *memRepairRepo
	audit      *memAuditRepo
	dispatcher events.Dispatcher
	published  *[]events.Event
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repairs := newMemRepairRepo()
	audit := &memAuditRepo{}
	dispatcher := events.NewInMemoryDispatcher()
	published := &[]events.Event{}
	for _, eventType := range []events.EventType{events.EventRepairCreated, events.EventRepairStatusChanged, events.EventRepairAssigned, events.EventHandoffCompleted} {
		dispatcher.Subscribe(eventType, func(_ context.Context, event events.Event) error {
			*published = append(*published, event)
			return nil
		})
	}
	svc := NewRepairService(RepairDependencies{
		RepairRepo: repairs,
		AuditRepo:  audit,
		Dispatcher: dispatcher,
	})
	return &testEnv{svc: svc, repairs: repairs, audit: audit, dispatcher: dispatcher, published: published}
}

func (e *testEnv) seedRepair(t *testing.T, status domain.RepairStatus) *domain.Repair {
	t.Helper()
	repair, err := e.svc.CreateRepair(context.Background(), "seller1", RepairCreateInput{
		ShopID:       "shop-1",
		CustomerID:   "cust-1",
		CustomerName: "Dana Levi",
		ProductType:  "necklace",
	})
	if err != nil {
		t.Fatalf("CreateRepair: %v", err)
	}
	e.repairs.repairs[repair.ID].Status = status
	repair.Status = status
	return repair
}

func TestCreateRepair(t *testing.T) {
	env := newTestEnv(t)

	repair, err := env.svc.CreateRepair(context.Background(), "seller1", RepairCreateInput{
		ShopID:     "shop-1",
		CustomerID: "cust-1",
	})
	if err != nil {
		t.Fatalf("CreateRepair: %v", err)
	}
	if repair.Status != domain.StatusCreated {
		t.Errorf("expected status created, got %q", repair.Status)
	}
	if !strings.HasPrefix(repair.ExternalKey, "REP-") {
		t.Errorf("expected REP- key, got %q", repair.ExternalKey)
	}
	timeline := env.repairs.timelines[repair.ID]
	if len(timeline) != 1 || timeline[0].Step != domain.StatusStep[domain.StatusCreated] || !timeline[0].Completed {
		t.Errorf("unexpected initial timeline %+v", timeline)
	}
}

func TestCreateRepairRequiresIdentity(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.svc.CreateRepair(context.Background(), "seller1", RepairCreateInput{ShopID: "shop-1"}); err == nil {
		t.Error("expected error for missing customer_id")
	}
}

func TestTransitionRejectsAllInvalidPairs(t *testing.T) {
	for _, current := range domain.AllStatuses {
		for _, next := range domain.AllStatuses {
			if IsValidTransition(current, next) {
				continue
			}
			env := newTestEnv(t)
			repair := env.seedRepair(t, current)
			timelineBefore := len(env.repairs.timelines[repair.ID])

			_, err := env.svc.Transition(context.Background(), repair.ID, next, "tech1", "")
			if !apperrors.HasCode(err, apperrors.CodeInvalidTransition) {
				t.Fatalf("%s -> %s: expected INVALID_TRANSITION, got %v", current, next, err)
			}
			if env.repairs.repairs[repair.ID].Status != current {
				t.Errorf("%s -> %s: status mutated", current, next)
			}
			if len(env.repairs.timelines[repair.ID]) != timelineBefore {
				t.Errorf("%s -> %s: timeline mutated", current, next)
			}
			if len(env.audit.entries) != 0 {
				t.Errorf("%s -> %s: audit log mutated", current, next)
			}
		}
	}
}

func TestTransitionAppliesAllValidPairs(t *testing.T) {
	for _, current := range domain.AllStatuses {
		for _, next := range NextStatuses(current) {
			env := newTestEnv(t)
			repair := env.seedRepair(t, current)

			updated, err := env.svc.Transition(context.Background(), repair.ID, next, "tech1", "note")
			if err != nil {
				t.Fatalf("%s -> %s: %v", current, next, err)
			}
			if updated.Status != next {
				t.Errorf("%s -> %s: returned status %q", current, next, updated.Status)
			}
			if env.repairs.repairs[repair.ID].Status != next {
				t.Errorf("%s -> %s: stored status %q", current, next, env.repairs.repairs[repair.ID].Status)
			}

			if len(env.audit.entries) != 1 {
				t.Fatalf("%s -> %s: expected 1 audit entry, got %d", current, next, len(env.audit.entries))
			}
			entry := env.audit.entries[0]
			if entry.NewStatus != next || entry.OldStatus != current || entry.UpdatedBy != "tech1" {
				t.Errorf("%s -> %s: bad audit entry %+v", current, next, entry)
			}

			timeline := env.repairs.timelines[repair.ID]
			for i := 1; i < len(timeline); i++ {
				if timeline[i].Date.Before(timeline[i-1].Date) {
					t.Errorf("%s -> %s: timeline not sorted ascending", current, next)
				}
			}
		}
	}
}

func TestTransitionUnknownRepair(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Transition(context.Background(), "missing", domain.StatusCancelled, "tech1", "")
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestTransitionUnknownStatus(t *testing.T) {
	env := newTestEnv(t)
	repair := env.seedRepair(t, domain.StatusCreated)

	_, err := env.svc.Transition(context.Background(), repair.ID, "bogus", "tech1", "")
	if !apperrors.HasCode(err, apperrors.CodeValidationFailed) {
		t.Errorf("expected VALIDATION_FAILED, got %v", err)
	}
}

func TestTransitionSkippingStepRejected(t *testing.T) {
	env := newTestEnv(t)
	repair := env.seedRepair(t, domain.StatusCreated)

	// created -> received skips sent-to-workshop.
	_, err := env.svc.Transition(context.Background(), repair.ID, domain.StatusReceived, "tech1", "")
	if !apperrors.HasCode(err, apperrors.CodeInvalidTransition) {
		t.Fatalf("expected INVALID_TRANSITION, got %v", err)
	}
	if env.repairs.repairs[repair.ID].Status != domain.StatusCreated {
		t.Error("status changed on rejected transition")
	}
}

func TestTransitionPickupToCompleted(t *testing.T) {
	env := newTestEnv(t)
	repair := env.seedRepair(t, domain.StatusReadyForPickup)

	updated, err := env.svc.Transition(context.Background(), repair.ID, domain.StatusCompleted, "tech1", "")
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if updated.Status != domain.StatusCompleted {
		t.Errorf("expected completed, got %q", updated.Status)
	}

	found := false
	for _, event := range env.repairs.timelines[repair.ID] {
		if event.Step == domain.StatusStep[domain.StatusCompleted] && event.Completed && event.User == "tech1" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected completed pickup step, timeline %+v", env.repairs.timelines[repair.ID])
	}
	if len(env.audit.entries) != 1 || env.audit.entries[0].NewStatus != domain.StatusCompleted {
		t.Errorf("expected one audit entry for completion, got %+v", env.audit.entries)
	}
}

func TestTransitionAmendsExistingTimelineStep(t *testing.T) {
	env := newTestEnv(t)
	repair := env.seedRepair(t, domain.StatusCreated)

	// A pending step for the target status already exists.
	env.repairs.timelines[repair.ID] = append(env.repairs.timelines[repair.ID], domain.TimelineEvent{
		Step: domain.StatusStep[domain.StatusSentToWorkshop],
		Date: time.Now().Add(time.Hour),
	})

	if _, err := env.svc.Transition(context.Background(), repair.ID, domain.StatusSentToWorkshop, "tech1", ""); err != nil {
		t.Fatalf("Transition: %v", err)
	}

	count := 0
	for _, event := range env.repairs.timelines[repair.ID] {
		if event.Step == domain.StatusStep[domain.StatusSentToWorkshop] {
			count++
			if !event.Completed || event.User != "tech1" {
				t.Errorf("step not amended: %+v", event)
			}
		}
	}
	if count != 1 {
		t.Errorf("expected 1 matching step, got %d", count)
	}
}

func TestTransitionPublishesIntents(t *testing.T) {
	env := newTestEnv(t)
	repair := env.seedRepair(t, domain.StatusFixed)

	if _, err := env.svc.Transition(context.Background(), repair.ID, domain.StatusReadyForPickup, "tech1", ""); err != nil {
		t.Fatalf("Transition: %v", err)
	}

	var payload *events.RepairStatusChangedPayload
	for _, event := range *env.published {
		if event.Type == events.EventRepairStatusChanged {
			p := event.Payload.(events.RepairStatusChangedPayload)
			payload = &p
		}
	}
	if payload == nil {
		t.Fatal("no status change event published")
	}
	if len(payload.Intents) != 1 || payload.Intents[0].Template != "ready_for_pickup" {
		t.Errorf("unexpected intents %+v", payload.Intents)
	}
}

func TestTransitionRepositoryFailure(t *testing.T) {
	env := newTestEnv(t)
	repair := env.seedRepair(t, domain.StatusCreated)
	env.repairs.failOp = "UpdateStatus"

	_, err := env.svc.Transition(context.Background(), repair.ID, domain.StatusSentToWorkshop, "tech1", "")
	if !apperrors.HasCode(err, apperrors.CodeRepositoryError) {
		t.Errorf("expected REPOSITORY_ERROR, got %v", err)
	}
}

func TestTransitionLostRace(t *testing.T) {
	env := newTestEnv(t)
	repair := env.seedRepair(t, domain.StatusReadyForPickup)

	// Another actor completes the repair between read and write.
	env.repairs.repairs[repair.ID].Status = domain.StatusCompleted

	_, err := env.svc.Transition(context.Background(), repair.ID, domain.StatusCompleted, "tech1", "")
	if !apperrors.HasCode(err, apperrors.CodeInvalidTransition) {
		t.Errorf("expected INVALID_TRANSITION on stale status, got %v", err)
	}
}

func TestNextStatusesMatchesTransitionTable(t *testing.T) {
	for _, current := range domain.AllStatuses {
		for _, next := range NextStatuses(current) {
			if !IsValidTransition(current, next) {
				t.Errorf("NextStatuses(%s) offers %s but IsValidTransition rejects it", current, next)
			}
		}
	}
	if len(NextStatuses(domain.StatusCompleted)) != 0 {
		t.Error("completed must be terminal")
	}
	if len(NextStatuses(domain.StatusCancelled)) != 0 {
		t.Error("cancelled must be terminal")
	}
}

func TestAssignTechnician(t *testing.T) {
	env := newTestEnv(t)
	repair := env.seedRepair(t, domain.StatusReceived)

	updated, err := env.svc.AssignTechnician(context.Background(), repair.ID, "tech9", "manager1")
	if err != nil {
		t.Fatalf("AssignTechnician: %v", err)
	}
	if updated.AssignedTechnician == nil || *updated.AssignedTechnician != "tech9" {
		t.Errorf("technician not assigned: %+v", updated.AssignedTechnician)
	}
}

func TestAssignTechnicianOnClosedRepair(t *testing.T) {
	env := newTestEnv(t)
	repair := env.seedRepair(t, domain.StatusCompleted)

	if _, err := env.svc.AssignTechnician(context.Background(), repair.ID, "tech9", "manager1"); err == nil {
		t.Error("expected error assigning on completed repair")
	}
}

func TestListAuditUnknownRepair(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.ListAudit(context.Background(), "missing", 10, 0)
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}
