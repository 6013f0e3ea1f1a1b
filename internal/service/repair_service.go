package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/repair-service/internal/domain"
	"github.com/spec-kit/repair-service/internal/events"
	"github.com/spec-kit/repair-service/internal/repository"
	apperrors "github.com/spec-kit/repair-service/pkg/util"
)

// allowedTransitions is the single source of truth for the repair status
// graph. NextStatuses and IsValidTransition both read it, so what the UI
// offers and what Transition accepts cannot diverge.
var allowedTransitions = map[domain.RepairStatus][]domain.RepairStatus{
	domain.StatusCreated:        {domain.StatusSentToWorkshop, domain.StatusCancelled},
	domain.StatusSentToWorkshop: {domain.StatusReceived, domain.StatusCancelled},
	domain.StatusReceived:       {domain.StatusInRepair, domain.StatusCancelled},
	domain.StatusInRepair:       {domain.StatusFixed, domain.StatusNeedsParts, domain.StatusTechnicalIssue},
	domain.StatusNeedsParts:     {domain.StatusInRepair, domain.StatusCancelled},
	domain.StatusTechnicalIssue: {domain.StatusInRepair, domain.StatusCancelled},
	domain.StatusFixed:          {domain.StatusReadyForPickup},
	domain.StatusReadyForPickup: {domain.StatusCompleted},
	domain.StatusCompleted:      {},
	domain.StatusCancelled:      {},
}

// IsValidTransition reports whether the status graph permits current → next.
// Pure query, no side effects.
func IsValidTransition(current, next domain.RepairStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from current. The returned
// slice is a copy.
func NextStatuses(current domain.RepairStatus) []domain.RepairStatus {
	return append([]domain.RepairStatus{}, allowedTransitions[current]...)
}

// RepairService coordinates the repair lifecycle: CRUD, the status state
// machine, timeline derivation and audit emission.
type RepairService struct {
	repairs    repository.RepairRepository
	audit      repository.AuditRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// RepairDependencies bundles collaborators for the repair service.
type RepairDependencies struct {
	RepairRepo repository.RepairRepository
	AuditRepo  repository.AuditRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// RepairCreateInput describes repair creation payload.
type RepairCreateInput struct {
	ShopID        string
	CustomerID    string
	CustomerName  string
	CustomerPhone string
	ProductType   string
	ProductBrand  string
	ProductModel  string
	SerialNumber  string
	Description   string
	EstimatedCost *float64
}

// NewRepairService constructs the service.
func NewRepairService(deps RepairDependencies) *RepairService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RepairService{
		repairs:    deps.RepairRepo,
		audit:      deps.AuditRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// CreateRepair registers a new repair in status created with its first
// timeline step.
func (s *RepairService) CreateRepair(ctx context.Context, actorID string, input RepairCreateInput) (*domain.Repair, error) {
	if strings.TrimSpace(input.ShopID) == "" || strings.TrimSpace(input.CustomerID) == "" {
		return nil, apperrors.NewValidationError("shop_id and customer_id required", nil)
	}

	repair := &domain.Repair{
		ExternalKey:   generateRepairKey(),
		ShopID:        input.ShopID,
		CustomerID:    input.CustomerID,
		CustomerName:  strings.TrimSpace(input.CustomerName),
		CustomerPhone: strings.TrimSpace(input.CustomerPhone),
		ProductType:   input.ProductType,
		ProductBrand:  input.ProductBrand,
		ProductModel:  input.ProductModel,
		SerialNumber:  input.SerialNumber,
		Description:   strings.TrimSpace(input.Description),
		Status:        domain.StatusCreated,
		EstimatedCost: input.EstimatedCost,
	}
	if err := s.repairs.Create(ctx, repair); err != nil {
		return nil, s.repositoryFailure("create repair", err)
	}

	timeline := domain.ApplyTimelineStep(nil, domain.StatusStep[domain.StatusCreated], time.Now(), actorID)
	if err := s.repairs.SetTimeline(ctx, repair.ID, timeline); err != nil {
		return nil, s.repositoryFailure("write initial timeline", err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventRepairCreated,
		RepairID: repair.ID,
		ActorID:  actorID,
		Payload: events.RepairCreatedPayload{
			ShopID:       repair.ShopID,
			CustomerID:   repair.CustomerID,
			ProductType:  repair.ProductType,
			ProductBrand: repair.ProductBrand,
		},
	})
	return repair, nil
}

// GetRepair fetches a repair with its timeline.
func (s *RepairService) GetRepair(ctx context.Context, repairID string) (*domain.Repair, []domain.TimelineEvent, error) {
	repair, err := s.repairs.GetByID(ctx, repairID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("repair", map[string]any{"repair_id": repairID})
		}
		return nil, nil, s.repositoryFailure("load repair", err)
	}
	timeline, err := s.repairs.GetTimeline(ctx, repair.ID)
	if err != nil {
		return nil, nil, s.repositoryFailure("load timeline", err)
	}
	return repair, timeline, nil
}

// ListRepairs returns repairs matching the filter.
func (s *RepairService) ListRepairs(ctx context.Context, filter repository.RepairFilter) ([]domain.Repair, error) {
	repairs, err := s.repairs.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, s.repositoryFailure("list repairs", err)
	}
	return repairs, nil
}

// AssignTechnician sets the technician responsible for a repair.
func (s *RepairService) AssignTechnician(ctx context.Context, repairID, technicianID, actorID string) (*domain.Repair, error) {
	repair, err := s.repairs.GetByID(ctx, repairID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("repair", map[string]any{"repair_id": repairID})
		}
		return nil, s.repositoryFailure("load repair", err)
	}
	if repair.Status.IsTerminal() {
		return nil, apperrors.NewValidationError("repair is closed", nil)
	}

	repair.AssignedTechnician = &technicianID
	if err := s.repairs.Update(ctx, repair); err != nil {
		return nil, s.repositoryFailure("assign technician", err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventRepairAssigned,
		RepairID: repair.ID,
		ActorID:  actorID,
		Payload:  events.RepairAssignedPayload{TechnicianID: technicianID},
	})
	return repair, nil
}

// Transition moves a repair to newStatus after validating against the status
// graph. On success it writes the status, completes or appends the matching
// timeline step, appends exactly one audit entry and publishes a status-change
// event carrying the notification intents for newStatus. Validation fully
// precedes mutation; an invalid transition leaves everything untouched.
func (s *RepairService) Transition(ctx context.Context, repairID string, newStatus domain.RepairStatus, actorID, notes string) (*domain.Repair, error) {
	if !newStatus.IsValid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": string(newStatus)})
	}

	repair, err := s.repairs.GetByID(ctx, repairID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("repair", map[string]any{"repair_id": repairID})
		}
		return nil, s.repositoryFailure("load repair", err)
	}

	current := repair.Status
	if !IsValidTransition(current, newStatus) {
		return nil, apperrors.NewInvalidTransition(string(current), string(newStatus))
	}

	// The guard on current status rejects a transition racing against another
	// writer that already moved the repair.
	if err := s.repairs.UpdateStatus(ctx, repair.ID, current, newStatus); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInvalidTransition(string(current), string(newStatus))
		}
		return nil, s.repositoryFailure("update status", err)
	}
	repair.Status = newStatus

	now := time.Now()
	timeline, err := s.repairs.GetTimeline(ctx, repair.ID)
	if err != nil {
		return nil, s.repositoryFailure("load timeline", err)
	}
	timeline = domain.ApplyTimelineStep(timeline, domain.StatusStep[newStatus], now, actorID)
	if err := s.repairs.SetTimeline(ctx, repair.ID, timeline); err != nil {
		return nil, s.repositoryFailure("write timeline", err)
	}

	entry := &domain.StatusUpdate{
		RepairID:  repair.ID,
		OldStatus: current,
		NewStatus: newStatus,
		UpdatedBy: actorID,
		Notes:     notes,
		Timestamp: now,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		return nil, s.repositoryFailure("append audit entry", err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventRepairStatusChanged,
		RepairID: repair.ID,
		ActorID:  actorID,
		Payload: events.RepairStatusChangedPayload{
			OldStatus: current,
			NewStatus: newStatus,
			Notes:     notes,
			Intents:   domain.StatusNotifications[newStatus],
		},
	})
	return repair, nil
}

// ListAudit returns the status update log for a repair, oldest first.
func (s *RepairService) ListAudit(ctx context.Context, repairID string, limit, offset int) ([]domain.StatusUpdate, error) {
	if _, err := s.repairs.GetByID(ctx, repairID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("repair", map[string]any{"repair_id": repairID})
		}
		return nil, s.repositoryFailure("load repair", err)
	}
	entries, err := s.audit.ListByRepair(ctx, repairID, limit, offset)
	if err != nil {
		return nil, s.repositoryFailure("list audit entries", err)
	}
	return entries, nil
}

func (s *RepairService) repositoryFailure(op string, err error) error {
	s.logger.Error("repository failure", zap.String("op", op), zap.Error(err))
	return apperrors.NewRepositoryError(err)
}

func (s *RepairService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func generateRepairKey() string {
	return "REP-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
