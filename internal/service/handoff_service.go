package service

import (
	"context"

	"github.com/spec-kit/repair-service/internal/domain"
	"github.com/spec-kit/repair-service/internal/events"
	"github.com/spec-kit/repair-service/internal/qrtoken"
	apperrors "github.com/spec-kit/repair-service/pkg/util"
)

// HandoffService gates the physical hand-off of an item. The QR token itself
// has no single-use semantics; moving the repair out of ready-for-pickup is
// what consumes the privilege, so a second scan of the same token is rejected
// by the status graph.
type HandoffService struct {
	qr      *qrtoken.Service
	repairs *RepairService
}

// NewHandoffService constructs the service.
func NewHandoffService(qr *qrtoken.Service, repairs *RepairService) *HandoffService {
	return &HandoffService{qr: qr, repairs: repairs}
}

// VerifyScan decodes a scanned token and loads the matching repair with its
// timeline. Read-only; used to show the item before confirming hand-off.
func (s *HandoffService) VerifyScan(ctx context.Context, tokenOrURL string) (*domain.QRData, *domain.Repair, []domain.TimelineEvent, error) {
	data, err := s.qr.Verify(tokenOrURL)
	if err != nil {
		return nil, nil, nil, err
	}
	repair, timeline, err := s.repairs.GetRepair(ctx, data.RepairID)
	if err != nil {
		return nil, nil, nil, err
	}
	return data, repair, timeline, nil
}

// CompleteHandoff verifies the scanned token and, when the repair is waiting
// for pickup, transitions it to completed.
func (s *HandoffService) CompleteHandoff(ctx context.Context, tokenOrURL, actorID string) (*domain.Repair, error) {
	data, err := s.qr.Verify(tokenOrURL)
	if err != nil {
		return nil, err
	}
	repair, _, err := s.repairs.GetRepair(ctx, data.RepairID)
	if err != nil {
		return nil, err
	}
	if repair.Status != domain.StatusReadyForPickup {
		return nil, apperrors.NewInvalidTransition(string(repair.Status), string(domain.StatusCompleted))
	}

	updated, err := s.repairs.Transition(ctx, repair.ID, domain.StatusCompleted, actorID, "hand-off via QR scan")
	if err != nil {
		return nil, err
	}

	s.repairs.publishEvent(ctx, events.Event{
		Type:     events.EventHandoffCompleted,
		RepairID: updated.ID,
		ActorID:  actorID,
		Payload: events.HandoffCompletedPayload{
			QRType:     data.Type,
			CustomerID: data.CustomerID,
		},
	})
	return updated, nil
}
