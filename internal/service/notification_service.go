package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/repair-service/internal/config"
	"github.com/spec-kit/repair-service/internal/domain"
	"github.com/spec-kit/repair-service/internal/events"
)

// NotificationService consumes repair lifecycle events and forwards the
// derived notification intents to delivery stubs. Actual SMS/email delivery
// lives outside this service.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventRepairCreated, n.handleRepairCreated)
	n.dispatcher.Subscribe(events.EventRepairStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventHandoffCompleted, n.handleHandoffCompleted)
}

func (n *NotificationService) handleRepairCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("RepairCreated", zap.String("repair_id", event.RepairID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.RepairStatusChangedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("RepairStatusChanged",
		zap.String("repair_id", event.RepairID),
		zap.String("old_status", string(payload.OldStatus)),
		zap.String("new_status", string(payload.NewStatus)))
	for _, intent := range payload.Intents {
		n.sendStub(event.RepairID, intent)
	}
	return nil
}

func (n *NotificationService) handleHandoffCompleted(ctx context.Context, event events.Event) error {
	n.logger.Info("HandoffCompleted", zap.String("repair_id", event.RepairID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) sendStub(repairID string, intent domain.NotificationIntent) {
	switch intent.Channel {
	case domain.ChannelSMS:
		if n.cfg.SMSFrom == "" {
			return
		}
		n.logger.Debug("sendSMSStub",
			zap.String("from", n.cfg.SMSFrom),
			zap.String("repair_id", repairID),
			zap.String("audience", string(intent.Audience)),
			zap.String("template", intent.Template))
	case domain.ChannelEmail:
		if n.cfg.EmailFrom == "" {
			return
		}
		n.logger.Debug("sendEmailStub",
			zap.String("from", n.cfg.EmailFrom),
			zap.String("repair_id", repairID),
			zap.String("audience", string(intent.Audience)),
			zap.String("template", intent.Template))
	}
}
