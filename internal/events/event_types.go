package events

import (
	"time"

	"github.com/spec-kit/repair-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRepairCreated       EventType = "repair_created"
	EventRepairStatusChanged EventType = "repair_status_changed"
	EventRepairAssigned      EventType = "repair_assigned"
	EventHandoffCompleted    EventType = "handoff_completed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RepairID  string      `json:"repair_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// RepairCreatedPayload payload.
type RepairCreatedPayload struct {
	ShopID       string `json:"shop_id"`
	CustomerID   string `json:"customer_id"`
	ProductType  string `json:"product_type"`
	ProductBrand string `json:"product_brand,omitempty"`
}

// RepairStatusChangedPayload payload. Intents carry what should be sent, not
// how; delivery is a subscriber concern.
type RepairStatusChangedPayload struct {
	OldStatus domain.RepairStatus         `json:"old_status"`
	NewStatus domain.RepairStatus         `json:"new_status"`
	Notes     string                      `json:"notes,omitempty"`
	Intents   []domain.NotificationIntent `json:"intents,omitempty"`
}

// RepairAssignedPayload payload.
type RepairAssignedPayload struct {
	TechnicianID string `json:"technician_id"`
}

// HandoffCompletedPayload payload.
type HandoffCompletedPayload struct {
	QRType     domain.QRType `json:"qr_type"`
	CustomerID string        `json:"customer_id,omitempty"`
}
