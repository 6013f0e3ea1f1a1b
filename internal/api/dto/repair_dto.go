package dto

import (
	"time"

	"github.com/spec-kit/repair-service/internal/domain"
)

// CreateRepairRequest payload.
type CreateRepairRequest struct {
	ShopID        string   `json:"shop_id"`
	CustomerID    string   `json:"customer_id"`
	CustomerName  string   `json:"customer_name"`
	CustomerPhone string   `json:"customer_phone"`
	ProductType   string   `json:"product_type"`
	ProductBrand  string   `json:"product_brand"`
	ProductModel  string   `json:"product_model"`
	SerialNumber  string   `json:"serial_number"`
	Description   string   `json:"description"`
	EstimatedCost *float64 `json:"estimated_cost"`
}

// TransitionRequest payload for status changes.
type TransitionRequest struct {
	Status domain.RepairStatus `json:"status"`
	Notes  string              `json:"notes"`
}

// AssignRequest payload.
type AssignRequest struct {
	TechnicianID string `json:"technician_id"`
}

// RepairSummary response.
type RepairSummary struct {
	ID                 string              `json:"id"`
	ExternalKey        string              `json:"external_key"`
	ShopID             string              `json:"shop_id"`
	CustomerID         string              `json:"customer_id"`
	CustomerName       string              `json:"customer_name"`
	ProductType        string              `json:"product_type"`
	ProductBrand       string              `json:"product_brand"`
	Status             domain.RepairStatus `json:"status"`
	AssignedTechnician *string             `json:"assigned_technician"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// TimelineEventResponse represents one timeline step.
type TimelineEventResponse struct {
	Step      string    `json:"step"`
	Date      time.Time `json:"date"`
	Completed bool      `json:"completed"`
	User      string    `json:"user"`
}

// RepairDetailResponse provides full repair info.
type RepairDetailResponse struct {
	RepairSummary
	CustomerPhone string                  `json:"customer_phone"`
	ProductModel  string                  `json:"product_model"`
	SerialNumber  string                  `json:"serial_number"`
	Description   string                  `json:"description"`
	EstimatedCost *float64                `json:"estimated_cost"`
	FinalCost     *float64                `json:"final_cost"`
	Timeline      []TimelineEventResponse `json:"timeline"`
	NextStatuses  []domain.RepairStatus   `json:"next_statuses"`
}

// AuditEntryResponse represents one status update record.
type AuditEntryResponse struct {
	ID        string              `json:"id"`
	RepairID  string              `json:"repair_id"`
	Action    string              `json:"action"`
	OldStatus domain.RepairStatus `json:"old_status"`
	NewStatus domain.RepairStatus `json:"new_status"`
	UpdatedBy string              `json:"updated_by"`
	Notes     string              `json:"notes,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}
