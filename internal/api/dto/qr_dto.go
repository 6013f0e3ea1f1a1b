package dto

import "github.com/spec-kit/repair-service/internal/domain"

// GenerateQRRequest payload.
type GenerateQRRequest struct {
	RepairID string        `json:"repair_id"`
	Type     domain.QRType `json:"type"`
}

// QRTokenResponse carries the issued token and its scannable URL.
type QRTokenResponse struct {
	Token     string        `json:"token"`
	URL       string        `json:"url"`
	Type      domain.QRType `json:"type"`
	ExpiresAt int64         `json:"expires_at"`
}

// ScanRequest payload: a raw token or a full scan URL.
type ScanRequest struct {
	Data string `json:"data"`
}

// ScanResponse returns the decoded payload plus repair state.
type ScanResponse struct {
	Payload *domain.QRData       `json:"payload"`
	Repair  RepairDetailResponse `json:"repair"`
}
