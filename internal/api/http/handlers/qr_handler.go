package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/repair-service/internal/api/dto"
	"github.com/spec-kit/repair-service/internal/auth"
	"github.com/spec-kit/repair-service/internal/domain"
	"github.com/spec-kit/repair-service/internal/qrtoken"
	"github.com/spec-kit/repair-service/internal/service"
	apperrors "github.com/spec-kit/repair-service/pkg/util"
)

// QRHandler manages QR token issuance and scan verification.
type QRHandler struct {
	qr      *qrtoken.Service
	repairs *service.RepairService
	handoff *service.HandoffService
}

// NewQRHandler constructs handler.
func NewQRHandler(qr *qrtoken.Service, repairs *service.RepairService, handoff *service.HandoffService) *QRHandler {
	return &QRHandler{qr: qr, repairs: repairs, handoff: handoff}
}

// Generate POST /qr/generate.
func (h *QRHandler) Generate(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.GenerateQRRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.RepairID == "" || !req.Type.IsValid() {
		return apperrors.NewValidationError("repair_id and type required", nil)
	}

	repair, _, err := h.repairs.GetRepair(c.UserContext(), req.RepairID)
	if err != nil {
		return err
	}

	payload := domain.QRData{
		RepairID: repair.ID,
		Type:     req.Type,
		ShopID:   repair.ShopID,
	}
	switch req.Type {
	case domain.QRTypeProduct:
		payload.ProductType = repair.ProductType
		payload.ProductBrand = repair.ProductBrand
		payload.ProductModel = repair.ProductModel
		payload.SerialNumber = repair.SerialNumber
	case domain.QRTypeCustomer:
		payload.CustomerID = repair.CustomerID
		payload.CustomerName = repair.CustomerName
	}

	token, url, err := h.qr.Issue(payload)
	if err != nil {
		return err
	}
	verified, err := h.qr.Verify(token)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.QRTokenResponse{
		Token:     token,
		URL:       url,
		Type:      req.Type,
		ExpiresAt: verified.ExpiresAt,
	}})
}

// VerifyScan POST /qr/verify.
func (h *QRHandler) VerifyScan(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.ScanRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	data, repair, timeline, err := h.handoff.VerifyScan(c.UserContext(), req.Data)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ScanResponse{
		Payload: data,
		Repair:  RepairDetail(repair, timeline),
	}})
}

// CompleteHandoff POST /qr/handoff.
func (h *QRHandler) CompleteHandoff(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.ScanRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	repair, err := h.handoff.CompleteHandoff(c.UserContext(), req.Data, principal.Staff.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": repairSummary(repair)})
}
